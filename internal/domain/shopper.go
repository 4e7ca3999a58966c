package domain

import "time"

// Shopper is a registered storefront user. Logging in attaches the shopper id
// to the current session and merges the session wishlist into the user one.
type Shopper struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
