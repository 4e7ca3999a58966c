package domain

import "time"

const (
	SessionStatusActive  = "active"
	SessionStatusRevoked = "revoked"
)

// Session is the stable identity of a shopper, anonymous until a user id is
// attached at login. It is located solely by its opaque id, which the client
// carries inside a signed cookie token.
type Session struct {
	ID           string    `json:"sessionId"`
	Status       string    `json:"status"`
	UserID       *string   `json:"userId,omitempty"`
	ClientHash   string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// Expired reports whether the backing record has outlived its sliding window.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Usable reports whether the record may still key a cart or wishlist.
func (s Session) Usable(now time.Time) bool {
	return s.Status == SessionStatusActive && !s.Expired(now)
}
