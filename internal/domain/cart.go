package domain

import (
	"strings"
	"time"
)

const (
	InstallationNone  = "none"
	InstallationStore = "store"
	InstallationHome  = "home"
)

// CartLine is one merged (product, variant selection) entry. VariantItemIDs
// are stored normalized (deduplicated, sorted) and VariantKey is their
// canonical join, so line identity is stable regardless of insertion order.
type CartLine struct {
	ID                        string                 `json:"id"`
	CartID                    string                 `json:"cartId"`
	ProductID                 string                 `json:"productId"`
	VariantItemIDs            []string               `json:"selectedVariantItemIds"`
	VariantKey                string                 `json:"-"`
	Quantity                  int                    `json:"quantity"`
	UnitPriceCents            int64                  `json:"unitPriceCents"`
	TotalCents                int64                  `json:"totalCents"`
	InstallationOption        string                 `json:"installationOption"`
	InstallationLocationID    *string                `json:"installationLocationId,omitempty"`
	InstallationLocationDelta int64                  `json:"installationLocationDeltaCents"`
	InstallationAddOnCents    int64                  `json:"installationAddOnCents"`
	Snapshot                  map[string]interface{} `json:"snapshot,omitempty"`
	CreatedAt                 time.Time              `json:"createdAt"`
	UpdatedAt                 time.Time              `json:"updatedAt"`
}

// BillingDetails is the shipping+billing snapshot attached to a cart and
// copied onto orders at checkout.
type BillingDetails struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode,omitempty"`
}

// MissingFields lists the required billing fields that are empty. Checkout
// and the cart's billing endpoint share this rule, so a snapshot the cart
// accepted is never rejected later at checkout.
func (b *BillingDetails) MissingFields() []string {
	if b == nil {
		return []string{"firstName", "lastName", "email", "address", "city", "country"}
	}
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	require("firstName", b.FirstName)
	require("lastName", b.LastName)
	require("email", b.Email)
	require("address", b.Address)
	require("city", b.City)
	require("country", b.Country)
	return missing
}

// Cart is one-to-one with a session. SubtotalCents and TotalItems are derived
// from Lines after every mutation, never maintained incrementally.
type Cart struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"sessionId"`
	UserID        *string         `json:"userId,omitempty"`
	Lines         []CartLine      `json:"lines"`
	Billing       *BillingDetails `json:"billingDetails,omitempty"`
	SubtotalCents int64           `json:"subtotalCents"`
	TotalItems    int             `json:"totalItems"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// FindLine returns the line matching the identity key, or nil.
func (c *Cart) FindLine(productID, variantKey string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].VariantKey == variantKey {
			return &c.Lines[i]
		}
	}
	return nil
}
