package domain

import "time"

// WishlistItem shares the cart-line identity rule but carries no quantity;
// presence is boolean.
type WishlistItem struct {
	ProductID      string    `json:"productId"`
	VariantItemIDs []string  `json:"selectedVariantItemIds"`
	VariantKey     string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Wishlist is keyed by session while anonymous and promoted (or merged) to
// user ownership at login.
type Wishlist struct {
	ID        string         `json:"id"`
	SessionID *string        `json:"sessionId,omitempty"`
	UserID    *string        `json:"userId,omitempty"`
	Items     []WishlistItem `json:"items"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Has reports whether an item with the given identity is present.
func (w *Wishlist) Has(productID, variantKey string) bool {
	for _, item := range w.Items {
		if item.ProductID == productID && item.VariantKey == variantKey {
			return true
		}
	}
	return false
}
