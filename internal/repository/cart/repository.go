package cart

import (
	"context"

	"storefront-api/internal/domain"
)

// Repository persists carts one-to-one with sessions. Line mutations are
// atomic per line identity (cart, product, variant key) rather than
// whole-cart overwrites, so concurrent adds for the same shopper cannot lose
// each other. Every mutator recomputes the derived subtotal and item count
// from the authoritative line list inside the same transaction.
type Repository interface {
	Create(ctx context.Context, sessionID string, userID *string) (*domain.Cart, error)
	GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error)
	// UpsertLine inserts the line or, when the identity already exists, adds
	// the quantity and refreshes price, installation fields and snapshot.
	UpsertLine(ctx context.Context, cartID string, line domain.CartLine) error
	// SetLineQuantity replaces the quantity and refreshed unit price of an
	// existing line. Missing line is domain.ErrNotFound.
	SetLineQuantity(ctx context.Context, cartID, productID, variantKey string, quantity int, unitPriceCents int64) error
	// DeleteLine is idempotent: deleting an absent line is a no-op.
	DeleteLine(ctx context.Context, cartID, productID, variantKey string) error
	ClearLines(ctx context.Context, cartID string) error
	SetBilling(ctx context.Context, cartID string, billing *domain.BillingDetails) error
	AttachUser(ctx context.Context, sessionID, userID string) error
}
