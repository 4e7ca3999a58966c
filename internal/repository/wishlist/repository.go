package wishlist

import (
	"context"

	"storefront-api/internal/domain"
)

type Repository interface {
	GetBySession(ctx context.Context, sessionID string) (*domain.Wishlist, error)
	GetByUser(ctx context.Context, userID string) (*domain.Wishlist, error)
	CreateForSession(ctx context.Context, sessionID string) (*domain.Wishlist, error)
	// AddItem reports whether the item was actually inserted; false means it
	// was already present (identity conflict ignored).
	AddItem(ctx context.Context, wishlistID string, item domain.WishlistItem) (bool, error)
	// RemoveItem is idempotent.
	RemoveItem(ctx context.Context, wishlistID, productID, variantKey string) error
	Clear(ctx context.Context, wishlistID string) error
	// PromoteToUser converts a session-owned wishlist into a user-owned one.
	PromoteToUser(ctx context.Context, wishlistID, userID string) error
	// MergeInto copies every item of src into dst, skipping identities dst
	// already holds, then deletes src. Runs in one transaction.
	MergeInto(ctx context.Context, srcID, dstID string) error
}
