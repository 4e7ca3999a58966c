package wishlist

import (
	"context"
	"errors"
	"strings"

	"storefront-api/internal/domain"
	"storefront-api/internal/pricing"
)

type Service struct {
	repo     wishlistRepo
	products productRepo
}

type wishlistRepo interface {
	GetBySession(ctx context.Context, sessionID string) (*domain.Wishlist, error)
	GetByUser(ctx context.Context, userID string) (*domain.Wishlist, error)
	CreateForSession(ctx context.Context, sessionID string) (*domain.Wishlist, error)
	AddItem(ctx context.Context, wishlistID string, item domain.WishlistItem) (bool, error)
	RemoveItem(ctx context.Context, wishlistID, productID, variantKey string) error
	Clear(ctx context.Context, wishlistID string) error
	PromoteToUser(ctx context.Context, wishlistID, userID string) error
	MergeInto(ctx context.Context, srcID, dstID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo wishlistRepo, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

// Get returns the session's wishlist, creating an empty one on first use.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	return s.getOrCreate(ctx, sessionID)
}

// Toggle adds the (product, variant selection) pair when absent and removes
// it when present. It reports whether the item is present afterwards.
func (s *Service) Toggle(ctx context.Context, sessionID, productID string, variantItemIDs []string) (*domain.Wishlist, bool, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, false, domain.Validation("product_id_required", "productId is required")
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.NotFoundError("product_not_found", "product does not exist")
		}
		return nil, false, err
	}

	wl, err := s.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	normalized := pricing.Normalize(variantItemIDs)
	item := domain.WishlistItem{
		ProductID:      productID,
		VariantItemIDs: normalized,
		VariantKey:     pricing.CombinationKey(normalized),
	}
	inserted, err := s.repo.AddItem(ctx, wl.ID, item)
	if err != nil {
		return nil, false, err
	}
	if !inserted {
		if err := s.repo.RemoveItem(ctx, wl.ID, item.ProductID, item.VariantKey); err != nil {
			return nil, false, err
		}
	}

	fresh, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return fresh, inserted, nil
}

// Clear empties the session wishlist; clearing a non-existent one is a no-op.
func (s *Service) Clear(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	wl, err := s.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Clear(ctx, wl.ID); err != nil {
		return nil, err
	}
	return s.repo.GetBySession(ctx, sessionID)
}

// MergeOnLogin folds the session wishlist into the shopper's one. When the
// shopper has no wishlist yet the session document is promoted wholesale;
// otherwise items are unioned by identity with the user's entries winning,
// then the session document is deleted. Both shapes are idempotent, so a
// crash mid-merge can only repeat work, never lose items.
func (s *Service) MergeOnLogin(ctx context.Context, sessionID, userID string) error {
	sessionWL, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	userWL, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.repo.PromoteToUser(ctx, sessionWL.ID, userID)
		}
		return err
	}

	return s.repo.MergeInto(ctx, sessionWL.ID, userWL.ID)
}

func (s *Service) getOrCreate(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	wl, err := s.repo.GetBySession(ctx, sessionID)
	if err == nil {
		return wl, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.repo.CreateForSession(ctx, sessionID)
}
