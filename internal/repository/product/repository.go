package product

import (
	"context"

	"storefront-api/internal/domain"
)

type ListFilter struct {
	CategoryID string
	BrandID    string
}

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)

	GetStock(ctx context.Context, productID, combinationKey string) (int, error)
	SetStock(ctx context.Context, productID, combinationKey string, quantity int) error
	// DecrementStock conditionally subtracts quantity; it fails with
	// domain.ErrNotFound when no row holds enough stock, leaving the row
	// untouched.
	DecrementStock(ctx context.Context, productID, combinationKey string, quantity int) error

	ListInstallationLocations(ctx context.Context) ([]domain.InstallationLocation, error)
	GetInstallationLocation(ctx context.Context, id string) (*domain.InstallationLocation, error)
	UpsertInstallationLocation(ctx context.Context, loc domain.InstallationLocation) error
}
