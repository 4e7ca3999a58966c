package shopper

import (
	"context"

	"storefront-api/internal/domain"
)

type Repository interface {
	// Create fails with domain.ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, s domain.Shopper) (*domain.Shopper, error)
	GetByEmail(ctx context.Context, email string) (*domain.Shopper, error)
	GetByID(ctx context.Context, id string) (*domain.Shopper, error)
}
