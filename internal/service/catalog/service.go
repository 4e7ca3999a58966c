package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"storefront-api/internal/domain"
	"storefront-api/internal/repository/product"
)

// Service is the read side of the catalog: product listings, product detail
// and the installation locations offered at checkout.
type Service struct {
	repo product.Repository
}

func New(repo product.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, f product.ListFilter) ([]domain.Product, error) {
	return s.repo.List(ctx, f)
}

// Get accepts either a product id or a slug. Product pages link by slug
// while carts reference by id, and both land here. Ids are uuids, so
// anything else is looked up as a slug.
func (s *Service) Get(ctx context.Context, idOrSlug string) (*domain.Product, error) {
	var p *domain.Product
	var err error
	if uuid.Validate(idOrSlug) == nil {
		p, err = s.repo.GetByID(ctx, idOrSlug)
	} else {
		p, err = s.repo.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundError("product_not_found", "product does not exist")
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) ListInstallationLocations(ctx context.Context) ([]domain.InstallationLocation, error) {
	return s.repo.ListInstallationLocations(ctx)
}
