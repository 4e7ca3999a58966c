package stock

import (
	"context"
	"errors"

	"storefront-api/internal/domain"
	"storefront-api/internal/pricing"
)

type Service struct {
	products productRepo
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetStock(ctx context.Context, productID, combinationKey string) (int, error)
	DecrementStock(ctx context.Context, productID, combinationKey string, quantity int) error
}

func New(products productRepo) *Service {
	return &Service{products: products}
}

// LineRequest is one (product, variant combination, quantity) request.
type LineRequest struct {
	ProductID      string   `json:"productId"`
	VariantItemIDs []string `json:"selectedVariantItemIds"`
	Quantity       int      `json:"quantity"`
}

// Shortfall describes one line whose requested quantity exceeds stock.
type Shortfall struct {
	ProductID      string   `json:"productId"`
	VariantItemIDs []string `json:"selectedVariantItemIds,omitempty"`
	Requested      int      `json:"requested"`
	Available      int      `json:"available"`
}

type Result struct {
	Available         bool        `json:"available"`
	InsufficientItems []Shortfall `json:"insufficientItems"`
}

// Validate checks every line against available inventory and reports all
// shortfalls in one pass, so the shopper sees everything that needs
// adjusting at once instead of fixing lines one by one.
func (s *Service) Validate(ctx context.Context, lines []LineRequest) (*Result, error) {
	result := &Result{Available: true, InsufficientItems: []Shortfall{}}

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, domain.Validation("invalid_quantity", "quantity must be a positive integer")
		}
		normalized := pricing.Normalize(line.VariantItemIDs)
		available, err := s.availableFor(ctx, line.ProductID, normalized)
		if err != nil {
			return nil, err
		}
		if line.Quantity > available {
			result.Available = false
			result.InsufficientItems = append(result.InsufficientItems, Shortfall{
				ProductID:      line.ProductID,
				VariantItemIDs: normalized,
				Requested:      line.Quantity,
				Available:      available,
			})
		}
	}
	return result, nil
}

// Commit decrements stock for confirmed lines. Each decrement is a single
// conditional update, so two concurrent confirmations cannot drive a row
// negative. The first line that cannot be satisfied aborts with a conflict.
func (s *Service) Commit(ctx context.Context, lines []LineRequest) error {
	for _, line := range lines {
		normalized := pricing.Normalize(line.VariantItemIDs)
		key := pricing.CombinationKey(normalized)
		if err := s.products.DecrementStock(ctx, line.ProductID, key, line.Quantity); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Conflict("insufficient_stock", "stock changed while confirming the order", map[string]interface{}{
					"productId":              line.ProductID,
					"selectedVariantItemIds": normalized,
				})
			}
			return err
		}
	}
	return nil
}

func (s *Service) availableFor(ctx context.Context, productID string, normalized []string) (int, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.NotFoundError("product_not_found", "product does not exist")
		}
		return 0, err
	}
	qty, err := s.products.GetStock(ctx, productID, pricing.CombinationKey(normalized))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No stock row means nothing tracked as available.
			return 0, nil
		}
		return 0, err
	}
	return qty, nil
}
