package cart

import (
	"context"
	"errors"
	"strings"

	"storefront-api/internal/domain"
	"storefront-api/internal/pricing"
)

// Service owns the per-session cart. All prices on lines are computed
// server-side through the pricing engine; client-submitted prices are never
// read, let alone trusted.
type Service struct {
	repo     cartRepo
	products productRepo
}

type cartRepo interface {
	Create(ctx context.Context, sessionID string, userID *string) (*domain.Cart, error)
	GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error)
	UpsertLine(ctx context.Context, cartID string, line domain.CartLine) error
	SetLineQuantity(ctx context.Context, cartID, productID, variantKey string, quantity int, unitPriceCents int64) error
	DeleteLine(ctx context.Context, cartID, productID, variantKey string) error
	ClearLines(ctx context.Context, cartID string) error
	SetBilling(ctx context.Context, cartID string, billing *domain.BillingDetails) error
	AttachUser(ctx context.Context, sessionID, userID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetInstallationLocation(ctx context.Context, id string) (*domain.InstallationLocation, error)
}

func New(repo cartRepo, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

// AddItemInput carries an add-to-cart request. Any unitPrice a client sends
// alongside these fields is deliberately absent here.
type AddItemInput struct {
	ProductID              string   `json:"productId"`
	VariantItemIDs         []string `json:"selectedVariantItemIds"`
	Quantity               int      `json:"quantity"`
	InstallationOption     string   `json:"installationOption"`
	InstallationLocationID *string  `json:"installationLocationId"`
}

// Get returns the session's cart, creating an empty one on first use.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	return s.getOrCreate(ctx, sessionID)
}

// AddItem merges the request into the line identified by (product,
// normalized variant selection), creating the line when absent. The unit
// price is recomputed from the catalog on every call.
func (s *Service) AddItem(ctx context.Context, sessionID string, in AddItemInput) (*domain.Cart, error) {
	if strings.TrimSpace(in.ProductID) == "" {
		return nil, domain.Validation("product_id_required", "productId is required")
	}
	if in.Quantity <= 0 {
		return nil, domain.Validation("invalid_quantity", "quantity must be a positive integer")
	}

	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundError("product_not_found", "product does not exist")
		}
		return nil, err
	}

	option := normalizeOption(in.InstallationOption)
	normalized := pricing.Normalize(in.VariantItemIDs)

	locationDelta, err := s.resolveLocationDelta(ctx, in.InstallationLocationID)
	if err != nil {
		return nil, err
	}

	priceIn := pricing.Input{
		BasePriceCents:     product.PriceCents,
		OfferPercent:       product.OfferPercent,
		VariantTypes:       product.VariantTypes,
		Modifiers:          product.Modifiers,
		Installation:       product.Installation,
		SelectedItemIDs:    normalized,
		InstallationOption: option,
		LocationID:         in.InstallationLocationID,
		LocationDeltaCents: locationDelta,
	}
	unitPrice, err := pricing.UnitPrice(priceIn)
	if err != nil {
		return nil, mapPricingError(err)
	}
	addOn, err := pricing.InstallationAddOn(priceIn)
	if err != nil {
		return nil, mapPricingError(err)
	}

	cart, err := s.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	line := domain.CartLine{
		ProductID:                 product.ID,
		VariantItemIDs:            normalized,
		VariantKey:                pricing.CombinationKey(normalized),
		Quantity:                  in.Quantity,
		UnitPriceCents:            unitPrice,
		InstallationOption:        option,
		InstallationLocationID:    in.InstallationLocationID,
		InstallationLocationDelta: locationDelta,
		InstallationAddOnCents:    addOn,
		Snapshot:                  snapshotFromProduct(*product, normalized),
	}
	if err := s.repo.UpsertLine(ctx, cart.ID, line); err != nil {
		return nil, err
	}
	return s.repo.GetBySession(ctx, sessionID)
}

// UpdateQuantity sets the quantity of an existing line; it never creates
// one. Quantity <= 0 removes the line, which is the sole deletion path via
// update. The unit price is refreshed from the catalog while touching the
// line.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, productID string, variantItemIDs []string, quantity int) (*domain.Cart, error) {
	normalized := pricing.Normalize(variantItemIDs)
	key := pricing.CombinationKey(normalized)

	cart, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundError("cart_not_found", "no cart for this session")
		}
		return nil, err
	}
	line := cart.FindLine(productID, key)
	if line == nil {
		return nil, domain.NotFoundError("cart_line_not_found", "no such line in the cart")
	}

	if quantity <= 0 {
		if err := s.repo.DeleteLine(ctx, cart.ID, productID, key); err != nil {
			return nil, err
		}
		return s.repo.GetBySession(ctx, sessionID)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundError("product_not_found", "product does not exist")
		}
		return nil, err
	}
	unitPrice, err := pricing.UnitPrice(pricing.Input{
		BasePriceCents:     product.PriceCents,
		OfferPercent:       product.OfferPercent,
		VariantTypes:       product.VariantTypes,
		Modifiers:          product.Modifiers,
		Installation:       product.Installation,
		SelectedItemIDs:    normalized,
		InstallationOption: line.InstallationOption,
		LocationID:         line.InstallationLocationID,
		LocationDeltaCents: line.InstallationLocationDelta,
	})
	if err != nil {
		return nil, mapPricingError(err)
	}

	if err := s.repo.SetLineQuantity(ctx, cart.ID, productID, key, quantity, unitPrice); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundError("cart_line_not_found", "no such line in the cart")
		}
		return nil, err
	}
	return s.repo.GetBySession(ctx, sessionID)
}

// RemoveItem deletes the line if present; removing an absent line is a
// no-op success.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string, variantItemIDs []string) (*domain.Cart, error) {
	cart, err := s.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	key := pricing.CombinationKey(pricing.Normalize(variantItemIDs))
	if err := s.repo.DeleteLine(ctx, cart.ID, productID, key); err != nil {
		return nil, err
	}
	return s.repo.GetBySession(ctx, sessionID)
}

// Clear empties the cart unconditionally.
func (s *Service) Clear(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ClearLines(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.repo.GetBySession(ctx, sessionID)
}

// SetBilling attaches the billing snapshot used at checkout. It lives on the
// cart, not the session, so it survives session touches but stays per-cart.
func (s *Service) SetBilling(ctx context.Context, sessionID string, billing domain.BillingDetails) (*domain.Cart, error) {
	if err := validateBilling(billing); err != nil {
		return nil, err
	}
	cart, err := s.getOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetBilling(ctx, cart.ID, &billing); err != nil {
		return nil, err
	}
	return s.repo.GetBySession(ctx, sessionID)
}

// GetBilling returns the stored snapshot, nil when none was set.
func (s *Service) GetBilling(ctx context.Context, sessionID string) (*domain.BillingDetails, error) {
	cart, err := s.repo.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cart.Billing, nil
}

// AttachUser binds the cart to an authenticated shopper at login.
func (s *Service) AttachUser(ctx context.Context, sessionID, userID string) error {
	return s.repo.AttachUser(ctx, sessionID, userID)
}

func (s *Service) getOrCreate(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.GetBySession(ctx, sessionID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.repo.Create(ctx, sessionID, nil)
}

func (s *Service) resolveLocationDelta(ctx context.Context, locationID *string) (int64, error) {
	if locationID == nil || strings.TrimSpace(*locationID) == "" {
		return 0, nil
	}
	loc, err := s.products.GetInstallationLocation(ctx, *locationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.NotFoundError("installation_location_not_found", "installation location does not exist")
		}
		return 0, err
	}
	return loc.DeltaCents, nil
}

func normalizeOption(option string) string {
	option = strings.ToLower(strings.TrimSpace(option))
	if option == "" {
		return domain.InstallationNone
	}
	return option
}

func mapPricingError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrUnknownVariantItem):
		return domain.Validation("unknown_variant_item", "selected variant item does not belong to this product")
	case errors.Is(err, pricing.ErrInvalidInstallation):
		return domain.Validation("invalid_installation", "installation selection is invalid for this option")
	case errors.Is(err, pricing.ErrInstallationUnavailable):
		return domain.Validation("installation_unavailable", "product does not offer installation")
	default:
		return err
	}
}

func validateBilling(b domain.BillingDetails) error {
	if missing := b.MissingFields(); len(missing) > 0 {
		return domain.Conflict("invalid_billing_details", "billing details are incomplete", map[string]interface{}{"missingFields": missing})
	}
	return nil
}

func snapshotFromProduct(p domain.Product, selected []string) map[string]interface{} {
	snap := map[string]interface{}{
		"productName": p.Name,
		"productSlug": p.Slug,
		"currency":    p.Currency,
	}
	if len(p.Images) > 0 {
		snap["image"] = p.Images[0]
	}
	if label := p.VariantLabel(selected); label != "" {
		snap["variantLabel"] = label
	}
	return snap
}
