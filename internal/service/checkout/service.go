package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"storefront-api/internal/domain"
	"storefront-api/internal/payment"
	"storefront-api/internal/payment/installment"
	"storefront-api/internal/pricing"
	"storefront-api/internal/repository/order"
	"storefront-api/internal/service/stock"
)

// Service drives both entry points into checkout, the stored cart and the
// buy-now shortcut, through one pipeline: re-price from the catalog, check
// billing and stock, persist a pending order, then hand off to the payment
// provider. Provider outcomes come back through HandleWebhook.
type Service struct {
	carts        cartRepo
	products     productRepo
	orders       order.Repository
	stock        stockValidator
	providers    map[string]payment.Provider
	installments availabilityChecker
	logger       *log.Logger
}

type cartRepo interface {
	GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error)
	ClearLines(ctx context.Context, cartID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetInstallationLocation(ctx context.Context, id string) (*domain.InstallationLocation, error)
}

type stockValidator interface {
	Validate(ctx context.Context, lines []stock.LineRequest) (*stock.Result, error)
	Commit(ctx context.Context, lines []stock.LineRequest) error
}

type availabilityChecker interface {
	CheckAvailability(ctx context.Context, amountCents int64, currency string) (*installment.AvailabilityResult, error)
}

func New(carts cartRepo, products productRepo, orders order.Repository, stockSvc stockValidator, providers map[string]payment.Provider, installments availabilityChecker, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		carts:        carts,
		products:     products,
		orders:       orders,
		stock:        stockSvc,
		providers:    providers,
		installments: installments,
		logger:       logger,
	}
}

// BuyNowLine is a checkout line submitted directly, bypassing the stored
// cart. It carries no price; pricing is always recomputed server-side.
type BuyNowLine struct {
	ProductID              string   `json:"productId"`
	VariantItemIDs         []string `json:"selectedVariantItemIds"`
	Quantity               int      `json:"quantity"`
	InstallationOption     string   `json:"installationOption"`
	InstallationLocationID *string  `json:"installationLocationId"`
}

type BeginInput struct {
	Provider string
	// Lines switches to buy-now mode when non-empty; otherwise the stored
	// cart is checked out.
	Lines   []BuyNowLine
	Billing *domain.BillingDetails
}

type BeginResult struct {
	OrderID     string `json:"orderId"`
	RedirectURL string `json:"redirectUrl"`
}

func (s *Service) Begin(ctx context.Context, sess *domain.Session, in BeginInput) (*BeginResult, error) {
	provider, ok := s.providers[in.Provider]
	if !ok {
		return nil, domain.Validation("unknown_provider", "unsupported payment provider")
	}

	lines, billing, err := s.resolveLines(ctx, sess.ID, in)
	if err != nil {
		return nil, err
	}
	if in.Billing != nil {
		billing = in.Billing
	}
	if missing := billing.MissingFields(); len(missing) > 0 {
		return nil, domain.Conflict("billing_details_missing", "billing details are required before checkout", map[string]interface{}{
			"missingFields": missing,
		})
	}

	items, total, currency, err := s.priceLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	stockLines := stockRequests(lines)
	check, err := s.stock.Validate(ctx, stockLines)
	if err != nil {
		return nil, err
	}
	if !check.Available {
		return nil, domain.Conflict("insufficient_stock", "some items are not available in the requested quantity", map[string]interface{}{
			"insufficientItems": check.InsufficientItems,
		})
	}

	created, err := s.orders.Create(ctx, domain.Order{
		SessionID:  sess.ID,
		UserID:     sess.UserID,
		Provider:   in.Provider,
		Items:      items,
		TotalCents: total,
		Currency:   currency,
		Billing:    billing,
	})
	if err != nil {
		return nil, err
	}

	result, err := provider.CreateSession(ctx, payment.SessionRequest{
		OrderID:    created.ID,
		SessionID:  sess.ID,
		Currency:   currency,
		Items:      items,
		Billing:    billing,
		TotalCents: total,
	})
	if err != nil {
		var rejection *payment.RejectionError
		if errors.As(err, &rejection) {
			if markErr := s.orders.MarkFailed(ctx, created.ID); markErr != nil {
				s.logger.Printf("checkout: mark failed order=%s error=%v", created.ID, markErr)
			}
			return nil, domain.Validation("provider_rejected", rejection.Reason)
		}
		s.logger.Printf("checkout: provider=%s order=%s error=%v", in.Provider, created.ID, err)
		return nil, domain.Upstream("provider_error", "payment provider is unavailable", err.Error())
	}

	if err := s.orders.AttachProviderSession(ctx, created.ID, result.ProviderSessionID); err != nil {
		return nil, err
	}

	return &BeginResult{OrderID: created.ID, RedirectURL: result.RedirectURL}, nil
}

// CheckInstallmentAvailability asks the financing provider whether the
// session's current cart total qualifies, without opening a session.
func (s *Service) CheckInstallmentAvailability(ctx context.Context, sessionID string) (*installment.AvailabilityResult, error) {
	cart, err := s.carts.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Validation("cart_empty", "the cart is empty")
		}
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, domain.Validation("cart_empty", "the cart is empty")
	}
	currency := "EUR"
	if p, err := s.products.GetByID(ctx, cart.Lines[0].ProductID); err == nil {
		currency = p.Currency
	}
	result, err := s.installments.CheckAvailability(ctx, cart.SubtotalCents, currency)
	if err != nil {
		s.logger.Printf("checkout: installment availability session=%s error=%v", sessionID, err)
		return nil, domain.Upstream("provider_error", "financing provider is unavailable", err.Error())
	}
	return result, nil
}

// WebhookEvent is the normalized outcome extracted from a provider
// notification.
type WebhookEvent struct {
	Provider          string
	ProviderSessionID string
	Outcome           string // paid, cancelled, failed, completed
}

// HandleWebhook applies a provider outcome to the matching order. Status
// movement is guarded so a replayed notification is a no-op and a late
// cancellation cannot undo a payment. Stock is committed exactly once, on
// the transition into paid.
func (s *Service) HandleWebhook(ctx context.Context, ev WebhookEvent) (*domain.Order, error) {
	if ev.ProviderSessionID == "" {
		return nil, domain.Validation("invalid_webhook", "missing provider session id")
	}

	var toStatus string
	var fromStatuses []string
	switch ev.Outcome {
	case domain.OrderStatusPaid:
		toStatus, fromStatuses = domain.OrderStatusPaid, []string{domain.OrderStatusPending}
	case domain.OrderStatusCancelled:
		toStatus, fromStatuses = domain.OrderStatusCancelled, []string{domain.OrderStatusPending}
	case domain.OrderStatusFailed:
		toStatus, fromStatuses = domain.OrderStatusFailed, []string{domain.OrderStatusPending}
	case domain.OrderStatusCompleted:
		toStatus, fromStatuses = domain.OrderStatusCompleted, []string{domain.OrderStatusPaid}
	default:
		return nil, domain.Validation("invalid_webhook", "unknown payment outcome")
	}

	o, changed, err := s.orders.Transition(ctx, ev.Provider, ev.ProviderSessionID, toStatus, fromStatuses...)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFoundError("order_not_found", "no order for this provider session")
		}
		return nil, err
	}
	if !changed {
		s.logger.Printf("checkout: webhook replay provider=%s provider_session=%s status=%s", ev.Provider, ev.ProviderSessionID, o.Status)
		return o, nil
	}

	if toStatus == domain.OrderStatusPaid {
		if err := s.stock.Commit(ctx, stockRequestsFromOrder(o)); err != nil {
			// The payment is settled either way; an oversell here is an
			// operational problem, not a shopper-facing failure.
			s.logger.Printf("checkout: stock commit order=%s error=%v", o.ID, err)
		}
		s.clearCart(ctx, o.SessionID)
	}
	return o, nil
}

func (s *Service) resolveLines(ctx context.Context, sessionID string, in BeginInput) ([]BuyNowLine, *domain.BillingDetails, error) {
	if len(in.Lines) > 0 {
		for _, line := range in.Lines {
			if strings.TrimSpace(line.ProductID) == "" {
				return nil, nil, domain.Validation("product_id_required", "productId is required")
			}
			if line.Quantity <= 0 {
				return nil, nil, domain.Validation("invalid_quantity", "quantity must be a positive integer")
			}
		}
		return in.Lines, in.Billing, nil
	}

	cart, err := s.carts.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.Validation("cart_empty", "the cart is empty")
		}
		return nil, nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, nil, domain.Validation("cart_empty", "the cart is empty")
	}
	lines := make([]BuyNowLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, BuyNowLine{
			ProductID:              l.ProductID,
			VariantItemIDs:         l.VariantItemIDs,
			Quantity:               l.Quantity,
			InstallationOption:     l.InstallationOption,
			InstallationLocationID: l.InstallationLocationID,
		})
	}
	return lines, cart.Billing, nil
}

// priceLines recomputes every line from the catalog. Stored or submitted
// prices never enter this path.
func (s *Service) priceLines(ctx context.Context, lines []BuyNowLine) ([]domain.OrderItem, int64, string, error) {
	var items []domain.OrderItem
	var total int64
	currency := ""

	for _, line := range lines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, 0, "", domain.NotFoundError("product_not_found", "product does not exist")
			}
			return nil, 0, "", err
		}
		// One order, one currency. An order cannot be charged in two
		// currencies, so a mixed line set is rejected outright.
		if product.Currency != "" {
			switch {
			case currency == "":
				currency = product.Currency
			case product.Currency != currency:
				return nil, 0, "", domain.Validation("currency_mismatch", "all items in an order must share one currency")
			}
		}

		normalized := pricing.Normalize(line.VariantItemIDs)
		option := line.InstallationOption
		if option == "" {
			option = domain.InstallationNone
		}
		locationDelta, err := s.resolveLocationDelta(ctx, line.InstallationLocationID)
		if err != nil {
			return nil, 0, "", err
		}
		unitPrice, err := pricing.UnitPrice(pricing.Input{
			BasePriceCents:     product.PriceCents,
			OfferPercent:       product.OfferPercent,
			VariantTypes:       product.VariantTypes,
			Modifiers:          product.Modifiers,
			Installation:       product.Installation,
			SelectedItemIDs:    normalized,
			InstallationOption: option,
			LocationID:         line.InstallationLocationID,
			LocationDeltaCents: locationDelta,
		})
		if err != nil {
			return nil, 0, "", mapPricingError(err)
		}

		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		items = append(items, domain.OrderItem{
			ProductID:              product.ID,
			Name:                   product.Name,
			Image:                  image,
			VariantItemIDs:         normalized,
			VariantLabel:           product.VariantLabel(normalized),
			Quantity:               line.Quantity,
			UnitPriceCents:         unitPrice,
			InstallationOption:     option,
			InstallationLocationID: line.InstallationLocationID,
		})
		total += unitPrice * int64(line.Quantity)
	}
	if currency == "" {
		currency = "EUR"
	}
	return items, total, currency, nil
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

func (s *Service) clearCart(ctx context.Context, sessionID string) {
	cart, err := s.carts.GetBySession(ctx, sessionID)
	if err != nil {
		return
	}
	if err := s.carts.ClearLines(ctx, cart.ID); err != nil {
		s.logger.Printf("checkout: clear cart session=%s error=%v", sessionID, err)
	}
}

func stockRequests(lines []BuyNowLine) []stock.LineRequest {
	out := make([]stock.LineRequest, 0, len(lines))
	for _, l := range lines {
		out = append(out, stock.LineRequest{
			ProductID:      l.ProductID,
			VariantItemIDs: l.VariantItemIDs,
			Quantity:       l.Quantity,
		})
	}
	return out
}

func stockRequestsFromOrder(o *domain.Order) []stock.LineRequest {
	out := make([]stock.LineRequest, 0, len(o.Items))
	for _, item := range o.Items {
		out = append(out, stock.LineRequest{
			ProductID:      item.ProductID,
			VariantItemIDs: item.VariantItemIDs,
			Quantity:       item.Quantity,
		})
	}
	return out
}

func mapPricingError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrUnknownVariantItem):
		return domain.Validation("unknown_variant_item", "one or more selected variant items do not exist on this product")
	case errors.Is(err, pricing.ErrInvalidInstallation):
		return domain.Validation("invalid_installation", "the installation selection is not valid")
	case errors.Is(err, pricing.ErrInstallationUnavailable):
		return domain.Validation("installation_unavailable", "installation is not offered for this product")
	default:
		return err
	}
}
