package cart

import (
	"context"
	"errors"
	"testing"

	"storefront-api/internal/domain"
)

// stubCartRepo keeps carts in memory with the same per-line merge semantics
// the postgres upsert provides.
type stubCartRepo struct {
	carts      map[string]*domain.Cart // by session id
	nextID     int
	upsertErr  error
	billingErr error
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: map[string]*domain.Cart{}}
}

func (s *stubCartRepo) Create(_ context.Context, sessionID string, userID *string) (*domain.Cart, error) {
	if cart, ok := s.carts[sessionID]; ok {
		return cart, nil
	}
	s.nextID++
	cart := &domain.Cart{ID: "cart-" + sessionID, SessionID: sessionID, UserID: userID, Lines: []domain.CartLine{}}
	s.carts[sessionID] = cart
	return cart, nil
}

func (s *stubCartRepo) GetBySession(_ context.Context, sessionID string) (*domain.Cart, error) {
	cart, ok := s.carts[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.refreshTotals(cart)
	return cart, nil
}

func (s *stubCartRepo) UpsertLine(_ context.Context, cartID string, line domain.CartLine) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	cart := s.byID(cartID)
	if existing := cart.FindLine(line.ProductID, line.VariantKey); existing != nil {
		existing.Quantity += line.Quantity
		existing.UnitPriceCents = line.UnitPriceCents
		existing.TotalCents = int64(existing.Quantity) * line.UnitPriceCents
		existing.InstallationOption = line.InstallationOption
		existing.InstallationLocationID = line.InstallationLocationID
		existing.InstallationLocationDelta = line.InstallationLocationDelta
		existing.InstallationAddOnCents = line.InstallationAddOnCents
		return nil
	}
	line.CartID = cartID
	line.TotalCents = int64(line.Quantity) * line.UnitPriceCents
	cart.Lines = append(cart.Lines, line)
	return nil
}

func (s *stubCartRepo) SetLineQuantity(_ context.Context, cartID, productID, variantKey string, quantity int, unitPriceCents int64) error {
	cart := s.byID(cartID)
	line := cart.FindLine(productID, variantKey)
	if line == nil {
		return domain.ErrNotFound
	}
	line.Quantity = quantity
	line.UnitPriceCents = unitPriceCents
	line.TotalCents = int64(quantity) * unitPriceCents
	return nil
}

func (s *stubCartRepo) DeleteLine(_ context.Context, cartID, productID, variantKey string) error {
	cart := s.byID(cartID)
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID && cart.Lines[i].VariantKey == variantKey {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *stubCartRepo) ClearLines(_ context.Context, cartID string) error {
	s.byID(cartID).Lines = []domain.CartLine{}
	return nil
}

func (s *stubCartRepo) SetBilling(_ context.Context, cartID string, billing *domain.BillingDetails) error {
	if s.billingErr != nil {
		return s.billingErr
	}
	s.byID(cartID).Billing = billing
	return nil
}

func (s *stubCartRepo) AttachUser(_ context.Context, sessionID, userID string) error {
	if cart, ok := s.carts[sessionID]; ok {
		cart.UserID = &userID
	}
	return nil
}

func (s *stubCartRepo) byID(cartID string) *domain.Cart {
	for _, cart := range s.carts {
		if cart.ID == cartID {
			return cart
		}
	}
	return &domain.Cart{}
}

func (s *stubCartRepo) refreshTotals(cart *domain.Cart) {
	var subtotal int64
	items := 0
	for _, line := range cart.Lines {
		subtotal += line.TotalCents
		items += line.Quantity
	}
	cart.SubtotalCents = subtotal
	cart.TotalItems = items
}

type stubProductRepo struct {
	products  map[string]*domain.Product
	locations map[string]*domain.InstallationLocation
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (s *stubProductRepo) GetInstallationLocation(_ context.Context, id string) (*domain.InstallationLocation, error) {
	loc, ok := s.locations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return loc, nil
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func testProduct() *domain.Product {
	return &domain.Product{
		ID:           "p1",
		Slug:         "widget",
		Name:         "Widget",
		PriceCents:   10000,
		Currency:     "USD",
		OfferPercent: floatPtr(10),
		Images:       []string{"https://img/widget.jpg"},
		VariantTypes: []domain.VariantType{
			{ID: "vt-color", Name: "color", Items: []domain.VariantItem{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}}},
		},
		Installation: &domain.Installation{Available: true, StorePriceCents: 1000, HomePriceCents: 2000},
	}
}

func newTestService() (*Service, *stubCartRepo) {
	repo := newStubCartRepo()
	products := &stubProductRepo{
		products:  map[string]*domain.Product{"p1": testProduct()},
		locations: map[string]*domain.InstallationLocation{"loc-1": {ID: "loc-1", Name: "North", DeltaCents: 500}},
	}
	return New(repo, products), repo
}

func TestAddItemValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", Quantity: 0})
	var app *domain.AppError
	if !errors.As(err, &app) || app.Code != "invalid_quantity" {
		t.Fatalf("expected invalid_quantity, got %v", err)
	}

	_, err = svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", Quantity: -2})
	if !errors.As(err, &app) || app.Code != "invalid_quantity" {
		t.Fatalf("expected invalid_quantity for negative, got %v", err)
	}

	_, err = svc.AddItem(ctx, "s1", AddItemInput{ProductID: "ghost", Quantity: 1})
	if !errors.As(err, &app) || app.Code != "product_not_found" {
		t.Fatalf("expected product_not_found, got %v", err)
	}
}

func TestAddItemMergesSameIdentity(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", VariantItemIDs: []string{"a"}, Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", VariantItemIDs: []string{"a"}, Quantity: 3})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", cart.Lines[0].Quantity)
	}
}

func TestAddItemVariantOrderIndependence(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", VariantItemIDs: []string{"b", "a"}, Quantity: 1}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", VariantItemIDs: []string{"a", "b", "a"}, Quantity: 1})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", cart.Lines[0].Quantity)
	}
	if cart.Lines[0].VariantKey != "a|b" {
		t.Fatalf("variant key = %q, want a|b", cart.Lines[0].VariantKey)
	}
}

func TestAddItemComputesServerPrice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", VariantItemIDs: []string{"a"}, Quantity: 2})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	// 10000 with 10% offer.
	if cart.Lines[0].UnitPriceCents != 9000 {
		t.Fatalf("unit price = %d, want 9000", cart.Lines[0].UnitPriceCents)
	}
	if cart.SubtotalCents != 18000 || cart.TotalItems != 2 {
		t.Fatalf("subtotal=%d items=%d, want 18000/2", cart.SubtotalCents, cart.TotalItems)
	}
}

func TestAddItemHomeInstallation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "s1", AddItemInput{
		ProductID:              "p1",
		VariantItemIDs:         []string{"a"},
		Quantity:               2,
		InstallationOption:     domain.InstallationHome,
		InstallationLocationID: strPtr("loc-1"),
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	line := cart.Lines[0]
	// 9000 discounted + 2000 home + 500 location delta.
	if line.UnitPriceCents != 11500 {
		t.Fatalf("unit price = %d, want 11500", line.UnitPriceCents)
	}
	if line.InstallationAddOnCents != 2500 {
		t.Fatalf("add-on = %d, want 2500", line.InstallationAddOnCents)
	}
	if cart.SubtotalCents != 23000 {
		t.Fatalf("subtotal = %d, want 23000", cart.SubtotalCents)
	}
}

func TestAddItemRejectsLocationWithoutHome(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.AddItem(context.Background(), "s1", AddItemInput{
		ProductID:              "p1",
		Quantity:               1,
		InstallationOption:     domain.InstallationStore,
		InstallationLocationID: strPtr("loc-1"),
	})
	var app *domain.AppError
	if !errors.As(err, &app) || app.Code != "invalid_installation" {
		t.Fatalf("expected invalid_installation, got %v", err)
	}
}

func TestAddItemRejectsUnknownVariantItem(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.AddItem(context.Background(), "s1", AddItemInput{
		ProductID:      "p1",
		VariantItemIDs: []string{"nope"},
		Quantity:       1,
	})
	var app *domain.AppError
	if !errors.As(err, &app) || app.Code != "unknown_variant_item" {
		t.Fatalf("expected unknown_variant_item, got %v", err)
	}
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", VariantItemIDs: []string{"a"}, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	_, err := svc.UpdateQuantity(ctx, "s1", "p1", []string{"b"}, 3)
	var app *domain.AppError
	if !errors.As(err, &app) || app.Code != "cart_line_not_found" {
		t.Fatalf("expected cart_line_not_found, got %v", err)
	}
}

func TestUpdateQuantitySetsNotAdds(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", VariantItemIDs: []string{"a"}, Quantity: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := svc.UpdateQuantity(ctx, "s1", "p1", []string{"a"}, 7)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if cart.Lines[0].Quantity != 7 {
		t.Fatalf("quantity = %d, want 7", cart.Lines[0].Quantity)
	}
	if cart.TotalItems != 7 {
		t.Fatalf("total items = %d, want 7", cart.TotalItems)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", VariantItemIDs: []string{"a"}, Quantity: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := svc.UpdateQuantity(ctx, "s1", "p1", []string{"a"}, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Lines))
	}
}

func TestRemoveItemIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cart, err := svc.RemoveItem(ctx, "s1", "p1", []string{"a"})
	if err != nil {
		t.Fatalf("RemoveItem on empty cart: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected empty cart")
	}

	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", VariantItemIDs: []string{"a"}, Quantity: 1}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := svc.RemoveItem(ctx, "s1", "p1", []string{"a"}); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, err := svc.RemoveItem(ctx, "s1", "p1", []string{"a"}); err != nil {
		t.Fatalf("second RemoveItem should be a no-op, got %v", err)
	}
}

func TestClear(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "s1", AddItemInput{ProductID: "p1", Quantity: 3}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cart, err := svc.Clear(ctx, "s1")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(cart.Lines) != 0 || cart.SubtotalCents != 0 || cart.TotalItems != 0 {
		t.Fatalf("cart not cleared: %+v", cart)
	}
}

func TestBillingValidation(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.SetBilling(context.Background(), "s1", domain.BillingDetails{FirstName: "Jo"})
	var app *domain.AppError
	if !errors.As(err, &app) || app.Code != "invalid_billing_details" {
		t.Fatalf("expected invalid_billing_details, got %v", err)
	}
	if app.Details == nil {
		t.Fatalf("expected missingFields details")
	}
}

func TestBillingRequiresLastName(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.SetBilling(context.Background(), "s1", domain.BillingDetails{
		FirstName: "Jo", Email: "jo@example.com",
		Address: "1 Main St", City: "Springfield", Country: "US",
	})
	var app *domain.AppError
	if !errors.As(err, &app) || app.Code != "invalid_billing_details" {
		t.Fatalf("expected invalid_billing_details, got %v", err)
	}
	missing, _ := app.Details["missingFields"].([]string)
	if len(missing) != 1 || missing[0] != "lastName" {
		t.Fatalf("unexpected missingFields: %v", app.Details["missingFields"])
	}
}

func TestBillingRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	details := domain.BillingDetails{
		FirstName: "Jo", LastName: "Shopper", Email: "jo@example.com",
		Address: "1 Main St", City: "Springfield", Country: "US",
	}
	if _, err := svc.SetBilling(ctx, "s1", details); err != nil {
		t.Fatalf("SetBilling: %v", err)
	}
	got, err := svc.GetBilling(ctx, "s1")
	if err != nil {
		t.Fatalf("GetBilling: %v", err)
	}
	if got == nil || got.Email != "jo@example.com" {
		t.Fatalf("unexpected billing: %+v", got)
	}
}

func TestGetBillingWithoutCart(t *testing.T) {
	svc, _ := newTestService()
	got, err := svc.GetBilling(context.Background(), "fresh")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}
