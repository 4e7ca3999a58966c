package cart

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-api/internal/domain"
	"storefront-api/internal/migrate"
)

func TestPostgres_UpsertLineMergesQuantity(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	seedSession(ctx, t, pool, "sess-1")
	productID := seedProduct(ctx, t, pool, "oak-shelf")

	repo := NewPostgres(pool)
	cart, err := repo.Create(ctx, "sess-1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	line := domain.CartLine{
		ProductID:      productID,
		VariantItemIDs: []string{"a", "b"},
		VariantKey:     "a|b",
		Quantity:       2,
		UnitPriceCents: 1000,
	}
	if err := repo.UpsertLine(ctx, cart.ID, line); err != nil {
		t.Fatalf("UpsertLine: %v", err)
	}

	// Same identity again, with a refreshed price: quantities merge into one
	// line and the stored price follows the latest computation.
	line.Quantity = 3
	line.UnitPriceCents = 1100
	if err := repo.UpsertLine(ctx, cart.ID, line); err != nil {
		t.Fatalf("UpsertLine again: %v", err)
	}

	got, err := repo.GetBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(got.Lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(got.Lines))
	}
	merged := got.Lines[0]
	if merged.Quantity != 5 || merged.UnitPriceCents != 1100 || merged.TotalCents != 5500 {
		t.Fatalf("unexpected merged line: %+v", merged)
	}
	if got.SubtotalCents != 5500 || got.TotalItems != 5 {
		t.Fatalf("derived totals not refreshed: subtotal=%d items=%d", got.SubtotalCents, got.TotalItems)
	}
}

func TestPostgres_SetLineQuantityMissingLine(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	seedSession(ctx, t, pool, "sess-1")

	repo := NewPostgres(pool)
	cart, err := repo.Create(ctx, "sess-1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	productID := seedProduct(ctx, t, pool, "oak-shelf")

	err = repo.SetLineQuantity(ctx, cart.ID, productID, "ghost", 2, 1000)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing line, got %v", err)
	}
}

func TestPostgres_DeleteLineIdempotentAndTotals(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	seedSession(ctx, t, pool, "sess-1")
	productID := seedProduct(ctx, t, pool, "oak-shelf")

	repo := NewPostgres(pool)
	cart, err := repo.Create(ctx, "sess-1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, key := range []string{"a", "b"} {
		if err := repo.UpsertLine(ctx, cart.ID, domain.CartLine{
			ProductID:      productID,
			VariantItemIDs: []string{key},
			VariantKey:     key,
			Quantity:       1,
			UnitPriceCents: 1000,
		}); err != nil {
			t.Fatalf("UpsertLine %s: %v", key, err)
		}
	}

	if err := repo.DeleteLine(ctx, cart.ID, productID, "a"); err != nil {
		t.Fatalf("DeleteLine: %v", err)
	}
	if err := repo.DeleteLine(ctx, cart.ID, productID, "a"); err != nil {
		t.Fatalf("DeleteLine must be idempotent: %v", err)
	}

	got, err := repo.GetBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].VariantKey != "b" {
		t.Fatalf("unexpected remaining lines: %+v", got.Lines)
	}
	if got.SubtotalCents != 1000 || got.TotalItems != 1 {
		t.Fatalf("totals not refreshed after delete: subtotal=%d items=%d", got.SubtotalCents, got.TotalItems)
	}
}

func TestPostgres_BillingRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	seedSession(ctx, t, pool, "sess-1")

	repo := NewPostgres(pool)
	cart, err := repo.Create(ctx, "sess-1", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	billing := &domain.BillingDetails{
		FirstName: "Jo", LastName: "Shopper", Email: "jo@example.com",
		Address: "1 Main St", City: "Springfield", Country: "US",
	}
	if err := repo.SetBilling(ctx, cart.ID, billing); err != nil {
		t.Fatalf("SetBilling: %v", err)
	}

	got, err := repo.GetBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if got.Billing == nil || got.Billing.Email != "jo@example.com" || got.Billing.City != "Springfield" {
		t.Fatalf("billing not stored: %+v", got.Billing)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE cart_lines, carts, wishlist_items, wishlists, orders, product_stock, products, installation_locations, sessions, shoppers RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func seedSession(ctx context.Context, t *testing.T, pool *pgxpool.Pool, id string) {
	t.Helper()
	if _, err := pool.Exec(ctx, `INSERT INTO sessions (id, expires_at) VALUES ($1, now() + interval '30 days')`, id); err != nil {
		t.Fatalf("insert session: %v", err)
	}
}

func seedProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, slug string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO products (slug, name, price_cents, currency) VALUES ($1, $1, 10000, 'EUR')
ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text`, slug).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}
