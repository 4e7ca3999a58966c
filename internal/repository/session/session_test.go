package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-api/internal/domain"
	"storefront-api/internal/migrate"
)

func TestPostgres_PutUpsertsSameID(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	first, err := repo.Put(ctx, domain.Session{
		ID:        "sess-1",
		Status:    domain.SessionStatusActive,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Healing reuses the id: the second Put must replace, not duplicate.
	later := time.Now().Add(48 * time.Hour)
	healed, err := repo.Put(ctx, domain.Session{
		ID:         "sess-1",
		Status:     domain.SessionStatusActive,
		ClientHash: "h2",
		ExpiresAt:  later,
	})
	if err != nil {
		t.Fatalf("Put again: %v", err)
	}
	if healed.ID != first.ID || healed.ClientHash != "h2" {
		t.Fatalf("unexpected healed session: %+v", healed)
	}
	if !healed.ExpiresAt.After(first.ExpiresAt) {
		t.Fatalf("expiry not replaced: %v -> %v", first.ExpiresAt, healed.ExpiresAt)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row, got %d", count)
	}
}

func TestPostgres_TouchOnlyActiveSessions(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	created, err := repo.Put(ctx, domain.Session{
		ID:        "sess-1",
		Status:    domain.SessionStatusActive,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	touched, err := repo.Touch(ctx, "sess-1", time.Now().Add(30*24*time.Hour), "h1")
	if err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if !touched.ExpiresAt.After(created.ExpiresAt) || touched.ClientHash != "h1" {
		t.Fatalf("touch did not slide the window: %+v", touched)
	}

	// An empty hash keeps the previous metadata rather than blanking it.
	kept, err := repo.Touch(ctx, "sess-1", time.Now().Add(30*24*time.Hour), "")
	if err != nil || kept.ClientHash != "h1" {
		t.Fatalf("empty hash must not overwrite: %+v err=%v", kept, err)
	}

	if err := repo.SetStatus(ctx, "sess-1", domain.SessionStatusRevoked); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := repo.Touch(ctx, "sess-1", time.Now().Add(time.Hour), ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("touch on revoked session: expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_SetStatusMissing(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	if err := repo.SetStatus(ctx, "ghost", domain.SessionStatusRevoked); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
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
