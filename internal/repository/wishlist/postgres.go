package wishlist

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-api/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetBySession(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	return r.fetch(ctx, `SELECT id::text, session_id, user_id::text, created_at, updated_at FROM wishlists WHERE session_id = $1`, sessionID)
}

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Wishlist, error) {
	return r.fetch(ctx, `SELECT id::text, session_id, user_id::text, created_at, updated_at FROM wishlists WHERE user_id = $1`, userID)
}

func (r *postgresRepo) CreateForSession(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	const q = `
INSERT INTO wishlists (session_id)
VALUES ($1)
ON CONFLICT (session_id) DO UPDATE SET updated_at = now()
RETURNING id::text, session_id, user_id::text, created_at, updated_at
`
	var w domain.Wishlist
	if err := r.pool.QueryRow(ctx, q, sessionID).Scan(&w.ID, &w.SessionID, &w.UserID, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Items = []domain.WishlistItem{}
	return &w, nil
}

func (r *postgresRepo) AddItem(ctx context.Context, wishlistID string, item domain.WishlistItem) (bool, error) {
	const q = `
INSERT INTO wishlist_items (wishlist_id, product_id, variant_item_ids, variant_key)
VALUES ($1, $2, $3, $4)
ON CONFLICT (wishlist_id, product_id, variant_key) DO NOTHING
`
	cmd, err := r.pool.Exec(ctx, q, wishlistID, item.ProductID, item.VariantItemIDs, item.VariantKey)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) RemoveItem(ctx context.Context, wishlistID, productID, variantKey string) error {
	_, err := r.pool.Exec(ctx, `
DELETE FROM wishlist_items
WHERE wishlist_id = $1 AND product_id = $2 AND variant_key = $3
`, wishlistID, productID, variantKey)
	return err
}

func (r *postgresRepo) Clear(ctx context.Context, wishlistID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM wishlist_items WHERE wishlist_id = $1`, wishlistID)
	return err
}

func (r *postgresRepo) PromoteToUser(ctx context.Context, wishlistID, userID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE wishlists
SET user_id = $2, session_id = NULL, updated_at = now()
WHERE id = $1
`, wishlistID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) MergeInto(ctx context.Context, srcID, dstID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Existing destination entries win on identity conflicts.
	if _, err := tx.Exec(ctx, `
INSERT INTO wishlist_items (wishlist_id, product_id, variant_item_ids, variant_key, created_at)
SELECT $2, product_id, variant_item_ids, variant_key, created_at
FROM wishlist_items
WHERE wishlist_id = $1
ON CONFLICT (wishlist_id, product_id, variant_key) DO NOTHING
`, srcID, dstID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM wishlists WHERE id = $1`, srcID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) fetch(ctx context.Context, query string, arg interface{}) (*domain.Wishlist, error) {
	var w domain.Wishlist
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&w.ID, &w.SessionID, &w.UserID, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT product_id::text, variant_item_ids, variant_key, created_at
FROM wishlist_items
WHERE wishlist_id = $1
ORDER BY created_at ASC
`, w.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	w.Items = []domain.WishlistItem{}
	for rows.Next() {
		var item domain.WishlistItem
		if err := rows.Scan(&item.ProductID, &item.VariantItemIDs, &item.VariantKey, &item.CreatedAt); err != nil {
			return nil, err
		}
		w.Items = append(w.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &w, nil
}
