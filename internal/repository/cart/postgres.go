package cart

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

const cartColumns = `id::text, session_id, user_id::text, billing, subtotal_cents, total_items, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, sessionID string, userID *string) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (session_id, user_id)
VALUES ($1, $2)
ON CONFLICT (session_id) DO UPDATE SET updated_at = now()
RETURNING ` + cartColumns
	cart, err := scanCart(r.pool.QueryRow(ctx, q, sessionID, userID))
	if err != nil {
		return nil, err
	}
	cart.Lines = []domain.CartLine{}
	return cart, nil
}

func (r *postgresRepo) GetBySession(ctx context.Context, sessionID string) (*domain.Cart, error) {
	const q = `SELECT ` + cartColumns + ` FROM carts WHERE session_id = $1`
	cart, err := scanCart(r.pool.QueryRow(ctx, q, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT id::text, cart_id::text, product_id::text, variant_item_ids, variant_key, quantity,
       unit_price_cents, total_cents, installation_option, installation_location_id::text,
       installation_location_delta_cents, installation_addon_cents, snapshot, created_at, updated_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Lines = []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		var locationID *string
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductID,
			&line.VariantItemIDs,
			&line.VariantKey,
			&line.Quantity,
			&line.UnitPriceCents,
			&line.TotalCents,
			&line.InstallationOption,
			&locationID,
			&line.InstallationLocationDelta,
			&line.InstallationAddOnCents,
			&line.Snapshot,
			&line.CreatedAt,
			&line.UpdatedAt,
		); err != nil {
			return nil, err
		}
		line.InstallationLocationID = locationID
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

func (r *postgresRepo) UpsertLine(ctx context.Context, cartID string, line domain.CartLine) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO cart_lines (cart_id, product_id, variant_item_ids, variant_key, quantity,
                        unit_price_cents, total_cents, installation_option, installation_location_id,
                        installation_location_delta_cents, installation_addon_cents, snapshot)
VALUES ($1, $2, $3, $4, $5, $6, $5::bigint * $6, $7, $8, $9, $10, $11)
ON CONFLICT (cart_id, product_id, variant_key) DO UPDATE
SET quantity = cart_lines.quantity + EXCLUDED.quantity,
    unit_price_cents = EXCLUDED.unit_price_cents,
    total_cents = (cart_lines.quantity + EXCLUDED.quantity) * EXCLUDED.unit_price_cents,
    installation_option = EXCLUDED.installation_option,
    installation_location_id = EXCLUDED.installation_location_id,
    installation_location_delta_cents = EXCLUDED.installation_location_delta_cents,
    installation_addon_cents = EXCLUDED.installation_addon_cents,
    snapshot = EXCLUDED.snapshot,
    updated_at = now()
`
	if _, err := tx.Exec(ctx, q,
		cartID,
		line.ProductID,
		line.VariantItemIDs,
		line.VariantKey,
		line.Quantity,
		line.UnitPriceCents,
		line.InstallationOption,
		line.InstallationLocationID,
		line.InstallationLocationDelta,
		line.InstallationAddOnCents,
		line.Snapshot,
	); err != nil {
		return err
	}

	if err := refreshTotals(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) SetLineQuantity(ctx context.Context, cartID, productID, variantKey string, quantity int, unitPriceCents int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `
UPDATE cart_lines
SET quantity = $4,
    unit_price_cents = $5,
    total_cents = $4::bigint * $5,
    updated_at = now()
WHERE cart_id = $1 AND product_id = $2 AND variant_key = $3
`
	cmd, err := tx.Exec(ctx, q, cartID, productID, variantKey, quantity, unitPriceCents)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if err := refreshTotals(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) DeleteLine(ctx context.Context, cartID, productID, variantKey string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
DELETE FROM cart_lines
WHERE cart_id = $1 AND product_id = $2 AND variant_key = $3
`, cartID, productID, variantKey); err != nil {
		return err
	}

	if err := refreshTotals(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) ClearLines(ctx context.Context, cartID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	if err := refreshTotals(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) SetBilling(ctx context.Context, cartID string, billing *domain.BillingDetails) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE carts SET billing = $2, updated_at = now() WHERE id = $1`, cartID, billing)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) AttachUser(ctx context.Context, sessionID, userID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE carts SET user_id = $2, updated_at = now() WHERE session_id = $1`, sessionID, userID)
	return err
}

// refreshTotals recomputes the cart's derived values from its line list.
func refreshTotals(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `
UPDATE carts
SET subtotal_cents = COALESCE((SELECT SUM(total_cents) FROM cart_lines WHERE cart_id = $1), 0),
    total_items = COALESCE((SELECT SUM(quantity) FROM cart_lines WHERE cart_id = $1), 0),
    updated_at = now()
WHERE id = $1
`, cartID)
	return err
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var cart domain.Cart
	var userID *string
	var billing *domain.BillingDetails
	if err := row.Scan(
		&cart.ID,
		&cart.SessionID,
		&userID,
		&billing,
		&cart.SubtotalCents,
		&cart.TotalItems,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	); err != nil {
		return nil, err
	}
	cart.UserID = userID
	cart.Billing = billing
	return &cart, nil
}
