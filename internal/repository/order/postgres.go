package order

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-api/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const orderColumns = `id::text, session_id, user_id::text, provider, COALESCE(provider_session_id, ''), items, total_cents, currency, status, billing, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	const q = `
INSERT INTO orders (session_id, user_id, provider, items, total_cents, currency, status, billing)
VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
RETURNING ` + orderColumns
	created, err := scanOrder(r.pool.QueryRow(ctx, q, o.SessionID, o.UserID, o.Provider, o.Items, o.TotalCents, o.Currency, o.Billing))
	if err != nil {
		r.logger.Printf("order repo: create session_id=%s error=%v", o.SessionID, err)
		return nil, err
	}
	return created, nil
}

func (r *postgresRepo) AttachProviderSession(ctx context.Context, orderID, providerSessionID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders SET provider_session_id = $2, updated_at = now() WHERE id = $1
`, orderID, providerSessionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) GetByProviderSession(ctx context.Context, provider, providerSessionID string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `
SELECT `+orderColumns+` FROM orders WHERE provider = $1 AND provider_session_id = $2
`, provider, providerSessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) Transition(ctx context.Context, provider, providerSessionID, toStatus string, fromStatuses ...string) (*domain.Order, bool, error) {
	const q = `
UPDATE orders
SET status = $3, updated_at = now()
WHERE provider = $1 AND provider_session_id = $2 AND status = ANY($4)
RETURNING ` + orderColumns
	o, err := scanOrder(r.pool.QueryRow(ctx, q, provider, providerSessionID, toStatus, fromStatuses))
	if err == nil {
		return o, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// No row matched the status guard: either the order is unknown or a
	// duplicate webhook already moved it.
	existing, err := r.GetByProviderSession(ctx, provider, providerSessionID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *postgresRepo) MarkFailed(ctx context.Context, orderID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders SET status = 'failed', updated_at = now() WHERE id = $1 AND status = 'pending'
`, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE session_id = $1 ORDER BY created_at DESC`, sessionID)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Order, error) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *postgresRepo) list(ctx context.Context, query string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var userID *string
	var billing *domain.BillingDetails
	if err := row.Scan(
		&o.ID,
		&o.SessionID,
		&userID,
		&o.Provider,
		&o.ProviderSessionID,
		&o.Items,
		&o.TotalCents,
		&o.Currency,
		&o.Status,
		&billing,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.UserID = userID
	o.Billing = billing
	return &o, nil
}
