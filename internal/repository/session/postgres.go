package session

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

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

const sessionColumns = `id, status, user_id::text, client_hash, created_at, updated_at, expires_at, last_active_at`

func (r *postgresRepo) Put(ctx context.Context, s domain.Session) (*domain.Session, error) {
	const q = `
INSERT INTO sessions (id, status, user_id, client_hash, created_at, updated_at, expires_at, last_active_at)
VALUES ($1, $2, $3, $4, now(), now(), $5, now())
ON CONFLICT (id) DO UPDATE
SET status = EXCLUDED.status,
    user_id = EXCLUDED.user_id,
    client_hash = EXCLUDED.client_hash,
    updated_at = now(),
    expires_at = EXCLUDED.expires_at,
    last_active_at = now()
RETURNING ` + sessionColumns
	row := r.pool.QueryRow(ctx, q, s.ID, s.Status, s.UserID, s.ClientHash, s.ExpiresAt)
	return scanSession(row)
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	sess, err := scanSession(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

func (r *postgresRepo) Touch(ctx context.Context, id string, expiresAt time.Time, clientHash string) (*domain.Session, error) {
	const q = `
UPDATE sessions
SET expires_at = $2,
    last_active_at = now(),
    updated_at = now(),
    client_hash = CASE WHEN $3 = '' THEN client_hash ELSE $3 END
WHERE id = $1 AND status = 'active'
RETURNING ` + sessionColumns
	sess, err := scanSession(r.pool.QueryRow(ctx, q, id, expiresAt, clientHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

func (r *postgresRepo) SetStatus(ctx context.Context, id, status string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE sessions SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) AttachUser(ctx context.Context, id, userID string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE sessions SET user_id = $2, updated_at = now() WHERE id = $1`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	var userID *string
	if err := row.Scan(
		&s.ID,
		&s.Status,
		&userID,
		&s.ClientHash,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.ExpiresAt,
		&s.LastActiveAt,
	); err != nil {
		return nil, err
	}
	s.UserID = userID
	return &s, nil
}
