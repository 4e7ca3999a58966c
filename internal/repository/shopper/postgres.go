package shopper

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-api/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const shopperColumns = `id::text, email, password_hash, first_name, last_name, created_at`

func (r *postgresRepo) Create(ctx context.Context, s domain.Shopper) (*domain.Shopper, error) {
	const q = `
INSERT INTO shoppers (email, password_hash, first_name, last_name)
VALUES ($1, $2, $3, $4)
RETURNING ` + shopperColumns
	created, err := scanShopper(r.pool.QueryRow(ctx, q, s.Email, s.PasswordHash, s.FirstName, s.LastName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Shopper, error) {
	return r.get(ctx, `SELECT `+shopperColumns+` FROM shoppers WHERE email = $1`, email)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Shopper, error) {
	return r.get(ctx, `SELECT `+shopperColumns+` FROM shoppers WHERE id = $1`, id)
}

func (r *postgresRepo) get(ctx context.Context, query, arg string) (*domain.Shopper, error) {
	s, err := scanShopper(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanShopper(row pgx.Row) (*domain.Shopper, error) {
	var s domain.Shopper
	if err := row.Scan(&s.ID, &s.Email, &s.PasswordHash, &s.FirstName, &s.LastName, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
