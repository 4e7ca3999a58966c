package product

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/google/uuid"
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

const productColumns = `id::text, slug, name, COALESCE(description, ''), brand_id::text, category_id::text,
       price_cents, currency, offer_percent, images, variant_types, variant_modifiers, installation, created_at`

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, error) {
	// Filter values come from query params; a malformed uuid matches nothing.
	if (f.CategoryID != "" && uuid.Validate(f.CategoryID) != nil) ||
		(f.BrandID != "" && uuid.Validate(f.BrandID) != nil) {
		return []domain.Product{}, nil
	}
	q := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		q += ` AND category_id = $1`
	}
	if f.BrandID != "" {
		args = append(args, f.BrandID)
		if len(args) == 1 {
			q += ` AND brand_id = $1`
		} else {
			q += ` AND brand_id = $2`
		}
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID treats a malformed id as not-found rather than letting postgres
// fail the uuid cast: product ids arrive straight from client payloads.
func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrNotFound
	}
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
}

func (r *postgresRepo) get(ctx context.Context, query, arg string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (slug, name, description, brand_id, category_id, price_cents, currency,
                      offer_percent, images, variant_types, variant_modifiers, installation)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    brand_id = EXCLUDED.brand_id,
    category_id = EXCLUDED.category_id,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    offer_percent = EXCLUDED.offer_percent,
    images = EXCLUDED.images,
    variant_types = EXCLUDED.variant_types,
    variant_modifiers = EXCLUDED.variant_modifiers,
    installation = EXCLUDED.installation
RETURNING ` + productColumns
	created, err := scanProduct(r.pool.QueryRow(ctx, q,
		p.Slug, p.Name, p.Description, p.BrandID, p.CategoryID, p.PriceCents, p.Currency,
		p.OfferPercent, p.Images, p.VariantTypes, p.Modifiers, p.Installation,
	))
	if err != nil {
		r.logger.Printf("product repo: upsert slug=%s error=%v", p.Slug, err)
		return nil, err
	}
	return created, nil
}

func (r *postgresRepo) GetStock(ctx context.Context, productID, combinationKey string) (int, error) {
	if uuid.Validate(productID) != nil {
		return 0, domain.ErrNotFound
	}
	var qty int
	err := r.pool.QueryRow(ctx, `
SELECT quantity FROM product_stock WHERE product_id = $1 AND combination_key = $2
`, productID, combinationKey).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return qty, nil
}

func (r *postgresRepo) SetStock(ctx context.Context, productID, combinationKey string, quantity int) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO product_stock (product_id, combination_key, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (product_id, combination_key) DO UPDATE SET quantity = EXCLUDED.quantity
`, productID, combinationKey, quantity)
	return err
}

func (r *postgresRepo) DecrementStock(ctx context.Context, productID, combinationKey string, quantity int) error {
	if uuid.Validate(productID) != nil {
		return domain.ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE product_stock
SET quantity = quantity - $3
WHERE product_id = $1 AND combination_key = $2 AND quantity >= $3
`, productID, combinationKey, quantity)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) ListInstallationLocations(ctx context.Context) ([]domain.InstallationLocation, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, name, delta_cents FROM installation_locations ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.InstallationLocation
	for rows.Next() {
		var loc domain.InstallationLocation
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.DeltaCents); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetInstallationLocation(ctx context.Context, id string) (*domain.InstallationLocation, error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ErrNotFound
	}
	var loc domain.InstallationLocation
	err := r.pool.QueryRow(ctx, `SELECT id::text, name, delta_cents FROM installation_locations WHERE id = $1`, id).
		Scan(&loc.ID, &loc.Name, &loc.DeltaCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &loc, nil
}

func (r *postgresRepo) UpsertInstallationLocation(ctx context.Context, loc domain.InstallationLocation) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO installation_locations (name, delta_cents)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET delta_cents = EXCLUDED.delta_cents
`, loc.Name, loc.DeltaCents)
	return err
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var brandID, categoryID *string
	var offer *float64
	var installation *domain.Installation
	if err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Name,
		&p.Description,
		&brandID,
		&categoryID,
		&p.PriceCents,
		&p.Currency,
		&offer,
		&p.Images,
		&p.VariantTypes,
		&p.Modifiers,
		&installation,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.BrandID = brandID
	p.CategoryID = categoryID
	p.OfferPercent = offer
	p.Installation = installation
	return &p, nil
}
