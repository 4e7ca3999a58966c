package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-api/internal/domain"
)

type productSeed struct {
	Slug         string
	Name         string
	Description  string
	PriceCents   int64
	Currency     string
	OfferPercent *float64
	Images       []string
	VariantTypes []domain.VariantType
	Modifiers    []domain.VariantModifier
	Installation *domain.Installation
	Stock        map[string]int // combination key -> quantity
}

// Apply inserts demo catalog data for manual testing. It is idempotent via
// ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	tenPercent := 10.0

	products := []productSeed{
		{
			Slug:        "oslo-wardrobe",
			Name:        "Oslo Wardrobe",
			Description: "Three-door wardrobe with interior lighting",
			PriceCents:  64900,
			Currency:    "EUR",
			Images:      []string{"https://cdn.example.com/oslo-wardrobe.jpg"},
			VariantTypes: []domain.VariantType{
				{ID: "vt-finish", Name: "finish", Items: []domain.VariantItem{
					{ID: "finish-oak", Label: "Oak"},
					{ID: "finish-walnut", Label: "Walnut"},
				}},
				{ID: "vt-width", Name: "width", Items: []domain.VariantItem{
					{ID: "width-150", Label: "150 cm"},
					{ID: "width-200", Label: "200 cm"},
				}},
			},
			Modifiers: []domain.VariantModifier{
				{VariantTypeID: "vt-finish", ItemIDs: []string{"finish-walnut"}, DeltaCents: 4500},
				{VariantTypeID: "vt-width", ItemIDs: []string{"width-200"}, DeltaCents: 9000},
			},
			Installation: &domain.Installation{Available: true, StorePriceCents: 3500, HomePriceCents: 7900},
			Stock: map[string]int{
				"finish-oak|width-150":    8,
				"finish-oak|width-200":    5,
				"finish-walnut|width-150": 3,
				"finish-walnut|width-200": 2,
			},
		},
		{
			Slug:         "porto-side-table",
			Name:         "Porto Side Table",
			Description:  "Compact side table, no assembly required",
			PriceCents:   8900,
			Currency:     "EUR",
			OfferPercent: &tenPercent,
			Images:       []string{"https://cdn.example.com/porto-side-table.jpg"},
			Stock:        map[string]int{"": 40},
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Slug, err)
		}
	}

	locations := []domain.InstallationLocation{
		{Name: "City center", DeltaCents: 0},
		{Name: "Metro area", DeltaCents: 1500},
		{Name: "Outside metro area", DeltaCents: 4500},
	}
	for _, loc := range locations {
		if err := upsertLocation(ctx, pool, loc); err != nil {
			return fmt.Errorf("upsert location %s: %w", loc.Name, err)
		}
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (slug, name, description, price_cents, currency, offer_percent, images, variant_types, variant_modifiers, installation)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    offer_percent = EXCLUDED.offer_percent,
    images = EXCLUDED.images,
    variant_types = EXCLUDED.variant_types,
    variant_modifiers = EXCLUDED.variant_modifiers,
    installation = EXCLUDED.installation
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q,
		p.Slug, p.Name, p.Description, p.PriceCents, p.Currency, p.OfferPercent,
		p.Images, p.VariantTypes, p.Modifiers, p.Installation,
	).Scan(&id); err != nil {
		return err
	}

	for key, qty := range p.Stock {
		const stockQ = `
INSERT INTO product_stock (product_id, combination_key, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (product_id, combination_key) DO UPDATE SET quantity = EXCLUDED.quantity
`
		if _, err := pool.Exec(ctx, stockQ, id, key, qty); err != nil {
			return err
		}
	}
	return nil
}

func upsertLocation(ctx context.Context, pool *pgxpool.Pool, loc domain.InstallationLocation) error {
	const q = `
INSERT INTO installation_locations (name, delta_cents)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET delta_cents = EXCLUDED.delta_cents
`
	_, err := pool.Exec(ctx, q, loc.Name, loc.DeltaCents)
	return err
}
