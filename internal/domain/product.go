package domain

import "time"

// VariantItem is a single selectable value within a variant type, e.g. the
// "red" item of the "color" type.
type VariantItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// VariantType groups the selectable items of one axis (color, size, ...).
type VariantType struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Items []VariantItem `json:"items"`
}

// VariantModifier attaches a price delta to a set of items of one variant
// type. A modifier applies when its item set intersects the shopper's
// selection; at most one modifier per variant type contributes to a price.
type VariantModifier struct {
	VariantTypeID string   `json:"variantTypeId"`
	ItemIDs       []string `json:"itemIds"`
	DeltaCents    int64    `json:"deltaCents"`
}

// Installation holds the flat installation-service prices configured on a
// product. At-home installation additionally charges the location delta.
type Installation struct {
	Available       bool  `json:"available"`
	StorePriceCents int64 `json:"storePriceCents"`
	HomePriceCents  int64 `json:"homePriceCents"`
}

// InstallationLocation is a serviceable area with an extra at-home charge.
type InstallationLocation struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DeltaCents int64  `json:"deltaCents"`
}

// StockRecord keys available inventory by product and canonical variant
// combination. Products without variants use the empty combination key.
type StockRecord struct {
	ProductID      string `json:"productId"`
	CombinationKey string `json:"combinationKey"`
	Quantity       int    `json:"quantity"`
}

type Product struct {
	ID           string            `json:"id"`
	Slug         string            `json:"slug"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	BrandID      *string           `json:"brandId,omitempty"`
	CategoryID   *string           `json:"categoryId,omitempty"`
	PriceCents   int64             `json:"priceCents"`
	Currency     string            `json:"currency"`
	OfferPercent *float64          `json:"offerPercent,omitempty"`
	Images       []string          `json:"images,omitempty"`
	VariantTypes []VariantType     `json:"variantTypes,omitempty"`
	Modifiers    []VariantModifier `json:"variantModifiers,omitempty"`
	Installation *Installation     `json:"installation,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// VariantLabel renders the human-readable label for a selection, used in
// order item snapshots ("color: Red, size: XL").
func (p Product) VariantLabel(itemIDs []string) string {
	label := ""
	for _, vt := range p.VariantTypes {
		for _, item := range vt.Items {
			for _, id := range itemIDs {
				if item.ID == id {
					if label != "" {
						label += ", "
					}
					label += vt.Name + ": " + item.Label
				}
			}
		}
	}
	return label
}
