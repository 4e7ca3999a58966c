// Package pricing computes authoritative unit prices. It is pure: the same
// input always yields the same price, and nothing here touches storage.
package pricing

import (
	"errors"
	"math"
	"sort"
	"strings"

	"storefront-api/internal/domain"
)

var (
	// ErrUnknownVariantItem is returned when a selected item id does not
	// belong to any of the product's variant types. Pricing never silently
	// charges for a selection that does not exist.
	ErrUnknownVariantItem = errors.New("unknown variant item")
	// ErrInvalidInstallation is returned for an unknown installation option
	// or a location supplied while the option is not "home".
	ErrInvalidInstallation = errors.New("invalid installation selection")
	// ErrInstallationUnavailable is returned when an installation service is
	// requested on a product that does not offer one.
	ErrInstallationUnavailable = errors.New("installation not offered")
)

// Input carries everything UnitPrice needs about one line.
type Input struct {
	BasePriceCents     int64
	OfferPercent       *float64
	VariantTypes       []domain.VariantType
	Modifiers          []domain.VariantModifier
	Installation       *domain.Installation
	SelectedItemIDs    []string
	InstallationOption string
	LocationID         *string
	LocationDeltaCents int64
}

// Normalize deduplicates and sorts variant item ids. All identity comparison
// and storage goes through this form.
func Normalize(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// CombinationKey derives the canonical stock/identity key for a normalized
// selection. Products without variants use the empty key.
func CombinationKey(normalized []string) string {
	return strings.Join(normalized, "|")
}

// UnitPrice combines base price, percentage offer, variant price modifiers
// and the installation selection into one unit price in minor currency
// units. Rounding happens once, at the end, to avoid compounding error.
func UnitPrice(in Input) (int64, error) {
	if err := validateSelection(in.SelectedItemIDs, in.VariantTypes); err != nil {
		return 0, err
	}

	price := float64(in.BasePriceCents)
	if in.OfferPercent != nil {
		price = float64(in.BasePriceCents) * (1 - *in.OfferPercent/100)
	}

	price += float64(modifierSum(in.Modifiers, in.SelectedItemIDs))

	addOn, err := installationAddOn(in)
	if err != nil {
		return 0, err
	}
	price += float64(addOn)

	return int64(math.Round(price)), nil
}

// InstallationAddOn resolves the installation charge alone, used to persist
// the add-on component on cart lines.
func InstallationAddOn(in Input) (int64, error) {
	return installationAddOn(in)
}

func validateSelection(selected []string, types []domain.VariantType) error {
	for _, id := range selected {
		found := false
		for _, vt := range types {
			for _, item := range vt.Items {
				if item.ID == id {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return ErrUnknownVariantItem
		}
	}
	return nil
}

// modifierSum adds the delta of every modifier whose item set intersects the
// selection, counting at most one modifier per variant type.
func modifierSum(modifiers []domain.VariantModifier, selected []string) int64 {
	if len(modifiers) == 0 || len(selected) == 0 {
		return 0
	}
	sel := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		sel[id] = struct{}{}
	}
	applied := make(map[string]struct{})
	var sum int64
	for _, m := range modifiers {
		if _, done := applied[m.VariantTypeID]; done {
			continue
		}
		for _, id := range m.ItemIDs {
			if _, ok := sel[id]; ok {
				sum += m.DeltaCents
				applied[m.VariantTypeID] = struct{}{}
				break
			}
		}
	}
	return sum
}

func installationAddOn(in Input) (int64, error) {
	switch in.InstallationOption {
	case "", domain.InstallationNone:
		if in.LocationID != nil {
			return 0, ErrInvalidInstallation
		}
		return 0, nil
	case domain.InstallationStore:
		if in.LocationID != nil {
			return 0, ErrInvalidInstallation
		}
		if in.Installation == nil || !in.Installation.Available {
			return 0, ErrInstallationUnavailable
		}
		return in.Installation.StorePriceCents, nil
	case domain.InstallationHome:
		if in.Installation == nil || !in.Installation.Available {
			return 0, ErrInstallationUnavailable
		}
		return in.Installation.HomePriceCents + in.LocationDeltaCents, nil
	default:
		return 0, ErrInvalidInstallation
	}
}
