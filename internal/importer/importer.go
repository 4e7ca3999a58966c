package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront-api/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	SetStock(ctx context.Context, productID, combinationKey string, quantity int) error
}

// CSVImporter reads catalog CSV exports and inserts/updates products with
// their initial stock. Variant-carrying products are maintained through the
// seed path; the CSV covers the flat catalog bulk.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
}

func NewCSVImporter(r io.Reader, repo ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
	}
}

type csvRow struct {
	Slug         string
	Name         string
	Desc         string
	Cents        int64
	Currency     string
	OfferPercent *float64
	Stock        int
	HasStock     bool
	ImageURLs    []string
}

// Run parses CSV rows and upserts products grouped by slug.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *csvRow
		imported int
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}

		if row.Slug != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Slug == "" || row.Name == "" || row.Cents == 0 || row.Currency == "" {
		return fmt.Errorf("invalid product row (missing required fields) for slug %q", row.Slug)
	}

	p := domain.Product{
		Slug:         row.Slug,
		Name:         row.Name,
		Description:  row.Desc,
		PriceCents:   row.Cents,
		Currency:     row.Currency,
		OfferPercent: row.OfferPercent,
		Images:       row.ImageURLs,
	}

	saved, err := i.productRepo.Upsert(ctx, p)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Slug, err)
	}
	if row.HasStock {
		if err := i.productRepo.SetStock(ctx, saved.ID, "", row.Stock); err != nil {
			return fmt.Errorf("set stock for %q: %w", row.Slug, err)
		}
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[h] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	slug := pick(record, index, "slug")
	name := pick(record, index, "name")
	desc := pick(record, index, "description")
	currency := pick(record, index, "currency")
	centStr := pick(record, index, "price_cents")
	offerStr := pick(record, index, "offer_percent")
	stockStr := pick(record, index, "stock")
	imageURL := pick(record, index, "images.url")

	if slug == "" && imageURL == "" {
		return nil
	}

	var cents int64
	if centStr != "" {
		cents, _ = strconv.ParseInt(centStr, 10, 64)
	}

	row := &csvRow{
		Slug:     slug,
		Name:     name,
		Desc:     desc,
		Cents:    cents,
		Currency: currency,
	}
	if offerStr != "" {
		if offer, err := strconv.ParseFloat(offerStr, 64); err == nil {
			row.OfferPercent = &offer
		}
	}
	if stockStr != "" {
		if qty, err := strconv.Atoi(stockStr); err == nil {
			row.Stock = qty
			row.HasStock = true
		}
	}
	if imageURL != "" {
		row.ImageURLs = []string{strings.TrimSpace(imageURL)}
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
