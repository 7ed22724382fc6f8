package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront/internal/domain"
	shippingrepo "storefront/internal/repository/shipping"
)

// Kind names the dataset a CSV file carries.
type Kind string

const (
	KindProducts      Kind = "products"
	KindShippingRates Kind = "shipping-rates"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type RateWriter interface {
	SetRate(ctx context.Context, postalCode string, cents int64) (*shippingrepo.Rate, error)
}

// CSVImporter loads catalog products or shipping rates from CSV exports.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductWriter
	rates    RateWriter
}

func NewCSVImporter(r io.Reader, products ProductWriter, rates RateWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:   csvr,
		products: products,
		rates:    rates,
	}
}

// DetectKind peeks at the header row of a CSV file.
func DetectKind(r io.Reader) (Kind, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(strings.Split(strings.TrimSpace(line), ","))
	return kindOf(index)
}

func kindOf(index map[string]int) (Kind, error) {
	if _, ok := index["sku"]; ok {
		return KindProducts, nil
	}
	if _, ok := index["postalCode"]; ok {
		return KindShippingRates, nil
	}
	return "", errors.New("unrecognized csv headers")
}

// Run parses every row and writes it through the matching writer. Rows are
// applied in file order and the first failing row stops the import.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	kind, err := kindOf(index)
	if err != nil {
		return 0, err
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++
		if blank(record) {
			continue
		}

		switch kind {
		case KindProducts:
			err = i.saveProduct(ctx, record, index)
		case KindShippingRates:
			err = i.saveRate(ctx, record, index)
		}
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, record []string, index map[string]int) error {
	if i.products == nil {
		return errors.New("product writer not configured")
	}
	cents, err := parseInt(pick(record, index, "priceCents"), "priceCents")
	if err != nil {
		return err
	}
	stock, err := parseInt(pick(record, index, "stock"), "stock")
	if err != nil {
		return err
	}
	active := true
	if raw := pick(record, index, "active"); raw != "" {
		active, err = strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("active: %w", err)
		}
	}

	p := domain.Product{
		SKU:        pick(record, index, "sku"),
		Name:       pick(record, index, "name"),
		PriceCents: cents,
		Stock:      int(stock),
		Active:     active,
	}
	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.SKU, err)
	}
	return nil
}

func (i *CSVImporter) saveRate(ctx context.Context, record []string, index map[string]int) error {
	if i.rates == nil {
		return errors.New("rate writer not configured")
	}
	code := pick(record, index, "postalCode")
	cents, err := parseInt(pick(record, index, "chargeCents"), "chargeCents")
	if err != nil {
		return err
	}
	if _, err := i.rates.SetRate(ctx, code, cents); err != nil {
		return fmt.Errorf("set rate %q: %w", code, err)
	}
	return nil
}

func parseInt(raw, field string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Invalid(field, "not an integer")
	}
	return v, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
