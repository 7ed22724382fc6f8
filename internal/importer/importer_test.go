package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront/internal/domain"
	shippingrepo "storefront/internal/repository/shipping"
)

type stubProductWriter struct {
	items []domain.Product
}

func (s *stubProductWriter) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if p.SKU == "" {
		return nil, domain.Invalid("sku", "required")
	}
	s.items = append(s.items, p)
	return &p, nil
}

type stubRateWriter struct {
	rates map[string]int64
}

func (s *stubRateWriter) SetRate(_ context.Context, code string, cents int64) (*shippingrepo.Rate, error) {
	if s.rates == nil {
		s.rates = map[string]int64{}
	}
	s.rates[code] = cents
	return &shippingrepo.Rate{PostalCode: code, ChargeCents: cents}, nil
}

func TestCSVImporter_Products(t *testing.T) {
	csvData := `sku,name,priceCents,stock,active
SKU-1,Mug,1299,10,true
,,,,
SKU-2,Retired Tee,1999,0,false
`
	products := &stubProductWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), products, nil)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 || len(products.items) != 2 {
		t.Fatalf("expected 2 products imported, got %d", count)
	}
	first := products.items[0]
	if first.SKU != "SKU-1" || first.PriceCents != 1299 || first.Stock != 10 || !first.Active {
		t.Fatalf("unexpected product data: %+v", first)
	}
	if products.items[1].Active {
		t.Fatalf("expected second product inactive")
	}
}

func TestCSVImporter_ShippingRates(t *testing.T) {
	csvData := `postalCode,chargeCents
10115,499
80331,0`
	rates := &stubRateWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), nil, rates)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 || rates.rates["10115"] != 499 {
		t.Fatalf("unexpected rates %v (count %d)", rates.rates, count)
	}
	if _, ok := rates.rates["80331"]; !ok {
		t.Fatalf("expected zero-charge rate to be stored")
	}
}

func TestCSVImporter_StopsOnBadRow(t *testing.T) {
	csvData := `postalCode,chargeCents
10115,499
80331,cheap
90210,100`
	rates := &stubRateWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), nil, rates)

	count, err := imp.Run(context.Background())
	if err == nil {
		t.Fatalf("expected error for non-numeric charge")
	}
	if !errors.Is(err, domain.ErrValidation) || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("unexpected error %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row applied before failure, got %d", count)
	}
}

func TestDetectKind(t *testing.T) {
	kind, err := DetectKind(strings.NewReader("sku,name,priceCents\nSKU-1,Mug,100"))
	if err != nil {
		t.Fatalf("detect product kind: %v", err)
	}
	if kind != KindProducts {
		t.Fatalf("expected product kind, got %s", kind)
	}

	kind, err = DetectKind(strings.NewReader("postalCode,chargeCents\n10115,499"))
	if err != nil {
		t.Fatalf("detect rate kind: %v", err)
	}
	if kind != KindShippingRates {
		t.Fatalf("expected shipping-rate kind, got %s", kind)
	}

	if _, err := DetectKind(strings.NewReader("foo,bar\n1,2")); err == nil {
		t.Fatalf("expected unknown headers to fail")
	}
}
