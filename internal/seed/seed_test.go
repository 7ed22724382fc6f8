package seed

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	shippingrepo "storefront/internal/repository/shipping"
)

type recordingWriter struct {
	skus  map[string]domain.Product
	rates map[string]int64
	err   error
}

func (w *recordingWriter) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.skus[p.SKU] = p
	return &p, nil
}

func (w *recordingWriter) SetRate(_ context.Context, code string, cents int64) (*shippingrepo.Rate, error) {
	w.rates[code] = cents
	return &shippingrepo.Rate{PostalCode: code, ChargeCents: cents}, nil
}

func TestApply_Idempotent(t *testing.T) {
	w := &recordingWriter{skus: map[string]domain.Product{}, rates: map[string]int64{}}
	for i := 0; i < 2; i++ {
		if err := Apply(context.Background(), w, w); err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
	}
	if len(w.skus) != len(products) || len(w.rates) != len(rates) {
		t.Fatalf("unexpected seed counts products=%d rates=%d", len(w.skus), len(w.rates))
	}
	if w.skus["SKU-DEMO-RETIRED"].Active {
		t.Fatalf("retired product should stay inactive")
	}
}

func TestApply_StopsOnError(t *testing.T) {
	boom := errors.New("db down")
	w := &recordingWriter{skus: map[string]domain.Product{}, rates: map[string]int64{}, err: boom}
	if err := Apply(context.Background(), w, w); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if len(w.rates) != 0 {
		t.Fatalf("rates should not be written after a product failure")
	}
}
