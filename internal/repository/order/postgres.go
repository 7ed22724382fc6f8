package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/repository/product"
)

const (
	defaultNumberPrefix = "ORD"
	defaultListLimit    = 50
	maxListLimit        = 200
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	stock  product.StockLedger
	prefix string
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres. Stock decrements for new
// orders go through ledger inside the order transaction.
func NewPostgres(pool *pgxpool.Pool, ledger product.StockLedger, numberPrefix string, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	numberPrefix = strings.TrimSpace(numberPrefix)
	if numberPrefix == "" {
		numberPrefix = defaultNumberPrefix
	}
	return &postgresRepo{pool: pool, stock: ledger, prefix: numberPrefix, logger: logger}
}

// FormatOrderNumber renders the human-facing order number for a day and sequence value.
func FormatOrderNumber(prefix string, day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, day.UTC().Format("20060102"), seq)
}

func (r *postgresRepo) Create(ctx context.Context, o *domain.Order, created domain.ActivityEntry) (*domain.Order, error) {
	if len(o.Items) == 0 {
		return nil, domain.Invalid("items", "order must contain at least one item")
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	shipJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, err
	}
	billJSON, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return nil, err
	}

	// Decrement in product id order so concurrent orders lock rows consistently.
	lines := append([]domain.OrderLine(nil), o.Items...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, line := range lines {
			if _, err := r.stock.DecrementStockTx(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		day := o.CreatedAt.UTC().Truncate(24 * time.Hour)
		var seq int64
		if err := tx.QueryRow(ctx, `
INSERT INTO order_number_sequences (day, last_value)
VALUES ($1, 1)
ON CONFLICT (day) DO UPDATE SET
    last_value = order_number_sequences.last_value + 1,
    updated_at = now()
RETURNING last_value
`, day).Scan(&seq); err != nil {
			return fmt.Errorf("next order number: %w", err)
		}
		o.OrderNumber = FormatOrderNumber(r.prefix, day, seq)

		if _, err := tx.Exec(ctx, `
INSERT INTO orders (
    id, order_number, customer_ref, owner_key, subtotal_cents, tax_cents, shipping_cents, total_cents,
    status, shipping_address, billing_address, payment_method, notes, source, created_at, updated_at
) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`,
			o.ID, o.OrderNumber, o.CustomerRef, string(o.OwnerKey),
			o.SubtotalCents, o.TaxCents, o.ShippingCents, o.TotalCents,
			string(o.Status), shipJSON, billJSON, o.PaymentMethodLabel, o.Notes, string(o.Source),
			o.CreatedAt, o.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		batch := &pgx.Batch{}
		for i, line := range o.Items {
			batch.Queue(`
INSERT INTO order_items (order_id, position, product_id, name, unit_price_cents, quantity, line_total_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, o.ID, i, line.ProductID, line.Name, line.UnitPriceCents, line.Quantity, line.LineTotalCents)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		created.OrderID = o.ID
		return insertActivity(ctx, tx, created)
	})
	if err != nil {
		r.logger.Printf("order repo: create customer_ref=%s lines=%d error=%v", o.CustomerRef, len(o.Items), err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s number=%s total_cents=%d", o.ID, o.OrderNumber, o.TotalCents)
	return r.Get(ctx, o.ID)
}

func insertActivity(ctx context.Context, tx pgx.Tx, e domain.ActivityEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := tx.Exec(ctx, `
INSERT INTO order_activity (id, order_id, action, from_status, to_status, performed_by, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, e.ID, e.OrderID, e.Action, statusArg(e.FromStatus), statusArg(e.ToStatus), e.PerformedBy, e.Notes, e.Timestamp)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func statusArg(s *domain.OrderStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

const orderColumns = `
id::text, order_number, customer_ref, COALESCE(owner_key, ''), subtotal_cents, tax_cents, shipping_cents, total_cents,
status, shipping_address, billing_address, payment_method, notes, source, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                  domain.Order
		owner, status, src string
		shipJSON, billJSON []byte
	)
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerRef, &owner,
		&o.SubtotalCents, &o.TaxCents, &o.ShippingCents, &o.TotalCents,
		&status, &shipJSON, &billJSON, &o.PaymentMethodLabel, &o.Notes, &src,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.OwnerKey = domain.OwnerKey(owner)
	o.Status = domain.OrderStatus(status)
	o.Source = domain.OrderSource(src)
	if err := json.Unmarshal(shipJSON, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := json.Unmarshal(billJSON, &o.BillingAddress); err != nil {
		return nil, fmt.Errorf("decode billing address: %w", err)
	}
	return &o, nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.NotFoundError{Kind: "order", ID: id}
	}
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "order", ID: id}
		}
		r.logger.Printf("order repo: get id=%s error=%v", id, err)
		return nil, err
	}
	items, err := r.fetchItems(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	activity, err := r.ListActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	o.StatusHistory = domain.StatusHistory(activity)
	return o, nil
}

func (r *postgresRepo) fetchItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderLine, error) {
	rows, err := r.pool.Query(ctx, `
SELECT order_id::text, product_id::text, name, unit_price_cents, quantity, line_total_cents
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position
`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.OrderLine, len(orderIDs))
	for rows.Next() {
		var (
			orderID string
			line    domain.OrderLine
		)
		if err := rows.Scan(&orderID, &line.ProductID, &line.Name, &line.UnitPriceCents, &line.Quantity, &line.LineTotalCents); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], line)
	}
	return out, rows.Err()
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter) ([]domain.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var (
		where []string
		args  []any
	)
	if filter.CustomerRef != "" {
		args = append(args, filter.CustomerRef)
		where = append(where, fmt.Sprintf("customer_ref = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	q += fmt.Sprintf(` ORDER BY created_at DESC, order_number DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list customer_ref=%s status=%s error=%v", filter.CustomerRef, filter.Status, err)
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	ids := []string{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}
	items, err := r.fetchItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *postgresRepo) ListActivity(ctx context.Context, orderID string) ([]domain.ActivityEntry, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, order_id::text, action, from_status, to_status, performed_by, notes, created_at
FROM order_activity
WHERE order_id = $1
ORDER BY seq
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.ActivityEntry{}
	for rows.Next() {
		var (
			e        domain.ActivityEntry
			from, to *string
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Action, &from, &to, &e.PerformedBy, &e.Notes, &e.Timestamp); err != nil {
			return nil, err
		}
		if from != nil {
			e.FromStatus = domain.StatusPtr(domain.OrderStatus(*from))
		}
		if to != nil {
			e.ToStatus = domain.StatusPtr(domain.OrderStatus(*to))
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *postgresRepo) TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, entry domain.ActivityEntry) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.NotFoundError{Kind: "order", ID: id}
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `
UPDATE orders
SET status = $3, updated_at = $4
WHERE id = $1 AND status = $2
`, id, string(from), string(to), entry.Timestamp)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return missOrConflict(ctx, tx, id)
		}
		entry.OrderID = id
		entry.FromStatus = domain.StatusPtr(from)
		entry.ToStatus = domain.StatusPtr(to)
		return insertActivity(ctx, tx, entry)
	})
	if err != nil {
		r.logger.Printf("order repo: transition id=%s from=%s to=%s error=%v", id, from, to, err)
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *postgresRepo) UpdateNotes(ctx context.Context, id, notes string, entry domain.ActivityEntry) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.NotFoundError{Kind: "order", ID: id}
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `UPDATE orders SET notes = $2, updated_at = $3 WHERE id = $1`, id, notes, entry.Timestamp)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return &domain.NotFoundError{Kind: "order", ID: id}
		}
		entry.OrderID = id
		entry.Notes = notes
		return insertActivity(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func missOrConflict(ctx context.Context, tx pgx.Tx, id string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return &domain.NotFoundError{Kind: "order", ID: id}
	}
	return &domain.ConflictError{Kind: "order", ID: id}
}
