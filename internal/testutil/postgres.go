// Package testutil starts throwaway infrastructure for repository integration tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"storefront/internal/migrate"
)

// Postgres returns a migrated, empty database. TEST_DB_DSN points the tests at an
// existing server; otherwise a postgres container is started, and the test is
// skipped when no container runtime is available.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)

		ctr, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("storefront_test"),
			postgres.WithUsername("storefront"),
			postgres.WithPassword("storefront"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := ctr.Terminate(context.Background()); err != nil {
				t.Logf("terminate postgres container: %v", err)
			}
		})

		dsn, err = ctr.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrate.Apply(ctx, pool))
	Reset(t, pool)
	return pool
}

// Reset truncates every table touched by the tests.
func Reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
TRUNCATE order_activity, order_items, orders, order_number_sequences,
         cart_lines, carts, customers, products, shipping_rates, tokens
RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

// InsertProduct adds a catalog row and returns its id.
func InsertProduct(t *testing.T, pool *pgxpool.Pool, sku, name string, priceCents int64, stock int, active bool) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(), `
INSERT INTO products (sku, name, price_cents, stock, active)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text`, sku, name, priceCents, stock, active).Scan(&id)
	require.NoError(t, err)
	return id
}
