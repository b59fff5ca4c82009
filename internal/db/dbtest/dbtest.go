// Package dbtest connects integration tests to the database named by
// DB_URL_TEST. Tests are skipped when the variable is not set.
package dbtest

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/NGxID18/CureCart/internal/db"
)

const envURL = "DB_URL_TEST"

func Connect(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(envURL)
	if url == "" {
		t.Skipf("%s is not set, skipping integration test", envURL)
	}

	require.NoError(t, db.Migrate(url), "failed to migrate test database")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	poolConfig.MaxConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, pool.Ping(ctx), "failed to ping test database")

	t.Cleanup(pool.Close)
	Truncate(t, pool)

	return pool
}

// Truncate empties every business table.
func Truncate(tb testing.TB, pool *pgxpool.Pool) {
	tb.Helper()
	tables := []string{"processed_payment_events", "order_items", "orders", "products", "categories", "users", "sessions"}
	_, err := pool.Exec(context.Background(), "TRUNCATE TABLE "+strings.Join(tables, ", ")+" RESTART IDENTITY CASCADE")
	require.NoError(tb, err, "failed to truncate tables")
}
