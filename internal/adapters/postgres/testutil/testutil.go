// Package testutil opens a Postgres pool for store tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/placesapp/places-api/internal/adapters/postgres"
)

// DatabaseURLEnv names the database used by Postgres-backed tests.
const DatabaseURLEnv = "PLACES_TEST_DATABASE_URL"

// OpenMigratedPool connects to the test database and applies the schema.
// The test is skipped when DatabaseURLEnv is unset.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(DatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set; skipping Postgres test", DatabaseURLEnv)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, url, postgres.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return pool
}
