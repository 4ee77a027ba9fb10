// Package pgtest connects integration tests to a disposable Postgres database. Tests that
// call Pool are skipped unless CRICLINK_TEST_DATABASE_URL is set.
package pgtest

import (
	"context"
	"os"
	"testing"

	"github.com/criclink/criclink/go/internal/dbconfig"
	"github.com/jackc/pgx/v5/pgxpool"
)

const EnvURL = "CRICLINK_TEST_DATABASE_URL"

// Pool opens a migrated pool closed at test cleanup. Rows are not truncated: packages run
// in parallel against the same database, so tests key everything by fresh ids.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv(EnvURL)
	if url == "" {
		t.Skipf("%s not set", EnvURL)
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect %s: %v", EnvURL, err)
	}
	t.Cleanup(pool.Close)
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := dbconfig.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}
