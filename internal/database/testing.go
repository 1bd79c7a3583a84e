package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestDSNEnv names the variable holding the integration-test database URL
const TestDSNEnv = "WEALTH_OPS_TEST_DATABASE_DSN"

// SetupTestDB connects to the integration database and applies the schema.
// The test is skipped when no DSN is configured.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv(TestDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping integration test", TestDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDBFromDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	if err := EnsureSchema(ctx, db.Querier()); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}
	return db
}

// TeardownTestDB truncates the test tables and closes the pool
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.pool.Exec(ctx, "TRUNCATE backtest_trades, backtest_runs, price_bars, system_state"); err != nil {
		t.Logf("warning: failed to truncate test tables: %v", err)
	}
	db.Close()
}
