package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourusername/wealth-ops/internal/config"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps the pgxpool.Pool to provide database operations
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new database connection pool from configuration
func NewDB(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
	return connect(ctx, connStr, cfg.MaxConnections, cfg.MaxIdleConnections)
}

// NewDBFromDSN creates a pool from a postgres:// URL
func NewDBFromDSN(ctx context.Context, dsn string) (*DB, error) {
	return connect(ctx, dsn, 4, 1)
}

func connect(ctx context.Context, connStr string, maxConns, minConns int) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if minConns > maxConns {
		minConns = maxConns
	}
	poolConfig.MaxConns = int32(maxConns)
	poolConfig.MinConns = int32(minConns)
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Ping verifies database connectivity
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close releases every pooled connection
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Querier returns the pool as a Querier
func (db *DB) Querier() Querier {
	return db.pool
}

// WithTransaction runs fn inside a transaction, rolling back when fn fails
func (db *DB) WithTransaction(ctx context.Context, fn func(q Querier) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %w", err, rollbackErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// HealthCheck performs a simple health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// GetPool returns the underlying connection pool for advanced operations
func (db *DB) GetPool() *pgxpool.Pool {
	return db.pool
}
