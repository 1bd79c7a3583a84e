package database

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/wealth-ops/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Initialize creates a database connection pool and applies the schema
func Initialize(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db.Querier()); err != nil {
		db.Close()
		return nil, err
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"host":     cfg.Database.Host,
			"database": cfg.Database.Name,
		}).Info("Database initialized")
	}
	return db, nil
}

// SchemaStatements splits the embedded schema into individual statements
func SchemaStatements() []string {
	var stmts []string
	for _, part := range strings.Split(schemaSQL, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// EnsureSchema creates the tables used by the repositories when missing
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range SchemaStatements() {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
