// Package statestore provides the key-value collaborator used for regime status and
// ingestion markers.
package statestore

import (
	"context"
	"strings"

	"github.com/yourusername/wealth-ops/internal/models"
)

// Well-known keys
const (
	MarketStatusKey   = "market_status"
	lastUpdatedPrefix = "last_updated:"
)

// ErrNotFound is returned by Get for a missing or expired key
var ErrNotFound = models.ErrNotFound

// Store is a string key-value store
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// LastUpdatedKey is the ingestion marker key for ticker
func LastUpdatedKey(ticker string) string {
	return lastUpdatedPrefix + strings.ToUpper(ticker)
}
