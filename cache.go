package recordkit

import (
	"context"
	"time"
)

// Cache is the interface for caching rendered select results.
// Users should implement this interface with their preferred caching solution
// (e.g., Redis, Memcached, in-memory). The cache package ships an in-memory one.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies a cached select statement.
type CacheKey struct {
	Table     string
	Statement string
}

// String returns the string representation of the cache key. Keys share the
// table prefix so a whole table can be invalidated with DeletePrefix.
func (k CacheKey) String() string {
	return CachePrefix(k.Table) + k.Statement
}

// CachePrefix returns the key prefix shared by every entry of a table.
func CachePrefix(table string) string {
	return table + ":"
}
