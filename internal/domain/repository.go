package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque bytes; callers own the encoding.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogRepository defines read/write access to the normalized product catalog
type CatalogRepository interface {
	Search(ctx context.Context, pattern string, limit int) ([]Product, error)
	All(ctx context.Context, limit int) ([]Product, error)
	Upsert(ctx context.Context, products []Product) error
	Count(ctx context.Context) (int, error)
}

// LocalSearchClient defines the interface for the place search API used for geocoding
type LocalSearchClient interface {
	SearchPlaces(ctx context.Context, query string) ([]Place, error)
	Configured() bool
}
