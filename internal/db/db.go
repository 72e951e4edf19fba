package db

import (
	"context"
	"time"
)

// Store is the key-value backend of documents, stored vectors and the embedding cache.
// Repositories declare the few methods they use instead of depending on Store.
type Store interface {
	Pinger
	HashStore
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem is the complete content of one hash.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore keeps one hash per document. HGetAll of a missing key returns an empty
// map, not an error.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HReplaceMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// GetMulti returns values in key order; missing keys yield nil entries.
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
