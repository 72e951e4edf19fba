// Package vector stores document embedding vectors in Redis as little-endian float32 blobs.
package vector

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/resumerank/internal/db"
	"github.com/kailas-cloud/resumerank/internal/domain"
)

// store is the consumer interface for stored vectors (ISP).
type store interface {
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) (int64, error)
}

// Repo keeps one vector per document and embedding model.
type Repo struct {
	store  store
	prefix string
}

// New creates a vector repository. Keys are "<prefix>vec:<model>:<id>" so vectors of
// different models never mix.
func New(s store, keyPrefix, model string) *Repo {
	return &Repo{store: s, prefix: keyPrefix + "vec:" + model + ":"}
}

// Get returns the stored vectors of ids. Documents without a vector are absent from the map.
func (r *Repo) Get(ctx context.Context, ids []string) (map[string]domain.Vector, error) {
	out := make(map[string]domain.Vector, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.prefix + id
	}

	values, err := r.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get vectors: %w", err)
	}

	for i, data := range values {
		if len(data) == 0 {
			continue
		}
		vec, err := db.DecodeFloat32(data)
		if err != nil {
			return nil, fmt.Errorf("decode vector %s: %w", ids[i], err)
		}
		out[ids[i]] = domain.VectorFromFloat32(vec)
	}
	return out, nil
}

// Put stores the vector of one document.
func (r *Repo) Put(ctx context.Context, id string, vec []float32) error {
	key := r.prefix + id
	if err := r.store.Set(ctx, key, db.EncodeFloat32(vec)); err != nil {
		return fmt.Errorf("set vector %s: %w", key, err)
	}
	return nil
}

// Delete drops the stored vectors of ids. Missing vectors are not an error.
func (r *Repo) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.prefix + id
	}
	if _, err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("del vectors: %w", err)
	}
	return nil
}
