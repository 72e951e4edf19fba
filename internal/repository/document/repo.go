// Package document stores candidate documents and their cached extraction in Redis hashes.
package document

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/resumerank/internal/db"
	"github.com/kailas-cloud/resumerank/internal/domain"
	domdoc "github.com/kailas-cloud/resumerank/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HReplaceMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// vectorCache drops derived vectors that no longer match a document's content.
type vectorCache interface {
	Delete(ctx context.Context, ids ...string) error
}

// Repo is the Redis-backed document source and extraction cache.
type Repo struct {
	store   store
	prefix  string
	vectors vectorCache
}

// New creates a document repository. Keys are "<prefix>doc:<id>".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix + "doc:"}
}

// WithVectors invalidates stored vectors whenever a document is replaced or deleted.
func (r *Repo) WithVectors(v vectorCache) *Repo {
	r.vectors = v
	return r
}

// Put creates or replaces documents. A replaced document keeps nothing of its previous
// version: cached extraction and stored vectors are dropped with it. Returns the number of documents that did not exist before.
func (r *Repo) Put(ctx context.Context, docs []domdoc.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	keys := make([]string, len(docs))
	items := make([]db.HashSetItem, len(docs))
	for i := range docs {
		keys[i] = r.key(docs[i].ID())
		items[i] = db.HashSetItem{Key: keys[i], Fields: buildHashFields(&docs[i])}
	}

	exists, err := r.store.ExistsMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("check existing documents: %w", err)
	}
	created := 0
	for _, ok := range exists {
		if !ok {
			created++
		}
	}

	if err := r.store.HReplaceMulti(ctx, items); err != nil {
		return 0, fmt.Errorf("replace documents: %w", err)
	}

	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID()
	}
	if err := r.dropVectors(ctx, ids...); err != nil {
		return 0, err
	}
	return created, nil
}

// Fetch loads documents in id order. Missing keys yield items with domain.ErrNotFound.
func (r *Repo) Fetch(ctx context.Context, ids []string) ([]domdoc.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	if len(hashes) != len(ids) {
		return nil, fmt.Errorf("fetch documents: got %d hashes for %d keys", len(hashes), len(ids))
	}

	items := make([]domdoc.Item, len(ids))
	for i, id := range ids {
		doc, err := parseHashFields(id, hashes[i])
		items[i] = domdoc.Item{ID: id, Doc: doc, Err: err}
	}
	return items, nil
}

// SaveExtraction caches the extracted text and method of a stored document.
func (r *Repo) SaveExtraction(ctx context.Context, doc *domdoc.Document) error {
	if !doc.Extracted() {
		return fmt.Errorf("document %s has no extraction", doc.ID())
	}
	key := r.key(doc.ID())
	if err := r.store.HSet(ctx, key, extractionFields(doc)); err != nil {
		return fmt.Errorf("hset extraction %s: %w", key, err)
	}
	return nil
}

// Delete removes a document. A missing document yields domain.ErrNotFound.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)
	n, err := r.store.Del(ctx, key)
	if err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return r.dropVectors(ctx, id)
}

func (r *Repo) dropVectors(ctx context.Context, ids ...string) error {
	if r.vectors == nil {
		return nil
	}
	if err := r.vectors.Delete(ctx, ids...); err != nil {
		return fmt.Errorf("invalidate vectors: %w", err)
	}
	return nil
}

// IDs lists all stored document IDs in lexical order.
func (r *Repo) IDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, r.prefix))
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Repo) key(id string) string {
	return r.prefix + id
}
