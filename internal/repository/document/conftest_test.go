package document

import (
	"context"
	"maps"
	"strings"
	"testing"

	"github.com/kailas-cloud/resumerank/internal/db"
	domdoc "github.com/kailas-cloud/resumerank/internal/domain/document"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hreplaceFn     func(ctx context.Context, items []db.HashSetItem) error
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	delFn          func(ctx context.Context, keys ...string) (int64, error)
	existsFn       func(ctx context.Context, keys []string) ([]bool, error)
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HReplaceMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hreplaceFn != nil {
		return m.hreplaceFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return int64(len(keys)), nil
}

func (m *mockStore) ExistsMulti(ctx context.Context, keys []string) ([]bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, keys)
	}
	return make([]bool, len(keys)), nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "resumerank:"), ms
}

func testDocument(t *testing.T, id, content string) domdoc.Document {
	t.Helper()
	doc, err := domdoc.New(id, []byte(content), domdoc.FormatText)
	if err != nil {
		t.Fatalf("create test document: %v", err)
	}
	return doc
}

// hashMemory is an in-memory store with Redis hash semantics: HSET merges fields.
type hashMemory struct {
	hashes map[string]map[string]string
}

func newHashMemory() *hashMemory {
	return &hashMemory{hashes: map[string]map[string]string{}}
}

func (m *hashMemory) HSet(_ context.Context, key string, fields map[string]string) error {
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	maps.Copy(h, fields)
	return nil
}

func (m *hashMemory) HReplaceMulti(_ context.Context, items []db.HashSetItem) error {
	for _, item := range items {
		m.hashes[item.Key] = maps.Clone(item.Fields)
	}
	return nil
}

func (m *hashMemory) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = maps.Clone(m.hashes[k])
		if out[i] == nil {
			out[i] = map[string]string{}
		}
	}
	return out, nil
}

func (m *hashMemory) Del(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if _, ok := m.hashes[k]; ok {
			delete(m.hashes, k)
			n++
		}
	}
	return n, nil
}

func (m *hashMemory) ExistsMulti(_ context.Context, keys []string) ([]bool, error) {
	out := make([]bool, len(keys))
	for i, k := range keys {
		_, out[i] = m.hashes[k]
	}
	return out, nil
}

func (m *hashMemory) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// vectorSpy records invalidated document ids.
type vectorSpy struct {
	deleted []string
	err     error
}

func (v *vectorSpy) Delete(_ context.Context, ids ...string) error {
	v.deleted = append(v.deleted, ids...)
	return v.err
}
