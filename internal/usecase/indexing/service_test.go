package indexing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/kailas-cloud/resumerank/internal/domain"
	dombatch "github.com/kailas-cloud/resumerank/internal/domain/batch"
	"github.com/kailas-cloud/resumerank/internal/domain/document"
	"github.com/kailas-cloud/resumerank/internal/extract"
	"github.com/kailas-cloud/resumerank/internal/transport/mockemb"
	"github.com/kailas-cloud/resumerank/internal/usecase/extraction"
)

// --- Mocks ---

type memSource struct {
	texts   map[string]string
	fetched []string
}

func (m *memSource) Fetch(_ context.Context, ids []string) ([]document.Item, error) {
	m.fetched = append(m.fetched, ids...)
	items := make([]document.Item, 0, len(ids))
	for _, id := range ids {
		text, ok := m.texts[id]
		if !ok {
			items = append(items, document.Item{ID: id, Err: domain.ErrNotFound})
			continue
		}
		doc, _ := document.New(id, []byte(text), document.FormatText)
		items = append(items, document.Item{ID: id, Doc: doc})
	}
	return items, nil
}

func (m *memSource) IDs(_ context.Context) ([]string, error) {
	var ids []string
	for id := range m.texts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

type memStore struct {
	vecs   map[string][]float32
	getErr error
	putErr error
}

func newMemStore() *memStore { return &memStore{vecs: make(map[string][]float32)} }

func (m *memStore) Get(_ context.Context, ids []string) (map[string]domain.Vector, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string]domain.Vector)
	for _, id := range ids {
		if v, ok := m.vecs[id]; ok {
			out[id] = domain.VectorFromFloat32(v)
		}
	}
	return out, nil
}

func (m *memStore) Put(_ context.Context, id string, vec []float32) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.vecs[id] = vec
	return nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf("quota: %w", domain.ErrProviderUnavailable)
}

func newService(src DocumentSource, emb domain.Embedder, store VectorStore) *Service {
	ext := extraction.New(extract.New(extract.OCRConfig{}), nil)
	return New(src, ext, emb, store)
}

func statuses(results []dombatch.Result) map[string]dombatch.ItemStatus {
	out := make(map[string]dombatch.ItemStatus, len(results))
	for _, r := range results {
		out[r.ID()] = r.Status()
	}
	return out
}

// --- Tests ---

func TestIndex_ExplicitIDs(t *testing.T) {
	src := &memSource{texts: map[string]string{"a": "Go developer", "blank": "  "}}
	store := newMemStore()
	svc := newService(src, mockemb.New(16), store)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	results, err := svc.Index(ctx, Request{IDs: []string{"a", "blank", "missing"}})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	got := statuses(results)
	if got["a"] != dombatch.StatusIndexed || got["blank"] != dombatch.StatusSkipped || got["missing"] != dombatch.StatusError {
		t.Errorf("unexpected statuses: %v", got)
	}
	if results[2].Reason() != "not_found" {
		t.Errorf("expected not_found reason, got %q", results[2].Reason())
	}
	if len(store.vecs["a"]) != 16 {
		t.Errorf("expected a 16-dim vector stored, got %d", len(store.vecs["a"]))
	}
	if usage.TotalTokens() != 2 {
		t.Errorf("expected 2 tokens recorded, got %d", usage.TotalTokens())
	}
}

func TestIndex_AllDocumentsWhenNoIDs(t *testing.T) {
	src := &memSource{texts: map[string]string{"b": "Rust", "a": "Go"}}
	store := newMemStore()

	results, err := newService(src, mockemb.New(8), store).Index(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(results) != 2 || results[0].ID() != "a" || results[1].ID() != "b" {
		t.Errorf("unexpected results: %v", results)
	}
	if len(store.vecs) != 2 {
		t.Errorf("expected 2 stored vectors, got %d", len(store.vecs))
	}
}

func TestIndex_SkipsStoredUnlessRefresh(t *testing.T) {
	src := &memSource{texts: map[string]string{"a": "Go", "b": "Rust"}}
	store := newMemStore()
	store.vecs["a"] = []float32{1, 0}
	svc := newService(src, mockemb.New(2), store)

	results, err := svc.Index(context.Background(), Request{IDs: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if got := statuses(results); got["a"] != dombatch.StatusCached || got["b"] != dombatch.StatusIndexed {
		t.Errorf("unexpected statuses: %v", got)
	}
	if !slices.Equal(src.fetched, []string{"b"}) {
		t.Errorf("expected only b fetched, got %v", src.fetched)
	}

	results, err = svc.Index(context.Background(), Request{IDs: []string{"a"}, Refresh: true})
	if err != nil {
		t.Fatalf("Index refresh: %v", err)
	}
	if results[0].Status() != dombatch.StatusIndexed {
		t.Errorf("refresh should re-embed, got %q", results[0].Status())
	}
}

func TestIndex_StoreLookupFailureEmbedsAll(t *testing.T) {
	src := &memSource{texts: map[string]string{"a": "Go"}}
	store := newMemStore()
	store.getErr = errors.New("timeout")

	results, err := newService(src, mockemb.New(4), store).Index(context.Background(), Request{IDs: []string{"a"}})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if results[0].Status() != dombatch.StatusIndexed {
		t.Errorf("expected indexed, got %q", results[0].Status())
	}
}

func TestIndex_StoreWriteFailureIsPerDocument(t *testing.T) {
	src := &memSource{texts: map[string]string{"a": "Go"}}
	store := newMemStore()
	store.putErr = errors.New("OOM")

	results, err := newService(src, mockemb.New(4), store).Index(context.Background(), Request{IDs: []string{"a"}})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if results[0].Status() != dombatch.StatusError || results[0].Reason() != "store_failed" {
		t.Errorf("unexpected result %q / %q", results[0].Status(), results[0].Reason())
	}
}

func TestIndex_ProviderFailureAborts(t *testing.T) {
	src := &memSource{texts: map[string]string{"a": "Go"}}
	_, err := newService(src, failingEmbedder{}, newMemStore()).Index(context.Background(), Request{IDs: []string{"a"}})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestIndex_InvalidRequest(t *testing.T) {
	svc := newService(&memSource{}, mockemb.New(4), newMemStore()).WithMaxDocuments(2)
	for _, ids := range [][]string{{"a", "a"}, {"a", ""}, {"a", "b", "c"}} {
		if _, err := svc.Index(context.Background(), Request{IDs: ids}); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("%v: expected ErrInvalidRequest, got %v", ids, err)
		}
	}
}

func TestIndex_NothingStored(t *testing.T) {
	results, err := newService(&memSource{}, mockemb.New(4), newMemStore()).Index(context.Background(), Request{})
	if err != nil || len(results) != 0 {
		t.Errorf("expected no results and no error, got %v, %v", results, err)
	}
}
