package extraction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/resumerank/internal/domain"
	"github.com/kailas-cloud/resumerank/internal/domain/document"
	"github.com/kailas-cloud/resumerank/internal/domain/ranking"
	"github.com/kailas-cloud/resumerank/internal/extract"
)

// --- Mocks ---

type extractFunc func(ctx context.Context, doc *document.Document) (extract.Extraction, error)

type mockExtractor struct {
	fn       extractFunc
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (m *mockExtractor) Extract(ctx context.Context, doc *document.Document) (extract.Extraction, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return m.fn(ctx, doc)
}

type mockCache struct {
	mu    sync.Mutex
	saved map[string]string
	err   error
}

func (m *mockCache) SaveExtraction(_ context.Context, doc *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]string)
	}
	m.saved[doc.ID()] = doc.Text()
	return m.err
}

func textItem(t *testing.T, id, content string) document.Item {
	t.Helper()
	doc, err := document.New(id, []byte(content), document.FormatText)
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return document.Item{ID: id, Doc: doc}
}

func echoText(_ context.Context, doc *document.Document) (extract.Extraction, error) {
	return extract.Extraction{Text: string(doc.Content()), Method: document.MethodDirect}, nil
}

// --- Tests ---

func TestRun_PreservesOrder(t *testing.T) {
	ids := make([]string, 20)
	items := make([]document.Item, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("cv-%02d", i)
		// reverse item order: outcomes must follow ids, not items
		items[19-i] = textItem(t, ids[i], "text of "+ids[i])
	}

	svc := New(&mockExtractor{fn: echoText}, nil).WithWorkers(4)
	out, err := svc.Run(context.Background(), ids, items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != len(ids) {
		t.Fatalf("expected %d outcomes, got %d", len(ids), len(out))
	}
	for i, o := range out {
		if o.ID != ids[i] || o.Text != "text of "+ids[i] {
			t.Errorf("outcome[%d] = %+v", i, o)
		}
		if o.Annotation != ranking.AnnotationNone {
			t.Errorf("outcome[%d] unexpected annotation %q", i, o.Annotation)
		}
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	ext := &mockExtractor{fn: func(ctx context.Context, doc *document.Document) (extract.Extraction, error) {
		time.Sleep(5 * time.Millisecond)
		return echoText(ctx, doc)
	}}
	var ids []string
	var items []document.Item
	for i := range 12 {
		id := fmt.Sprintf("cv-%d", i)
		ids = append(ids, id)
		items = append(items, textItem(t, id, "x"))
	}

	if _, err := New(ext, nil).WithWorkers(3).Run(context.Background(), ids, items); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if p := ext.peak.Load(); p > 3 {
		t.Errorf("expected at most 3 concurrent extractions, got %d", p)
	}
}

func TestRun_Annotations(t *testing.T) {
	ext := &mockExtractor{fn: func(ctx context.Context, doc *document.Document) (extract.Extraction, error) {
		switch doc.ID() {
		case "broken":
			return extract.Extraction{}, fmt.Errorf("extract broken: %w", domain.ErrDocumentUnreadable)
		case "slow":
			<-ctx.Done()
			return extract.Extraction{}, ctx.Err()
		case "weird":
			return extract.Extraction{}, errors.New("tool crashed")
		}
		return echoText(ctx, doc)
	}}

	ids := []string{"ok", "broken", "slow", "missing", "gone", "bad-hash", "weird"}
	items := []document.Item{
		textItem(t, "ok", "Go developer"),
		textItem(t, "broken", "x"),
		textItem(t, "slow", "x"),
		{ID: "gone", Err: fmt.Errorf("fetch: %w", domain.ErrNotFound)},
		{ID: "bad-hash", Err: fmt.Errorf("parse: %w", domain.ErrDocumentUnreadable)},
		textItem(t, "weird", "x"),
	}

	out, err := New(ext, nil).WithTimeout(20*time.Millisecond).Run(context.Background(), ids, items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := map[string]ranking.Annotation{
		"ok":       ranking.AnnotationNone,
		"broken":   ranking.AnnotationUnreadable,
		"slow":     ranking.AnnotationExtractionTimeout,
		"missing":  ranking.AnnotationNotFound,
		"gone":     ranking.AnnotationNotFound,
		"bad-hash": ranking.AnnotationUnreadable,
		"weird":    ranking.AnnotationUnreadable,
	}
	for i, o := range out {
		if o.ID != ids[i] {
			t.Errorf("outcome[%d] id = %q, want %q", i, o.ID, ids[i])
		}
		if o.Annotation != want[o.ID] {
			t.Errorf("%s: annotation %q, want %q", o.ID, o.Annotation, want[o.ID])
		}
	}
	if out[0].Text != "Go developer" {
		t.Errorf("unexpected text %q", out[0].Text)
	}
}

func TestRun_RequestCancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ext := &mockExtractor{fn: func(ctx context.Context, _ *document.Document) (extract.Extraction, error) {
		cancel()
		<-ctx.Done()
		return extract.Extraction{}, ctx.Err()
	}}

	_, err := New(ext, nil).Run(ctx, []string{"a"}, []document.Item{textItem(t, "a", "x")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRun_CachesFreshExtractions(t *testing.T) {
	cache := &mockCache{}
	cached := document.Reconstruct("cached", []byte("x"), document.FormatText, "stored text", document.MethodDirect)
	items := []document.Item{
		textItem(t, "fresh", "new text"),
		{ID: "cached", Doc: cached},
	}
	ext := &mockExtractor{fn: func(_ context.Context, doc *document.Document) (extract.Extraction, error) {
		if doc.Extracted() {
			return extract.Extraction{Text: doc.Text(), Method: doc.Method()}, nil
		}
		return extract.Extraction{Text: string(doc.Content()), Method: document.MethodDirect}, nil
	}}

	out, err := New(ext, cache).Run(context.Background(), []string{"fresh", "cached"}, items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out[1].Text != "stored text" {
		t.Errorf("expected cached text, got %q", out[1].Text)
	}
	if len(cache.saved) != 1 || cache.saved["fresh"] != "new text" {
		t.Errorf("expected only the fresh extraction cached, got %v", cache.saved)
	}
}

func TestRun_CacheFailureIsNotFatal(t *testing.T) {
	cache := &mockCache{err: errors.New("redis down")}
	out, err := New(&mockExtractor{fn: echoText}, cache).
		Run(context.Background(), []string{"a"}, []document.Item{textItem(t, "a", "text")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out[0].Text != "text" || out[0].Annotation != ranking.AnnotationNone {
		t.Errorf("unexpected outcome %+v", out[0])
	}
}

func TestOutcome_UsedFallback(t *testing.T) {
	if !(Outcome{Method: document.MethodOCR}).UsedFallback() {
		t.Error("OCR outcome must report fallback")
	}
	if (Outcome{Method: document.MethodDirect}).UsedFallback() {
		t.Error("direct outcome must not report fallback")
	}
}
