package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kailas-cloud/resumerank/internal/domain"
	domdoc "github.com/kailas-cloud/resumerank/internal/domain/document"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestFromDir_FiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alice.pdf", "%PDF-1.4")
	writeFile(t, dir, "bob.txt", "Go developer")
	writeFile(t, dir, "notes.md", "# ignored")
	writeFile(t, dir, "photo.PNG", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "nested.txt"), 0o700); err != nil {
		t.Fatal(err)
	}

	src, err := FromDir(dir)
	if err != nil {
		t.Fatalf("FromDir: %v", err)
	}
	ids, _ := src.IDs(context.Background())
	if want := []string{"alice.pdf", "bob.txt"}; !slices.Equal(ids, want) {
		t.Errorf("IDs = %v, want %v", ids, want)
	}
}

func TestFromDir_Missing(t *testing.T) {
	if _, err := FromDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bob.txt", "Go developer")
	writeFile(t, dir, "cv.pdf", "%PDF-1.4 ...")
	src, err := FromDir(dir)
	if err != nil {
		t.Fatalf("FromDir: %v", err)
	}

	items, err := src.Fetch(context.Background(), []string{"cv.pdf", "ghost.txt", "bob.txt"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Err != nil || items[0].Doc.Format() != domdoc.FormatPDF {
		t.Errorf("cv.pdf: %v %q", items[0].Err, items[0].Doc.Format())
	}
	if !errors.Is(items[1].Err, domain.ErrNotFound) {
		t.Errorf("ghost.txt: expected ErrNotFound, got %v", items[1].Err)
	}
	if string(items[2].Doc.Content()) != "Go developer" || items[2].Doc.Format() != domdoc.FormatText {
		t.Errorf("bob.txt: unexpected document")
	}
}

func TestFetch_VanishedFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "gone.txt", "x")
	src, _ := FromPaths([]string{p})
	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}
	items, _ := src.Fetch(context.Background(), []string{"gone.txt"})
	if !errors.Is(items[0].Err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", items[0].Err)
	}
}

func TestFromPaths(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	p1 := writeFile(t, a, "cv.txt", "one")
	p2 := writeFile(t, b, "cv.txt", "two")

	if _, err := FromPaths([]string{p1, p2}); err == nil {
		t.Error("expected duplicate ID error")
	}
	if _, err := FromPaths([]string{filepath.Join(a, "cv.docx")}); err == nil {
		t.Error("expected unsupported extension error")
	}
	src, err := FromPaths([]string{p1})
	if err != nil {
		t.Fatalf("FromPaths: %v", err)
	}
	items, _ := src.Fetch(context.Background(), []string{"cv.txt"})
	if items[0].Err != nil || string(items[0].Doc.Content()) != "one" {
		t.Errorf("unexpected item: %+v", items[0])
	}
}

func TestFetch_CanceledContext(t *testing.T) {
	src, _ := FromPaths(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Fetch(ctx, []string{"a.txt"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
