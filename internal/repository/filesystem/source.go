// Package filesystem serves local resume files as a document source.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/kailas-cloud/resumerank/internal/domain"
	domdoc "github.com/kailas-cloud/resumerank/internal/domain/document"
)

// Source maps document IDs (file names) to local paths.
type Source struct {
	paths map[string]string
}

// FromDir collects the .pdf and .txt files directly inside dir. Other files and
// subdirectories are ignored.
func FromDir(dir string) (*Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	s := &Source{paths: make(map[string]string, len(entries))}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := domdoc.FormatFromFilename(e.Name()); !ok {
			continue
		}
		s.paths[e.Name()] = filepath.Join(dir, e.Name())
	}
	return s, nil
}

// FromPaths uses the given files; the ID of each file is its base name.
func FromPaths(paths []string) (*Source, error) {
	s := &Source{paths: make(map[string]string, len(paths))}
	for _, p := range paths {
		name := filepath.Base(p)
		if _, ok := domdoc.FormatFromFilename(name); !ok {
			return nil, fmt.Errorf("%s: only .pdf and .txt files are supported", p)
		}
		if prev, dup := s.paths[name]; dup {
			return nil, fmt.Errorf("%s and %s share the document ID %q", prev, p, name)
		}
		s.paths[name] = p
	}
	return s, nil
}

// IDs returns the document IDs in lexical order.
func (s *Source) IDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.paths))
	for id := range s.paths {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Fetch reads the requested files. Unknown IDs and vanished files yield domain.ErrNotFound
// items; oversized or invalid files yield domain.ErrDocumentUnreadable items.
func (s *Source) Fetch(ctx context.Context, ids []string) ([]domdoc.Item, error) {
	items := make([]domdoc.Item, len(ids))
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("fetch files: %w", err)
		}
		items[i] = s.load(id)
	}
	return items, nil
}

func (s *Source) load(id string) domdoc.Item {
	path, ok := s.paths[id]
	if !ok {
		return domdoc.Item{ID: id, Err: fmt.Errorf("file %s: %w", id, domain.ErrNotFound)}
	}
	format, _ := domdoc.FormatFromFilename(path)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domdoc.Item{ID: id, Err: fmt.Errorf("file %s: %w", path, domain.ErrNotFound)}
	}
	if err != nil {
		return domdoc.Item{ID: id, Err: fmt.Errorf("stat %s: %w: %w", path, domain.ErrDocumentUnreadable, err)}
	}
	if info.Size() > domdoc.MaxContentSize {
		return domdoc.Item{ID: id, Err: fmt.Errorf("file %s too large: %w", path, domain.ErrDocumentUnreadable)}
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return domdoc.Item{ID: id, Err: fmt.Errorf("read %s: %w: %w", path, domain.ErrDocumentUnreadable, err)}
	}
	doc, err := domdoc.New(id, content, format)
	if err != nil {
		return domdoc.Item{ID: id, Err: fmt.Errorf("file %s: %w: %w", path, domain.ErrDocumentUnreadable, err)}
	}
	return domdoc.Item{ID: id, Doc: doc}
}
