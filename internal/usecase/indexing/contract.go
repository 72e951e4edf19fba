package indexing

import (
	"context"

	"github.com/kailas-cloud/resumerank/internal/domain"
	"github.com/kailas-cloud/resumerank/internal/domain/document"
	"github.com/kailas-cloud/resumerank/internal/usecase/extraction"
)

// DocumentSource loads stored documents and lists their identifiers.
type DocumentSource interface {
	Fetch(ctx context.Context, ids []string) ([]document.Item, error)
	IDs(ctx context.Context) ([]string, error)
}

// Extractor extracts the text of fetched documents, one outcome per id.
type Extractor interface {
	Run(ctx context.Context, ids []string, items []document.Item) ([]extraction.Outcome, error)
}

// VectorStore keeps precomputed document vectors.
type VectorStore interface {
	Get(ctx context.Context, ids []string) (map[string]domain.Vector, error)
	Put(ctx context.Context, id string, vec []float32) error
}
