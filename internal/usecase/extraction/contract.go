package extraction

import (
	"context"

	"github.com/kailas-cloud/resumerank/internal/domain/document"
	"github.com/kailas-cloud/resumerank/internal/extract"
)

// Extractor converts a document into text.
type Extractor interface {
	Extract(ctx context.Context, doc *document.Document) (extract.Extraction, error)
}

// Cache stores extraction outcomes so later requests skip the extraction step.
type Cache interface {
	SaveExtraction(ctx context.Context, doc *document.Document) error
}
