package ranking

import (
	"context"

	"github.com/kailas-cloud/resumerank/internal/domain/document"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
	"github.com/kailas-cloud/resumerank/internal/usecase/extraction"
	"github.com/kailas-cloud/resumerank/internal/vectorize"
)

// DocumentSource loads candidate documents. Per-id problems are reported inside the
// items; a returned error aborts the request.
type DocumentSource interface {
	Fetch(ctx context.Context, ids []string) ([]document.Item, error)
}

// Extractor extracts the text of fetched documents, one outcome per id.
type Extractor interface {
	Run(ctx context.Context, ids []string, items []document.Item) ([]extraction.Outcome, error)
}

// Vectorizer maps the query and candidate texts into one vector space.
type Vectorizer interface {
	Vectorize(ctx context.Context, query string, docs []vectorize.Input) (vectorize.Result, error)
}

// ResultSink persists computed rankings.
type ResultSink interface {
	Save(ctx context.Context, r domrank.Ranking) error
}
