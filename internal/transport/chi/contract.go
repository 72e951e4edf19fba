package chi

import (
	"context"

	dombatch "github.com/kailas-cloud/resumerank/internal/domain/batch"
	domdoc "github.com/kailas-cloud/resumerank/internal/domain/document"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
	healthuc "github.com/kailas-cloud/resumerank/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/resumerank/internal/usecase/indexing"
	rankinguc "github.com/kailas-cloud/resumerank/internal/usecase/ranking"
)

// Ranker runs a ranking request.
type Ranker interface {
	Rank(ctx context.Context, in rankinguc.Input) (domrank.Ranking, error)
}

// Indexer computes and stores document embeddings.
type Indexer interface {
	Index(ctx context.Context, req indexinguc.Request) ([]dombatch.Result, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// RankingReader loads persisted rankings.
type RankingReader interface {
	Get(ctx context.Context, id string) (domrank.Ranking, error)
}

// DocumentWriter stores and removes candidate documents.
type DocumentWriter interface {
	Put(ctx context.Context, docs []domdoc.Document) (int, error)
	Delete(ctx context.Context, id string) error
}
