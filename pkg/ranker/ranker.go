package ranker

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/resumerank/internal/domain"
	domdoc "github.com/kailas-cloud/resumerank/internal/domain/document"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
	"github.com/kailas-cloud/resumerank/internal/extract"
	"github.com/kailas-cloud/resumerank/internal/repository/filesystem"
	"github.com/kailas-cloud/resumerank/internal/usecase/extraction"
	rankinguc "github.com/kailas-cloud/resumerank/internal/usecase/ranking"
	"github.com/kailas-cloud/resumerank/internal/vectorize"
	"github.com/kailas-cloud/resumerank/internal/vectorize/tfidf"
)

// Ranker is the library entry point. It is safe for concurrent use.
type Ranker struct {
	cfg         config
	extraction  rankinguc.Extractor
	vectorizers map[domrank.Strategy]rankinguc.Vectorizer
	obs         *observer
}

// New creates a Ranker.
func New(opts ...Option) (*Ranker, error) {
	cfg := config{
		strategy:    StrategyTFIDF,
		reference:   string(vectorize.ReferenceCorpus),
		analyzer:    tfidf.TokenizerStandard,
		ocr:         true,
		ocrDPI:      extract.DefaultDPI,
		ocrLanguage: extract.DefaultLanguage,
	}
	for _, o := range opts {
		o.apply(&cfg)
	}

	tokenizer, err := tfidf.NewTokenizer(cfg.analyzer)
	if err != nil {
		return nil, fmt.Errorf("ranker: %w", err)
	}
	statistical, err := vectorize.NewStatistical(tokenizer, vectorize.Reference(cfg.reference))
	if err != nil {
		return nil, fmt.Errorf("ranker: %w", err)
	}
	vectorizers := map[domrank.Strategy]rankinguc.Vectorizer{domrank.TFIDF: statistical}
	if cfg.embedder != nil {
		emb := adaptEmbedder(cfg.embedder)
		vectorizers[domrank.Embedding] = vectorize.NewSemantic(emb, emb, nil)
	}
	if _, ok := vectorizers[domrank.Strategy(cfg.strategy)]; !ok {
		return nil, fmt.Errorf("ranker: %w: strategy %q is not available (embedding needs WithEmbedder)",
			ErrInvalidRequest, cfg.strategy)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	ext := extract.New(extract.OCRConfig{Enabled: cfg.ocr, DPI: cfg.ocrDPI, Language: cfg.ocrLanguage})
	return &Ranker{
		cfg: cfg,
		extraction: extraction.New(ext, nil).
			WithWorkers(cfg.workers).
			WithTimeout(cfg.extractionTimeout),
		vectorizers: vectorizers,
		obs:         obs,
	}, nil
}

// Rank scores docs against the job description. Every document appears exactly once
// in the result. Invalid input wraps ErrInvalidRequest; an embedding provider failure
// wraps ErrProviderUnavailable.
func (r *Ranker) Rank(ctx context.Context, jobDescription string, docs []Document) (Ranking, error) {
	return r.RankWith(ctx, Query{Description: jobDescription}, docs)
}

// Query describes the job to rank against.
type Query struct {
	Title       string
	Description string
	// Strategy overrides the default strategy for one call.
	Strategy Strategy
}

// RankWith is Rank with a title and a per-call strategy.
func (r *Ranker) RankWith(ctx context.Context, q Query, docs []Document) (_ Ranking, err error) {
	strategy := q.Strategy
	if strategy == "" {
		strategy = r.cfg.strategy
	}
	start := time.Now()
	defer func() { r.obs.observe(strategy, len(docs), start, err) }()

	src, ids, err := newMemorySource(docs)
	if err != nil {
		return Ranking{}, err
	}
	return r.rank(ctx, src, ids, q, strategy)
}

// RankFiles ranks local .pdf and .txt files. Document IDs are the file base names.
func (r *Ranker) RankFiles(ctx context.Context, jobDescription string, paths []string) (_ Ranking, err error) {
	start := time.Now()
	defer func() { r.obs.observe(r.cfg.strategy, len(paths), start, err) }()

	src, err := filesystem.FromPaths(paths)
	if err != nil {
		return Ranking{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	ids, err := src.IDs(ctx)
	if err != nil {
		return Ranking{}, fmt.Errorf("list files: %w", err)
	}
	return r.rank(ctx, src, ids, Query{Description: jobDescription}, r.cfg.strategy)
}

// RankDir ranks the .pdf and .txt files directly inside dir.
func (r *Ranker) RankDir(ctx context.Context, jobDescription, dir string) (_ Ranking, err error) {
	src, err := filesystem.FromDir(dir)
	if err != nil {
		return Ranking{}, fmt.Errorf("ranker: %w", err)
	}
	ids, err := src.IDs(ctx)
	if err != nil {
		return Ranking{}, fmt.Errorf("list files: %w", err)
	}

	start := time.Now()
	defer func() { r.obs.observe(r.cfg.strategy, len(ids), start, err) }()
	return r.rank(ctx, src, ids, Query{Description: jobDescription}, r.cfg.strategy)
}

func (r *Ranker) rank(
	ctx context.Context,
	src rankinguc.DocumentSource,
	ids []string,
	q Query,
	strategy Strategy,
) (Ranking, error) {
	maxDocs := r.cfg.maxDocuments
	if maxDocs <= 0 {
		maxDocs = domrank.DefaultMaxDocuments
	}
	svc := rankinguc.New(src, r.extraction, r.vectorizers).
		WithDefaultStrategy(domrank.Strategy(r.cfg.strategy)).
		WithMaxDocuments(maxDocs)

	ctx, usage := domain.NewContextWithUsage(ctx)
	rk, err := svc.Rank(ctx, rankinguc.Input{
		Title:       q.Title,
		Description: q.Description,
		DocumentIDs: ids,
		Strategy:    domrank.Strategy(strategy),
	})
	if err != nil {
		return Ranking{}, fmt.Errorf("ranker: %w", err)
	}
	return rankingFromDomain(rk, usage.TotalTokens()), nil
}

// memorySource serves caller-supplied documents.
type memorySource map[string]domdoc.Document

func newMemorySource(docs []Document) (memorySource, []string, error) {
	src := make(memorySource, len(docs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		format := domdoc.Format(d.Format)
		if format == "" {
			f, ok := domdoc.FormatFromFilename(d.ID)
			if !ok {
				return nil, nil, fmt.Errorf("%w: document %q: format is required", ErrInvalidRequest, d.ID)
			}
			format = f
		}
		doc, err := domdoc.New(d.ID, d.Content, format)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: document %q: %w", ErrInvalidRequest, d.ID, err)
		}
		src[d.ID] = doc
		ids[i] = d.ID
	}
	return src, ids, nil
}

func (m memorySource) Fetch(ctx context.Context, ids []string) ([]domdoc.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	items := make([]domdoc.Item, len(ids))
	for i, id := range ids {
		doc, ok := m[id]
		if !ok {
			items[i] = domdoc.Item{ID: id, Err: fmt.Errorf("document %s: %w", id, domain.ErrNotFound)}
			continue
		}
		items[i] = domdoc.Item{ID: id, Doc: doc}
	}
	return items, nil
}
