// Package ranking scores candidate documents against a job description.
package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumerank/internal/domain"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
	"github.com/kailas-cloud/resumerank/internal/logger"
	"github.com/kailas-cloud/resumerank/internal/metrics"
	"github.com/kailas-cloud/resumerank/internal/vectorize"
)

// Input is an unvalidated ranking request.
type Input struct {
	Title       string
	Description string
	DocumentIDs []string
	// Strategy selects the vectorizer; empty means the service default.
	Strategy  domrank.Strategy
	CreatedBy string
}

// Service runs the ranking pipeline: fetch, extract, vectorize, score, aggregate, persist.
type Service struct {
	source          DocumentSource
	extractor       Extractor
	vectorizers     map[domrank.Strategy]Vectorizer
	defaultStrategy domrank.Strategy
	sink            ResultSink
	maxDocuments    int
	now             func() time.Time
	newID           func() string
}

// New creates a ranking service. The default strategy is TF-IDF when configured,
// otherwise the only configured strategy.
func New(source DocumentSource, extractor Extractor, vectorizers map[domrank.Strategy]Vectorizer) *Service {
	s := &Service{
		source:       source,
		extractor:    extractor,
		vectorizers:  vectorizers,
		maxDocuments: domrank.DefaultMaxDocuments,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	if _, ok := vectorizers[domrank.TFIDF]; ok {
		s.defaultStrategy = domrank.TFIDF
	} else {
		for st := range vectorizers {
			s.defaultStrategy = st
		}
	}
	return s
}

// WithDefaultStrategy sets the strategy used when a request names none.
func (s *Service) WithDefaultStrategy(st domrank.Strategy) *Service {
	if st != "" {
		s.defaultStrategy = st
	}
	return s
}

// WithSink enables persistence of every computed ranking.
func (s *Service) WithSink(sink ResultSink) *Service {
	s.sink = sink
	return s
}

// WithMaxDocuments limits the number of documents per request.
func (s *Service) WithMaxDocuments(n int) *Service {
	if n > 0 {
		s.maxDocuments = n
	}
	return s
}

// Rank scores every requested document and returns them ordered by relevance.
// Per-document failures are annotated zero scores. A sink failure returns the computed
// ranking together with an error wrapping domain.ErrResultSink.
func (s *Service) Rank(ctx context.Context, in Input) (domrank.Ranking, error) {
	req, err := s.validate(in)
	if err != nil {
		return domrank.Ranking{}, err
	}
	strategy := string(req.Strategy())
	log := logger.FromContext(ctx).With(
		zap.String("ranking_id", req.ID()),
		zap.String("strategy", strategy),
	)

	rk, err := s.rank(ctx, req)
	if err != nil {
		metrics.RankingsTotal.WithLabelValues(strategy, "error").Inc()
		return domrank.Ranking{}, err
	}
	metrics.RankingDocuments.Observe(float64(len(req.DocumentIDs())))

	if s.sink != nil {
		if err := s.sink.Save(ctx, rk); err != nil {
			metrics.RankingsTotal.WithLabelValues(strategy, "sink_error").Inc()
			log.Error("Failed to persist ranking", zap.Error(err))
			return rk, fmt.Errorf("%w: %w", domain.ErrResultSink, err)
		}
	}

	metrics.RankingsTotal.WithLabelValues(strategy, "ok").Inc()
	log.Info("Ranking completed", zap.Int("documents", len(rk.Results())))
	return rk, nil
}

func (s *Service) validate(in Input) (domrank.Request, error) {
	query, err := domrank.NewQuery(in.Title, in.Description)
	if err != nil {
		return domrank.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	strategy := in.Strategy
	if strategy == "" {
		strategy = s.defaultStrategy
	}
	req, err := domrank.NewRequest(s.newID(), query, in.DocumentIDs, strategy, in.CreatedBy, s.maxDocuments)
	if err != nil {
		return domrank.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if _, ok := s.vectorizers[strategy]; !ok {
		return domrank.Request{}, fmt.Errorf("%w: strategy %q is not configured", domain.ErrInvalidRequest, strategy)
	}
	return req, nil
}

func (s *Service) rank(ctx context.Context, req domrank.Request) (domrank.Ranking, error) {
	ids := req.DocumentIDs()

	items, err := s.source.Fetch(ctx, ids)
	if err != nil {
		return domrank.Ranking{}, fmt.Errorf("fetch documents: %w", err)
	}

	extracted, err := s.extractor.Run(ctx, ids, items)
	if err != nil {
		return domrank.Ranking{}, err
	}

	results := make([]domrank.Result, len(ids))
	var inputs []vectorize.Input
	var slots []int
	for i, o := range extracted {
		if o.Annotation != domrank.AnnotationNone {
			results[i] = domrank.NewAnnotated(o.ID, o.Annotation, o.UsedFallback())
			continue
		}
		inputs = append(inputs, vectorize.Input{ID: o.ID, Text: o.Text})
		slots = append(slots, i)
	}

	if len(inputs) > 0 {
		vec, err := s.vectorizers[req.Strategy()].Vectorize(ctx, req.Query().Description(), inputs)
		if err != nil {
			return domrank.Ranking{}, fmt.Errorf("vectorize: %w", err)
		}
		for j, outcome := range vec.Documents {
			o := extracted[slots[j]]
			results[slots[j]] = score(o.ID, vec.Query, outcome, o.UsedFallback())
		}
	}

	return domrank.New(req, Aggregate(results), s.now().UTC()), nil
}

func score(id string, query domain.Vector, o vectorize.Outcome, usedFallback bool) domrank.Result {
	switch o.Status {
	case vectorize.StatusNoText:
		return domrank.NewAnnotated(id, domrank.AnnotationNoText, usedFallback)
	case vectorize.StatusTransformFailed:
		return domrank.NewAnnotated(id, domrank.AnnotationTransformFailed, usedFallback)
	default:
		return domrank.NewScored(id, Cosine(query, o.Vector), usedFallback)
	}
}
