// Package extraction runs text extraction for a set of fetched documents concurrently.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/resumerank/internal/domain"
	"github.com/kailas-cloud/resumerank/internal/domain/document"
	"github.com/kailas-cloud/resumerank/internal/domain/ranking"
	"github.com/kailas-cloud/resumerank/internal/logger"
)

// DefaultTimeout bounds the extraction of a single document.
const DefaultTimeout = 60 * time.Second

// Outcome is the extraction result of one requested document.
// A non-empty Annotation means no text could be obtained.
type Outcome struct {
	ID         string
	Text       string
	Method     document.Method
	Annotation ranking.Annotation
}

// UsedFallback reports whether the text came from OCR.
func (o Outcome) UsedFallback() bool { return o.Method == document.MethodOCR }

// Service extracts documents with bounded concurrency and a per-document deadline.
type Service struct {
	extractor Extractor
	cache     Cache
	workers   int
	timeout   time.Duration
}

// New creates an extraction service. cache may be nil.
func New(extractor Extractor, cache Cache) *Service {
	return &Service{
		extractor: extractor,
		cache:     cache,
		workers:   runtime.NumCPU(),
		timeout:   DefaultTimeout,
	}
}

// WithWorkers bounds the number of concurrent extractions.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// WithTimeout sets the per-document extraction deadline.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Run extracts every item and returns one outcome per id, in ids order. Missing and
// failing documents become annotated outcomes; only cancellation of ctx is an error.
func (s *Service) Run(ctx context.Context, ids []string, items []document.Item) ([]Outcome, error) {
	byID := make(map[string]document.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	out := make([]Outcome, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, id := range ids {
		item, ok := byID[id]
		if !ok {
			out[i] = Outcome{ID: id, Annotation: ranking.AnnotationNotFound}
			continue
		}
		if item.Err != nil {
			out[i] = failedItem(ctx, id, item.Err)
			continue
		}

		g.Go(func() error {
			o, err := s.extractOne(gctx, item.Doc)
			if err != nil {
				return err
			}
			out[i] = o
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extract documents: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extract documents: %w", err)
	}
	return out, nil
}

func (s *Service) extractOne(ctx context.Context, doc document.Document) (Outcome, error) {
	dctx, log := logger.With(ctx, zap.String("document_id", doc.ID()))

	dctx, cancel := context.WithTimeout(dctx, s.timeout)
	ext, err := s.extractor.Extract(dctx, &doc)
	cancel()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}
		o := Outcome{ID: doc.ID()}
		switch {
		case errors.Is(err, domain.ErrDocumentUnreadable):
			o.Annotation = ranking.AnnotationUnreadable
		case errors.Is(err, context.DeadlineExceeded):
			log.Warn("Extraction timed out", zap.Duration("timeout", s.timeout))
			o.Annotation = ranking.AnnotationExtractionTimeout
		default:
			log.Warn("Extraction failed", zap.Error(err))
			o.Annotation = ranking.AnnotationUnreadable
		}
		return o, nil
	}

	if s.cache != nil && !doc.Extracted() {
		extracted := doc.WithExtraction(ext.Text, ext.Method)
		if err := s.cache.SaveExtraction(ctx, &extracted); err != nil {
			log.Warn("Failed to cache extraction", zap.Error(err))
		}
	}

	return Outcome{ID: doc.ID(), Text: ext.Text, Method: ext.Method}, nil
}

func failedItem(ctx context.Context, id string, err error) Outcome {
	if errors.Is(err, domain.ErrNotFound) {
		return Outcome{ID: id, Annotation: ranking.AnnotationNotFound}
	}
	logger.FromContext(ctx).Warn("Document could not be loaded",
		zap.String("document_id", id), zap.Error(err))
	return Outcome{ID: id, Annotation: ranking.AnnotationUnreadable}
}
