// Package indexing precomputes and stores document embeddings for the embedding strategy.
package indexing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resumerank/internal/domain"
	dombatch "github.com/kailas-cloud/resumerank/internal/domain/batch"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
	"github.com/kailas-cloud/resumerank/internal/logger"
	"github.com/kailas-cloud/resumerank/internal/usecase/extraction"
)

// Request selects the documents to index. Empty IDs means every stored document.
// Refresh re-embeds documents that already have a stored vector.
type Request struct {
	IDs     []string
	Refresh bool
}

// Service extracts, embeds and stores document vectors.
type Service struct {
	source       DocumentSource
	extractor    Extractor
	embed        domain.Embedder
	store        VectorStore
	maxDocuments int
}

// New creates an indexing service.
func New(source DocumentSource, extractor Extractor, embed domain.Embedder, store VectorStore) *Service {
	return &Service{
		source: source, extractor: extractor, embed: embed, store: store,
		maxDocuments: domrank.DefaultMaxDocuments,
	}
}

// WithMaxDocuments limits the number of explicitly requested documents.
func (s *Service) WithMaxDocuments(n int) *Service {
	if n > 0 {
		s.maxDocuments = n
	}
	return s
}

// Index embeds the requested documents in one batch and stores their vectors.
// Per-document problems are reported in the results; a provider failure aborts the call.
func (s *Service) Index(ctx context.Context, req Request) ([]dombatch.Result, error) {
	ids, err := s.resolveIDs(ctx, req.IDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	log := logger.FromContext(ctx)

	results := make([]dombatch.Result, len(ids))
	pending := ids
	if !req.Refresh {
		pending = s.skipStored(ctx, ids, results)
	}
	if len(pending) == 0 {
		return results, nil
	}

	items, err := s.source.Fetch(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	outcomes, err := s.extractor.Run(ctx, pending, items)
	if err != nil {
		return nil, err
	}

	var texts []string
	var toEmbed []extraction.Outcome
	byID := make(map[string]dombatch.Result, len(pending))
	for _, o := range outcomes {
		switch {
		case o.Annotation != domrank.AnnotationNone:
			byID[o.ID] = dombatch.NewError(o.ID, string(o.Annotation), nil)
		case !hasText(o.Text):
			byID[o.ID] = dombatch.NewSkipped(o.ID, string(domrank.AnnotationNoText))
		default:
			texts = append(texts, o.Text)
			toEmbed = append(toEmbed, o)
		}
	}

	if len(texts) > 0 {
		res, err := domain.BatchEmbed(ctx, s.embed, texts)
		if err != nil {
			return nil, fmt.Errorf("embed documents: %w", err)
		}
		if len(res.Embeddings) != len(texts) {
			return nil, fmt.Errorf("embed documents: got %d vectors for %d texts: %w",
				len(res.Embeddings), len(texts), domain.ErrProviderUnavailable)
		}
		domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

		for i, o := range toEmbed {
			vec := res.Embeddings[i]
			if len(vec) == 0 {
				byID[o.ID] = dombatch.NewError(o.ID, string(domrank.AnnotationTransformFailed), nil)
				continue
			}
			if err := s.store.Put(ctx, o.ID, vec); err != nil {
				log.Warn("Failed to store document vector", zap.String("document_id", o.ID), zap.Error(err))
				byID[o.ID] = dombatch.NewError(o.ID, "store_failed", err)
				continue
			}
			byID[o.ID] = dombatch.NewIndexed(o.ID)
		}
	}

	for i, id := range ids {
		if r, ok := byID[id]; ok {
			results[i] = r
		}
	}

	summary := dombatch.Summary(results)
	log.Info("Indexing completed",
		zap.Int("documents", len(ids)),
		zap.Int("indexed", summary[dombatch.StatusIndexed]),
		zap.Int("cached", summary[dombatch.StatusCached]),
		zap.Int("skipped", summary[dombatch.StatusSkipped]),
		zap.Int("failed", summary[dombatch.StatusError]),
	)
	return results, nil
}

func (s *Service) resolveIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		all, err := s.source.IDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		return all, nil
	}
	if len(ids) > s.maxDocuments {
		return nil, fmt.Errorf("%w: too many documents: %d (max %d)", domain.ErrInvalidRequest, len(ids), s.maxDocuments)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("%w: document ID must not be empty", domain.ErrInvalidRequest)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate document ID %q", domain.ErrInvalidRequest, id)
		}
		seen[id] = struct{}{}
	}
	return ids, nil
}

// skipStored marks documents with a stored vector as cached and returns the rest.
// A store failure just means everything gets embedded again.
func (s *Service) skipStored(ctx context.Context, ids []string, results []dombatch.Result) []string {
	stored, err := s.store.Get(ctx, ids)
	if err != nil {
		logger.FromContext(ctx).Warn("Vector store lookup failed", zap.Error(err))
		return ids
	}
	pending := make([]string, 0, len(ids))
	for i, id := range ids {
		if v, ok := stored[id]; ok && len(v) > 0 {
			results[i] = dombatch.NewCached(id)
			continue
		}
		pending = append(pending, id)
	}
	return pending
}

func hasText(s string) bool { return strings.TrimSpace(s) != "" }
