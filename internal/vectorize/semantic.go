package vectorize

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resumerank/internal/domain"
	"github.com/kailas-cloud/resumerank/internal/logger"
)

// VectorStore keeps precomputed document vectors between requests.
type VectorStore interface {
	Get(ctx context.Context, ids []string) (map[string]domain.Vector, error)
	Put(ctx context.Context, id string, vec []float32) error
}

// Semantic vectorizes with dense embeddings. Stored document vectors are reused;
// missing ones are embedded in one batch and written back.
type Semantic struct {
	query domain.Embedder
	docs  domain.Embedder
	store VectorStore
}

// NewSemantic creates an embedding vectorizer. query and docs may be the same embedder or
// carry different instructions for asymmetric models. store may be nil.
func NewSemantic(query, docs domain.Embedder, store VectorStore) *Semantic {
	return &Semantic{query: query, docs: docs, store: store}
}

// Vectorize embeds the query and every document with text. Any provider failure aborts
// the call with an error wrapping domain.ErrProviderUnavailable.
func (s *Semantic) Vectorize(ctx context.Context, query string, docs []Input) (Result, error) {
	log := logger.FromContext(ctx)
	usage := domain.UsageFromContext(ctx)

	qres, err := s.query.Embed(ctx, query)
	if err != nil {
		return Result{}, providerError("embed query", err)
	}
	usage.AddTokens(qres.TotalTokens)
	if len(qres.Embedding) == 0 {
		return Result{}, fmt.Errorf("embed query: empty embedding: %w", domain.ErrProviderUnavailable)
	}
	qvec := domain.VectorFromFloat32(qres.Embedding)

	vectors, err := s.documentVectors(ctx, docs)
	if err != nil {
		return Result{}, err
	}

	res := Result{Query: qvec, Documents: make([]Outcome, len(docs))}
	for i, d := range docs {
		vec, ok := vectors[d.ID]
		switch {
		case !hasText(d.Text):
			res.Documents[i] = Outcome{Status: StatusNoText}
		case !ok || len(vec) == 0:
			res.Documents[i] = Outcome{Status: StatusTransformFailed}
		case len(vec) != len(qvec):
			log.Warn("Document vector dimension mismatch",
				zap.String("document_id", d.ID),
				zap.Int("document_dim", len(vec)),
				zap.Int("query_dim", len(qvec)),
			)
			res.Documents[i] = Outcome{Status: StatusTransformFailed}
		default:
			res.Documents[i] = Outcome{Vector: vec, Status: StatusOK}
		}
	}
	return res, nil
}

// documentVectors resolves vectors of documents with text: store first, provider for the rest.
func (s *Semantic) documentVectors(ctx context.Context, docs []Input) (map[string]domain.Vector, error) {
	log := logger.FromContext(ctx)

	var ids []string
	for _, d := range docs {
		if hasText(d.Text) {
			ids = append(ids, d.ID)
		}
	}
	if len(ids) == 0 {
		return map[string]domain.Vector{}, nil
	}

	vectors := make(map[string]domain.Vector, len(ids))
	if s.store != nil {
		stored, err := s.store.Get(ctx, ids)
		if err != nil {
			log.Warn("Failed to load stored vectors", zap.Int("documents", len(ids)), zap.Error(err))
		}
		for id, v := range stored {
			vectors[id] = v
		}
	}

	var missing []Input
	for _, d := range docs {
		if _, ok := vectors[d.ID]; !ok && hasText(d.Text) {
			missing = append(missing, d)
		}
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	texts := make([]string, len(missing))
	for i, d := range missing {
		texts[i] = d.Text
	}
	batch, err := domain.BatchEmbed(ctx, s.docs, texts)
	if err != nil {
		return nil, providerError("embed documents", err)
	}
	domain.UsageFromContext(ctx).AddTokens(batch.TotalTokens)
	if len(batch.Embeddings) != len(missing) {
		return nil, fmt.Errorf("embed documents: got %d embeddings for %d texts: %w",
			len(batch.Embeddings), len(missing), domain.ErrProviderUnavailable)
	}

	for i, d := range missing {
		emb := batch.Embeddings[i]
		vectors[d.ID] = domain.VectorFromFloat32(emb)
		if s.store == nil || len(emb) == 0 {
			continue
		}
		if err := s.store.Put(ctx, d.ID, emb); err != nil {
			log.Warn("Failed to store document vector", zap.String("document_id", d.ID), zap.Error(err))
		}
	}
	return vectors, nil
}

func providerError(op string, err error) error {
	if errors.Is(err, domain.ErrProviderUnavailable) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrProviderUnavailable, err)
}

var _ Vectorizer = (*Semantic)(nil)
