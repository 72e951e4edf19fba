// Package mockemb implements a deterministic offline embedder for local runs and tests.
package mockemb

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/kailas-cloud/resumerank/internal/domain"
)

// DefaultDimensions is the vector size when none is configured.
const DefaultDimensions = 384

// Embedder derives a unit vector from the SHA-256 of the text.
// Identical texts map to bit-identical vectors; scores carry no semantic meaning.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder. dims <= 0 selects DefaultDimensions.
func New(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dimensions: dims}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("mock embed: %w", err)
	}
	tokens := estimateTokens(text)
	return domain.EmbeddingResult{
		Embedding:    e.vector(text),
		PromptTokens: tokens,
		TotalTokens:  tokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("mock batch embed: %w", err)
	}
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	res := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		res.Embeddings[i] = e.vector(t)
		tokens := estimateTokens(t)
		res.PromptTokens += tokens
		res.TotalTokens += tokens
	}
	return res, nil
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) vector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	rng := rand.New(rand.NewPCG( //nolint:gosec // deterministic, not for security
		binary.LittleEndian.Uint64(sum[0:8]),
		binary.LittleEndian.Uint64(sum[8:16]),
	))

	raw := make([]float64, e.dimensions)
	var norm float64
	for i := range raw {
		raw[i] = rng.NormFloat64()
		norm += raw[i] * raw[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, e.dimensions)
	for i, v := range raw {
		out[i] = float32(v / norm)
	}
	return out
}

// estimateTokens approximates provider token counts by whitespace-separated words.
func estimateTokens(text string) int {
	return len(strings.Fields(text))
}
