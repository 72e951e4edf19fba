package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resumerank/internal/config"
	dbRedis "github.com/kailas-cloud/resumerank/internal/db/redis"
	"github.com/kailas-cloud/resumerank/internal/domain"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
	"github.com/kailas-cloud/resumerank/internal/extract"
	"github.com/kailas-cloud/resumerank/internal/metrics"
	"github.com/kailas-cloud/resumerank/internal/repository/embcache"
	"github.com/kailas-cloud/resumerank/internal/transport/mockemb"
	openaiEmb "github.com/kailas-cloud/resumerank/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/resumerank/internal/usecase/embedding"
	"github.com/kailas-cloud/resumerank/internal/usecase/extraction"
	rankinguc "github.com/kailas-cloud/resumerank/internal/usecase/ranking"
	"github.com/kailas-cloud/resumerank/internal/vectorize"
	"github.com/kailas-cloud/resumerank/internal/vectorize/tfidf"
)

// openStore connects to Redis and waits until it answers.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("redis not ready: %w", err)
	}
	logger.Info("Connected to redis", zap.Strings("addrs", cfg.Addrs))
	return store, nil
}

// modelName identifies the vector space for cache and vector store keys.
func modelName(cfg config.EmbeddingConfig) string {
	if cfg.Vectorizer.Provider == config.MockProvider {
		return fmt.Sprintf("%s-%d", config.MockProvider, dimensionsOf(cfg))
	}
	return cfg.Vectorizer.Model
}

func dimensionsOf(cfg config.EmbeddingConfig) int {
	if cfg.Vectorizer.Dimensions > 0 {
		return cfg.Vectorizer.Dimensions
	}
	if cfg.Vectorizer.Provider == config.MockProvider {
		return mockemb.DefaultDimensions
	}
	return 0
}

// buildEmbedder assembles the decorator chain: provider -> cached -> instrumented -> instruction.
// store may be nil, which disables the embedding cache.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	instruction string,
	store *dbRedis.Store,
	keyPrefix string,
	logger *zap.Logger,
) domain.Embedder {
	vec := cfg.Vectorizer

	var base domain.Embedder
	if vec.Provider == config.MockProvider {
		base = mockemb.New(vec.Dimensions)
	} else {
		prov := cfg.Providers[vec.Provider]
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     prov.APIKey,
			BaseURL:    prov.BaseURL,
			Model:      vec.Model,
			Dimensions: vec.Dimensions,
			User:       prov.User,
			Provider:   vec.Provider,
			Logger:     logger,
		})
	}

	embedder := base
	if store != nil {
		embedder = embcache.New(base, store, embcache.Options{
			KeyPrefix: keyPrefix,
			Model:     modelName(cfg),
			TTL:       time.Duration(cfg.CacheTTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, vec.Provider, modelName(cfg), logger).
		WithMaxBatchSize(cfg.MaxBatchSize)

	// Outermost, so the cache key includes the instruction.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// newExtraction builds the shared extraction stage. cache may be nil.
func newExtraction(cfg config.RankingConfig, cache extraction.Cache, logger *zap.Logger) *extraction.Service {
	ocr := extract.OCRConfig{
		Enabled:  cfg.OCR.IsEnabled(),
		DPI:      cfg.OCR.DPI,
		Language: cfg.OCR.Language,
	}
	if err := extract.CheckAvailable(ocr.Enabled); err != nil {
		logger.Warn("PDF extraction tools missing, PDF documents will be reported as unreadable",
			zap.Error(err))
		logger.Warn(extract.InstallInstructions())
	}
	return extraction.New(extract.New(ocr), cache).
		WithWorkers(cfg.Workers).
		WithTimeout(time.Duration(cfg.ExtractionTimeoutSec) * time.Second)
}

// newVectorizers configures both strategies. store may be nil, in which case every
// document vector is computed on demand.
func newVectorizers(
	cfg config.RankingConfig,
	query, docs domain.Embedder,
	store vectorize.VectorStore,
) (map[domrank.Strategy]rankinguc.Vectorizer, error) {
	tokenizer, err := tfidf.NewTokenizer(cfg.TFIDF.Analyzer)
	if err != nil {
		return nil, fmt.Errorf("tfidf tokenizer: %w", err)
	}
	statistical, err := vectorize.NewStatistical(tokenizer, vectorize.Reference(cfg.TFIDF.Reference))
	if err != nil {
		return nil, fmt.Errorf("tfidf vectorizer: %w", err)
	}
	return map[domrank.Strategy]rankinguc.Vectorizer{
		domrank.TFIDF:     statistical,
		domrank.Embedding: vectorize.NewSemantic(query, docs, store),
	}, nil
}

// embeddingHealthChecker adapts domain.Embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func (h embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
