package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumerank/internal/config"
	"github.com/kailas-cloud/resumerank/internal/db/postgres"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
	"github.com/kailas-cloud/resumerank/internal/metrics"
	documentrepo "github.com/kailas-cloud/resumerank/internal/repository/document"
	rankingrepo "github.com/kailas-cloud/resumerank/internal/repository/ranking"
	vectorrepo "github.com/kailas-cloud/resumerank/internal/repository/vector"
	chiTransport "github.com/kailas-cloud/resumerank/internal/transport/chi"
	healthuc "github.com/kailas-cloud/resumerank/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/resumerank/internal/usecase/indexing"
	rankinguc "github.com/kailas-cloud/resumerank/internal/usecase/ranking"
	"github.com/kailas-cloud/resumerank/internal/version"
)

func serveCMD(opts *rootOptions) *cobra.Command {
	var port int
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP ranking API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.HTTP.Port = port
			}
			logger, err := opts.logger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}
	serve.Flags().IntVar(&port, "port", 0, "listen port (overrides http.port)")
	return serve
}

func runServe(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	logger.Info("Starting resumerank API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("redis_addrs", cfg.Database.Addrs),
		zap.Bool("postgres", cfg.Postgres.Enabled()),
		zap.String("strategy", cfg.Ranking.Strategy),
	)

	metrics.Register()

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var pg *postgres.Client
	if cfg.Postgres.Enabled() {
		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(cfg.Postgres.DSN, postgres.Up, 0); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("Postgres migrations applied")
		}
		pg, err = postgres.Open(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer func() { _ = pg.Close() }()
		logger.Info("Connected to postgres")
	}

	prefix := cfg.Storage.KeyPrefix
	vecRepo := vectorrepo.New(store, prefix, modelName(cfg.Embedding))
	docRepo := documentrepo.New(store, prefix).WithVectors(vecRepo)

	docEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.Vectorizer.DocumentInstruction, store, prefix, logger)
	queryEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.Vectorizer.QueryInstruction, store, prefix, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Vectorizer.Provider),
		zap.String("model", modelName(cfg.Embedding)),
		zap.Int("dimensions", dimensionsOf(cfg.Embedding)),
	)

	extractSvc := newExtraction(cfg.Ranking, docRepo, logger)
	vectorizers, err := newVectorizers(cfg.Ranking, queryEmbedder, docEmbedder, vecRepo)
	if err != nil {
		return err
	}

	rankSvc := rankinguc.New(docRepo, extractSvc, vectorizers).
		WithDefaultStrategy(domrank.Strategy(cfg.Ranking.Strategy)).
		WithMaxDocuments(cfg.Ranking.MaxDocuments)
	indexSvc := indexinguc.New(docRepo, extractSvc, docEmbedder, vecRepo).
		WithMaxDocuments(cfg.Ranking.MaxDocuments)
	healthSvc := healthuc.New(store, embeddingHealthChecker{embedder: docEmbedder})

	server := chiTransport.NewServer(rankSvc, indexSvc, healthSvc, logger).
		WithDocuments(docRepo).
		WithAPIKeys(cfg.Auth.APIKeys).
		WithMaxBodyBytes(int64(cfg.HTTP.MaxBodyBytes))

	if pg != nil {
		sink := rankingrepo.New(pg.DB())
		rankSvc.WithSink(sink)
		healthSvc.WithPostgres(pg)
		server.WithRankings(sink)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
