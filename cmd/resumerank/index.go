package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumerank/internal/domain"
	dombatch "github.com/kailas-cloud/resumerank/internal/domain/batch"
	domdoc "github.com/kailas-cloud/resumerank/internal/domain/document"
	"github.com/kailas-cloud/resumerank/internal/logger"
	"github.com/kailas-cloud/resumerank/internal/metrics"
	documentrepo "github.com/kailas-cloud/resumerank/internal/repository/document"
	"github.com/kailas-cloud/resumerank/internal/repository/filesystem"
	vectorrepo "github.com/kailas-cloud/resumerank/internal/repository/vector"
	indexinguc "github.com/kailas-cloud/resumerank/internal/usecase/indexing"
)

func indexCMD(opts *rootOptions) *cobra.Command {
	var (
		dir     string
		refresh bool
	)
	index := &cobra.Command{
		Use:   "index [document-ids...]",
		Short: "Compute and store embeddings for stored documents",
		Long: `Extracts, embeds and stores the vectors of documents kept in Redis, so that
rankings with the embedding strategy reuse them. Without arguments every stored
document is indexed. --dir first imports the .pdf and .txt files of a directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log, err := opts.cliLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			metrics.Register()

			ctx := logger.ContextWithLogger(cmd.Context(), log)
			store, err := openStore(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer store.Close()

			prefix := cfg.Storage.KeyPrefix
			vecRepo := vectorrepo.New(store, prefix, modelName(cfg.Embedding))
			docRepo := documentrepo.New(store, prefix).WithVectors(vecRepo)

			ids := args
			if dir != "" {
				imported, err := importDir(cmd, docRepo, dir)
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					ids = imported
				}
			}

			embedder := buildEmbedder(cfg.Embedding, cfg.Embedding.Vectorizer.DocumentInstruction, store, prefix, log)
			svc := indexinguc.New(docRepo, newExtraction(cfg.Ranking, docRepo, log), embedder, vecRepo).
				WithMaxDocuments(cfg.Ranking.MaxDocuments)

			ctx, usage := domain.NewContextWithUsage(ctx)
			results, err := svc.Index(ctx, indexinguc.Request{IDs: ids, Refresh: refresh})
			if err != nil {
				return err //nolint:wrapcheck // service errors are descriptive
			}
			log.Debug("Indexing finished", zap.Int("tokens", usage.TotalTokens()))
			return writeIndexTable(cmd.OutOrStdout(), results)
		},
	}
	index.Flags().StringVar(&dir, "dir", "", "import .pdf and .txt files from this directory first")
	index.Flags().BoolVar(&refresh, "refresh", false, "re-embed documents that already have a stored vector")
	return index
}

// importDir stores the files of dir as documents and returns their IDs.
func importDir(cmd *cobra.Command, repo *documentrepo.Repo, dir string) ([]string, error) {
	source, err := filesystem.FromDir(dir)
	if err != nil {
		return nil, err //nolint:wrapcheck // already names the path
	}
	ids, err := source.IDs(cmd.Context())
	if err != nil {
		return nil, err //nolint:wrapcheck // cannot fail for local files
	}
	items, err := source.Fetch(cmd.Context(), ids)
	if err != nil {
		return nil, err //nolint:wrapcheck // only cancellation
	}

	docs := make([]domdoc.Document, 0, len(items))
	imported := make([]string, 0, len(items))
	for _, it := range items {
		if it.Err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", it.ID, it.Err)
			continue
		}
		docs = append(docs, it.Doc)
		imported = append(imported, it.ID)
	}
	created, err := repo.Put(cmd.Context(), docs)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", dir, err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "imported %d documents (%d new)\n", len(docs), created)
	return imported, nil
}

func writeIndexTable(w io.Writer, results []dombatch.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DOCUMENT\tSTATUS\tREASON")
	for _, r := range results {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID(), r.Status(), r.Reason())
	}
	summary := dombatch.Summary(results)
	_, _ = fmt.Fprintf(tw, "\n%d indexed, %d cached, %d skipped, %d failed\n",
		summary[dombatch.StatusIndexed], summary[dombatch.StatusCached],
		summary[dombatch.StatusSkipped], summary[dombatch.StatusError])
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
