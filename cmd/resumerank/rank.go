package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/resumerank/internal/domain"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
	"github.com/kailas-cloud/resumerank/internal/logger"
	"github.com/kailas-cloud/resumerank/internal/repository/filesystem"
	rankinguc "github.com/kailas-cloud/resumerank/internal/usecase/ranking"
)

type rankOptions struct {
	jdPath   string
	jdText   string
	title    string
	dir      string
	strategy string
	limit    int
	asJSON   bool
}

func rankCMD(opts *rootOptions) *cobra.Command {
	ro := &rankOptions{}
	rank := &cobra.Command{
		Use:   "rank [files...]",
		Short: "Rank local .pdf and .txt resumes against a job description",
		Example: `  resumerank rank --jd job.txt --dir ./resumes
  resumerank rank --jd-text "Python Flask developer" alice.pdf bob.txt --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd, opts, ro, args)
		},
	}
	f := rank.Flags()
	f.StringVar(&ro.jdPath, "jd", "", "file with the job description")
	f.StringVar(&ro.jdText, "jd-text", "", "job description text")
	f.StringVar(&ro.title, "title", "", "job title (defaults to the job description file name)")
	f.StringVar(&ro.dir, "dir", "", "directory with resumes (.pdf and .txt, not recursive)")
	f.StringVar(&ro.strategy, "strategy", "", "tfidf or embedding (default from config)")
	f.IntVar(&ro.limit, "limit", 0, "show only the top N results")
	f.BoolVar(&ro.asJSON, "json", false, "print JSON instead of a table")
	rank.MarkFlagsMutuallyExclusive("jd", "jd-text")
	rank.MarkFlagsOneRequired("jd", "jd-text")
	return rank
}

func runRank(cmd *cobra.Command, opts *rootOptions, ro *rankOptions, files []string) error {
	if ro.dir == "" && len(files) == 0 {
		return errors.New("give a --dir or at least one resume file")
	}
	if ro.dir != "" && len(files) > 0 {
		return errors.New("--dir and resume files are mutually exclusive")
	}
	if ro.limit < 0 {
		return errors.New("--limit must not be negative")
	}

	description, title, err := ro.jobDescription()
	if err != nil {
		return err
	}

	cfg, err := opts.loadLocal()
	if err != nil {
		return err
	}
	log, err := opts.cliLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var source *filesystem.Source
	if ro.dir != "" {
		source, err = filesystem.FromDir(ro.dir)
	} else {
		source, err = filesystem.FromPaths(files)
	}
	if err != nil {
		return err //nolint:wrapcheck // already names the path
	}

	ctx := logger.ContextWithLogger(cmd.Context(), log)
	ids, err := source.IDs(ctx)
	if err != nil {
		return err //nolint:wrapcheck // cannot fail for local files
	}
	if len(ids) == 0 {
		return fmt.Errorf("no .pdf or .txt files in %s", ro.dir)
	}

	// No shared vector store and no extraction cache: local runs are stateless.
	query := buildEmbedder(cfg.Embedding, cfg.Embedding.Vectorizer.QueryInstruction, nil, "", log)
	docs := buildEmbedder(cfg.Embedding, cfg.Embedding.Vectorizer.DocumentInstruction, nil, "", log)
	vectorizers, err := newVectorizers(cfg.Ranking, query, docs, nil)
	if err != nil {
		return err
	}
	svc := rankinguc.New(source, newExtraction(cfg.Ranking, nil, log), vectorizers).
		WithDefaultStrategy(domrank.Strategy(cfg.Ranking.Strategy)).
		WithMaxDocuments(max(cfg.Ranking.MaxDocuments, len(ids)))

	ctx, usage := domain.NewContextWithUsage(ctx)
	rk, err := svc.Rank(ctx, rankinguc.Input{
		Title:       title,
		Description: description,
		DocumentIDs: ids,
		Strategy:    domrank.Strategy(ro.strategy),
		CreatedBy:   os.Getenv("USER"),
	})
	if err != nil {
		return err //nolint:wrapcheck // service errors are descriptive
	}

	out := cmd.OutOrStdout()
	if ro.asJSON {
		return writeRankingJSON(out, rk, ro.limit, usage.TotalTokens())
	}
	return writeRankingTable(out, rk, ro.limit)
}

func (ro *rankOptions) jobDescription() (description, title string, err error) {
	if ro.jdText != "" {
		return ro.jdText, ro.title, nil
	}
	data, err := os.ReadFile(filepath.Clean(ro.jdPath))
	if err != nil {
		return "", "", fmt.Errorf("read job description: %w", err)
	}
	title = ro.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(ro.jdPath), filepath.Ext(ro.jdPath))
	}
	return string(data), title, nil
}

type rankedJSON struct {
	Rank         int     `json:"rank"`
	DocumentID   string  `json:"document_id"`
	Score        float64 `json:"score"`
	Percent      float64 `json:"percent"`
	Annotation   string  `json:"annotation,omitempty"`
	UsedFallback bool    `json:"used_fallback"`
}

type rankingJSON struct {
	ID              string       `json:"id"`
	JobTitle        string       `json:"job_title,omitempty"`
	Strategy        string       `json:"strategy"`
	CreatedAt       time.Time    `json:"created_at"`
	EmbeddingTokens int          `json:"embedding_tokens,omitempty"`
	Results         []rankedJSON `json:"results"`
}

func writeRankingJSON(w io.Writer, rk domrank.Ranking, limit, tokens int) error {
	req := rk.Request()
	top := rk.Top(limit)
	doc := rankingJSON{
		ID:              rk.ID(),
		JobTitle:        req.Query().Title(),
		Strategy:        string(req.Strategy()),
		CreatedAt:       rk.CreatedAt(),
		EmbeddingTokens: tokens,
		Results:         make([]rankedJSON, len(top)),
	}
	for i, r := range top {
		doc.Results[i] = rankedJSON{
			Rank:         i + 1,
			DocumentID:   r.DocumentID(),
			Score:        r.Score(),
			Percent:      r.Percent(),
			Annotation:   string(r.Annotation()),
			UsedFallback: r.UsedFallback(),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode ranking: %w", err)
	}
	return nil
}

func writeRankingTable(w io.Writer, rk domrank.Ranking, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RANK\tDOCUMENT\tMATCH\tNOTE")
	for i, r := range rk.Top(limit) {
		note := string(r.Annotation())
		if r.UsedFallback() {
			note = strings.TrimSpace(note + " ocr")
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%.2f%%\t%s\n", i+1, r.DocumentID(), r.Percent(), note)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
