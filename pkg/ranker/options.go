package ranker

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Ranker.
type Option interface {
	apply(*config)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

type config struct {
	strategy          Strategy
	embedder          Embedder
	reference         string
	analyzer          string
	workers           int
	extractionTimeout time.Duration
	maxDocuments      int
	ocr               bool
	ocrDPI            int
	ocrLanguage       string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithStrategy sets the default strategy. Default: StrategyTFIDF.
func WithStrategy(s Strategy) Option {
	return optionFunc(func(c *config) {
		c.strategy = s
	})
}

// WithEmbedder enables StrategyEmbedding with the given provider.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *config) {
		c.embedder = e
	})
}

// WithReference selects the texts the TF-IDF model is fit on:
// "corpus" (default, job description plus candidates), "query" or "candidates".
func WithReference(ref string) Option {
	return optionFunc(func(c *config) {
		c.reference = ref
	})
}

// WithAnalyzer selects the TF-IDF tokenizer: "standard" (default) or "english"
// (stop words removed, Porter stemming).
func WithAnalyzer(name string) Option {
	return optionFunc(func(c *config) {
		c.analyzer = name
	})
}

// WithWorkers bounds concurrent extractions. Default: number of CPUs.
func WithWorkers(n int) Option {
	return optionFunc(func(c *config) {
		c.workers = n
	})
}

// WithExtractionTimeout bounds the extraction of a single document. Default: 60s.
func WithExtractionTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) {
		c.extractionTimeout = d
	})
}

// WithMaxDocuments caps the documents per Rank call. Default: 500.
func WithMaxDocuments(n int) Option {
	return optionFunc(func(c *config) {
		c.maxDocuments = n
	})
}

// WithOCR toggles the tesseract fallback for PDFs without a text layer. Default: on.
func WithOCR(enabled bool) Option {
	return optionFunc(func(c *config) {
		c.ocr = enabled
	})
}

// WithOCRSettings sets the rasterization DPI and the tesseract language.
func WithOCRSettings(dpi int, language string) Option {
	return optionFunc(func(c *config) {
		c.ocrDPI = dpi
		c.ocrLanguage = language
	})
}

// WithLogger enables structured logging for ranker operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *config) {
		c.logger = l
	})
}

// WithPrometheus registers operation metrics (counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *config) {
		c.metricsReg = reg
	})
}
