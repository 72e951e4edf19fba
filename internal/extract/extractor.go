// Package extract turns candidate documents into normalized text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/resumerank/internal/domain"
	"github.com/kailas-cloud/resumerank/internal/domain/document"
	"github.com/kailas-cloud/resumerank/internal/metrics"
)

// Default OCR settings.
const (
	DefaultDPI      = 200
	DefaultLanguage = "eng"
)

// OCRConfig controls the optical fallback for PDFs without a text layer.
type OCRConfig struct {
	Enabled  bool
	DPI      int
	Language string
}

// Extraction is the text of one document and how it was obtained.
type Extraction struct {
	Text   string
	Method document.Method
}

// UsedFallback reports whether the OCR pass produced the text.
func (e Extraction) UsedFallback() bool { return e.Method == document.MethodOCR }

// Extractor extracts text from PDF and plain-text documents.
type Extractor struct {
	runner CommandRunner
	ocr    OCRConfig
}

// New creates an Extractor backed by the poppler and tesseract binaries.
func New(ocr OCRConfig) *Extractor {
	return NewWithRunner(ExecRunner{}, ocr)
}

// NewWithRunner creates an Extractor with a custom command runner.
func NewWithRunner(runner CommandRunner, ocr OCRConfig) *Extractor {
	if ocr.DPI <= 0 {
		ocr.DPI = DefaultDPI
	}
	if ocr.Language == "" {
		ocr.Language = DefaultLanguage
	}
	return &Extractor{runner: runner, ocr: ocr}
}

// Extract returns the document text. Documents that already carry an extraction are
// returned as is. The only per-document error is domain.ErrDocumentUnreadable; an empty
// text is a valid outcome. Context errors are returned unchanged for the caller to classify.
func (e *Extractor) Extract(ctx context.Context, doc *document.Document) (Extraction, error) {
	if doc.Extracted() {
		metrics.ExtractionsTotal.WithLabelValues(string(doc.Format()), string(doc.Method()), "cached").Inc()
		return Extraction{Text: doc.Text(), Method: doc.Method()}, nil
	}

	start := time.Now()
	var (
		res Extraction
		err error
	)
	switch doc.Format() {
	case document.FormatText:
		res = Extraction{Text: decodeText(doc.Content()), Method: document.MethodDirect}
	case document.FormatPDF:
		res, err = e.extractPDF(ctx, doc)
	default:
		err = fmt.Errorf("%w: unsupported format %q", domain.ErrDocumentUnreadable, doc.Format())
	}

	method := string(res.Method)
	if method == "" {
		method = "none"
	}
	metrics.ExtractionDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	metrics.ExtractionsTotal.WithLabelValues(string(doc.Format()), method, outcome(res, err)).Inc()

	if err != nil {
		return Extraction{}, fmt.Errorf("extract %s: %w", doc.ID(), err)
	}
	return res, nil
}

func outcome(res Extraction, err error) string {
	switch {
	case errors.Is(err, domain.ErrDocumentUnreadable):
		return "unreadable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case err != nil:
		return "error"
	case strings.TrimSpace(res.Text) == "":
		return "empty"
	default:
		return "ok"
	}
}
