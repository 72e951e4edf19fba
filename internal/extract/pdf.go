package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/resumerank/internal/domain"
	"github.com/kailas-cloud/resumerank/internal/domain/document"
	"github.com/kailas-cloud/resumerank/internal/logger"
)

// pdfMagic must appear in the first headerWindow bytes of a PDF.
const (
	pdfMagic     = "%PDF-"
	headerWindow = 1024
)

// extractPDF runs the direct text pass and, when it yields nothing, the OCR pass.
func (e *Extractor) extractPDF(ctx context.Context, doc *document.Document) (Extraction, error) {
	content := doc.Content()
	head := content
	if len(head) > headerWindow {
		head = head[:headerWindow]
	}
	if !bytes.Contains(head, []byte(pdfMagic)) {
		return Extraction{}, fmt.Errorf("%w: missing PDF header", domain.ErrDocumentUnreadable)
	}

	path, cleanup, err := writeTemp(content)
	if err != nil {
		return Extraction{}, err
	}
	defer cleanup()

	out, err := e.runner.Run(ctx, nil, toolPDFText, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Extraction{}, fmt.Errorf("pdftotext: %w", ctxErr)
		}
		return Extraction{}, fmt.Errorf("%w: pdftotext: %w", domain.ErrDocumentUnreadable, err)
	}

	pages := splitPages(string(out))
	text := normalize(strings.Join(pages, "\n"))
	if strings.TrimSpace(text) != "" || !e.ocr.Enabled {
		return Extraction{Text: text, Method: document.MethodDirect}, nil
	}

	ocrText, err := e.ocrPages(ctx, doc.ID(), path, max(len(pages), 1))
	if err != nil {
		return Extraction{}, err
	}
	return Extraction{Text: ocrText, Method: document.MethodOCR}, nil
}

// ocrPages renders each page to PNG and recognises it. A failed page is logged and skipped;
// only context cancellation is returned as an error.
func (e *Extractor) ocrPages(ctx context.Context, docID, path string, pageCount int) (string, error) {
	log := logger.FromContext(ctx)
	dpi := strconv.Itoa(e.ocr.DPI)

	texts := make([]string, 0, pageCount)
	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("ocr: %w", err)
		}
		p := strconv.Itoa(page)

		png, err := e.runner.Run(ctx, nil, toolPDFToPPM, "-f", p, "-l", p, "-r", dpi, "-png", path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", fmt.Errorf("ocr render: %w", ctxErr)
			}
			log.Warn("ocr page render failed",
				zap.String("document_id", docID), zap.Int("page", page), zap.Error(err))
			continue
		}

		recognised, err := e.runner.Run(ctx, png, toolOCR, "stdin", "stdout", "-l", e.ocr.Language)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", fmt.Errorf("ocr recognise: %w", ctxErr)
			}
			log.Warn("ocr page recognition failed",
				zap.String("document_id", docID), zap.Int("page", page), zap.Error(err))
			continue
		}
		texts = append(texts, string(recognised))
	}

	return normalize(strings.Join(texts, "\n")), nil
}

// splitPages splits pdftotext output on form feeds. pdftotext terminates every page
// with a form feed, so a trailing empty segment is dropped.
func splitPages(out string) []string {
	pages := strings.Split(out, "\f")
	if n := len(pages); n > 0 && pages[n-1] == "" {
		pages = pages[:n-1]
	}
	return pages
}

func writeTemp(content []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "resumerank-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}
