package document

import (
	"fmt"

	"github.com/kailas-cloud/resumerank/internal/domain"
	domdoc "github.com/kailas-cloud/resumerank/internal/domain/document"
)

// Hash field names.
const (
	fieldContent = "content"
	fieldFormat  = "format"
	fieldText    = "text_content"
	fieldMethod  = "method"
)

// buildHashFields converts a domain Document into a flat map for HSET.
// Extraction fields are written only for extracted documents.
func buildHashFields(doc *domdoc.Document) map[string]string {
	m := map[string]string{
		fieldContent: string(doc.Content()),
		fieldFormat:  string(doc.Format()),
	}
	if doc.Extracted() {
		m[fieldText] = doc.Text()
		m[fieldMethod] = string(doc.Method())
	}
	return m
}

// extractionFields returns only the cached extraction of a document.
func extractionFields(doc *domdoc.Document) map[string]string {
	return map[string]string{
		fieldText:   doc.Text(),
		fieldMethod: string(doc.Method()),
	}
}

// parseHashFields converts a hash back into a domain Document.
// An empty hash means the key does not exist.
func parseHashFields(id string, m map[string]string) (domdoc.Document, error) {
	if len(m) == 0 {
		return domdoc.Document{}, domain.ErrNotFound
	}

	format, err := domdoc.ParseFormat(m[fieldFormat])
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %w", domain.ErrDocumentUnreadable, err)
	}

	var method domdoc.Method
	switch domdoc.Method(m[fieldMethod]) {
	case domdoc.MethodDirect:
		method = domdoc.MethodDirect
	case domdoc.MethodOCR:
		method = domdoc.MethodOCR
	default:
		// unknown or missing method: treat as not extracted
	}

	return domdoc.Reconstruct(id, []byte(m[fieldContent]), format, m[fieldText], method), nil
}
