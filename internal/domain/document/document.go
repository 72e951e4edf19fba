package document

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// idRegex admits file-name-like identifiers: letters, digits, spaces and common punctuation.
var idRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} _.,@()+-]*$`)

// Item is the outcome of fetching one document from a source. Err is set instead of Doc
// for missing or unusable entries and never aborts the whole fetch.
type Item struct {
	ID  string
	Doc Document
	Err error
}

// MaxContentSize is the maximum raw document size in bytes.
const MaxContentSize = 25 << 20 // 25MB

// Format is the declared source format of a document.
type Format string

// Supported source formats.
const (
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
)

// ParseFormat parses a stored or declared format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatText, "txt", "plain":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported document format %q", s)
	}
}

// FormatFromFilename infers the format from a file extension (.pdf or .txt).
func FormatFromFilename(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, true
	case ".txt":
		return FormatText, true
	default:
		return "", false
	}
}

// Method records how the text of a document was obtained.
type Method string

// Extraction methods. MethodNone means the document has not been extracted yet.
const (
	MethodNone   Method = ""
	MethodDirect Method = "direct"
	MethodOCR    Method = "ocr"
)

// Document is a candidate document (immutable value object).
// Extraction state is attached once via WithExtraction.
type Document struct {
	id        string
	content   []byte
	format    Format
	text      string
	method    Method
	extracted bool
}

// New validates and creates an unextracted Document.
func New(id string, content []byte, format Format) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID must start with a letter or digit and contain no path separators")
	}
	parsed, err := ParseFormat(string(format))
	if err != nil {
		return Document{}, err
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}
	return Document{id: id, content: content, format: parsed}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
// A non-empty method marks the document as already extracted.
func Reconstruct(id string, content []byte, format Format, text string, method Method) Document {
	return Document{
		id: id, content: content, format: format,
		text: text, method: method, extracted: method != MethodNone,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Content returns the raw source bytes.
func (d *Document) Content() []byte { return d.content }

// Format returns the declared source format.
func (d *Document) Format() Format { return d.format }

// Text returns the extracted text, empty until extraction.
func (d *Document) Text() string { return d.text }

// Method returns the extraction method used.
func (d *Document) Method() Method { return d.method }

// Extracted reports whether extraction already ran for this document.
func (d *Document) Extracted() bool { return d.extracted }

// UsedFallback reports whether the text came from the optical fallback.
func (d *Document) UsedFallback() bool { return d.method == MethodOCR }

// NoText reports an extracted document without any usable text.
func (d *Document) NoText() bool {
	return d.extracted && strings.TrimSpace(d.text) == ""
}

// WithExtraction returns a copy carrying the extraction outcome.
func (d *Document) WithExtraction(text string, method Method) Document {
	return Document{
		id: d.id, content: d.content, format: d.format,
		text: text, method: method, extracted: true,
	}
}
