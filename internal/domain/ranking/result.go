package ranking

import "math"

// Annotation explains a zero or degraded score.
type Annotation string

// Result annotations. AnnotationNone marks a regular score.
const (
	AnnotationNone              Annotation = ""
	AnnotationNoText            Annotation = "no_text"
	AnnotationTransformFailed   Annotation = "transform_failed"
	AnnotationUnreadable        Annotation = "unreadable"
	AnnotationNotFound          Annotation = "not_found"
	AnnotationExtractionTimeout Annotation = "extraction_timeout"
)

// Result is the score of one document within one ranking request.
type Result struct {
	documentID   string
	score        float64
	annotation   Annotation
	usedFallback bool
}

// NewScored creates a regular result.
func NewScored(documentID string, score float64, usedFallback bool) Result {
	return Result{documentID: documentID, score: score, usedFallback: usedFallback}
}

// NewAnnotated creates a zero-score result with an explanation.
func NewAnnotated(documentID string, annotation Annotation, usedFallback bool) Result {
	return Result{documentID: documentID, annotation: annotation, usedFallback: usedFallback}
}

// Reconstruct creates a Result from storage without validation.
func Reconstruct(documentID string, score float64, annotation Annotation, usedFallback bool) Result {
	return Result{documentID: documentID, score: score, annotation: annotation, usedFallback: usedFallback}
}

// DocumentID returns the scored document identifier.
func (r *Result) DocumentID() string { return r.documentID }

// Score returns the raw cosine similarity.
func (r *Result) Score() float64 { return r.score }

// Percent returns the score as a 0-100 percentage rounded to two decimals.
func (r *Result) Percent() float64 { return Percent(r.score) }

// Annotation returns the explanation for a degraded score, if any.
func (r *Result) Annotation() Annotation { return r.annotation }

// UsedFallback reports whether the document text came from OCR.
func (r *Result) UsedFallback() bool { return r.usedFallback }

// Percent rescales a similarity to a percentage rounded to two decimals.
func Percent(score float64) float64 {
	return math.Round(score*100*100) / 100
}
