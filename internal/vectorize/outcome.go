// Package vectorize maps a query and candidate texts into one comparable vector space.
package vectorize

import (
	"context"
	"strings"

	"github.com/kailas-cloud/resumerank/internal/domain"
)

// Status classifies the vectorization of one document.
type Status int

// Document vectorization statuses.
const (
	StatusOK Status = iota
	// StatusNoText marks a document whose extraction yielded no text.
	StatusNoText
	// StatusTransformFailed marks a document with text that has no usable vector:
	// a degenerate model, an empty embedding or a vector from another space.
	StatusTransformFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoText:
		return "no_text"
	case StatusTransformFailed:
		return "transform_failed"
	default:
		return "unknown"
	}
}

// Outcome is the vector of one document, valid only when Status is StatusOK.
type Outcome struct {
	Vector domain.Vector
	Status Status
}

// Input is one candidate text to vectorize.
type Input struct {
	ID   string
	Text string
}

// Result holds the query vector and one outcome per input, in input order.
type Result struct {
	Query     domain.Vector
	Documents []Outcome
}

// Vectorizer turns a query and its candidates into vectors of the same space.
// Per-document problems are outcomes; only request-level failures are errors.
type Vectorizer interface {
	Vectorize(ctx context.Context, query string, docs []Input) (Result, error)
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
