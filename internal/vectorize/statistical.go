package vectorize

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/resumerank/internal/vectorize/tfidf"
)

// Reference selects the texts a per-request TF-IDF model is fit on.
type Reference string

// Reference corpora.
const (
	// ReferenceQuery fits on the job description only.
	ReferenceQuery Reference = "query"
	// ReferenceCandidates fits on the candidate texts only.
	ReferenceCandidates Reference = "candidates"
	// ReferenceCorpus fits on the job description plus all candidate texts.
	ReferenceCorpus Reference = "corpus"
)

// IsValid checks if the reference is one of the supported values.
func (r Reference) IsValid() bool {
	return r == ReferenceQuery || r == ReferenceCandidates || r == ReferenceCorpus
}

// Statistical vectorizes with a TF-IDF model fit inside every Vectorize call.
// Models never outlive the call, so vectors of different requests never mix.
type Statistical struct {
	tokenizer tfidf.Tokenizer
	reference Reference
}

// NewStatistical creates a TF-IDF vectorizer.
func NewStatistical(tokenizer tfidf.Tokenizer, reference Reference) (*Statistical, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("tokenizer is required")
	}
	if reference == "" {
		reference = ReferenceCorpus
	}
	if !reference.IsValid() {
		return nil, fmt.Errorf("invalid tfidf reference %q", reference)
	}
	return &Statistical{tokenizer: tokenizer, reference: reference}, nil
}

// Vectorize fits a model on the reference corpus and transforms the query and documents.
// A degenerate model marks every document with text as StatusTransformFailed.
func (s *Statistical) Vectorize(ctx context.Context, query string, docs []Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("vectorize: %w", err)
	}

	model := tfidf.Fit(s.corpus(query, docs), s.tokenizer)

	res := Result{Documents: make([]Outcome, len(docs))}
	if !model.Degenerate() {
		res.Query = model.Transform(query)
	}

	for i, d := range docs {
		switch {
		case !hasText(d.Text):
			res.Documents[i] = Outcome{Status: StatusNoText}
		case model.Degenerate():
			res.Documents[i] = Outcome{Status: StatusTransformFailed}
		default:
			res.Documents[i] = Outcome{Vector: model.Transform(d.Text), Status: StatusOK}
		}
	}
	return res, nil
}

func (s *Statistical) corpus(query string, docs []Input) []string {
	var corpus []string
	if s.reference != ReferenceCandidates {
		corpus = append(corpus, query)
	}
	if s.reference == ReferenceQuery {
		return corpus
	}
	for _, d := range docs {
		if hasText(d.Text) {
			corpus = append(corpus, d.Text)
		}
	}
	return corpus
}

var _ Vectorizer = (*Statistical)(nil)

