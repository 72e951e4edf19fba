// Package tfidf fits term-frequency / inverse-document-frequency models over small corpora.
package tfidf

import (
	"math"
	"sort"

	"github.com/kailas-cloud/resumerank/internal/domain"
)

// Model is a fitted TF-IDF model. It is read-only after Fit and safe for concurrent use.
type Model struct {
	tokenizer  Tokenizer
	vocabulary map[string]int
	terms      []string
	idf        []float64
}

// Fit builds a sorted vocabulary and smoothed IDF weights ln((1+N)/(1+df))+1 from corpus.
// An empty corpus, or one without any terms, yields a degenerate model.
func Fit(corpus []string, tokenizer Tokenizer) *Model {
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenizer.Tokens(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	m := &Model{
		tokenizer:  tokenizer,
		vocabulary: make(map[string]int, len(terms)),
		terms:      terms,
		idf:        make([]float64, len(terms)),
	}
	n := float64(len(corpus))
	for i, term := range terms {
		m.vocabulary[term] = i
		m.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return m
}

// Degenerate reports an empty vocabulary. Transform of a degenerate model is meaningless.
func (m *Model) Degenerate() bool { return len(m.terms) == 0 }

// Dimension returns the vocabulary size.
func (m *Model) Dimension() int { return len(m.terms) }

// Terms returns a copy of the sorted vocabulary.
func (m *Model) Terms() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// IDF returns the weight of term and whether it is in the vocabulary.
func (m *Model) IDF(term string) (float64, bool) {
	i, ok := m.vocabulary[term]
	if !ok {
		return 0, false
	}
	return m.idf[i], true
}

// Transform returns the L2-normalized TF-IDF vector of text over the model vocabulary.
// Out-of-vocabulary terms are dropped; text without known terms yields the zero vector.
func (m *Model) Transform(text string) domain.Vector {
	vec := make(domain.Vector, len(m.terms))
	for _, tok := range m.tokenizer.Tokens(text) {
		if i, ok := m.vocabulary[tok]; ok {
			vec[i]++
		}
	}

	var sum float64
	for i, count := range vec {
		if count == 0 {
			continue
		}
		vec[i] = count * m.idf[i]
		sum += vec[i] * vec[i]
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
