package tfidf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/analysis"
	"github.com/blevesearch/bleve/analysis/lang/en"
)

// Tokenizer names accepted by NewTokenizer.
const (
	TokenizerStandard = "standard"
	TokenizerEnglish  = "english"
)

// Tokenizer splits text into index terms. Implementations must be safe for concurrent use.
type Tokenizer interface {
	Tokens(text string) []string
}

// NewTokenizer returns the tokenizer registered under name. Empty name means standard.
func NewTokenizer(name string) (Tokenizer, error) {
	switch name {
	case "", TokenizerStandard:
		return NewStandardTokenizer(), nil
	case TokenizerEnglish:
		return NewEnglishTokenizer()
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", name)
	}
}

// StandardTokenizer lower-cases text, keeps runs of two or more letters or digits
// and drops English stop words.
type StandardTokenizer struct {
	pattern   *regexp.Regexp
	stopwords map[string]struct{}
}

// NewStandardTokenizer creates a StandardTokenizer with the built-in English stop list.
func NewStandardTokenizer() *StandardTokenizer {
	return &StandardTokenizer{
		pattern:   regexp.MustCompile(`[\p{L}\p{N}_]{2,}`),
		stopwords: englishStopwords(),
	}
}

// Tokens returns the non-stop-word terms of text in order of appearance.
func (t *StandardTokenizer) Tokens(text string) []string {
	raw := t.pattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := t.stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// EnglishTokenizer runs bleve's English analyzer: possessive removal, lower-casing,
// stop word removal and Porter stemming.
type EnglishTokenizer struct {
	analyzer *analysis.Analyzer
}

// NewEnglishTokenizer resolves the English analyzer from bleve's registry.
func NewEnglishTokenizer() (*EnglishTokenizer, error) {
	a := bleve.NewIndexMapping().AnalyzerNamed(en.AnalyzerName)
	if a == nil {
		return nil, fmt.Errorf("bleve analyzer %q not registered", en.AnalyzerName)
	}
	return &EnglishTokenizer{analyzer: a}, nil
}

// Tokens returns the analyzed terms of text.
func (t *EnglishTokenizer) Tokens(text string) []string {
	stream := t.analyzer.Analyze([]byte(text))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			continue
		}
		out = append(out, string(tok.Term))
	}
	return out
}
