package ranker

import (
	"time"

	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
)

// Format is the source format of a document: "pdf" or "text".
type Format string

// Supported formats.
const (
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
)

// Strategy selects how texts are vectorized.
type Strategy string

// Vectorization strategies.
const (
	StrategyTFIDF     Strategy = Strategy(domrank.TFIDF)
	StrategyEmbedding Strategy = Strategy(domrank.Embedding)
)

// Document is a candidate resume. An empty Format is inferred from the ID extension.
type Document struct {
	ID      string
	Content []byte
	Format  Format
}

// Text creates a plain-text document.
func Text(id, text string) Document {
	return Document{ID: id, Content: []byte(text), Format: FormatText}
}

// Result is the score of one document.
type Result struct {
	DocumentID string
	// Score is the cosine similarity: [0,1] for TF-IDF, [-1,1] for embeddings.
	Score float64
	// Percent is Score*100 rounded to two decimals.
	Percent float64
	// Annotation explains a zero score: no_text, unreadable, extraction_timeout,
	// transform_failed. Empty for regular scores.
	Annotation string
	// UsedFallback reports that the text came from OCR.
	UsedFallback bool
}

// Ranking is the ordered outcome of one Rank call: best match first, ties in input order.
type Ranking struct {
	ID        string
	Strategy  Strategy
	CreatedAt time.Time
	// EmbeddingTokens counts provider tokens consumed by the call.
	EmbeddingTokens int
	Results         []Result
}

// Top returns at most n leading results; n <= 0 returns all of them.
func (r Ranking) Top(n int) []Result {
	if n <= 0 || n >= len(r.Results) {
		return r.Results
	}
	return r.Results[:n]
}

func rankingFromDomain(rk domrank.Ranking, tokens int) Ranking {
	req := rk.Request()
	out := Ranking{
		ID:              rk.ID(),
		Strategy:        Strategy(req.Strategy()),
		CreatedAt:       rk.CreatedAt(),
		EmbeddingTokens: tokens,
		Results:         make([]Result, len(rk.Results())),
	}
	for i, r := range rk.Results() {
		out.Results[i] = Result{
			DocumentID:   r.DocumentID(),
			Score:        r.Score(),
			Percent:      r.Percent(),
			Annotation:   string(r.Annotation()),
			UsedFallback: r.UsedFallback(),
		}
	}
	return out
}
