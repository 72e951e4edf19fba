package ranking

// Strategy selects how documents and queries are vectorized.
type Strategy string

// Vectorization strategies.
const (
	// TFIDF fits a term-weighting model per ranking request.
	TFIDF Strategy = "tfidf"
	// Embedding uses dense vectors from an embedding provider or the vector store.
	Embedding Strategy = "embedding"
)

// IsValid checks if the strategy is one of the supported values.
func (s Strategy) IsValid() bool {
	return s == TFIDF || s == Embedding
}
