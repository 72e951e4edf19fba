package ranking

import (
	"fmt"
	"strings"
)

// Request limits.
const (
	// MaxDescriptionLength caps the job description size in bytes.
	MaxDescriptionLength = 64 << 10
	MaxTitleLength       = 512
	DefaultMaxDocuments  = 500
)

// Query is the job description a corpus is ranked against.
type Query struct {
	title       string
	description string
}

// NewQuery validates a job title and description.
func NewQuery(title, description string) (Query, error) {
	if strings.TrimSpace(description) == "" {
		return Query{}, fmt.Errorf("job description is required")
	}
	if len(description) > MaxDescriptionLength {
		return Query{}, fmt.Errorf("job description too long (max %d bytes)", MaxDescriptionLength)
	}
	if len(title) > MaxTitleLength {
		return Query{}, fmt.Errorf("job title too long (max %d bytes)", MaxTitleLength)
	}
	return Query{title: strings.TrimSpace(title), description: description}, nil
}

// ReconstructQuery creates a Query from storage without validation.
func ReconstructQuery(title, description string) Query {
	return Query{title: title, description: description}
}

// Title returns the optional job title.
func (q Query) Title() string { return q.title }

// Description returns the job description text.
func (q Query) Description() string { return q.description }

// Request is a validated ranking request: a query plus the corpus snapshot to score.
type Request struct {
	id          string
	query       Query
	documentIDs []string
	strategy    Strategy
	createdBy   string
}

// NewRequest validates a ranking request. Document IDs must be non-empty and unique;
// maxDocuments <= 0 means DefaultMaxDocuments.
func NewRequest(
	id string, query Query, documentIDs []string,
	strategy Strategy, createdBy string, maxDocuments int,
) (Request, error) {
	if id == "" {
		return Request{}, fmt.Errorf("request ID is required")
	}
	if query.Description() == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if !strategy.IsValid() {
		return Request{}, fmt.Errorf("invalid strategy: %q", strategy)
	}
	if maxDocuments <= 0 {
		maxDocuments = DefaultMaxDocuments
	}
	if len(documentIDs) == 0 {
		return Request{}, fmt.Errorf("at least one document is required")
	}
	if len(documentIDs) > maxDocuments {
		return Request{}, fmt.Errorf("too many documents: %d (max %d)", len(documentIDs), maxDocuments)
	}
	seen := make(map[string]struct{}, len(documentIDs))
	for _, docID := range documentIDs {
		if docID == "" {
			return Request{}, fmt.Errorf("document ID must not be empty")
		}
		if _, dup := seen[docID]; dup {
			return Request{}, fmt.Errorf("duplicate document ID %q", docID)
		}
		seen[docID] = struct{}{}
	}

	ids := make([]string, len(documentIDs))
	copy(ids, documentIDs)

	return Request{id: id, query: query, documentIDs: ids, strategy: strategy, createdBy: createdBy}, nil
}

// ReconstructRequest creates a Request from storage without validation.
func ReconstructRequest(id string, query Query, documentIDs []string, strategy Strategy, createdBy string) Request {
	return Request{id: id, query: query, documentIDs: documentIDs, strategy: strategy, createdBy: createdBy}
}

// ID returns the request identifier.
func (r *Request) ID() string { return r.id }

// Query returns the job description query.
func (r *Request) Query() Query { return r.query }

// DocumentIDs returns the candidate IDs in submission order.
func (r *Request) DocumentIDs() []string { return r.documentIDs }

// Strategy returns the vectorization strategy.
func (r *Request) Strategy() Strategy { return r.strategy }

// CreatedBy returns the optional requester identifier.
func (r *Request) CreatedBy() string { return r.createdBy }
