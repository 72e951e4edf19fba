package chi

import (
	"time"

	dombatch "github.com/kailas-cloud/resumerank/internal/domain/batch"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeValidationFailed    ErrorCode = "validation_failed"
	ErrorCodeUnauthorized        ErrorCode = "unauthorized"
	ErrorCodeNotFound            ErrorCode = "not_found"
	ErrorCodePayloadTooLarge     ErrorCode = "payload_too_large"
	ErrorCodeProviderUnavailable ErrorCode = "embedding_provider_error"
	ErrorCodeResultSinkFailed    ErrorCode = "result_sink_failed"
	ErrorCodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Ranking carries the computed ranking when only persisting it failed.
	Ranking *RankingResponse `json:"ranking,omitempty"`
}

// CreateRankingRequest is the body of POST /v1/rankings.
type CreateRankingRequest struct {
	JobTitle       string   `json:"job_title"`
	JobDescription string   `json:"job_description"`
	DocumentIDs    []string `json:"document_ids"`
	Strategy       string   `json:"strategy,omitempty"`
	CreatedBy      string   `json:"created_by,omitempty"`
	// Limit truncates the returned results; zero returns all of them.
	Limit int `json:"limit,omitempty"`
}

// RankingResult is one ranked document.
type RankingResult struct {
	Rank         int     `json:"rank"`
	DocumentID   string  `json:"document_id"`
	Score        float64 `json:"score"`
	Percent      float64 `json:"percent"`
	Annotation   string  `json:"annotation,omitempty"`
	UsedFallback bool    `json:"used_fallback"`
}

// RankingResponse is a computed or persisted ranking.
type RankingResponse struct {
	ID        string          `json:"id"`
	JobTitle  string          `json:"job_title,omitempty"`
	Strategy  string          `json:"strategy"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Total     int             `json:"total"`
	Results   []RankingResult `json:"results"`
}

// IndexRequest is the body of POST /v1/embeddings/index.
type IndexRequest struct {
	DocumentIDs []string `json:"document_ids,omitempty"`
	Refresh     bool     `json:"refresh,omitempty"`
}

// IndexItem is the outcome for one document.
type IndexItem struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// IndexResponse reports per-document indexing outcomes.
type IndexResponse struct {
	Results []IndexItem    `json:"results"`
	Summary map[string]int `json:"summary"`
}

// DocumentResponse acknowledges a stored document.
type DocumentResponse struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	Size   int    `json:"size"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func rankingToResponse(rk domrank.Ranking, limit int) RankingResponse {
	req := rk.Request()
	top := rk.Top(limit)
	results := make([]RankingResult, len(top))
	for i, r := range top {
		results[i] = RankingResult{
			Rank:         i + 1,
			DocumentID:   r.DocumentID(),
			Score:        r.Score(),
			Percent:      r.Percent(),
			Annotation:   string(r.Annotation()),
			UsedFallback: r.UsedFallback(),
		}
	}
	return RankingResponse{
		ID:        rk.ID(),
		JobTitle:  req.Query().Title(),
		Strategy:  string(req.Strategy()),
		CreatedBy: req.CreatedBy(),
		CreatedAt: rk.CreatedAt(),
		Total:     len(rk.Results()),
		Results:   results,
	}
}

func indexToResponse(results []dombatch.Result) IndexResponse {
	items := make([]IndexItem, len(results))
	for i, r := range results {
		items[i] = IndexItem{
			DocumentID: r.ID(),
			Status:     string(r.Status()),
			Reason:     r.Reason(),
		}
	}
	summary := make(map[string]int)
	for st, n := range dombatch.Summary(results) {
		summary[string(st)] = n
	}
	return IndexResponse{Results: items, Summary: summary}
}
