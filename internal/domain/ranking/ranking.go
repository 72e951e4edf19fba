package ranking

import "time"

// Ranking is the ordered outcome of one request. Results are never shared across rankings.
type Ranking struct {
	request   Request
	results   []Result
	createdAt time.Time
}

// New creates a ranking from already aggregated results.
func New(req Request, results []Result, createdAt time.Time) Ranking {
	return Ranking{request: req, results: results, createdAt: createdAt}
}

// ID returns the ranking identifier (the request ID).
func (r *Ranking) ID() string { return r.request.ID() }

// Request returns the originating request.
func (r *Ranking) Request() Request { return r.request }

// Results returns the ordered results.
func (r *Ranking) Results() []Result { return r.results }

// CreatedAt returns when the ranking was computed.
func (r *Ranking) CreatedAt() time.Time { return r.createdAt }

// Top returns at most n leading results; n <= 0 returns all of them.
func (r *Ranking) Top(n int) []Result {
	if n <= 0 || n >= len(r.results) {
		return r.results
	}
	return r.results[:n]
}
