// Package batch describes per-document outcomes of bulk operations such as indexing.
package batch

// ItemStatus is the processing outcome of one document.
type ItemStatus string

// Item status values.
const (
	StatusIndexed ItemStatus = "indexed"
	// StatusCached marks a document whose vector was already stored.
	StatusCached ItemStatus = "cached"
	// StatusSkipped marks a document without text to embed.
	StatusSkipped ItemStatus = "skipped"
	StatusError   ItemStatus = "error"
)

// Result is the outcome of processing one document in a bulk operation.
type Result struct {
	id     string
	status ItemStatus
	reason string
	err    error
}

// NewIndexed creates a result for a freshly embedded and stored document.
func NewIndexed(id string) Result { return Result{id: id, status: StatusIndexed} }

// NewCached creates a result for a document whose vector already existed.
func NewCached(id string) Result { return Result{id: id, status: StatusCached} }

// NewSkipped creates a result for a document that was deliberately not processed.
func NewSkipped(id, reason string) Result { return Result{id: id, status: StatusSkipped, reason: reason} }

// NewError creates a failed result.
func NewError(id, reason string, err error) Result {
	return Result{id: id, status: StatusError, reason: reason, err: err}
}

// ID returns the document identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Reason returns a machine-readable explanation for skipped and failed documents.
func (r Result) Reason() string { return r.reason }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts results per status.
func Summary(results []Result) map[ItemStatus]int {
	out := make(map[ItemStatus]int, 4)
	for _, r := range results {
		out[r.status]++
	}
	return out
}
