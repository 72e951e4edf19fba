package ranker

import "github.com/kailas-cloud/resumerank/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest      = domain.ErrInvalidRequest
	ErrProviderUnavailable = domain.ErrProviderUnavailable
	ErrDocumentUnreadable  = domain.ErrDocumentUnreadable
	ErrNotFound            = domain.ErrNotFound
)
