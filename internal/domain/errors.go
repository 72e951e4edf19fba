package domain

import "errors"

var (
	// ErrNotFound signals a missing document in the document source.
	ErrNotFound = errors.New("not found")
	// ErrDocumentUnreadable signals source bytes that cannot be parsed as the declared format.
	ErrDocumentUnreadable = errors.New("document unreadable")
	// ErrProviderUnavailable signals an embedding provider failure (network, auth, quota).
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	// ErrInvalidRequest signals a malformed ranking or indexing request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrResultSink signals that a computed ranking could not be persisted.
	ErrResultSink = errors.New("result sink failure")
	// ErrVectorDimMismatch signals vectors from different vector spaces.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
