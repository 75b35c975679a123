package triage

import "errors"

// Error taxonomy. Handlers map ErrInvalidInput to a client error status;
// everything else is a server error. All of them are wrapped with context at
// the failure site, so use errors.Is to classify.
var (
	// ErrStorage marks database I/O or constraint failures. The enclosing
	// transaction is rolled back; no partial effects remain.
	ErrStorage = errors.New("storage failure")
	// ErrUpstream marks transport or API failures while talking to the pull
	// request source. Already-committed sync pages are preserved.
	ErrUpstream = errors.New("upstream failure")
	// ErrDataCorruption marks a stored payload that no longer parses. The
	// whole read is aborted rather than returning partial results.
	ErrDataCorruption = errors.New("stored payload corrupted")
	// ErrInvalidInput marks malformed request parameters, rejected before any
	// store access.
	ErrInvalidInput = errors.New("invalid input")
)
