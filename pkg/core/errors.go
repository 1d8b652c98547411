package core

import "errors"

// Error kinds surfaced by the public API. Callers can match these with
// errors.Is even though most call sites wrap them with additional context
// via fmt.Errorf.
var (
	// ErrInputNotFound is returned when an Add input path does not exist.
	ErrInputNotFound = errors.New("input not found")
	// ErrUnsupportedFormat is returned for a file extension no converter
	// handles.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrConverterFailure is returned when a converter rejects its input.
	ErrConverterFailure = errors.New("converter failure")
	// ErrQueryInvalid is returned when a rewritten query is rejected by the
	// storage engine's query parser.
	ErrQueryInvalid = errors.New("invalid query")
	// ErrStorageError wraps a persistence-layer I/O or schema error.
	ErrStorageError = errors.New("storage error")
)
