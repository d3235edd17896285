package submit

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure
type Kind int

// Pipeline failure kinds. A duplicate submission is not a failure; it is
// a designed short-circuit returning existing state.
const (
	// KindInvalidInput marks malformed, oversized, or missing fields.
	// Always locally detectable; never worth retrying.
	KindInvalidInput Kind = iota + 1
	// KindForbidden marks community, domain, or user policy failures.
	KindForbidden
	// KindNotFound marks an absent referenced resource on read paths.
	KindNotFound
	// KindStorage marks a write or commit failure. No partial state
	// persists; retrying the whole request is safe because duplicate
	// detection catches a retried identical submission.
	KindStorage
)

// Error is a typed pipeline failure
type Error struct {
	Kind   Kind
	Reason string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Reason
}

// NewError creates a typed pipeline failure
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from an error chain. Untyped errors
// report KindStorage: anything the pipeline did not classify is an
// infrastructure failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
