package extract

import (
	"errors"
	"fmt"
	"strings"
)

// Admission failures, raised before any service call.
var (
	ErrEmptyInput     = errors.New("empty or too short input text")
	ErrNoTemporalInfo = errors.New("no time information found in input text")
)

// Per-attempt failures. Both are retried.
var (
	ErrTransport     = errors.New("extraction service call failed")
	ErrMalformedJSON = errors.New("reply is not a JSON object")
)

// Terminal failures.
var (
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrSchemaValidation  = errors.New("schema validation failed")
	ErrInvalidDateFormat = errors.New("invalid datetime format")
)

// FailureKind tags the outcome of one attempt.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureTransport
	FailureMalformedJSON
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTransport:
		return "transport"
	case FailureMalformedJSON:
		return "malformed_json"
	case FailureCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// ExtractionError is returned once the retry budget is exhausted.
type ExtractionError struct {
	Attempts int
	Kind     FailureKind
	Err      error // last underlying cause
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed after %d attempts (%s): %v", e.Attempts, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtractionFailed, e.Err}
}

// SchemaError reports a structurally valid reply that does not satisfy the
// event schema. It is never retried.
type SchemaError struct {
	Missing []string // required fields that were absent
	Invalid []string // required fields with a non-string value
	Field   string   // first offending field, empty when only Missing is set
	Err     error
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("invalid required fields: %s: %v", strings.Join(e.Invalid, ", "), e.Err))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("invalid field %s: %v", e.Field, e.Err)
	}
	return strings.Join(parts, "; ")
}

func (e *SchemaError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSchemaValidation}
	}
	return []error{ErrSchemaValidation, e.Err}
}
