package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("internal server error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("your requested item is not found")
	// ErrUnauthorized will throw if the caller is missing or lacks an identity
	// or permission. Both "not signed in" and "not permitted" render as 401;
	// callers cannot tell them apart from the status alone.
	ErrUnauthorized = errors.New("not authorized")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("given param is not valid")
)

// ViolationKind classifies a content or schema violation.
type ViolationKind string

const (
	KindInvalidNode        ViolationKind = "InvalidNode"
	KindEmptyContent       ViolationKind = "EmptyContent"
	KindContentTooLong     ViolationKind = "ContentTooLong"
	KindTooManyImages      ViolationKind = "TooManyImages"
	KindInvalidImageSource ViolationKind = "InvalidImageSource"
	KindContentTooLarge    ViolationKind = "ContentTooLarge"
	KindBadField           ViolationKind = "BadField"
)

// FieldViolation is one offending field path with its reason.
type FieldViolation struct {
	Field  string        `json:"field"`
	Kind   ViolationKind `json:"kind"`
	Reason string        `json:"reason"`
}

// ValidationError aggregates every violation found in a request. It always
// renders as status 400.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Reason
	}
	return strings.Join(parts, ", ")
}

// Has reports whether the error carries a violation of the given kind.
func (e *ValidationError) Has(kind ViolationKind) bool {
	for _, v := range e.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

// NewValidationError builds a single-violation error.
func NewValidationError(field string, kind ViolationKind, reason string) *ValidationError {
	return &ValidationError{Violations: []FieldViolation{{Field: field, Kind: kind, Reason: reason}}}
}

// StatusError is a domain error carrying its own transport status. It is
// rendered verbatim by every binding; adapters use it for failures that do
// not fit the sentinel set.
type StatusError struct {
	Status  int
	Message string
	Info    any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}
