package hr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateIdentity  = errors.New("candidate already exists")
	ErrExtraction         = errors.New("document extraction failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrEmptyResult        = errors.New("no matching records")
	ErrInconsistentIndex  = errors.New("vector index and metadata are inconsistent")
	ErrValidation         = errors.New("validation failed")
)

// NotFoundError names the record kind and key that could not be found.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound returns a NotFoundError for the given record.
func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// DuplicateError reports an active candidate that already holds the identity.
type DuplicateError struct {
	Identity CandidateIdentity
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("candidate %s already exists", e.Identity)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateIdentity }

// PermissionDeniedError carries the human readable reason of a denial.
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	if e.Reason == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Reason
}

// EmptyResultError is returned by aggregates over an empty record set.
type EmptyResultError struct {
	Scope string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no employees found for %s", e.Scope)
}

func (e *EmptyResultError) Unwrap() error { return ErrEmptyResult }

// ExtractionError wraps document level failures, including unsupported formats.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() []error { return []error{ErrExtraction, e.Err} }

type unavailableError struct {
	err error
}

func (e *unavailableError) Error() string { return e.err.Error() }

func (e *unavailableError) Unwrap() []error { return []error{ErrServiceUnavailable, e.err} }

// Unavailable marks err as an infrastructure failure of a dependency.
// It returns nil for a nil error.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return err
	}
	return &unavailableError{err: err}
}

// IsDomain reports whether err is an expected business outcome rather than an
// infrastructure failure.
func IsDomain(err error) bool {
	var denied *PermissionDeniedError
	switch {
	case errors.As(err, &denied),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrDuplicateIdentity),
		errors.Is(err, ErrEmptyResult),
		errors.Is(err, ErrExtraction),
		errors.Is(err, ErrValidation):
		return true
	default:
		return false
	}
}
