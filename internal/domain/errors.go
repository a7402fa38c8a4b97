package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both missing documents and missing sessions.
	// Absence is a normal control-flow outcome, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateReview means the (courseId, userId) pair already has a review.
	ErrDuplicateReview = errors.New("review already exists for this course and user")

	// ErrUnauthenticated means the caller has no authenticated user.
	ErrUnauthenticated = errors.New("not authenticated")
)

// ValidationError reports bad input shape. Always recoverable locally;
// surfaced inline, never fatal.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a failure of the external document/auth service.
// Status is the upstream HTTP status when known, 0 otherwise.
type StoreError struct {
	Op     string
	Status int
	Err    error
}

func (e *StoreError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: remote %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
