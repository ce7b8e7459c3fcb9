package ld

import (
	"errors"
	"fmt"
)

// InvalidRecordError reports an operation that requires a valid record
// (one with a type) and received something else.
type InvalidRecordError struct {
	// Op names the operation that rejected the input.
	Op string

	// Reason is a human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *InvalidRecordError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: invalid record: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: invalid record", e.Op)
}

// IdentityMismatchError reports a merge or diff attempted on records that
// are not the same entity.
type IdentityMismatchError struct {
	Op    string
	Left  Key
	Right Key
}

// Error implements the error interface.
func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("%s: identity mismatch (%s vs %s)", e.Op, e.Left, e.Right)
}

// NewInvalidRecordError creates an InvalidRecordError.
func NewInvalidRecordError(op, reason string) *InvalidRecordError {
	return &InvalidRecordError{Op: op, Reason: reason}
}

// NewIdentityMismatchError creates an IdentityMismatchError for a and b.
func NewIdentityMismatchError(op string, a, b *Record) *IdentityMismatchError {
	return &IdentityMismatchError{Op: op, Left: a.Key(), Right: b.Key()}
}

// IsInvalidRecord returns true if err is or wraps an InvalidRecordError.
func IsInvalidRecord(err error) bool {
	var e *InvalidRecordError
	return errors.As(err, &e)
}

// IsIdentityMismatch returns true if err is or wraps an IdentityMismatchError.
func IsIdentityMismatch(err error) bool {
	var e *IdentityMismatchError
	return errors.As(err, &e)
}
