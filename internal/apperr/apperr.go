// Package apperr classifies the failures an operation can surface: bad input,
// missing entities, illegal state transitions, authorization problems, and
// persistence errors. Handlers translate the kind into a response; the
// message is the exact text sent to the client.
package apperr

import "errors"

type Kind int

const (
	// Validation is malformed or out-of-range input. Never retried.
	Validation Kind = iota
	// NotFound is a referenced entity that does not exist.
	NotFound
	// Precondition is an entity in the wrong state for the requested
	// transition (already assigned, already completed, no pending request).
	Precondition
	// Authorization is a missing/invalid credential or an ownership mismatch.
	Authorization
	// Store is an underlying persistence failure, surfaced verbatim.
	Store
)

type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validationf(message string) *Error   { return New(Validation, message) }
func NotFoundf(message string) *Error     { return New(NotFound, message) }
func Preconditionf(message string) *Error { return New(Precondition, message) }
func Unauthorized(message string) *Error  { return New(Authorization, message) }

// StoreError wraps a persistence failure, passing its message through to the
// caller without retry or rollback of already-applied writes.
func StoreError(err error) *Error {
	return &Error{Kind: Store, Message: err.Error(), err: err}
}

// KindOf returns the kind of err if it is an *Error, and Store otherwise —
// an unclassified failure is treated as a persistence-layer problem.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Store
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
