// Package apperror defines the closed set of failure kinds that server
// handlers surface to callers.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The set is closed; every Kind maps to exactly
// one transport status in the api module.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindInternal       Kind = "internal"
)

// Kinds lists every Kind.
var Kinds = []Kind{
	KindValidation,
	KindAuthentication,
	KindAuthorization,
	KindNotFound,
	KindConflict,
	KindInternal,
}

// Error is a classified failure with a message that is safe to show a client.
// It travels inside request-reply payloads between modules, so it is JSON
// encodable.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation creates a KindValidation error.
func Validation(message string) *Error { return New(KindValidation, message) }

// Unauthenticated creates a KindAuthentication error.
func Unauthenticated(message string) *Error { return New(KindAuthentication, message) }

// Forbidden creates a KindAuthorization error.
func Forbidden(message string) *Error { return New(KindAuthorization, message) }

// NotFound creates a KindNotFound error for the named resource.
func NotFound(resource string) *Error { return New(KindNotFound, resource+" not found") }

// Conflict creates a KindConflict error.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Internal creates a KindInternal error with a generic message. The cause is
// expected to be logged by the caller, never sent to the client.
func Internal() *Error { return New(KindInternal, "Internal server error") }

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As converts err into an *Error. Unclassified errors become Internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal()
}
