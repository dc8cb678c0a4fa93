// Package errors defines typed errors with categories for user-friendly reporting.
// Every error carries a machine-readable Kind that the web layer maps to an HTTP
// status and the CLI maps to a help message, plus a human-friendly message that
// is safe to show to users.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// so storage and upstream failures keep their cause for logging.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// NotFound indicates a missing row or resource.
	NotFound Kind = "not_found"
	// Invalid indicates malformed or rejected input.
	Invalid Kind = "invalid"
	// Conflict indicates a uniqueness violation.
	Conflict Kind = "conflict"
	// Forbidden indicates the caller lacks the required role.
	Forbidden Kind = "forbidden"
	// Unauthenticated indicates missing or bad credentials.
	Unauthenticated Kind = "unauthenticated"
	// Upstream indicates a failure talking to nflverse.
	Upstream Kind = "upstream"
	// Unavailable indicates the database is unreachable.
	Unavailable Kind = "unavailable"
	// Internal is the fallback for uncategorised failures.
	Internal Kind = "internal"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the Kind of the first *E in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing message of the first *E in err's chain,
// falling back to err.Error().
func MessageOf(err error) string {
	var e *E
	if stderrors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus maps a Kind to the response status used by the web layer.
func HTTPStatus(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case Invalid:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case Unauthenticated:
		return http.StatusUnauthorized
	case Upstream:
		return http.StatusBadGateway
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
