package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error for logging and metrics.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindValidation       Kind = "validation"
	KindMethodNotAllowed Kind = "method_not_allowed"
	KindRateLimited      Kind = "rate_limited"
	KindUnavailable      Kind = "unavailable"
	KindInternal         Kind = "internal"
)

// Messages exposed to clients.
const (
	MsgTodoNotFound     = "Todo is not found"
	MsgRouteNotFound    = "Not Found"
	MsgMethodNotAllowed = "Method Not Allowed"
	MsgTooManyRequests  = "Too Many Requests"
	MsgInternal         = "Internal Server Error"
)

// Error is a failure that knows which HTTP status and message it maps to.
// Err holds the underlying cause, if any; it is logged but never sent to
// clients.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewNotFoundError reports an unknown todo id.
func NewNotFoundError() *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: MsgTodoNotFound}
}

// NewValidationError reports a malformed or invalid request.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message}
}

// NewInternalError wraps an infrastructure failure. The message stays generic.
func NewInternalError(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: MsgInternal, Err: err}
}

// IsNotFound reports whether err carries KindNotFound.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}
