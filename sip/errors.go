package sip

import (
	"errors"
	"fmt"

	"github.com/ghettovoice/sipcore/header"
	"github.com/ghettovoice/sipcore/internal/errorutil"
)

// Error represents a SIP error.
// See [errorutil.Error].
type Error = errorutil.Error

// Message errors.
const (
	// ErrMalformedStartLine is returned when the start line is neither a request line nor a status line.
	ErrMalformedStartLine Error = "malformed start line"
	// ErrMalformedHeader is returned when a header line can not be split into a name and a value
	// or a typed header value is invalid.
	ErrMalformedHeader Error = "malformed header"
	// ErrIncompleteBody is returned when the body is shorter than the declared Content-Length.
	ErrIncompleteBody Error = "incomplete body"
	// ErrInvalidMessage is returned when a message lacks the headers needed to process it.
	ErrInvalidMessage Error = "invalid message"
)

// Dispatch errors.
const (
	// ErrUnregisteredMethod is returned when no handler is registered for the request method.
	ErrUnregisteredMethod Error = "unregistered method"
	// ErrTransactionNotFound is returned when a response matches no transaction.
	ErrTransactionNotFound Error = "transaction not found"
	// ErrHandlerPanic is returned when a handler panics.
	ErrHandlerPanic Error = "handler panic"
)

// Transport errors.
const (
	// ErrTransportClosed is returned by transports when serving stopped due to shutdown.
	ErrTransportClosed Error = "transport closed"
)

// NewInvalidArgumentError creates a new error with [errorutil.ErrInvalidArgument] or
// wraps provided error with [errorutil.ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}

// StatusError is an error carrying a response status and reason phrase.
// Handlers signal application errors with it through [Reject].
type StatusError struct {
	Status ResponseStatus
	Reason string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("status %d %s", e.Status, e.reason())
}

func (e *StatusError) reason() string {
	if e.Reason == "" {
		return e.Status.Reason()
	}
	return e.Reason
}

// ErrorStatus maps an error to the response status and reason phrase it should be answered with.
// The ok result is false if the error has no protocol meaning.
func ErrorStatus(err error) (status ResponseStatus, reason string, ok bool) {
	var serr *StatusError
	switch {
	case err == nil:
		return 0, "", false
	case errors.As(err, &serr):
		return serr.Status, serr.reason(), true
	case errors.Is(err, ErrUnregisteredMethod):
		return ResponseStatusNotImplemented, ResponseStatusNotImplemented.Reason(), true
	case errors.Is(err, ErrTransactionNotFound):
		return ResponseStatusCallTransactionDoesNotExist, ResponseStatusCallTransactionDoesNotExist.Reason(), true
	case errors.Is(err, ErrHandlerPanic):
		return ResponseStatusServerInternalError, ResponseStatusServerInternalError.Reason(), true
	case errors.Is(err, ErrMalformedStartLine),
		errors.Is(err, ErrMalformedHeader),
		errors.Is(err, ErrIncompleteBody),
		errors.Is(err, ErrInvalidMessage),
		errors.Is(err, header.ErrInvalidValue):
		return ResponseStatusBadRequest, ResponseStatusBadRequest.Reason(), true
	default:
		return 0, "", false
	}
}
