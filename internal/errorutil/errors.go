// Package errorutil contains sentinel error helpers shared by the packages of the module.
package errorutil

//go:generate go tool errtrace -w .

import (
	"errors"
	"fmt"
)

// Error is a constant error type for sentinel errors.
type Error string

func (s Error) Error() string { return string(s) }

// Errorf returns a plain [Error] with the formatted message.
func Errorf(format string, args ...any) error {
	return Error(fmt.Sprintf(format, args...)) //errtrace:skip
}

// NewWrapperError returns an error that matches sentinel with [errors.Is].
//
// The args are interpreted by the type of the first one:
// an error becomes the cause, a string is a format for the rest of args.
// With no args the sentinel itself is returned.
func NewWrapperError(sentinel error, args ...any) error {
	if len(args) == 0 {
		return sentinel //errtrace:skip
	}

	switch v := args[0].(type) {
	case error:
		if errors.Is(v, sentinel) {
			return v //errtrace:skip
		}
		return &wrapError{sentinel: sentinel, cause: v} //errtrace:skip
	case string:
		msg := v
		if len(args) > 1 {
			msg = fmt.Sprintf(v, args[1:]...)
		}
		return &wrapError{sentinel: sentinel, msg: msg} //errtrace:skip
	default:
		return sentinel //errtrace:skip
	}
}

type wrapError struct {
	sentinel error
	cause    error
	msg      string
}

func (e *wrapError) Error() string {
	if e.cause != nil {
		return e.sentinel.Error() + ": " + e.cause.Error()
	}
	return e.sentinel.Error() + ": " + e.msg
}

func (e *wrapError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.sentinel, e.cause}
	}
	return []error{e.sentinel}
}

// ErrInvalidArgument is returned when a function gets an unusable argument.
const ErrInvalidArgument Error = "invalid argument"

// NewInvalidArgumentError is [NewWrapperError] with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return NewWrapperError(ErrInvalidArgument, args...) //errtrace:skip
}
