package errorutil

import (
	"errors"
	"net"
	"os"
)

// IsTemporaryErr returns true if the error is temporary.
func IsTemporaryErr(err error) bool {
	var e interface{ Temporary() bool }
	return errors.As(err, &e) && e.Temporary()
}

// IsTimeoutErr returns true if the error is a timeout error.
func IsTimeoutErr(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var e interface{ Timeout() bool }
	return errors.As(err, &e) && e.Timeout()
}

// IsClosedErr returns true if the error reports use of a closed network connection.
func IsClosedErr(err error) bool { return errors.Is(err, net.ErrClosed) }
