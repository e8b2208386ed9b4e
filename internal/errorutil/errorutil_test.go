package errorutil_test

import (
	"errors"
	"fmt"
	"net"
	"os"
	"testing"

	"github.com/ghettovoice/sipcore/internal/errorutil"
)

const errSentinel errorutil.Error = "sentinel"

func TestNewWrapperError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	tests := []struct {
		name    string
		args    []any
		wantMsg string
		wantIs  []error
	}{
		{"no args", nil, "sentinel", []error{errSentinel}},
		{"cause", []any{cause}, "sentinel: boom", []error{errSentinel, cause}},
		{"already wrapped", []any{fmt.Errorf("ctx: %w", errSentinel)}, "ctx: sentinel", []error{errSentinel}},
		{"message", []any{"bad thing"}, "sentinel: bad thing", []error{errSentinel}},
		{"format", []any{"method %q", "FOO"}, "sentinel: method \"FOO\"", []error{errSentinel}},
		{"unknown arg", []any{42}, "sentinel", []error{errSentinel}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := errorutil.NewWrapperError(errSentinel, tc.args...)
			if got := err.Error(); got != tc.wantMsg {
				t.Errorf("err.Error() = %q, want %q", got, tc.wantMsg)
			}
			for _, target := range tc.wantIs {
				if !errors.Is(err, target) {
					t.Errorf("errors.Is(err, %v) = false, want true", target)
				}
			}
		})
	}
}

func TestNetErrorClassifiers(t *testing.T) {
	t.Parallel()

	timeout := &net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}
	if !errorutil.IsTimeoutErr(timeout) {
		t.Error("IsTimeoutErr(deadline exceeded) = false, want true")
	}
	if errorutil.IsTimeoutErr(net.ErrClosed) {
		t.Error("IsTimeoutErr(net.ErrClosed) = true, want false")
	}
	if !errorutil.IsClosedErr(fmt.Errorf("accept: %w", net.ErrClosed)) {
		t.Error("IsClosedErr(wrapped net.ErrClosed) = false, want true")
	}
	if errorutil.IsTemporaryErr(errors.New("plain")) {
		t.Error("IsTemporaryErr(plain) = true, want false")
	}
}
