package sip_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ghettovoice/sipcore/sip"
)

func TestHandlerRegistry(t *testing.T) {
	t.Parallel()

	var r sip.HandlerRegistry
	if _, ok := r.Handler(sip.RequestMethodInvite); ok {
		t.Error("r.Handler(INVITE) ok = true on empty registry, want false")
	}

	var calls []string
	r.HandleFunc(sip.RequestMethodRegister, func(context.Context, *sip.Message) sip.Result {
		calls = append(calls, "first")
		return sip.Result{}
	})
	r.HandleFunc(sip.RequestMethodRegister, func(context.Context, *sip.Message) sip.Result {
		calls = append(calls, "second")
		return sip.Result{}
	})
	r.HandleFunc(sip.RequestMethodBye, func(context.Context, *sip.Message) sip.Result { return sip.Result{} })

	h, ok := r.Handler(sip.RequestMethodRegister)
	if !ok {
		t.Fatal("r.Handler(REGISTER) ok = false, want true")
	}
	h.ServeSIP(t.Context(), nil)
	if diff := cmp.Diff(calls, []string{"second"}); diff != "" {
		t.Errorf("handler calls = %v, want [second]\ndiff (-got +want):\n%v", calls, diff)
	}

	if diff := cmp.Diff(r.Methods(), []sip.RequestMethod{sip.RequestMethodBye, sip.RequestMethodRegister}); diff != "" {
		t.Errorf("r.Methods() = %v\ndiff (-got +want):\n%v", r.Methods(), diff)
	}

	r.Handle(sip.RequestMethodBye, nil)
	if _, ok := r.Handler(sip.RequestMethodBye); ok {
		t.Error("r.Handler(BYE) ok = true after removal, want false")
	}
}

func TestResult_Err(t *testing.T) {
	t.Parallel()

	if err := sip.Reply([]byte("x")).Err(); err != nil {
		t.Errorf("sip.Reply().Err() = %v, want nil", err)
	}
	if err := sip.Respond(sip.ResponseStatusOK, "OK").Err(); err != nil {
		t.Errorf("sip.Respond().Err() = %v, want nil", err)
	}

	err := sip.Reject(sip.ResponseStatusForbidden, "Nope").Err()
	status, reason, ok := sip.ErrorStatus(err)
	if !ok || status != sip.ResponseStatusForbidden || reason != "Nope" {
		t.Errorf("sip.ErrorStatus(%v) = (%d, %q, %v), want (403, \"Nope\", true)", err, status, reason, ok)
	}
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status sip.ResponseStatus
		ok     bool
	}{
		{"nil", nil, 0, false},
		{"unregistered", sip.ErrUnregisteredMethod, sip.ResponseStatusNotImplemented, true},
		{"not found", sip.ErrTransactionNotFound, sip.ResponseStatusCallTransactionDoesNotExist, true},
		{"panic", sip.ErrHandlerPanic, sip.ResponseStatusServerInternalError, true},
		{"malformed", sip.ErrMalformedStartLine, sip.ResponseStatusBadRequest, true},
		{"invalid", sip.ErrInvalidMessage, sip.ResponseStatusBadRequest, true},
		{"status", &sip.StatusError{Status: sip.ResponseStatusBusyHere}, sip.ResponseStatusBusyHere, true},
		{"other", context.Canceled, 0, false},
	}

	for _, c := range cases {
		status, _, ok := sip.ErrorStatus(c.err)
		if status != c.status || ok != c.ok {
			t.Errorf("sip.ErrorStatus(%v) = (%d, %v), want (%d, %v)", c.err, status, ok, c.status, c.ok)
		}
	}
}
