package sip_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ghettovoice/sipcore/header"
	"github.com/ghettovoice/sipcore/sip"
)

func TestBuildResponse(t *testing.T) {
	t.Parallel()

	via := header.Via{{
		Proto:     sip.ProtoVer20(),
		Transport: "UDP",
		SentBy:    "192.0.2.1:5060",
		Params:    header.Params{{Name: "branch", Value: "z9hG4bK74bf9"}},
	}}

	cases := []struct {
		name   string
		status sip.ResponseStatus
		reason string
		hdrs   *sip.Headers
		body   []byte
		want   string
	}{
		{
			"no headers",
			sip.ResponseStatusOK,
			"OK",
			nil,
			nil,
			"SIP/2.0 200 OK\r\n\r\n",
		},
		{
			"default reason",
			sip.ResponseStatusNotImplemented,
			"",
			sip.NewHeaders(),
			nil,
			"SIP/2.0 501 Not Implemented\r\n\r\n",
		},
		{
			"pseudo-headers skipped",
			sip.ResponseStatusBusyHere,
			"Busy Here",
			sip.NewHeaders(
				&header.Any{Name: sip.PseudoHeaderMethod, Value: "INVITE"},
				via,
				&header.Any{Name: sip.PseudoHeaderURI, Value: "sip:bob@example.com"},
				header.CallID("a84b4c76e66710"),
			),
			nil,
			"SIP/2.0 486 Busy Here\r\n" +
				"Via: SIP/2.0/UDP 192.0.2.1:5060;branch=z9hG4bK74bf9\r\n" +
				"Call-ID: a84b4c76e66710\r\n" +
				"\r\n",
		},
		{
			"version from pseudo-header",
			sip.ResponseStatusOK,
			"OK",
			sip.NewHeaders(&header.Any{Name: sip.PseudoHeaderVersion, Value: "SIP/3.0"}),
			nil,
			"SIP/3.0 200 OK\r\n\r\n",
		},
		{
			"body",
			sip.ResponseStatusOK,
			"OK",
			sip.NewHeaders(header.ContentLength(4)),
			[]byte("test"),
			"SIP/2.0 200 OK\r\nContent-Length: 4\r\n\r\ntest",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got := string(sip.BuildResponse(c.status, c.reason, c.hdrs, c.body))
			if got != c.want {
				t.Errorf("sip.BuildResponse() = %q, want %q", got, c.want)
			}

			var buf bytes.Buffer
			n, err := sip.RenderResponse(&buf, c.status, c.reason, c.hdrs, c.body)
			if err != nil {
				t.Fatalf("sip.RenderResponse() error = %v, want nil", err)
			}
			if n != len(c.want) {
				t.Errorf("sip.RenderResponse() = %d, want %d", n, len(c.want))
			}
		})
	}
}

func TestBuildResponse_RoundTrip(t *testing.T) {
	t.Parallel()

	req := mustParse(t, registerReq)
	hdrs := sip.WithRequestContext(req.Headers.Clone(), req)

	res := mustParse(t, string(sip.BuildResponse(sip.ResponseStatusOK, "OK", hdrs, nil)))

	l, ok := res.StatusLine()
	if !ok {
		t.Fatal("res.StatusLine() ok = false, want true")
	}
	if diff := cmp.Diff(l, &sip.StatusLine{Proto: sip.ProtoVer20(), Status: sip.ResponseStatusOK, Reason: "OK"}); diff != "" {
		t.Errorf("res.StatusLine() = %v, want SIP/2.0 200 OK\ndiff (-got +want):\n%v", l, diff)
	}
	if !res.Headers.Equal(&req.Headers) {
		t.Errorf("response headers = %q, want request headers %q", res.String(), req.String())
	}
	for name := range res.Headers.All() {
		if sip.IsPseudoHeader(name) {
			t.Errorf("response has pseudo-header %q", name)
		}
	}
}

func TestNewResponse(t *testing.T) {
	t.Parallel()

	req := mustParse(t, registerReq)
	res := sip.NewResponse(req, sip.ResponseStatusOK, "")

	if got, want := res.String(), registerRes; got != want {
		t.Errorf("res.String() = %q, want %q", got, want)
	}

	for _, c := range []struct {
		name header.Name
		want string
	}{
		{sip.PseudoHeaderMethod, "REGISTER"},
		{sip.PseudoHeaderURI, "sip:registrar.example.com"},
		{sip.PseudoHeaderVersion, "SIP/2.0"},
	} {
		hdr, ok := res.Headers.Get(c.name)
		if !ok {
			t.Errorf("res.Headers.Get(%q) ok = false, want true", c.name)
			continue
		}
		if got := hdr.RenderValue(); got != c.want {
			t.Errorf("res.Headers.Get(%q) = %q, want %q", c.name, got, c.want)
		}
	}

	b, err := res.ResponseBytes()
	if err != nil {
		t.Fatalf("res.ResponseBytes() error = %v, want nil", err)
	}
	if got := string(b); got != registerRes {
		t.Errorf("res.ResponseBytes() = %q, want %q", got, registerRes)
	}
}

func TestMessage_ResponseBytes(t *testing.T) {
	t.Parallel()

	res := &sip.Message{
		StartLine: &sip.StatusLine{Status: sip.ResponseStatusOK, Reason: "OK"},
		Body:      []byte("hi"),
	}
	b, err := res.ResponseBytes()
	if err != nil {
		t.Fatalf("res.ResponseBytes() error = %v, want nil", err)
	}
	if got, want := string(b), "SIP/2.0 200 OK\r\nContent-Length: 2\r\n\r\nhi"; got != want {
		t.Errorf("res.ResponseBytes() = %q, want %q", got, want)
	}
	if res.Headers.Has("Content-Length") {
		t.Error("res.Headers.Has(\"Content-Length\") = true, want false")
	}

	req := mustParse(t, registerReq)
	if _, err := req.ResponseBytes(); err == nil {
		t.Error("req.ResponseBytes() error = nil, want error")
	}
}
