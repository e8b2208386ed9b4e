package sip

import (
	"bytes"
	"io"
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/header"
	"github.com/ghettovoice/sipcore/internal/ioutil"
	"github.com/ghettovoice/sipcore/internal/types"
)

// RenderResponse writes a response to w.
//
// The status line protocol is taken from the sip_version pseudo-header, SIP/2.0 is used when
// it is absent. Headers are written in insertion order without the pseudo-headers, followed by
// a blank line and the body. An empty reason is replaced with the default phrase of the status.
// No header is ever added.
func RenderResponse(w io.Writer, status ResponseStatus, reason string, hdrs *Headers, body []byte) (int, error) {
	proto := ProtoVer20()
	if v, ok := hdrs.pseudo(PseudoHeaderVersion); ok {
		if p, ok := types.ParseProtoInfo(v); ok {
			proto = p
		}
	}
	return errtrace.Wrap2(renderResponse(w, proto, status, reason, hdrs, body))
}

// BuildResponse returns a response in the wire format.
// See [RenderResponse] for details.
func BuildResponse(status ResponseStatus, reason string, hdrs *Headers, body []byte) []byte {
	var buf bytes.Buffer
	RenderResponse(&buf, status, reason, hdrs, body) //nolint:errcheck
	return buf.Bytes()
}

func renderResponse(
	w io.Writer,
	proto ProtoInfo,
	status ResponseStatus,
	reason string,
	hdrs *Headers,
	body []byte,
) (num int, err error) {
	if reason == "" {
		reason = status.Reason()
	}

	cw := ioutil.NewCountingWriter(w)
	cw.Line(proto.String(), " ", strconv.FormatUint(uint64(status), 10), " ", reason).
		Call(hdrs.RenderTo).
		Line()
	cw.Write(body) //nolint:errcheck
	return errtrace.Wrap2(cw.Result())
}

// WithRequestContext stores the request method, Request-URI and protocol version
// of req in hdrs as pseudo-headers.
func WithRequestContext(hdrs *Headers, req *Message) *Headers {
	l, ok := req.RequestLine()
	if !ok {
		return hdrs
	}
	setPseudo(hdrs, PseudoHeaderMethod, string(l.Method))
	setPseudo(hdrs, PseudoHeaderURI, l.URI)
	setPseudo(hdrs, PseudoHeaderVersion, l.Proto.String())
	return hdrs
}

// NewResponse creates a response to req.
// Via, From, To, Call-ID and CSeq are copied from the request (RFC 3261 Section 8.2.6.2)
// and the request context is stored as pseudo-headers.
// An empty reason is replaced with the default phrase of the status.
func NewResponse(req *Message, status ResponseStatus, reason string) *Message {
	if reason == "" {
		reason = status.Reason()
	}

	sl := &StatusLine{Proto: ProtoVer20(), Status: status, Reason: reason}
	res := &Message{StartLine: sl}
	if req == nil {
		return res
	}
	if l, ok := req.RequestLine(); ok {
		sl.Proto = l.Proto
	}
	for _, name := range []header.Name{"Via", "From", "To", "Call-ID", "CSeq"} {
		if h, ok := req.Headers.Get(name); ok {
			res.Headers.Set(h.Clone())
		}
	}
	WithRequestContext(&res.Headers, req)
	return res
}

// ResponseBytes serializes a response message with the response builder.
// Content-Length is added when the body is not empty and the header is missing.
func (msg *Message) ResponseBytes() ([]byte, error) {
	l, ok := msg.StatusLine()
	if !ok {
		return nil, errtrace.Wrap(NewInvalidArgumentError("not a response"))
	}

	hdrs := &msg.Headers
	if len(msg.Body) > 0 && !hdrs.Has("Content-Length") {
		hdrs = hdrs.Clone().Set(header.ContentLength(len(msg.Body)))
	}

	proto := l.Proto
	if proto.IsZero() {
		proto = ProtoVer20()
	}
	if v, ok := hdrs.pseudo(PseudoHeaderVersion); ok {
		if p, ok := types.ParseProtoInfo(v); ok {
			proto = p
		}
	}

	var buf bytes.Buffer
	if _, err := renderResponse(&buf, proto, l.Status, l.Reason, hdrs, msg.Body); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return buf.Bytes(), nil
}
