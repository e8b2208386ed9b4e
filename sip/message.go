package sip

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/header"
	"github.com/ghettovoice/sipcore/internal/ioutil"
	"github.com/ghettovoice/sipcore/internal/util"
)

// StartLine is the first line of a message.
// It is either [*RequestLine] or [*StatusLine].
type StartLine interface {
	fmt.Stringer
	startLine()
}

// RequestLine is the start line of a request: "METHOD Request-URI SIP/2.0".
type RequestLine struct {
	Method RequestMethod
	URI    string
	Proto  ProtoInfo
}

func (*RequestLine) startLine() {}

func (l *RequestLine) String() string {
	if l == nil {
		return ""
	}
	return string(l.Method) + " " + l.URI + " " + l.Proto.String()
}

// StatusLine is the start line of a response: "SIP/2.0 Status-Code Reason-Phrase".
type StatusLine struct {
	Proto  ProtoInfo
	Status ResponseStatus
	Reason string
}

func (*StatusLine) startLine() {}

func (l *StatusLine) String() string {
	if l == nil {
		return ""
	}
	return l.Proto.String() + " " + l.Status.String() + " " + l.Reason
}

// Message is a parsed SIP request or response.
type Message struct {
	StartLine StartLine
	Headers   Headers
	Body      []byte
}

// RequestLine returns the request line if the message is a request.
func (msg *Message) RequestLine() (*RequestLine, bool) {
	if msg == nil {
		return nil, false
	}
	l, ok := msg.StartLine.(*RequestLine)
	return l, ok && l != nil
}

// StatusLine returns the status line if the message is a response.
func (msg *Message) StatusLine() (*StatusLine, bool) {
	if msg == nil {
		return nil, false
	}
	l, ok := msg.StartLine.(*StatusLine)
	return l, ok && l != nil
}

// IsRequest checks whether the message is a request.
func (msg *Message) IsRequest() bool {
	_, ok := msg.RequestLine()
	return ok
}

// IsResponse checks whether the message is a response.
func (msg *Message) IsResponse() bool {
	_, ok := msg.StatusLine()
	return ok
}

// Method returns the request method for requests and the CSeq method for responses.
func (msg *Message) Method() RequestMethod {
	if l, ok := msg.RequestLine(); ok {
		return l.Method
	}
	if cseq, ok := msg.Headers.CSeq(); ok {
		return cseq.Method
	}
	return ""
}

// RenderTo writes the message in the wire format.
// Pseudo-headers are skipped, the body is written as is.
func (msg *Message) RenderTo(w io.Writer) (num int, err error) {
	if msg == nil || msg.StartLine == nil {
		return 0, nil
	}

	cw := ioutil.NewCountingWriter(w)
	cw.Line(msg.StartLine.String()).Call(msg.Headers.RenderTo).Line()
	cw.Write(msg.Body) //nolint:errcheck
	return errtrace.Wrap2(cw.Result())
}

// Render returns the message in the wire format.
func (msg *Message) Render() []byte {
	if msg == nil {
		return nil
	}

	var buf bytes.Buffer
	msg.RenderTo(&buf) //nolint:errcheck
	return buf.Bytes()
}

// String returns the message in the wire format.
func (msg *Message) String() string { return string(msg.Render()) }

// Clone returns a deep copy of the message.
func (msg *Message) Clone() *Message {
	if msg == nil {
		return nil
	}

	msg2 := &Message{
		Headers: *msg.Headers.Clone(),
		Body:    bytes.Clone(msg.Body),
	}
	switch l := msg.StartLine.(type) {
	case *RequestLine:
		l2 := *l
		msg2.StartLine = &l2
	case *StatusLine:
		l2 := *l
		msg2.StartLine = &l2
	}
	return msg2
}

// LogValue implements [slog.LogValuer].
func (msg *Message) LogValue() slog.Value {
	if msg == nil {
		return slog.Value{}
	}

	attrs := make([]slog.Attr, 0, 4)
	if msg.StartLine != nil {
		attrs = append(attrs, slog.String("start_line", msg.StartLine.String()))
	}
	if via, ok := msg.Headers.Via(); ok {
		if branch, ok := via.Branch(); ok {
			attrs = append(attrs, slog.String("branch", branch))
		}
	}
	if callID, ok := msg.Headers.CallID(); ok {
		attrs = append(attrs, slog.String("call_id", string(callID)))
	}
	if len(msg.Body) > 0 {
		attrs = append(attrs, slog.Int("body_len", len(msg.Body)))
	}
	return slog.GroupValue(attrs...)
}

// setPseudo stores a pseudo-header value.
func setPseudo(hs *Headers, name header.Name, value string) {
	hs.Set(&header.Any{Name: name, Value: util.TrimSP(value)})
}
