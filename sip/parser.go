package sip

import (
	"bytes"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/header"
	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/types"
	"github.com/ghettovoice/sipcore/internal/util"
)

// ParseOptions contains options for message parsing.
type ParseOptions struct {
	// HeaderParsers are custom header parsers keyed by the canonical header name.
	// They take precedence over the default parsers of the header package.
	HeaderParsers map[header.Name]header.Parser
}

func (o *ParseOptions) headerParsers() map[header.Name]header.Parser {
	if o == nil {
		return nil
	}
	return o.HeaderParsers
}

// ParsePacket parses a complete message from data.
//
// Lines are separated by CRLF, a bare LF is tolerated. Empty lines before the start line
// are skipped (RFC 3261 Section 7.5). The body is delimited by the
// Content-Length header when present, extra trailing bytes are ignored.
//
// On failure the partially parsed message is returned together with the error,
// so the caller can still answer a request whose start line was recognized.
func ParsePacket(data []byte, opts *ParseOptions) (*Message, error) {
	msg := new(Message)
	lr := lineReader{data: data}

	line, ok := lr.next()
	for ok && len(line) == 0 {
		line, ok = lr.next()
	}
	if !ok {
		return msg, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine, "empty message"))
	}
	sl, err := parseStartLine(string(line))
	if err != nil {
		return msg, errtrace.Wrap(err)
	}
	msg.StartLine = sl

	if err := parseHeaders(&lr, &msg.Headers, opts.headerParsers()); err != nil {
		return msg, errtrace.Wrap(err)
	}

	body := lr.rest()
	if cl, ok := msg.Headers.ContentLength(); ok {
		if n := int(cl); n <= len(body) {
			body = body[:n]
		} else {
			msg.Body = bytes.Clone(body)
			return msg, errtrace.Wrap(errorutil.NewWrapperError(ErrIncompleteBody,
				"Content-Length is %d, got %d bytes", n, len(body)))
		}
	}
	if len(body) > 0 {
		msg.Body = bytes.Clone(body)
	}
	return msg, nil
}

func parseStartLine(line string) (StartLine, error) {
	tok, _, _ := strings.Cut(line, " ")
	switch {
	case types.RequestMethod(tok).IsRecognized():
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine,
				"request line %q: want 3 fields, got %d", util.Ellipsis(line, 64), len(fields)))
		}
		proto, ok := types.ParseProtoInfo(fields[2])
		if !ok {
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine,
				"request line %q: invalid protocol", util.Ellipsis(line, 64)))
		}
		return &RequestLine{Method: RequestMethod(fields[0]), URI: fields[1], Proto: proto}, nil
	case tok == ProtoVer20().String():
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 2 {
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine,
				"status line %q: missing status", util.Ellipsis(line, 64)))
		}
		sts, ok := types.ParseResponseStatus(parts[1])
		if !ok {
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine,
				"status line %q: invalid status", util.Ellipsis(line, 64)))
		}
		sl := &StatusLine{Proto: ProtoVer20(), Status: sts}
		if len(parts) == 3 {
			sl.Reason = util.TrimSP(parts[2])
		}
		return sl, nil
	default:
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine,
			"unexpected token %q", util.Ellipsis(tok, 32)))
	}
}

// parseHeaders reads header lines up to the blank line.
// Continuation lines are joined to the previous header with a single space.
func parseHeaders(lr *lineReader, hs *Headers, parsers map[header.Name]header.Parser) error {
	var name, value string

	flush := func() error {
		if name == "" {
			return nil
		}
		hdr, err := header.Parse(name, value, parsers)
		if err != nil {
			return errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedHeader, err))
		}
		hs.Set(hdr)
		name, value = "", ""
		return nil
	}

	for {
		line, ok := lr.next()
		if !ok || len(line) == 0 {
			return errtrace.Wrap(flush())
		}

		if line[0] == ' ' || line[0] == '\t' {
			if name == "" {
				return errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedHeader,
					"continuation line %q without a header", util.Ellipsis(string(line), 64)))
			}
			value += " " + util.TrimSP(string(line))
			continue
		}

		if err := flush(); err != nil {
			return errtrace.Wrap(err)
		}

		n, v, ok := strings.Cut(string(line), ":")
		n = util.TrimSP(n)
		if !ok || n == "" {
			return errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedHeader,
				"header line %q", util.Ellipsis(string(line), 64)))
		}
		name, value = n, util.TrimSP(v)
	}
}

type lineReader struct {
	data []byte
	pos  int
}

// next returns the next line without the line terminator.
// The ok result is false when data is exhausted.
func (lr *lineReader) next() (line []byte, ok bool) {
	if lr.pos >= len(lr.data) {
		return nil, false
	}
	rest := lr.data[lr.pos:]
	i := bytes.IndexByte(rest, '\n')
	if i < 0 {
		lr.pos = len(lr.data)
		return bytes.TrimSuffix(rest, []byte{'\r'}), true
	}
	lr.pos += i + 1
	return bytes.TrimSuffix(rest[:i], []byte{'\r'}), true
}

func (lr *lineReader) rest() []byte { return lr.data[lr.pos:] }
