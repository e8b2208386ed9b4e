// Package ioutil contains helpers for writing wire-format output.
package ioutil

import (
	"io"

	"braces.dev/errtrace"
)

// CountingWriter counts the bytes written to the underlying writer and keeps the first error.
// After an error every further write is a no-op.
type CountingWriter struct {
	w   io.Writer
	num int
	err error
}

// NewCountingWriter wraps w.
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

// Write implements [io.Writer].
func (cw *CountingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, errtrace.Wrap(cw.err)
	}
	n, err := cw.w.Write(p)
	cw.add(n, err)
	return n, errtrace.Wrap(err)
}

// WriteString implements [io.StringWriter].
func (cw *CountingWriter) WriteString(s string) (int, error) {
	if cw.err != nil {
		return 0, errtrace.Wrap(cw.err)
	}
	n, err := io.WriteString(cw.w, s)
	cw.add(n, err)
	return n, errtrace.Wrap(err)
}

// Line writes the parts followed by CRLF.
func (cw *CountingWriter) Line(parts ...string) *CountingWriter {
	for _, p := range parts {
		cw.WriteString(p) //nolint:errcheck
	}
	cw.WriteString("\r\n") //nolint:errcheck
	return cw
}

// Call runs a RenderTo-style function against the underlying writer.
func (cw *CountingWriter) Call(fn func(io.Writer) (int, error)) *CountingWriter {
	if cw.err != nil {
		return cw
	}
	cw.add(fn(cw.w))
	return cw
}

// Result returns the number of written bytes and the first error.
func (cw *CountingWriter) Result() (int, error) {
	return cw.num, errtrace.Wrap(cw.err)
}

func (cw *CountingWriter) add(n int, err error) {
	cw.num += n
	if err != nil {
		cw.err = err
	}
}
