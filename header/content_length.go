package header

import (
	"io"
	"strconv"

	"braces.dev/errtrace"
)

// ContentLength represents the Content-Length header field.
// The Content-Length header field indicates the size of the message body, in decimal number of octets.
type ContentLength uint

// CanonicName returns the canonical name of the header.
func (ContentLength) CanonicName() Name { return "Content-Length" }

// RenderTo writes the header to the provided writer.
func (hdr ContentLength) RenderTo(w io.Writer) (int, error) { return errtrace.Wrap2(renderTo(w, hdr)) }

// Render returns the string representation of the header.
func (hdr ContentLength) Render() string { return render(hdr) }

// RenderValue returns the header value without the name prefix.
func (hdr ContentLength) RenderValue() string { return strconv.FormatUint(uint64(hdr), 10) }

// String returns the string representation of the header value.
func (hdr ContentLength) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr ContentLength) Clone() Header { return hdr }

// Equal compares this header with another for equality.
func (hdr ContentLength) Equal(val any) bool {
	switch v := val.(type) {
	case ContentLength:
		return hdr == v
	case *ContentLength:
		return v != nil && hdr == *v
	default:
		return false
	}
}

// IsValid checks whether the header is syntactically valid.
func (ContentLength) IsValid() bool { return true }

func parseContentLength(s string) (Header, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return ContentLength(n), nil
}
