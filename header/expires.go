package header

import (
	"io"
	"strconv"

	"braces.dev/errtrace"
)

// Expires represents the Expires header field.
// The Expires header field gives the relative time after which the message (or content) expires, in seconds.
type Expires uint

// CanonicName returns the canonical name of the header.
func (Expires) CanonicName() Name { return "Expires" }

// RenderTo writes the header to the provided writer.
func (hdr Expires) RenderTo(w io.Writer) (int, error) { return errtrace.Wrap2(renderTo(w, hdr)) }

// Render returns the string representation of the header.
func (hdr Expires) Render() string { return render(hdr) }

// RenderValue returns the header value without the name prefix.
func (hdr Expires) RenderValue() string { return strconv.FormatUint(uint64(hdr), 10) }

// String returns the string representation of the header value.
func (hdr Expires) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr Expires) Clone() Header { return hdr }

// Equal compares this header with another for equality.
func (hdr Expires) Equal(val any) bool {
	switch v := val.(type) {
	case Expires:
		return hdr == v
	case *Expires:
		return v != nil && hdr == *v
	default:
		return false
	}
}

// IsValid checks whether the header is syntactically valid.
func (Expires) IsValid() bool { return true }

func parseExpires(s string) (Header, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return Expires(n), nil
}
