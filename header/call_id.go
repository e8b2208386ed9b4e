package header

import (
	"io"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
)

// CallID represents the Call-ID header field.
// The Call-ID header field uniquely identifies a particular invitation or all registrations of a particular client.
type CallID string

// CanonicName returns the canonical name of the header.
func (CallID) CanonicName() Name { return "Call-ID" }

// RenderTo writes the header to the provided writer.
func (hdr CallID) RenderTo(w io.Writer) (int, error) { return errtrace.Wrap2(renderTo(w, hdr)) }

// Render returns the string representation of the header.
func (hdr CallID) Render() string { return render(hdr) }

// RenderValue returns the header value without the name prefix.
func (hdr CallID) RenderValue() string { return string(hdr) }

// String returns the string representation of the header value.
func (hdr CallID) String() string { return string(hdr) }

// Clone returns a copy of the header.
func (hdr CallID) Clone() Header { return hdr }

// Equal compares this header with another for equality.
// Call-IDs are case-sensitive.
func (hdr CallID) Equal(val any) bool {
	switch v := val.(type) {
	case CallID:
		return hdr == v
	case *CallID:
		return v != nil && hdr == *v
	default:
		return false
	}
}

// IsValid checks whether the header is syntactically valid.
func (hdr CallID) IsValid() bool { return hdr != "" && !strings.ContainsAny(string(hdr), " \t\r\n") }

func parseCallID(s string) (Header, error) {
	hdr := CallID(s)
	if !hdr.IsValid() {
		return nil, errtrace.Wrap(errorutil.Errorf("invalid call id %q", s))
	}
	return hdr, nil
}
