package header

import (
	"io"
	"slices"

	"braces.dev/errtrace"
)

// CallInfo represents the Call-Info header field.
// The Call-Info header field provides additional information about the caller or callee, e.g. an icon or a card.
type CallInfo []InfoEntry

// CanonicName returns the canonical name of the header.
func (CallInfo) CanonicName() Name { return "Call-Info" }

// RenderTo writes the header to the provided writer.
func (hdr CallInfo) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr CallInfo) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr CallInfo) RenderValue() string { return renderInfoEntries(hdr) }

// String returns the string representation of the header value.
func (hdr CallInfo) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr CallInfo) Clone() Header {
	if hdr == nil {
		return nil
	}
	return CallInfo(cloneInfoEntries(hdr))
}

// Equal compares this header with another for equality.
func (hdr CallInfo) Equal(val any) bool {
	var other CallInfo
	switch v := val.(type) {
	case CallInfo:
		other = v
	case *CallInfo:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return slices.EqualFunc(hdr, other, InfoEntry.Equal)
}

// IsValid checks whether the header is syntactically valid.
func (hdr CallInfo) IsValid() bool {
	return len(hdr) > 0 && !slices.ContainsFunc(hdr, func(e InfoEntry) bool { return e.URI == "" })
}

func parseCallInfo(s string) (Header, error) {
	es, err := parseInfoEntries(s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return CallInfo(es), nil
}
