package header

import (
	"io"
	"slices"

	"braces.dev/errtrace"
)

// AlertInfo represents the Alert-Info header field.
// The Alert-Info header field provides an alternative ring tone for the callee (requests) or ringback (responses).
type AlertInfo []InfoEntry

// CanonicName returns the canonical name of the header.
func (AlertInfo) CanonicName() Name { return "Alert-Info" }

// RenderTo writes the header to the provided writer.
func (hdr AlertInfo) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr AlertInfo) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr AlertInfo) RenderValue() string { return renderInfoEntries(hdr) }

// String returns the string representation of the header value.
func (hdr AlertInfo) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr AlertInfo) Clone() Header {
	if hdr == nil {
		return nil
	}
	return AlertInfo(cloneInfoEntries(hdr))
}

// Equal compares this header with another for equality.
func (hdr AlertInfo) Equal(val any) bool {
	var other AlertInfo
	switch v := val.(type) {
	case AlertInfo:
		other = v
	case *AlertInfo:
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
func (hdr AlertInfo) IsValid() bool {
	return len(hdr) > 0 && !slices.ContainsFunc(hdr, func(e InfoEntry) bool { return e.URI == "" })
}

func parseAlertInfo(s string) (Header, error) {
	es, err := parseInfoEntries(s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return AlertInfo(es), nil
}
