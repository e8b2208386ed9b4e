package header

import (
	"io"
	"slices"

	"braces.dev/errtrace"
)

// AcceptLanguage represents the Accept-Language header field.
// The Accept-Language header field lists natural languages preferred for reason phrases and bodies.
type AcceptLanguage []AcceptRange

// CanonicName returns the canonical name of the header.
func (AcceptLanguage) CanonicName() Name { return "Accept-Language" }

// RenderTo writes the header to the provided writer.
func (hdr AcceptLanguage) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr AcceptLanguage) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr AcceptLanguage) RenderValue() string { return renderRanges(hdr) }

// String returns the string representation of the header value.
func (hdr AcceptLanguage) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr AcceptLanguage) Clone() Header {
	if hdr == nil {
		return nil
	}
	return AcceptLanguage(cloneRanges(hdr))
}

// Equal compares this header with another for equality.
func (hdr AcceptLanguage) Equal(val any) bool {
	var other AcceptLanguage
	switch v := val.(type) {
	case AcceptLanguage:
		other = v
	case *AcceptLanguage:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return slices.EqualFunc(hdr, other, AcceptRange.Equal)
}

// IsValid checks whether the header is syntactically valid.
func (hdr AcceptLanguage) IsValid() bool { return hdr != nil && validRanges(hdr) }

func parseAcceptLanguage(s string) (Header, error) {
	rs, err := parseRanges(s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return AcceptLanguage(rs), nil
}
