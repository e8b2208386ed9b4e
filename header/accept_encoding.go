package header

import (
	"io"
	"slices"

	"braces.dev/errtrace"
)

// AcceptEncoding represents the Accept-Encoding header field.
// The Accept-Encoding header field lists encodings (content-codings) acceptable in the response, e.g. gzip.
type AcceptEncoding []AcceptRange

// CanonicName returns the canonical name of the header.
func (AcceptEncoding) CanonicName() Name { return "Accept-Encoding" }

// RenderTo writes the header to the provided writer.
func (hdr AcceptEncoding) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr AcceptEncoding) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr AcceptEncoding) RenderValue() string { return renderRanges(hdr) }

// String returns the string representation of the header value.
func (hdr AcceptEncoding) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr AcceptEncoding) Clone() Header {
	if hdr == nil {
		return nil
	}
	return AcceptEncoding(cloneRanges(hdr))
}

// Equal compares this header with another for equality.
func (hdr AcceptEncoding) Equal(val any) bool {
	var other AcceptEncoding
	switch v := val.(type) {
	case AcceptEncoding:
		other = v
	case *AcceptEncoding:
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
func (hdr AcceptEncoding) IsValid() bool { return hdr != nil && validRanges(hdr) }

func parseAcceptEncoding(s string) (Header, error) {
	rs, err := parseRanges(s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return AcceptEncoding(rs), nil
}
