package header

import (
	"io"
	"slices"
	"strings"

	"braces.dev/errtrace"
)

// UserAgent represents the User-Agent header field.
// The User-Agent header field contains information about the UAC originating the request
// as a list of product tokens and comments.
type UserAgent []string

// CanonicName returns the canonical name of the header.
func (UserAgent) CanonicName() Name { return "User-Agent" }

// RenderTo writes the header to the provided writer.
func (hdr UserAgent) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr UserAgent) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr UserAgent) RenderValue() string { return strings.Join(hdr, " ") }

// String returns the string representation of the header value.
func (hdr UserAgent) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr UserAgent) Clone() Header {
	if hdr == nil {
		return nil
	}
	return slices.Clone(hdr)
}

// Equal compares this header with another for equality.
func (hdr UserAgent) Equal(val any) bool {
	var other UserAgent
	switch v := val.(type) {
	case UserAgent:
		other = v
	case *UserAgent:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return slices.Equal(hdr, other)
}

// IsValid checks whether the header is syntactically valid.
func (hdr UserAgent) IsValid() bool { return len(hdr) > 0 }

// parseUserAgent splits the value on whitespace keeping parenthesized comments whole.
func parseUserAgent(s string) (Header, error) {
	var (
		hdr   UserAgent
		start = -1
		depth int
	)
	for i := range len(s) {
		c := s[i]
		switch {
		case c == '(':
			depth++
		case c == ')' && depth > 0:
			depth--
		case (c == ' ' || c == '\t') && depth == 0:
			if start >= 0 {
				hdr = append(hdr, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		hdr = append(hdr, s[start:])
	}
	if hdr == nil {
		hdr = UserAgent{}
	}
	return hdr, nil
}
