package header

import (
	"io"
	"slices"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/util"
)

// Allow represents the Allow header field.
// The Allow header field lists the set of methods supported by the user agent generating the message.
type Allow []RequestMethod

// CanonicName returns the canonical name of the header.
func (Allow) CanonicName() Name { return "Allow" }

// RenderTo writes the header to the provided writer.
func (hdr Allow) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr Allow) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr Allow) RenderValue() string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	for i, m := range hdr {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(m))
	}
	return sb.String()
}

// String returns the string representation of the header value.
func (hdr Allow) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr Allow) Clone() Header {
	if hdr == nil {
		return nil
	}
	return slices.Clone(hdr)
}

// Equal compares this header with another for equality.
func (hdr Allow) Equal(val any) bool {
	var other Allow
	switch v := val.(type) {
	case Allow:
		other = v
	case *Allow:
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
func (hdr Allow) IsValid() bool {
	return hdr != nil && !slices.ContainsFunc(hdr, func(m RequestMethod) bool { return !m.IsValid() })
}

// Has checks whether the method is allowed.
func (hdr Allow) Has(m RequestMethod) bool { return slices.Contains(hdr, m) }

func parseAllow(s string) (Header, error) {
	entries := splitList(s)
	hdr := make(Allow, 0, len(entries))
	for _, e := range entries {
		m := RequestMethod(e)
		if !m.IsValid() {
			return nil, errtrace.Wrap(errorutil.Errorf("invalid method %q", e))
		}
		hdr = append(hdr, m)
	}
	return hdr, nil
}
