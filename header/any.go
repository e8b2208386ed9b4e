package header

import (
	"io"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/util"
)

// Any represents a header with no typed representation.
// The value is kept verbatim.
type Any struct {
	Name  Name
	Value string
}

// CanonicName returns the canonical name of the header.
func (hdr *Any) CanonicName() Name {
	if hdr == nil {
		return ""
	}
	return CanonicName(hdr.Name)
}

// RenderTo writes the header to the provided writer.
func (hdr *Any) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr *Any) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr *Any) RenderValue() string {
	if hdr == nil {
		return ""
	}
	return hdr.Value
}

// String returns the string representation of the header value.
func (hdr *Any) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr *Any) Clone() Header {
	if hdr == nil {
		return nil
	}
	hdr2 := *hdr
	return &hdr2
}

// Equal compares this header with another for equality.
// Names are compared canonically, values exactly.
func (hdr *Any) Equal(val any) bool {
	var other *Any
	switch v := val.(type) {
	case Any:
		other = &v
	case *Any:
		other = v
	default:
		return false
	}

	if hdr == other {
		return true
	} else if hdr == nil || other == nil {
		return false
	}

	return hdr.Name.Equal(other.Name) && util.TrimSP(hdr.Value) == util.TrimSP(other.Value)
}

// IsValid checks whether the header is syntactically valid.
func (hdr *Any) IsValid() bool { return hdr != nil && hdr.Name.IsValid() }
