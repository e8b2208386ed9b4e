package header

import (
	"io"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/util"
)

// From represents the From header field.
// The From header field indicates the logical identity of the initiator of the request.
type From NameAddr

// CanonicName returns the canonical name of the header.
func (*From) CanonicName() Name { return "From" }

// RenderTo writes the header to the provided writer.
func (hdr *From) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr *From) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr *From) RenderValue() string {
	if hdr == nil {
		return ""
	}

	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	NameAddr(*hdr).render(sb)
	return sb.String()
}

// String returns the string representation of the header value.
func (hdr *From) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr *From) Clone() Header {
	if hdr == nil {
		return nil
	}
	hdr2 := From(NameAddr(*hdr).Clone())
	return &hdr2
}

// Equal compares this header with another for equality.
func (hdr *From) Equal(val any) bool {
	var other *From
	switch v := val.(type) {
	case From:
		other = &v
	case *From:
		other = v
	default:
		return false
	}

	if hdr == other {
		return true
	} else if hdr == nil || other == nil {
		return false
	}

	return NameAddr(*hdr).Equal(NameAddr(*other))
}

// IsValid checks whether the header is syntactically valid.
func (hdr *From) IsValid() bool { return hdr != nil && NameAddr(*hdr).IsValid() }

// Tag returns the "tag" parameter value.
func (hdr *From) Tag() (string, bool) {
	if hdr == nil {
		return "", false
	}
	return hdr.Params.Get("tag")
}

func parseFrom(s string) (Header, error) {
	addr, err := parseNameAddr(s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	hdr := From(addr)
	return &hdr, nil
}
