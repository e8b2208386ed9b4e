package header

import (
	"io"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/util"
)

// To represents the To header field.
// The To header field indicates the logical recipient of the request.
type To NameAddr

// CanonicName returns the canonical name of the header.
func (*To) CanonicName() Name { return "To" }

// RenderTo writes the header to the provided writer.
func (hdr *To) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr *To) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr *To) RenderValue() string {
	if hdr == nil {
		return ""
	}

	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	NameAddr(*hdr).render(sb)
	return sb.String()
}

// String returns the string representation of the header value.
func (hdr *To) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr *To) Clone() Header {
	if hdr == nil {
		return nil
	}
	hdr2 := To(NameAddr(*hdr).Clone())
	return &hdr2
}

// Equal compares this header with another for equality.
func (hdr *To) Equal(val any) bool {
	var other *To
	switch v := val.(type) {
	case To:
		other = &v
	case *To:
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
func (hdr *To) IsValid() bool { return hdr != nil && NameAddr(*hdr).IsValid() }

// Tag returns the "tag" parameter value.
func (hdr *To) Tag() (string, bool) {
	if hdr == nil {
		return "", false
	}
	return hdr.Params.Get("tag")
}

func parseTo(s string) (Header, error) {
	addr, err := parseNameAddr(s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	hdr := To(addr)
	return &hdr, nil
}
