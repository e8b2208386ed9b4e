package header

import (
	"io"
	"slices"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/util"
)

// Contact represents the Contact header field.
// The Contact header field provides a URI whose meaning depends on the type of request or response it is in.
// A nil list with Wildcard set represents "Contact: *".
type Contact struct {
	Wildcard bool
	Addrs    []NameAddr
}

// CanonicName returns the canonical name of the header.
func (*Contact) CanonicName() Name { return "Contact" }

// RenderTo writes the header to the provided writer.
func (hdr *Contact) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr *Contact) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr *Contact) RenderValue() string {
	if hdr == nil {
		return ""
	}
	if hdr.Wildcard {
		return "*"
	}

	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	for i, addr := range hdr.Addrs {
		if i > 0 {
			sb.WriteString(", ")
		}
		addr.render(sb)
	}
	return sb.String()
}

// String returns the string representation of the header value.
func (hdr *Contact) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr *Contact) Clone() Header {
	if hdr == nil {
		return nil
	}
	hdr2 := &Contact{Wildcard: hdr.Wildcard}
	if hdr.Addrs != nil {
		hdr2.Addrs = make([]NameAddr, len(hdr.Addrs))
		for i := range hdr.Addrs {
			hdr2.Addrs[i] = hdr.Addrs[i].Clone()
		}
	}
	return hdr2
}

// Equal compares this header with another for equality.
func (hdr *Contact) Equal(val any) bool {
	var other *Contact
	switch v := val.(type) {
	case Contact:
		other = &v
	case *Contact:
		other = v
	default:
		return false
	}

	if hdr == other {
		return true
	} else if hdr == nil || other == nil {
		return false
	}

	return hdr.Wildcard == other.Wildcard && slices.EqualFunc(hdr.Addrs, other.Addrs, NameAddr.Equal)
}

// IsValid checks whether the header is syntactically valid.
func (hdr *Contact) IsValid() bool {
	if hdr == nil {
		return false
	}
	if hdr.Wildcard {
		return len(hdr.Addrs) == 0
	}
	return len(hdr.Addrs) > 0 && !slices.ContainsFunc(hdr.Addrs, func(a NameAddr) bool { return !a.IsValid() })
}

func parseContact(s string) (Header, error) {
	if s == "*" {
		return &Contact{Wildcard: true}, nil
	}

	entries := splitList(s)
	if len(entries) == 0 {
		return nil, errtrace.Wrap(errorutil.Errorf("empty value"))
	}
	hdr := &Contact{Addrs: make([]NameAddr, 0, len(entries))}
	for _, e := range entries {
		addr, err := parseNameAddr(e)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		hdr.Addrs = append(hdr.Addrs, addr)
	}
	return hdr, nil
}
