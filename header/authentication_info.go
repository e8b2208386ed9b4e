package header

import (
	"io"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/util"
)

// AuthenticationInfo represents the Authentication-Info header field.
// The Authentication-Info header field provides for mutual authentication with HTTP Digest.
type AuthenticationInfo struct {
	Params Params
}

// CanonicName returns the canonical name of the header.
func (*AuthenticationInfo) CanonicName() Name { return "Authentication-Info" }

// RenderTo writes the header to the provided writer.
func (hdr *AuthenticationInfo) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr *AuthenticationInfo) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr *AuthenticationInfo) RenderValue() string {
	if hdr == nil {
		return ""
	}

	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	hdr.Params.renderList(sb, ", ")
	return sb.String()
}

// String returns the string representation of the header value.
func (hdr *AuthenticationInfo) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr *AuthenticationInfo) Clone() Header {
	if hdr == nil {
		return nil
	}
	return &AuthenticationInfo{Params: hdr.Params.Clone()}
}

// Equal compares this header with another for equality.
func (hdr *AuthenticationInfo) Equal(val any) bool {
	var other *AuthenticationInfo
	switch v := val.(type) {
	case AuthenticationInfo:
		other = &v
	case *AuthenticationInfo:
		other = v
	default:
		return false
	}

	if hdr == other {
		return true
	} else if hdr == nil || other == nil {
		return false
	}

	return hdr.Params.Equal(other.Params)
}

// IsValid checks whether the header is syntactically valid.
func (hdr *AuthenticationInfo) IsValid() bool { return hdr != nil && len(hdr.Params) > 0 }

func parseAuthenticationInfo(s string) (Header, error) {
	ps, err := parseAuthParams(s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if len(ps) == 0 {
		return nil, errtrace.Wrap(errorutil.Errorf("empty value"))
	}
	return &AuthenticationInfo{Params: ps}, nil
}
