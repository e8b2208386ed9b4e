package header

import (
	"io"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/util"
)

// Authorization represents the Authorization header field.
// The Authorization header field contains authentication credentials of a UA.
//
// Parameters are accepted separated either by commas (RFC 3261 digest form) or by semicolons
// and are always rendered comma separated.
type Authorization struct {
	Scheme string
	Params Params
}

// CanonicName returns the canonical name of the header.
func (*Authorization) CanonicName() Name { return "Authorization" }

// RenderTo writes the header to the provided writer.
func (hdr *Authorization) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr *Authorization) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr *Authorization) RenderValue() string {
	if hdr == nil {
		return ""
	}

	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	sb.WriteString(hdr.Scheme)
	if len(hdr.Params) > 0 {
		sb.WriteByte(' ')
		hdr.Params.renderList(sb, ", ")
	}
	return sb.String()
}

// String returns the string representation of the header value.
func (hdr *Authorization) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr *Authorization) Clone() Header {
	if hdr == nil {
		return nil
	}
	return &Authorization{Scheme: hdr.Scheme, Params: hdr.Params.Clone()}
}

// Equal compares this header with another for equality.
// Schemes are compared case-insensitively.
func (hdr *Authorization) Equal(val any) bool {
	var other *Authorization
	switch v := val.(type) {
	case Authorization:
		other = &v
	case *Authorization:
		other = v
	default:
		return false
	}

	if hdr == other {
		return true
	} else if hdr == nil || other == nil {
		return false
	}

	return util.EqFold(hdr.Scheme, other.Scheme) && hdr.Params.Equal(other.Params)
}

// IsValid checks whether the header is syntactically valid.
func (hdr *Authorization) IsValid() bool { return hdr != nil && util.IsToken(hdr.Scheme) }

func parseAuthorization(s string) (Header, error) {
	scheme, rest, _ := strings.Cut(s, " ")
	if !util.IsToken(scheme) {
		return nil, errtrace.Wrap(errorutil.Errorf("invalid scheme %q", scheme))
	}
	ps, err := parseAuthParams(rest)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return &Authorization{Scheme: scheme, Params: ps}, nil
}

func parseAuthParams(s string) (Params, error) {
	ps, ok := parseParams(split(s, ",;"))
	if !ok {
		return nil, errtrace.Wrap(errorutil.Errorf("malformed parameters %q", s))
	}
	return ps, nil
}
