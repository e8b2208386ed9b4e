package header

import (
	"io"
	"slices"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/util"
)

// Accept represents the Accept header field.
// The Accept header field lists media ranges acceptable in the response body.
type Accept []AcceptRange

// AcceptRange is a single entry of the Accept, Accept-Encoding or Accept-Language header
// with its parameters, e.g. "application/sdp;level=1" or "gzip;q=0.5".
type AcceptRange struct {
	Value  string
	Params Params
}

func (r AcceptRange) render(sb *strings.Builder) {
	sb.WriteString(r.Value)
	r.Params.renderTo(sb, ";")
}

func (r AcceptRange) String() string {
	var sb strings.Builder
	r.render(&sb)
	return sb.String()
}

// Equal compares ranges case-insensitively by value and by parameters.
func (r AcceptRange) Equal(other AcceptRange) bool {
	return util.EqFold(r.Value, other.Value) && r.Params.Equal(other.Params)
}

// Clone returns a deep copy of the range.
func (r AcceptRange) Clone() AcceptRange {
	r.Params = r.Params.Clone()
	return r
}

// CanonicName returns the canonical name of the header.
func (Accept) CanonicName() Name { return "Accept" }

// RenderTo writes the header to the provided writer.
func (hdr Accept) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr Accept) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr Accept) RenderValue() string { return renderRanges(hdr) }

// String returns the string representation of the header value.
func (hdr Accept) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr Accept) Clone() Header {
	if hdr == nil {
		return nil
	}
	return Accept(cloneRanges(hdr))
}

// Equal compares this header with another for equality.
func (hdr Accept) Equal(val any) bool {
	var other Accept
	switch v := val.(type) {
	case Accept:
		other = v
	case *Accept:
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
func (hdr Accept) IsValid() bool { return hdr != nil && validRanges(hdr) }

func parseAccept(s string) (Header, error) {
	rs, err := parseRanges(s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return Accept(rs), nil
}

func parseRanges(s string) ([]AcceptRange, error) {
	entries := splitList(s)
	rs := make([]AcceptRange, 0, len(entries))
	for _, e := range entries {
		parts := split(e, ";")
		r := AcceptRange{Value: util.TrimSP(parts[0])}
		if r.Value == "" {
			return nil, errtrace.Wrap(errorutil.Errorf("empty range in %q", e))
		}
		var ok bool
		if r.Params, ok = parseParams(parts[1:]); !ok {
			return nil, errtrace.Wrap(errorutil.Errorf("malformed parameters in %q", e))
		}
		rs = append(rs, r)
	}
	return rs, nil
}

func renderRanges(rs []AcceptRange) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	for i, r := range rs {
		if i > 0 {
			sb.WriteString(", ")
		}
		r.render(sb)
	}
	return sb.String()
}

func cloneRanges(rs []AcceptRange) []AcceptRange {
	rs2 := make([]AcceptRange, len(rs))
	for i := range rs {
		rs2[i] = rs[i].Clone()
	}
	return rs2
}

func validRanges(rs []AcceptRange) bool {
	return !slices.ContainsFunc(rs, func(r AcceptRange) bool { return r.Value == "" })
}
