package header

import (
	"io"
	"slices"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/util"
)

// MagicCookie is the branch prefix of RFC 3261 compliant transactions.
const MagicCookie = "z9hG4bK"

// Via represents the Via header field.
// The Via header field indicates the transport used for the transaction and identifies the location
// where the response is to be sent.
type Via []ViaHop

// CanonicName returns the canonical name of the header.
func (Via) CanonicName() Name { return "Via" }

// RenderTo writes the header to the provided writer.
func (hdr Via) RenderTo(w io.Writer) (int, error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderTo(w, hdr))
}

// Render returns the string representation of the header.
func (hdr Via) Render() string {
	if hdr == nil {
		return ""
	}
	return render(hdr)
}

// RenderValue returns the header value without the name prefix.
func (hdr Via) RenderValue() string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	for i, hop := range hdr {
		if i > 0 {
			sb.WriteString(", ")
		}
		hop.render(sb)
	}
	return sb.String()
}

// String returns the string representation of the header value.
func (hdr Via) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr Via) Clone() Header {
	if hdr == nil {
		return nil
	}
	hdr2 := make(Via, len(hdr))
	for i := range hdr {
		hdr2[i] = hdr[i].Clone()
	}
	return hdr2
}

// Equal compares this header with another for equality.
func (hdr Via) Equal(val any) bool {
	var other Via
	switch v := val.(type) {
	case Via:
		other = v
	case *Via:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return slices.EqualFunc(hdr, other, ViaHop.Equal)
}

// IsValid checks whether the header is syntactically valid.
func (hdr Via) IsValid() bool {
	return len(hdr) > 0 && !slices.ContainsFunc(hdr, func(hop ViaHop) bool { return !hop.IsValid() })
}

// Top returns the topmost hop.
func (hdr Via) Top() (ViaHop, bool) {
	if len(hdr) == 0 {
		return ViaHop{}, false
	}
	return hdr[0], true
}

// Branch returns the "branch" parameter of the topmost hop.
func (hdr Via) Branch() (string, bool) {
	hop, ok := hdr.Top()
	if !ok {
		return "", false
	}
	return hop.Branch()
}

// ViaHop is a single entry of the Via header.
type ViaHop struct {
	Proto     ProtoInfo
	Transport string
	SentBy    string
	Params    Params
}

func (hop ViaHop) render(sb *strings.Builder) {
	sb.WriteString(hop.Proto.String())
	sb.WriteByte('/')
	sb.WriteString(hop.Transport)
	sb.WriteByte(' ')
	sb.WriteString(hop.SentBy)
	hop.Params.renderTo(sb, ";")
}

func (hop ViaHop) String() string {
	var sb strings.Builder
	hop.render(&sb)
	return sb.String()
}

// Equal compares hops, protocol and transport are case-insensitive.
func (hop ViaHop) Equal(other ViaHop) bool {
	return hop.Proto.Equal(other.Proto) &&
		util.EqFold(hop.Transport, other.Transport) &&
		util.EqFold(hop.SentBy, other.SentBy) &&
		hop.Params.Equal(other.Params)
}

// IsValid checks whether the hop is syntactically valid.
func (hop ViaHop) IsValid() bool {
	return hop.Proto.IsValid() && util.IsToken(hop.Transport) && hop.SentBy != ""
}

// Clone returns a deep copy of the hop.
func (hop ViaHop) Clone() ViaHop {
	hop.Params = hop.Params.Clone()
	return hop
}

// Branch returns the "branch" parameter value.
func (hop ViaHop) Branch() (string, bool) { return hop.Params.Get("branch") }

func parseVia(s string) (Header, error) {
	entries := splitList(s)
	if len(entries) == 0 {
		return nil, errtrace.Wrap(errorutil.Errorf("empty value"))
	}
	hdr := make(Via, 0, len(entries))
	for _, e := range entries {
		hop, err := parseViaHop(e)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		hdr = append(hdr, hop)
	}
	return hdr, nil
}

// parseViaHop parses "SIP/2.0/UDP host:port;params".
// Linear whitespace around slashes is allowed.
func parseViaHop(s string) (ViaHop, error) {
	parts := split(s, ";")
	fields := strings.Fields(parts[0])
	if len(fields) < 2 {
		return ViaHop{}, errtrace.Wrap(errorutil.Errorf("want \"<proto>/<version>/<transport> <sent-by>\", got %q", s))
	}

	proto := strings.Split(strings.Join(fields[:len(fields)-1], ""), "/")
	if len(proto) != 3 {
		return ViaHop{}, errtrace.Wrap(errorutil.Errorf("malformed protocol in %q", s))
	}
	hop := ViaHop{
		Proto:     ProtoInfo{Name: proto[0], Version: proto[1]},
		Transport: proto[2],
		SentBy:    fields[len(fields)-1],
	}
	if !hop.IsValid() {
		return ViaHop{}, errtrace.Wrap(errorutil.Errorf("malformed hop %q", s))
	}

	var ok bool
	if hop.Params, ok = parseParams(parts[1:]); !ok {
		return ViaHop{}, errtrace.Wrap(errorutil.Errorf("malformed parameters in %q", s))
	}
	return hop, nil
}
