package header

import (
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/util"
)

// NameAddr is an address with an optional display name and header parameters,
// as used by the Contact, From and To headers.
type NameAddr struct {
	DisplayName string
	URI         string
	Params      Params
}

func (addr NameAddr) render(sb *strings.Builder) {
	if addr.DisplayName != "" {
		if util.IsToken(addr.DisplayName) {
			sb.WriteString(addr.DisplayName)
		} else {
			writeQuoted(sb, addr.DisplayName)
		}
		sb.WriteByte(' ')
	}
	sb.WriteByte('<')
	sb.WriteString(addr.URI)
	sb.WriteByte('>')
	addr.Params.renderTo(sb, ";")
}

func (addr NameAddr) String() string {
	var sb strings.Builder
	addr.render(&sb)
	return sb.String()
}

// Equal compares addresses by URI and parameters, the display name is ignored.
func (addr NameAddr) Equal(other NameAddr) bool {
	return addr.URI == other.URI && addr.Params.Equal(other.Params)
}

// IsValid checks whether the address has a URI.
func (addr NameAddr) IsValid() bool { return addr.URI != "" }

// IsZero checks whether the address is empty.
func (addr NameAddr) IsZero() bool {
	return addr.DisplayName == "" && addr.URI == "" && len(addr.Params) == 0
}

// Clone returns a deep copy of the address.
func (addr NameAddr) Clone() NameAddr {
	addr.Params = addr.Params.Clone()
	return addr
}

// Tag returns the "tag" parameter value.
func (addr NameAddr) Tag() (string, bool) { return addr.Params.Get("tag") }

// parseNameAddr parses both name-addr ("Bob" <sip:bob@host>;p=v) and
// addr-spec (sip:bob@host;p=v) forms.
// In the addr-spec form parameters after the URI belong to the header.
func parseNameAddr(s string) (NameAddr, error) {
	var addr NameAddr
	var rest string

	if lt := indexUnquoted(s, '<'); lt >= 0 {
		addr.DisplayName = util.TrimSP(s[:lt])
		if len(addr.DisplayName) >= 2 && addr.DisplayName[0] == '"' && addr.DisplayName[len(addr.DisplayName)-1] == '"' {
			addr.DisplayName = unquote(addr.DisplayName)
		}
		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			return NameAddr{}, errtrace.Wrap(errorutil.Errorf("unclosed angle bracket in %q", s))
		}
		addr.URI = util.TrimSP(s[lt+1 : lt+gt])
		rest = s[lt+gt+1:]
		if r := util.TrimSP(rest); r != "" && r[0] != ';' {
			return NameAddr{}, errtrace.Wrap(errorutil.Errorf("unexpected %q after address", r))
		}
	} else {
		uri, params, _ := strings.Cut(s, ";")
		addr.URI = util.TrimSP(uri)
		if strings.ContainsAny(addr.URI, " \t") {
			return NameAddr{}, errtrace.Wrap(errorutil.Errorf("malformed address %q", s))
		}
		rest = ";" + params
	}
	if addr.URI == "" {
		return NameAddr{}, errtrace.Wrap(errorutil.Errorf("empty URI in %q", s))
	}

	var ok bool
	if addr.Params, ok = parseParams(split(rest, ";")); !ok {
		return NameAddr{}, errtrace.Wrap(errorutil.Errorf("malformed parameters in %q", s))
	}
	return addr, nil
}
