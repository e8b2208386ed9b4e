package header

import (
	"slices"
	"strings"

	"github.com/ghettovoice/sipcore/internal/util"
)

// Param is a single header parameter.
// Quoted reports whether the value was a quoted string on the wire.
type Param struct {
	Name   string
	Value  string
	Quoted bool
}

func (p Param) render(sb *strings.Builder) {
	sb.WriteString(p.Name)
	if p.Value == "" && !p.Quoted {
		return
	}
	sb.WriteByte('=')
	if p.Quoted || (!util.IsToken(p.Value) && !isHostLike(p.Value)) {
		writeQuoted(sb, p.Value)
		return
	}
	sb.WriteString(p.Value)
}

// Params is an ordered list of header parameters.
// Parameter names are case-insensitive.
type Params []Param

func (ps Params) index(name string) int {
	return slices.IndexFunc(ps, func(p Param) bool { return util.EqFold(p.Name, name) })
}

// Get returns the value of the named parameter.
func (ps Params) Get(name string) (string, bool) {
	if i := ps.index(name); i >= 0 {
		return ps[i].Value, true
	}
	return "", false
}

// Has checks whether the named parameter is present.
func (ps Params) Has(name string) bool { return ps.index(name) >= 0 }

// Set replaces the value of the named parameter or appends a new one.
func (ps Params) Set(name, value string) Params {
	if i := ps.index(name); i >= 0 {
		ps[i].Value = value
		return ps
	}
	return append(ps, Param{Name: name, Value: value})
}

// Del removes the named parameter.
func (ps Params) Del(name string) Params {
	return slices.DeleteFunc(ps, func(p Param) bool { return util.EqFold(p.Name, name) })
}

// Clone returns a copy of the parameters.
func (ps Params) Clone() Params { return slices.Clone(ps) }

// Equal reports whether both lists hold the same parameters regardless of order.
// Names are compared case-insensitively, values exactly.
func (ps Params) Equal(other Params) bool {
	if len(ps) != len(other) {
		return false
	}
	for _, p := range ps {
		v, ok := other.Get(p.Name)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// renderTo writes every parameter prefixed with sep.
func (ps Params) renderTo(sb *strings.Builder, sep string) {
	for _, p := range ps {
		sb.WriteString(sep)
		p.render(sb)
	}
}

// renderList writes parameters separated by sep.
func (ps Params) renderList(sb *strings.Builder, sep string) {
	for i, p := range ps {
		if i > 0 {
			sb.WriteString(sep)
		}
		p.render(sb)
	}
}

func parseParam(s string) (Param, bool) {
	name, val, hasVal := strings.Cut(s, "=")
	p := Param{Name: util.TrimSP(name)}
	if !util.IsToken(p.Name) {
		return Param{}, false
	}
	if !hasVal {
		return p, true
	}
	val = util.TrimSP(val)
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		p.Value = unquote(val)
		p.Quoted = true
		return p, true
	}
	p.Value = val
	return p, true
}

// parseParams parses parameters from parts, skipping empty ones.
func parseParams(parts []string) (Params, bool) {
	var ps Params
	for _, s := range parts {
		if util.TrimSP(s) == "" {
			continue
		}
		p, ok := parseParam(s)
		if !ok {
			return nil, false
		}
		ps = append(ps, p)
	}
	return ps, true
}

// unquote strips the surrounding quotes and resolves quoted pairs.
func unquote(s string) string {
	s = s[1 : len(s)-1]
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := range len(s) {
		if s[i] == '"' || s[i] == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	sb.WriteByte('"')
}

func isHostLike(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		c := s[i]
		if c == ':' || c == '[' || c == ']' || c == '/' || c == '@' || util.IsToken(s[i:i+1]) {
			continue
		}
		return false
	}
	return true
}

// split splits s by any of seps, ignoring separators inside quoted strings,
// angle brackets and parentheses.
func split(s, seps string) []string {
	var (
		parts   []string
		start   int
		quoted  bool
		escaped bool
		angle   int
		paren   int
	)
	for i := range len(s) {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case quoted:
			switch c {
			case '\\':
				escaped = true
			case '"':
				quoted = false
			}
		case c == '"':
			quoted = true
		case c == '<':
			angle++
		case c == '>' && angle > 0:
			angle--
		case c == '(':
			paren++
		case c == ')' && paren > 0:
			paren--
		case angle == 0 && paren == 0 && strings.IndexByte(seps, c) >= 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// indexUnquoted returns the index of the first c outside of a quoted string, or -1.
func indexUnquoted(s string, c byte) int {
	var quoted, escaped bool
	for i := range len(s) {
		switch {
		case escaped:
			escaped = false
		case quoted && s[i] == '\\':
			escaped = true
		case s[i] == '"':
			quoted = !quoted
		case !quoted && s[i] == c:
			return i
		}
	}
	return -1
}

// splitList splits a comma separated header value into trimmed non-empty entries.
func splitList(s string) []string {
	parts := split(s, ",")
	entries := parts[:0]
	for _, p := range parts {
		if p = util.TrimSP(p); p != "" {
			entries = append(entries, p)
		}
	}
	return entries
}
