package header

import (
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/util"
)

// InfoEntry is a single "<uri>;params" entry of the Alert-Info and Call-Info headers.
type InfoEntry struct {
	URI    string
	Params Params
}

func (e InfoEntry) render(sb *strings.Builder) {
	sb.WriteByte('<')
	sb.WriteString(e.URI)
	sb.WriteByte('>')
	e.Params.renderTo(sb, ";")
}

func (e InfoEntry) String() string {
	var sb strings.Builder
	e.render(&sb)
	return sb.String()
}

// Equal compares entries by URI and parameters.
func (e InfoEntry) Equal(other InfoEntry) bool {
	return e.URI == other.URI && e.Params.Equal(other.Params)
}

// Clone returns a deep copy of the entry.
func (e InfoEntry) Clone() InfoEntry {
	e.Params = e.Params.Clone()
	return e
}

func parseInfoEntries(s string) ([]InfoEntry, error) {
	entries := splitList(s)
	if len(entries) == 0 {
		return nil, errtrace.Wrap(errorutil.Errorf("empty value"))
	}
	es := make([]InfoEntry, 0, len(entries))
	for _, raw := range entries {
		parts := split(raw, ";")
		uri := util.TrimSP(parts[0])
		if len(uri) < 3 || uri[0] != '<' || uri[len(uri)-1] != '>' {
			return nil, errtrace.Wrap(errorutil.Errorf("missing angle brackets in %q", raw))
		}
		e := InfoEntry{URI: util.TrimSP(uri[1 : len(uri)-1])}
		if e.URI == "" {
			return nil, errtrace.Wrap(errorutil.Errorf("empty URI in %q", raw))
		}
		var ok bool
		if e.Params, ok = parseParams(parts[1:]); !ok {
			return nil, errtrace.Wrap(errorutil.Errorf("malformed parameters in %q", raw))
		}
		es = append(es, e)
	}
	return es, nil
}

func renderInfoEntries(es []InfoEntry) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	for i, e := range es {
		if i > 0 {
			sb.WriteString(", ")
		}
		e.render(sb)
	}
	return sb.String()
}

func cloneInfoEntries(es []InfoEntry) []InfoEntry {
	es2 := make([]InfoEntry, len(es))
	for i := range es {
		es2[i] = es[i].Clone()
	}
	return es2
}
