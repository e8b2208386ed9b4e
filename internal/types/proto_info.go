package types

import (
	"strings"

	"github.com/ghettovoice/sipcore/internal/util"
)

// ProtoInfo is a protocol name and version pair, e.g. SIP/2.0.
type ProtoInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ProtoSIP20 is the only protocol version spoken on the wire.
var ProtoSIP20 = ProtoInfo{Name: "SIP", Version: "2.0"}

// ParseProtoInfo parses "NAME/VERSION".
func ParseProtoInfo(s string) (ProtoInfo, bool) {
	name, ver, ok := strings.Cut(s, "/")
	if !ok {
		return ProtoInfo{}, false
	}
	p := ProtoInfo{Name: util.TrimSP(name), Version: util.TrimSP(ver)}
	return p, p.IsValid()
}

func (p ProtoInfo) String() string { return p.Name + "/" + p.Version }

func (p ProtoInfo) Equal(val any) bool {
	var other ProtoInfo
	switch v := val.(type) {
	case ProtoInfo:
		other = v
	case *ProtoInfo:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return util.EqFold(p.Name, other.Name) && p.Version == other.Version
}

func (p ProtoInfo) IsValid() bool { return util.IsToken(p.Name) && util.IsToken(p.Version) }

func (p ProtoInfo) IsZero() bool { return p.Name == "" && p.Version == "" }
