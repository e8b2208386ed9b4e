package header

import (
	"io"
	"strconv"

	"braces.dev/errtrace"
)

// MaxForwards represents the Max-Forwards header field.
// The Max-Forwards header field limits the number of proxies or gateways that can forward the request.
type MaxForwards uint

// CanonicName returns the canonical name of the header.
func (MaxForwards) CanonicName() Name { return "Max-Forwards" }

// RenderTo writes the header to the provided writer.
func (hdr MaxForwards) RenderTo(w io.Writer) (int, error) { return errtrace.Wrap2(renderTo(w, hdr)) }

// Render returns the string representation of the header.
func (hdr MaxForwards) Render() string { return render(hdr) }

// RenderValue returns the header value without the name prefix.
func (hdr MaxForwards) RenderValue() string { return strconv.FormatUint(uint64(hdr), 10) }

// String returns the string representation of the header value.
func (hdr MaxForwards) String() string { return hdr.RenderValue() }

// Clone returns a copy of the header.
func (hdr MaxForwards) Clone() Header { return hdr }

// Equal compares this header with another for equality.
func (hdr MaxForwards) Equal(val any) bool {
	switch v := val.(type) {
	case MaxForwards:
		return hdr == v
	case *MaxForwards:
		return v != nil && hdr == *v
	default:
		return false
	}
}

// IsValid checks whether the header is syntactically valid.
func (MaxForwards) IsValid() bool { return true }

func parseMaxForwards(s string) (Header, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return MaxForwards(n), nil
}
