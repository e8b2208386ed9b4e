package sip

import (
	"io"
	"iter"
	"log/slog"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/header"
	"github.com/ghettovoice/sipcore/internal/ioutil"
	"github.com/ghettovoice/sipcore/internal/util"
)

// Headers is an ordered set of message headers keyed by the canonical header name.
// Setting a header whose name is already present replaces the value in place,
// so the first occurrence keeps its position.
// The zero value is an empty set ready to use.
type Headers struct {
	entries []header.Header
	index   map[header.Name]int
}

// NewHeaders creates a set from hdrs, later entries win.
func NewHeaders(hdrs ...header.Header) *Headers {
	hs := new(Headers)
	for _, h := range hdrs {
		hs.Set(h)
	}
	return hs
}

// Set adds the header or replaces the header with the same canonical name.
func (hs *Headers) Set(hdr header.Header) *Headers {
	if hdr == nil {
		return hs
	}
	name := hdr.CanonicName()
	if i, ok := hs.index[name]; ok {
		hs.entries[i] = hdr
		return hs
	}
	if hs.index == nil {
		hs.index = make(map[header.Name]int)
	}
	hs.index[name] = len(hs.entries)
	hs.entries = append(hs.entries, hdr)
	return hs
}

// Get returns the header by name. The name is canonicalized before lookup.
func (hs *Headers) Get(name header.Name) (header.Header, bool) {
	if hs == nil {
		return nil, false
	}
	i, ok := hs.index[header.CanonicName(name)]
	if !ok {
		return nil, false
	}
	return hs.entries[i], true
}

// Has checks whether the header is present.
func (hs *Headers) Has(name header.Name) bool {
	_, ok := hs.Get(name)
	return ok
}

// Del removes the header by name.
func (hs *Headers) Del(name header.Name) *Headers {
	if hs == nil {
		return hs
	}
	i, ok := hs.index[header.CanonicName(name)]
	if !ok {
		return hs
	}
	hs.entries = append(hs.entries[:i], hs.entries[i+1:]...)
	clear(hs.index)
	for j, h := range hs.entries {
		hs.index[h.CanonicName()] = j
	}
	return hs
}

// Len returns the number of headers.
func (hs *Headers) Len() int {
	if hs == nil {
		return 0
	}
	return len(hs.entries)
}

// All iterates over the headers in insertion order.
func (hs *Headers) All() iter.Seq2[header.Name, header.Header] {
	return func(yield func(header.Name, header.Header) bool) {
		if hs == nil {
			return
		}
		for _, h := range hs.entries {
			if !yield(h.CanonicName(), h) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the headers.
func (hs *Headers) Clone() *Headers {
	hs2 := new(Headers)
	if hs == nil {
		return hs2
	}
	for _, h := range hs.entries {
		hs2.Set(h.Clone())
	}
	return hs2
}

// Equal reports whether both sets hold equal headers regardless of order.
func (hs *Headers) Equal(other *Headers) bool {
	if hs.Len() != other.Len() {
		return false
	}
	for name, h := range hs.All() {
		h2, ok := other.Get(name)
		if !ok || !h.Equal(h2) {
			return false
		}
	}
	return true
}

// RenderTo writes every header except the pseudo-headers as "Name: value\r\n".
func (hs *Headers) RenderTo(w io.Writer) (num int, err error) {
	cw := ioutil.NewCountingWriter(w)
	for name, h := range hs.All() {
		if IsPseudoHeader(name) {
			continue
		}
		if _, err := cw.Call(h.RenderTo).Line().Result(); err != nil {
			break
		}
	}
	return errtrace.Wrap2(cw.Result())
}

// LogValue implements [slog.LogValuer].
func (hs *Headers) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, hs.Len())
	for name, h := range hs.All() {
		attrs = append(attrs, slog.String(string(name), util.Ellipsis(h.RenderValue(), 128)))
	}
	return slog.GroupValue(attrs...)
}

// Via returns the Via header.
func (hs *Headers) Via() (header.Via, bool) { return getHdr[header.Via](hs, "Via") }

// From returns the From header.
func (hs *Headers) From() (*header.From, bool) { return getHdr[*header.From](hs, "From") }

// To returns the To header.
func (hs *Headers) To() (*header.To, bool) { return getHdr[*header.To](hs, "To") }

// CallID returns the Call-ID header.
func (hs *Headers) CallID() (header.CallID, bool) { return getHdr[header.CallID](hs, "Call-ID") }

// CSeq returns the CSeq header.
func (hs *Headers) CSeq() (*header.CSeq, bool) { return getHdr[*header.CSeq](hs, "CSeq") }

// Contact returns the Contact header.
func (hs *Headers) Contact() (*header.Contact, bool) { return getHdr[*header.Contact](hs, "Contact") }

// ContentLength returns the Content-Length header.
func (hs *Headers) ContentLength() (header.ContentLength, bool) {
	return getHdr[header.ContentLength](hs, "Content-Length")
}

// pseudo returns the value of the pseudo-header.
func (hs *Headers) pseudo(name header.Name) (string, bool) {
	h, ok := hs.Get(name)
	if !ok {
		return "", false
	}
	return h.RenderValue(), true
}

func getHdr[T header.Header](hs *Headers, name header.Name) (T, bool) {
	var zero T
	h, ok := hs.Get(name)
	if !ok {
		return zero, false
	}
	v, ok := h.(T)
	return v, ok
}
