package header

//go:generate go tool errtrace -w .

import (
	"errors"
	"fmt"
	"io"
	"net/textproto"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/types"
	"github.com/ghettovoice/sipcore/internal/util"
)

// ProtoInfo represents SIP protocol information (name and version).
type ProtoInfo = types.ProtoInfo

// RequestMethod represents a SIP request method (INVITE, ACK, BYE, etc.).
type RequestMethod = types.RequestMethod

// Header represents a generic SIP header.
type Header interface {
	// CanonicName returns the canonical header name.
	CanonicName() Name
	// RenderTo writes "Name: value" to w.
	RenderTo(w io.Writer) (int, error)
	// Render returns "Name: value".
	Render() string
	// RenderValue returns the header value without the name prefix.
	RenderValue() string
	Clone() Header
	Equal(val any) bool
	IsValid() bool
}

// Name represents a SIP header name.
type Name string

// ToCanonic converts the Name to its canonical form.
func (n Name) ToCanonic() Name { return CanonicName(n) }

// IsValid checks whether the Name is syntactically valid.
func (n Name) IsValid() bool { return util.IsToken(n) }

// Equal compares this Name with another for equality.
func (n Name) Equal(val any) bool {
	var other Name
	switch v := val.(type) {
	case Name:
		other = v
	case *Name:
		if v == nil {
			return false
		}
		other = *v
	case string:
		other = Name(v)
	default:
		return false
	}
	return CanonicName(n) == CanonicName(other)
}

var hdrNames = map[string]Name{
	"c":                "Content-Type",
	"e":                "Content-Encoding",
	"f":                "From",
	"i":                "Call-ID",
	"k":                "Supported",
	"l":                "Content-Length",
	"m":                "Contact",
	"s":                "Subject",
	"t":                "To",
	"v":                "Via",
	"Call-Id":          "Call-ID",
	"Cseq":             "CSeq",
	"Www-Authenticate": "WWW-Authenticate",
}

// CanonicName converts name to the canonical form.
// The first letter and any letter following a hyphen are upper-cased, the rest are lower-cased.
// Compact names are expanded, e.g. "v" converts to "Via".
func CanonicName[T ~string](name T) Name {
	name = util.TrimSP(name)
	if n, ok := hdrNames[string(name)]; ok {
		return n
	}

	name = T(textproto.CanonicalMIMEHeaderKey(string(name)))
	if n, ok := hdrNames[string(name)]; ok {
		return n
	}
	return Name(name)
}

// ErrInvalidValue is returned when a typed header value can not be parsed.
const ErrInvalidValue errorutil.Error = "invalid header value"

// ValueError describes a header whose value failed typed parsing.
type ValueError struct {
	Name  Name
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: header %q value %q", ErrInvalidValue, e.Name, util.Ellipsis(e.Value, 64))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValueError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{ErrInvalidValue}
	}
	return []error{ErrInvalidValue, e.Err}
}

// Parser parses a header value into a typed header.
type Parser func(value string) (Header, error)

var defaultParsers = map[Name]Parser{
	"Accept":              orAny("Accept", parseAccept),
	"Accept-Encoding":     orAny("Accept-Encoding", parseAcceptEncoding),
	"Accept-Language":     orAny("Accept-Language", parseAcceptLanguage),
	"Alert-Info":          orAny("Alert-Info", parseAlertInfo),
	"Allow":               orAny("Allow", parseAllow),
	"Authentication-Info": orAny("Authentication-Info", parseAuthenticationInfo),
	"Authorization":       orAny("Authorization", parseAuthorization),
	"Call-Info":           orAny("Call-Info", parseCallInfo),
	"Contact":             orAny("Contact", parseContact),
	"From":                orAny("From", parseFrom),
	"To":                  orAny("To", parseTo),
	"Via":                 orAny("Via", parseVia),
	"User-Agent":          parseUserAgent,
	"Call-ID":             parseCallID,
	"CSeq":                parseCSeq,
	"Content-Length":      parseContentLength,
	"Expires":             parseExpires,
	"Max-Forwards":        parseMaxForwards,
}

// orAny makes a structured header parser fall back to [Any] on malformed input.
func orAny(name Name, p Parser) Parser {
	return func(value string) (Header, error) {
		hdr, err := p(value)
		if err != nil {
			return &Any{Name: name, Value: value}, nil
		}
		return hdr, nil
	}
}

// Parse parses a header value by the header name.
// The name is canonicalized before lookup. Parsers from the parsers map take precedence
// over the default ones. Headers with no parser are returned as [*Any].
// A typed parse failure is returned as [*ValueError].
func Parse(name, value string, parsers map[Name]Parser) (Header, error) {
	n := CanonicName(name)
	value = util.TrimSP(value)

	p, ok := parsers[n]
	if !ok {
		p, ok = defaultParsers[n]
	}
	if !ok {
		return &Any{Name: n, Value: value}, nil
	}

	hdr, err := p(value)
	if err != nil {
		var verr *ValueError
		if errors.As(err, &verr) {
			return nil, errtrace.Wrap(err)
		}
		return nil, errtrace.Wrap(&ValueError{Name: n, Value: value, Err: err})
	}
	if hdr == nil {
		return &Any{Name: n, Value: value}, nil
	}
	return hdr, nil
}

func renderTo(w io.Writer, hdr Header) (int, error) {
	return errtrace.Wrap2(fmt.Fprint(w, hdr.CanonicName(), ": ", hdr.RenderValue()))
}

func render(hdr Header) string {
	return string(hdr.CanonicName()) + ": " + hdr.RenderValue()
}
