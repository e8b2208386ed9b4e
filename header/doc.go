// Package header provides typed SIP message headers defined by RFC 3261.
//
// # Overview
//
// The package provides concrete types for the headers a SIP server core needs to
// inspect: Accept, Accept-Encoding, Accept-Language, Alert-Info, Allow,
// Authentication-Info, Authorization, Call-ID, Call-Info, Contact, Content-Length,
// CSeq, Expires, From, Max-Forwards, To, User-Agent and Via. Any other header is
// kept verbatim as [Any].
//
// All header types implement the [Header] interface which provides rendering,
// cloning, validation and equality comparison.
//
// # Parsing
//
// Use [Parse] to parse a header value by its name:
//
//	hdr, err := header.Parse("From", `"Alice" <sip:alice@example.com>;tag=1234`, nil)
//
// Scalar headers (CSeq, Call-ID, Expires, Max-Forwards, Content-Length) fail with
// a [*ValueError] when the value is malformed. Structured headers fall back to
// [Any] instead, so a message with an odd Contact or Accept is still usable.
//
// Custom parsers can be passed through the last argument of [Parse]. They take
// precedence over the defaults.
//
// # Header Naming and Canonicalization
//
// Header names are canonicalized using [textproto.CanonicalMIMEHeaderKey] combined
// with an internal mapping for SIP-specific capitalization rules. Compact names
// defined in RFC 3261 are expanded:
//
//	"f" → "From"
//	"i" → "Call-ID"
//	"l" → "Content-Length"
//	"m" → "Contact"
//	"t" → "To"
//	"v" → "Via"
//
// # Parameters
//
// Header parameters are kept in their original order in [Params]. Quoted values
// are stored without the surrounding quotes and quoted again on rendering.
package header
