package header_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/dchest/uniuri"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/sipcore/header"
)

func TestCanonicName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want header.Name
	}{
		{"via", "Via"},
		{"v", "Via"},
		{"i", "Call-ID"},
		{"call-id", "Call-ID"},
		{"CSEQ", "CSeq"},
		{"f", "From"},
		{"t", "To"},
		{"m", "Contact"},
		{"l", "Content-Length"},
		{" max-forwards ", "Max-Forwards"},
		{"x-custom-header", "X-Custom-Header"},
	}

	for _, c := range cases {
		if got := header.CanonicName(c.in); got != c.want {
			t.Errorf("header.CanonicName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		hdrName string
		value   string
		want    header.Header
		wantErr error
	}{
		{
			"via",
			"Via",
			"SIP/2.0/UDP 192.0.2.1:5060;branch=z9hG4bK776asdhds;rport",
			header.Via{{
				Proto:     header.ProtoInfo{Name: "SIP", Version: "2.0"},
				Transport: "UDP",
				SentBy:    "192.0.2.1:5060",
				Params:    header.Params{{Name: "branch", Value: "z9hG4bK776asdhds"}, {Name: "rport"}},
			}},
			nil,
		},
		{
			"via compact multiple hops",
			"v",
			"SIP / 2.0 / TCP a.example.com;branch=z9hG4bK1, SIP/2.0/UDP b.example.com:5070",
			header.Via{
				{
					Proto:     header.ProtoInfo{Name: "SIP", Version: "2.0"},
					Transport: "TCP",
					SentBy:    "a.example.com",
					Params:    header.Params{{Name: "branch", Value: "z9hG4bK1"}},
				},
				{
					Proto:     header.ProtoInfo{Name: "SIP", Version: "2.0"},
					Transport: "UDP",
					SentBy:    "b.example.com:5070",
				},
			},
			nil,
		},
		{
			"from",
			"From",
			`"Alice Liddell" <sip:alice@example.com>;tag=1928301774`,
			&header.From{
				DisplayName: "Alice Liddell",
				URI:         "sip:alice@example.com",
				Params:      header.Params{{Name: "tag", Value: "1928301774"}},
			},
			nil,
		},
		{
			"to addr-spec",
			"t",
			"sip:bob@example.com;tag=a6c85cf",
			&header.To{
				URI:    "sip:bob@example.com",
				Params: header.Params{{Name: "tag", Value: "a6c85cf"}},
			},
			nil,
		},
		{
			"contact list",
			"m",
			`<sip:alice@192.0.2.4>;expires=3600, "Doe, John" <sip:john@example.com;transport=tcp>`,
			&header.Contact{Addrs: []header.NameAddr{
				{URI: "sip:alice@192.0.2.4", Params: header.Params{{Name: "expires", Value: "3600"}}},
				{DisplayName: "Doe, John", URI: "sip:john@example.com;transport=tcp"},
			}},
			nil,
		},
		{"contact wildcard", "Contact", "*", &header.Contact{Wildcard: true}, nil},
		{"cseq", "CSeq", "4711 INVITE", &header.CSeq{SeqNum: 4711, Method: "INVITE"}, nil},
		{"call-id", "i", "a84b4c76e66710@pc33.example.com", header.CallID("a84b4c76e66710@pc33.example.com"), nil},
		{"max-forwards", "Max-Forwards", "70", header.MaxForwards(70), nil},
		{"expires", "Expires", "7200", header.Expires(7200), nil},
		{"content-length", "l", "0", header.ContentLength(0), nil},
		{
			"accept",
			"Accept",
			"application/sdp;level=1, application/x-private, text/html",
			header.Accept{
				{Value: "application/sdp", Params: header.Params{{Name: "level", Value: "1"}}},
				{Value: "application/x-private"},
				{Value: "text/html"},
			},
			nil,
		},
		{
			"accept-encoding",
			"Accept-Encoding",
			"gzip;q=0.5, identity",
			header.AcceptEncoding{
				{Value: "gzip", Params: header.Params{{Name: "q", Value: "0.5"}}},
				{Value: "identity"},
			},
			nil,
		},
		{
			"accept-language",
			"Accept-Language",
			"da, en-gb;q=0.8, en;q=0.7",
			header.AcceptLanguage{
				{Value: "da"},
				{Value: "en-gb", Params: header.Params{{Name: "q", Value: "0.8"}}},
				{Value: "en", Params: header.Params{{Name: "q", Value: "0.7"}}},
			},
			nil,
		},
		{
			"alert-info",
			"Alert-Info",
			"<http://www.example.com/sounds/moo.wav>",
			header.AlertInfo{{URI: "http://www.example.com/sounds/moo.wav"}},
			nil,
		},
		{
			"call-info",
			"Call-Info",
			"<http://wwww.example.com/alice/photo.jpg> ;purpose=icon, <http://www.example.com/alice/> ;purpose=info",
			header.CallInfo{
				{URI: "http://wwww.example.com/alice/photo.jpg", Params: header.Params{{Name: "purpose", Value: "icon"}}},
				{URI: "http://www.example.com/alice/", Params: header.Params{{Name: "purpose", Value: "info"}}},
			},
			nil,
		},
		{
			"allow",
			"Allow",
			"INVITE, ACK, OPTIONS, CANCEL, BYE",
			header.Allow{"INVITE", "ACK", "OPTIONS", "CANCEL", "BYE"},
			nil,
		},
		{
			"authorization",
			"Authorization",
			`Digest username="Alice", realm="atlanta.com", nonce="84a4cc6f3082121f32b42a2187831a9e", algorithm=MD5`,
			&header.Authorization{
				Scheme: "Digest",
				Params: header.Params{
					{Name: "username", Value: "Alice", Quoted: true},
					{Name: "realm", Value: "atlanta.com", Quoted: true},
					{Name: "nonce", Value: "84a4cc6f3082121f32b42a2187831a9e", Quoted: true},
					{Name: "algorithm", Value: "MD5"},
				},
			},
			nil,
		},
		{
			"authorization semicolons",
			"Authorization",
			`Digest username="bob";realm=biloxi.com`,
			&header.Authorization{
				Scheme: "Digest",
				Params: header.Params{
					{Name: "username", Value: "bob", Quoted: true},
					{Name: "realm", Value: "biloxi.com"},
				},
			},
			nil,
		},
		{
			"authentication-info",
			"Authentication-Info",
			`nextnonce="47364c23432d2e131a5fb210812c", qop=auth`,
			&header.AuthenticationInfo{Params: header.Params{
				{Name: "nextnonce", Value: "47364c23432d2e131a5fb210812c", Quoted: true},
				{Name: "qop", Value: "auth"},
			}},
			nil,
		},
		{
			"user-agent",
			"User-Agent",
			"Softphone/Beta1.5 (Linux; x86) libsip/2.0",
			header.UserAgent{"Softphone/Beta1.5", "(Linux; x86)", "libsip/2.0"},
			nil,
		},
		{"unknown", "X-Custom", "anything; goes", &header.Any{Name: "X-Custom", Value: "anything; goes"}, nil},
		{"malformed via falls back", "Via", "garbage", &header.Any{Name: "Via", Value: "garbage"}, nil},
		{"malformed contact falls back", "Contact", "<sip:alice@example.com", &header.Any{Name: "Contact", Value: "<sip:alice@example.com"}, nil},
		{"malformed cseq", "CSeq", "abc INVITE", nil, header.ErrInvalidValue},
		{"malformed cseq fields", "CSeq", "1", nil, header.ErrInvalidValue},
		{"malformed content-length", "Content-Length", "-5", nil, header.ErrInvalidValue},
		{"malformed max-forwards", "Max-Forwards", "seventy", nil, header.ErrInvalidValue},
		{"malformed call-id", "Call-ID", "", nil, header.ErrInvalidValue},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got, err := header.Parse(c.hdrName, c.value, nil)
			if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("header.Parse(%q, %q, nil) error = %v, want %v\ndiff (-got +want):\n%v", c.hdrName, c.value, err, c.wantErr, diff)
			}
			if diff := cmp.Diff(got, c.want); diff != "" {
				t.Errorf("header.Parse(%q, %q, nil) = %+v, want %+v\ndiff (-got +want):\n%v", c.hdrName, c.value, got, c.want, diff)
			}
		})
	}
}

func TestParse_ValueError(t *testing.T) {
	t.Parallel()

	_, err := header.Parse("cseq", "x y", nil)
	var verr *header.ValueError
	if !errors.As(err, &verr) {
		t.Fatalf("header.Parse() error = %v, want *header.ValueError", err)
	}
	if verr.Name != "CSeq" {
		t.Errorf("verr.Name = %q, want %q", verr.Name, "CSeq")
	}
	if verr.Value != "x y" {
		t.Errorf("verr.Value = %q, want %q", verr.Value, "x y")
	}
}

func TestParse_CustomParser(t *testing.T) {
	t.Parallel()

	parsers := map[header.Name]header.Parser{
		"X-Priority": func(value string) (header.Header, error) {
			return header.MaxForwards(len(value)), nil
		},
		"Expires": func(string) (header.Header, error) {
			return nil, errors.New("nope")
		},
	}

	got, err := header.Parse("x-priority", "abc", parsers)
	if err != nil {
		t.Fatalf("header.Parse() error = %v, want nil", err)
	}
	if diff := cmp.Diff(got, header.Header(header.MaxForwards(3))); diff != "" {
		t.Errorf("header.Parse() = %v, want %v\ndiff (-got +want):\n%v", got, header.MaxForwards(3), diff)
	}

	if _, err := header.Parse("Expires", "60", parsers); !errors.Is(err, header.ErrInvalidValue) {
		t.Errorf("header.Parse() error = %v, want %v", err, header.ErrInvalidValue)
	}
}

func TestHeader_Render(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		hdr  header.Header
		want string
	}{
		{
			"via",
			header.Via{{
				Proto:     header.ProtoInfo{Name: "SIP", Version: "2.0"},
				Transport: "UDP",
				SentBy:    "pc33.example.com",
				Params:    header.Params{{Name: "branch", Value: "z9hG4bKnashds8"}, {Name: "received", Value: "192.0.2.1"}},
			}},
			"Via: SIP/2.0/UDP pc33.example.com;branch=z9hG4bKnashds8;received=192.0.2.1",
		},
		{
			"from with display name",
			&header.From{DisplayName: "Bob", URI: "sip:bob@biloxi.com", Params: header.Params{{Name: "tag", Value: "a6c85cf"}}},
			"From: Bob <sip:bob@biloxi.com>;tag=a6c85cf",
		},
		{
			"to with quoted display name",
			&header.To{DisplayName: `Bob "the" Builder`, URI: "sip:bob@biloxi.com"},
			`To: "Bob \"the\" Builder" <sip:bob@biloxi.com>`,
		},
		{"cseq", &header.CSeq{SeqNum: 314159, Method: "INVITE"}, "CSeq: 314159 INVITE"},
		{"call-id", header.CallID("a84b4c76e66710"), "Call-ID: a84b4c76e66710"},
		{"content-length", header.ContentLength(142), "Content-Length: 142"},
		{
			"authorization",
			&header.Authorization{Scheme: "Digest", Params: header.Params{
				{Name: "username", Value: "bob", Quoted: true},
				{Name: "realm", Value: "biloxi.com"},
			}},
			`Authorization: Digest username="bob", realm=biloxi.com`,
		},
		{"allow", header.Allow{"INVITE", "BYE"}, "Allow: INVITE, BYE"},
		{"contact wildcard", &header.Contact{Wildcard: true}, "Contact: *"},
		{"any", &header.Any{Name: "subject", Value: "lunch"}, "Subject: lunch"},
		{"nil cseq", (*header.CSeq)(nil), ""},
		{"nil via", header.Via(nil), ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			if got := c.hdr.Render(); got != c.want {
				t.Errorf("hdr.Render() = %q, want %q", got, c.want)
			}

			var sb strings.Builder
			if _, err := c.hdr.RenderTo(&sb); err != nil {
				t.Fatalf("hdr.RenderTo(sb) error = %v, want nil", err)
			}
			if got := sb.String(); got != c.want {
				t.Errorf("sb.String() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestHeader_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value string
	}{
		{"Via", "SIP/2.0/WS df7jal23ls0d.invalid;branch=z9hG4bKasudf;rport"},
		{"From", `"A. G. Bell" <sip:agb@bell-telephone.com>;tag=a48s`},
		{"To", "<sip:operator@cs.columbia.edu>;tag=287447"},
		{"Contact", `<sip:alice@pc33.atlanta.com>, <mailto:carol@chicago.com>;q=0.1`},
		{"CSeq", "63104 OPTIONS"},
		{"Call-ID", "f81d4fae-7dec-11d0-a765-00a0c91e6bf6@foo.bar.com"},
		{"Accept", "application/sdp;level=1, text/html"},
		{"Authorization", `Digest username="Alice", realm="atlanta.com", response="7587245234b3434cc3412213e5f113a5432"`},
		{"Authentication-Info", `nextnonce="47364c23432d2e131a5fb210812c"`},
		{"Call-Info", "<http://www.example.com/alice/photo.jpg>;purpose=icon"},
		{"User-Agent", "Softphone (Beta) 1.5"},
		{"X-Anything", "goes here"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			hdr1, err := header.Parse(c.name, c.value, nil)
			if err != nil {
				t.Fatalf("header.Parse(%q, %q, nil) error = %v, want nil", c.name, c.value, err)
			}
			hdr2, err := header.Parse(c.name, hdr1.RenderValue(), nil)
			if err != nil {
				t.Fatalf("header.Parse(%q, %q, nil) error = %v, want nil", c.name, hdr1.RenderValue(), err)
			}
			if !hdr1.Equal(hdr2) {
				t.Errorf("re-parsed header = %q, want %q", hdr2.Render(), hdr1.Render())
			}
			if !hdr1.Equal(hdr1.Clone()) {
				t.Errorf("hdr.Clone() is not equal to the original %q", hdr1.Render())
			}
		})
	}
}

func TestParse_RandomUnknown(t *testing.T) {
	t.Parallel()

	for range 10 {
		name := "X-" + uniuri.NewLen(8)
		value := uniuri.NewLen(32)
		hdr, err := header.Parse(name, value, nil)
		if err != nil {
			t.Fatalf("header.Parse(%q, %q, nil) error = %v, want nil", name, value, err)
		}
		if _, ok := hdr.(*header.Any); !ok {
			t.Fatalf("header.Parse(%q, %q, nil) = %T, want *header.Any", name, value, hdr)
		}
		if got := hdr.RenderValue(); got != value {
			t.Errorf("hdr.RenderValue() = %q, want %q", got, value)
		}
	}
}
