package sip_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ghettovoice/sipcore/header"
	"github.com/ghettovoice/sipcore/sip"
)

func TestHeaders(t *testing.T) {
	t.Parallel()

	var hs sip.Headers
	if got := hs.Len(); got != 0 {
		t.Errorf("hs.Len() = %d, want 0", got)
	}

	hs.Set(header.CallID("abc")).
		Set(header.MaxForwards(70)).
		Set(&header.Any{Name: "x-foo", Value: "bar"})

	if !hs.Has("i") {
		t.Error("hs.Has(\"i\") = false, want true")
	}
	if !hs.Has("X-FOO") {
		t.Error("hs.Has(\"X-FOO\") = false, want true")
	}

	hs.Set(header.CallID("def"))
	if got, _ := hs.CallID(); got != "def" {
		t.Errorf("hs.CallID() = %q, want %q", got, "def")
	}

	var names []header.Name
	for name := range hs.All() {
		names = append(names, name)
	}
	if diff := cmp.Diff(names, []header.Name{"Call-ID", "Max-Forwards", "X-Foo"}); diff != "" {
		t.Errorf("header order = %v\ndiff (-got +want):\n%v", names, diff)
	}

	clone := hs.Clone()
	hs.Del("Max-Forwards")
	if hs.Has("Max-Forwards") {
		t.Error("hs.Has(\"Max-Forwards\") = true after Del, want false")
	}
	if got, _ := hs.Get("x-foo"); got == nil || got.RenderValue() != "bar" {
		t.Errorf("hs.Get(\"x-foo\") = %v, want bar", got)
	}
	if !clone.Has("Max-Forwards") {
		t.Error("clone.Has(\"Max-Forwards\") = false, want true")
	}
	if clone.Equal(&hs) {
		t.Error("clone.Equal(hs) = true, want false")
	}

	hs.Set(header.MaxForwards(70))
	if !clone.Equal(&hs) {
		t.Error("clone.Equal(hs) = false, want true")
	}
}

func TestIsPseudoHeader(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name header.Name
		want bool
	}{
		{"request_method", true},
		{"Request_URI", true},
		{"SIP_VERSION", true},
		{"Via", false},
		{"x-request-method", false},
	}

	for _, c := range cases {
		if got := sip.IsPseudoHeader(c.name); got != c.want {
			t.Errorf("sip.IsPseudoHeader(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
