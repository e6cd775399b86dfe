package policy

import (
	"strings"
	"testing"
)

func TestEncodeComponentEscapesReservedMarks(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abcXYZ019-_.~", "abcXYZ019-_.~"},
		{"a b", "a%20b"},
		{"!'()*", "%21%27%28%29%2A"},
		{"https://x/?a=b&c", "https%3A%2F%2Fx%2F%3Fa%3Db%26c"},
		{"a+b", "a%2Bb"},
		{"café", "caf%C3%A9"},
	}
	for _, tc := range cases {
		if got := EncodeComponent(tc.in); got != tc.want {
			t.Fatalf("EncodeComponent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestConfirmURLRoundTrip(t *testing.T) {
	dest := "https://example.com/read?title=it's (really) here!&note=a*b+c"
	raw := BuildConfirmURL("http://127.0.0.1:8199", dest, "work", "TAB-42")

	if strings.ContainsAny(raw[strings.Index(raw, "?"):], "!'()*") {
		t.Fatalf("confirm query leaks unescaped marks: %q", raw)
	}

	params, err := ParseConfirmURL(raw)
	if err != nil {
		t.Fatalf("ParseConfirmURL() error = %v", err)
	}
	if params.URL != dest {
		t.Fatalf("destination = %q, want %q", params.URL, dest)
	}
	if params.GroupID != "work" {
		t.Fatalf("group = %q, want %q", params.GroupID, "work")
	}
	if params.TabID != "TAB-42" {
		t.Fatalf("tab = %q, want %q", params.TabID, "TAB-42")
	}
}

func TestBuildConfirmURLTrimsBaseSlash(t *testing.T) {
	raw := BuildConfirmURL("http://127.0.0.1:8199/", "https://example.com/", "g", "t")
	if !strings.HasPrefix(raw, "http://127.0.0.1:8199/confirm.html?") {
		t.Fatalf("confirm url = %q, want single-slash confirm.html path", raw)
	}
}

func TestParseConfirmURLRequiresDestination(t *testing.T) {
	if _, err := ParseConfirmURL("http://127.0.0.1:8199/confirm.html?groupId=g&tabId=t"); err == nil {
		t.Fatal("expected error for missing url parameter")
	}
}

func TestDomainDerivation(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://Example.COM:8443/a/b?q=1", "example.com"},
		{"http://sub.mail.example.net/", "sub.mail.example.net"},
		{"https://[::1]:9222/json", "::1"},
		{"about:blank", ""},
		{"://broken", ""},
	}
	for _, tc := range cases {
		if got := Domain(tc.in); got != tc.want {
			t.Fatalf("Domain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
