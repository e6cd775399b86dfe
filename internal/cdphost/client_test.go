package cdphost

import (
	"strings"
	"testing"

	"github.com/chromedp/cdproto/target"
)

func TestAlwaysAllowed(t *testing.T) {
	c := NewClient("http://127.0.0.1:9222", "http://127.0.0.1:8199/", nil, nil)
	if c.baseURL != "http://127.0.0.1:8199" {
		t.Fatalf("baseURL = %q, want trailing slash trimmed", c.baseURL)
	}

	tests := []struct {
		url  string
		want bool
	}{
		{"http://news.example/story", false},
		{"https://news.example/story", false},
		{"http://127.0.0.1:8199/confirm.html?url=x", true},
		{"http://127.0.0.1:8199/ui", true},
		{"chrome://newtab/", true},
		{"about:blank", true},
		{"data:text/html,hello", true},
		{"file:///tmp/page.html", true},
	}
	for _, tt := range tests {
		if got := c.alwaysAllowed(tt.url); got != tt.want {
			t.Errorf("alwaysAllowed(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestAlwaysAllowedWithoutBaseURL(t *testing.T) {
	c := NewClient("http://127.0.0.1:9222", "", nil, nil)
	if c.alwaysAllowed("http://news.example/") {
		t.Fatal("http URL allowed with no base URL configured")
	}
}

func TestGovernable(t *testing.T) {
	c := NewClient("http://127.0.0.1:9222", "", nil, nil)
	c.controlID = target.ID("control-target")

	tests := []struct {
		name string
		info *target.Info
		want bool
	}{
		{"page", &target.Info{TargetID: "tab-1", Type: "page"}, true},
		{"worker", &target.Info{TargetID: "w-1", Type: "service_worker"}, false},
		{"iframe", &target.Info{TargetID: "f-1", Type: "iframe"}, false},
		{"control tab", &target.Info{TargetID: "control-target", Type: "page"}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		if got := c.governable(tt.info); got != tt.want {
			t.Errorf("governable(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTruncateURL(t *testing.T) {
	short := "http://news.example/story"
	if got := truncateURL(short); got != short {
		t.Fatalf("truncateURL(short) = %q, want unchanged", got)
	}

	long := "http://news.example/" + strings.Repeat("a", 200)
	got := truncateURL(long)
	if len(got) != 123 {
		t.Fatalf("len(truncateURL(long)) = %d, want 123", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncateURL(long) = %q, want ... suffix", got)
	}
}
