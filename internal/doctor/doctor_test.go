package doctor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgnsrekt/tabfence/internal/config"
	"github.com/dgnsrekt/tabfence/internal/settings"
)

func testConfig(t *testing.T, cdpURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		HTTPHost:     "127.0.0.1",
		HTTPPort:     0,
		CDPURL:       cdpURL,
		SettingsPath: filepath.Join(dir, "settings.json"),
		DataDir:      filepath.Join(dir, "data"),
	}
}

func TestRunReportsEveryCheck(t *testing.T) {
	checks := []Check{
		{Name: "first", Run: func() error { return nil }},
		{Name: "second", Run: func() error { return errors.New("boom") }},
		{Name: "third", Run: func() error { return nil }},
	}

	var buf bytes.Buffer
	err := Run(&buf, checks)
	if err == nil {
		t.Fatal("Run returned nil for a failing check list")
	}
	if got := err.Error(); !strings.Contains(got, "second") || !strings.Contains(got, "boom") {
		t.Fatalf("Run error = %q, want the failing check and cause", got)
	}

	out := buf.String()
	for _, want := range []string{"PASS first", "FAIL second", "PASS third"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report %q missing %q", out, want)
		}
	}
}

func TestRunFirstFailureDecidesError(t *testing.T) {
	checks := []Check{
		{Name: "alpha", Run: func() error { return errors.New("first cause") }},
		{Name: "beta", Run: func() error { return errors.New("second cause") }},
	}

	err := Run(io.Discard, checks)
	if err == nil {
		t.Fatal("Run returned nil for failing checks")
	}
	if !strings.Contains(err.Error(), "alpha") || strings.Contains(err.Error(), "beta") {
		t.Fatalf("Run error = %q, want the first failure only", err)
	}
}

func TestChecksFailOnUnreachableCDP(t *testing.T) {
	// Grab a loopback port and release it so nothing answers there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	dead := "http://" + ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	cfg := testConfig(t, dead)
	var buf bytes.Buffer
	if err := Run(&buf, Checks(cfg)); err == nil {
		t.Fatal("Run returned nil with an unreachable CDP endpoint")
	}

	out := buf.String()
	if !strings.Contains(out, "FAIL cdp endpoint") {
		t.Fatalf("report %q missing the cdp failure", out)
	}
	for _, want := range []string{"PASS settings store", "PASS data dir", "PASS api port"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report %q missing %q", out, want)
		}
	}
}

func TestChecksPassWithHealthyEnvironment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		if _, err := w.Write([]byte(`{"Browser":"Chromium/120.0"}`)); err != nil {
			t.Errorf("version response write failed: %v", err)
		}
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	var buf bytes.Buffer
	if err := Run(&buf, Checks(cfg)); err != nil {
		t.Fatalf("Run() error = %v, report:\n%s", err, buf.String())
	}
	if strings.Contains(buf.String(), "FAIL") {
		t.Fatalf("report contains a failure:\n%s", buf.String())
	}
}

func TestChecksManagedLaunchAddsBinaryCheck(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:9222")

	names := func() map[string]bool {
		out := make(map[string]bool)
		for _, c := range Checks(cfg) {
			out[c.Name] = true
		}
		return out
	}

	if names()["browser binary"] {
		t.Fatal("browser binary check present without managed launch")
	}
	cfg.LaunchBrowser = true
	if !names()["browser binary"] {
		t.Fatal("browser binary check missing with managed launch")
	}
}

func TestProbeSettingsLeavesNoResidue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := probeSettings(path); err != nil {
		t.Fatalf("probeSettings() error = %v", err)
	}

	store, err := settings.OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}
	got, err := store.Get(context.Background(), nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, ok := got[probeKey]; ok {
		t.Fatal("probe key persisted after the round-trip")
	}
}

func TestProbeSettingsFailsWhenPathNotWritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := probeSettings(filepath.Join(blocker, "settings.json")); err == nil {
		t.Fatal("probeSettings returned nil for a path under a regular file")
	}
}
