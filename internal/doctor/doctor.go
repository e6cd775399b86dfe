// Package doctor runs ordered preflight checks for the tabfence agent and
// reports which part of the environment would keep it from starting.
package doctor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgnsrekt/tabfence/internal/browser"
	"github.com/dgnsrekt/tabfence/internal/config"
	"github.com/dgnsrekt/tabfence/internal/settings"
)

const (
	probeKey   = "doctor.probe"
	cdpTimeout = 3 * time.Second
)

// Check is one named preflight step.
type Check struct {
	Name string
	Run  func() error
}

// Checks builds the ordered preflight list for cfg. The browser binary check
// only applies when the agent is configured to launch its own browser, and
// the CDP probe then targets the managed endpoint.
func Checks(cfg *config.Config) []Check {
	cdpURL := cfg.CDPURL
	if cfg.LaunchBrowser {
		cdpURL = cfg.ManagedCDPURL()
	}

	checks := []Check{
		{Name: "settings store", Run: func() error { return probeSettings(cfg.SettingsPath) }},
		{Name: "data dir", Run: func() error { return probeDir(cfg.DataDir) }},
		{Name: "cdp endpoint", Run: func() error { return probeCDP(cdpURL) }},
		{Name: "api port", Run: func() error { return probePort(cfg.HTTPHost, cfg.HTTPPort) }},
	}
	if cfg.LaunchBrowser {
		checks = append(checks, Check{Name: "browser binary", Run: func() error {
			_, err := browser.ResolveBinary(cfg.BrowserPath)
			return err
		}})
	}
	return checks
}

// Run executes the checks in order, writing one PASS or FAIL line per check
// to w. Every check runs even after a failure; the first failure decides the
// returned error.
func Run(w io.Writer, checks []Check) error {
	var firstErr error
	for _, c := range checks {
		if err := c.Run(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", c.Name, err)
			}
			fmt.Fprintf(w, "FAIL %-15s %v\n", c.Name, err)
			continue
		}
		fmt.Fprintf(w, "PASS %s\n", c.Name)
	}
	return firstErr
}

// Preflight loads configuration and runs the full check list against it.
func Preflight(w io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(w, "FAIL %-15s %v\n", "config", err)
		return fmt.Errorf("config: %w", err)
	}
	fmt.Fprintln(w, "PASS config")
	return Run(w, Checks(cfg))
}

// probeSettings opens the store and round-trips a probe key so a permission
// problem surfaces here instead of on the agent's first write.
func probeSettings(path string) error {
	store, err := settings.OpenFileStore(path)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := store.Set(ctx, map[string]json.RawMessage{probeKey: json.RawMessage(`"ok"`)}); err != nil {
		return err
	}
	got, err := store.Get(ctx, []string{probeKey})
	if err != nil {
		return err
	}
	if string(got[probeKey]) != `"ok"` {
		return fmt.Errorf("probe key did not round-trip")
	}
	return store.Delete(ctx, []string{probeKey})
}

func probeDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}

// probeCDP asks the browser's version endpoint for a response.
func probeCDP(cdpURL string) error {
	client := &http.Client{Timeout: cdpTimeout}
	resp, err := client.Get(strings.TrimRight(cdpURL, "/") + "/json/version")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("endpoint answered %s", resp.Status)
	}
	return nil
}

func probePort(host string, port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("port %d is not available: %w", port, err)
	}
	return ln.Close()
}
