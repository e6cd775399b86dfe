package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPHost != "127.0.0.1" {
		t.Errorf("HTTPHost = %q, want 127.0.0.1", cfg.HTTPHost)
	}
	if cfg.HTTPPort != 8199 {
		t.Errorf("HTTPPort = %d, want 8199", cfg.HTTPPort)
	}
	if cfg.CDPURL != "http://127.0.0.1:9222" {
		t.Errorf("CDPURL = %q, want http://127.0.0.1:9222", cfg.CDPURL)
	}
	if cfg.LaunchBrowser {
		t.Error("LaunchBrowser = true, want false")
	}
	if cfg.SettingsPath != "data/settings.json" {
		t.Errorf("SettingsPath = %q, want data/settings.json", cfg.SettingsPath)
	}
	if cfg.JournalBuffer != 256 {
		t.Errorf("JournalBuffer = %d, want 256", cfg.JournalBuffer)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TABFENCE_HTTP_PORT", "9001")
	t.Setenv("TABFENCE_LAUNCH_BROWSER", "true")
	t.Setenv("TABFENCE_LOG_LEVEL", "DEBUG")
	t.Setenv("TABFENCE_JOURNAL_BUFFER", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 9001 {
		t.Errorf("HTTPPort = %d, want 9001", cfg.HTTPPort)
	}
	if !cfg.LaunchBrowser {
		t.Error("LaunchBrowser = false, want true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want lowercased debug", cfg.LogLevel)
	}
	if cfg.JournalBuffer != 1 {
		t.Errorf("JournalBuffer = %d, want clamped to 1", cfg.JournalBuffer)
	}
}

func TestPublicBaseURL(t *testing.T) {
	cfg := &Config{HTTPHost: "127.0.0.1", HTTPPort: 8199}
	if got := cfg.PublicBaseURL(); got != "http://127.0.0.1:8199" {
		t.Fatalf("PublicBaseURL = %q", got)
	}

	cfg.HTTPHost = "0.0.0.0"
	if got := cfg.PublicBaseURL(); got != "http://127.0.0.1:8199" {
		t.Fatalf("PublicBaseURL for wildcard = %q, want loopback", got)
	}
}

func TestBindAddr(t *testing.T) {
	cfg := &Config{HTTPHost: "127.0.0.1", HTTPPort: 8199}
	if got := cfg.BindAddr(); got != "127.0.0.1:8199" {
		t.Fatalf("BindAddr = %q", got)
	}
}
