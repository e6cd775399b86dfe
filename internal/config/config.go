package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the tabfence agent.
type Config struct {
	// HTTP API bind settings
	HTTPHost string
	HTTPPort int

	// Browser connection settings
	CDPURL        string
	LaunchBrowser bool
	BrowserPath   string
	ProfileDir    string
	CDPPort       int

	// Storage settings
	SettingsPath string
	DataDir      string
	PolicyFile   string

	// Logging
	LogDir   string
	LogLevel string

	// Notifications
	NtfyURL string

	// Journal writer limits
	JournalBuffer int
	JournalMaxMB  int
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		HTTPHost:      getEnvOrDefault("TABFENCE_HTTP_HOST", "127.0.0.1"),
		HTTPPort:      getEnvIntOrDefault("TABFENCE_HTTP_PORT", 8199),
		CDPURL:        getEnvOrDefault("TABFENCE_CDP_URL", "http://127.0.0.1:9222"),
		LaunchBrowser: getEnvBoolOrDefault("TABFENCE_LAUNCH_BROWSER", false),
		BrowserPath:   getEnvOrDefault("TABFENCE_BROWSER_PATH", ""),
		ProfileDir:    getEnvOrDefault("TABFENCE_PROFILE_DIR", ""),
		CDPPort:       getEnvIntOrDefault("TABFENCE_CDP_PORT", 9222),
		SettingsPath:  getEnvOrDefault("TABFENCE_SETTINGS_PATH", "data/settings.json"),
		DataDir:       getEnvOrDefault("TABFENCE_DATA_DIR", "data"),
		PolicyFile:    getEnvOrDefault("TABFENCE_POLICY_FILE", ""),
		LogDir:        getEnvOrDefault("TABFENCE_LOG_DIR", "logs"),
		LogLevel:      strings.ToLower(getEnvOrDefault("TABFENCE_LOG_LEVEL", "info")),
		NtfyURL:       getEnvOrDefault("TABFENCE_NTFY_URL", ""),
		JournalBuffer: getEnvIntOrDefault("TABFENCE_JOURNAL_BUFFER", 256),
		JournalMaxMB:  getEnvIntOrDefault("TABFENCE_JOURNAL_MAX_MB", 25),
	}
	if cfg.JournalBuffer < 1 {
		cfg.JournalBuffer = 1
	}
	if cfg.JournalMaxMB < 1 {
		cfg.JournalMaxMB = 1
	}

	return cfg, nil
}

// BindAddr returns the host:port the API server listens on.
func (c *Config) BindAddr() string {
	return c.HTTPHost + ":" + strconv.Itoa(c.HTTPPort)
}

// PublicBaseURL is the address browser-facing pages are served from: the
// confirmation redirect target and the dashboard.
func (c *Config) PublicBaseURL() string {
	host := c.HTTPHost
	if host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + host + ":" + strconv.Itoa(c.HTTPPort)
}

// ManagedCDPURL is the endpoint a managed browser launch listens on.
func (c *Config) ManagedCDPURL() string {
	return "http://127.0.0.1:" + strconv.Itoa(c.CDPPort)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
