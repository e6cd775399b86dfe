package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgnsrekt/tabfence/internal/api"
	"github.com/dgnsrekt/tabfence/internal/browser"
	"github.com/dgnsrekt/tabfence/internal/cdphost"
	"github.com/dgnsrekt/tabfence/internal/config"
	"github.com/dgnsrekt/tabfence/internal/controller"
	"github.com/dgnsrekt/tabfence/internal/exempt"
	"github.com/dgnsrekt/tabfence/internal/host"
	"github.com/dgnsrekt/tabfence/internal/journal"
	"github.com/dgnsrekt/tabfence/internal/metrics"
	"github.com/dgnsrekt/tabfence/internal/netutil"
	"github.com/dgnsrekt/tabfence/internal/notify"
	"github.com/dgnsrekt/tabfence/internal/relay"
	"github.com/dgnsrekt/tabfence/internal/session"
	"github.com/dgnsrekt/tabfence/internal/settings"
)

// portAttempts bounds how far past the configured port the agent falls
// forward when the port is busy.
const portAttempts = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}

	slog.Info("tabfence config loaded",
		"bind_addr", cfg.BindAddr(),
		"cdp_url", cfg.CDPURL,
		"launch_browser", cfg.LaunchBrowser,
		"settings_path", cfg.SettingsPath,
		"data_dir", cfg.DataDir,
		"policy_file", cfg.PolicyFile,
		"log_level", cfg.LogLevel,
	)

	port, err := netutil.PickPort(cfg.HTTPHost, cfg.HTTPPort, portAttempts)
	if err != nil {
		slog.Error("failed to pick API port", "preferred", cfg.HTTPPort, "error", err)
		os.Exit(1)
	}
	if port != cfg.HTTPPort {
		slog.Warn("configured port busy, falling forward", "configured", cfg.HTTPPort, "picked", port)
	}
	cfg.HTTPPort = port

	cdpURL := cfg.CDPURL
	var launcher *browser.Launcher
	if cfg.LaunchBrowser {
		cdpURL = cfg.ManagedCDPURL()
		launcher = browser.NewLauncher(browser.Config{
			BrowserPath: cfg.BrowserPath,
			ProfileDir:  cfg.ProfileDir,
			CDPPort:     cfg.CDPPort,
		})
		if err := launcher.Launch(context.Background()); err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
	}

	store, err := settings.OpenFileStore(cfg.SettingsPath)
	if err != nil {
		slog.Error("failed to open settings store", "path", cfg.SettingsPath, "error", err)
		stopLauncher(launcher)
		os.Exit(1)
	}
	pages := settings.NewPages(store)

	writer := journal.NewLineWriter(cfg.DataDir, cfg.JournalBuffer, cfg.JournalMaxMB)
	jnl := journal.New(cfg.JournalBuffer, writer)

	registry := host.NewRegistry()
	m := metrics.NewMetrics()

	svc := controller.NewService(controller.Config{
		Pages:    pages,
		Exempts:  exempt.NewTracker(),
		Registry: registry,
		Journal:  jnl,
		Metrics:  m,
		Sessions: session.NewMemStore(),
		Pusher:   notify.NewNotifier(cfg.NtfyURL, nil),
		BaseURL:  cfg.PublicBaseURL(),
	})

	hub := relay.NewHub(svc)
	svc.SetChannels(hub)
	m.ObserveChannels(hub.Count)
	m.ObserveTabs(registry.Count)

	if cfg.PolicyFile != "" {
		seedPolicy(cfg.PolicyFile, pages)
	}

	if err := svc.Start(context.Background()); err != nil {
		slog.Error("failed to start service", "error", err)
		stopLauncher(launcher)
		os.Exit(1)
	}

	cdpClient := cdphost.NewClient(cdpURL, cfg.PublicBaseURL(), svc, registry)
	if err := cdpClient.Connect(context.Background()); err != nil {
		slog.Error("failed to connect to browser", "cdp_url", cdpURL, "error", err)
		stopLauncher(launcher)
		os.Exit(1)
	}
	svc.SetDriver(cdpClient)

	h := api.NewServer(svc, hub, jnl, m.Handler())
	srv := &http.Server{Addr: cfg.BindAddr(), Handler: h}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("tabfence listening",
			"addr", cfg.BindAddr(),
			"docs", cfg.PublicBaseURL()+"/docs",
			"dashboard", cfg.PublicBaseURL()+"/ui",
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("tabfence server failed", "error", err)
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-sigCh:
		slog.Info("shutdown signal received")
	case <-serverErr:
		exitCode = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("tabfence shutdown failed", "error", err)
	}

	if err := cdpClient.Close(); err != nil {
		slog.Debug("CDP client close failed", "error", err)
	}
	hub.Close()
	svc.Close()
	if err := jnl.Close(); err != nil {
		slog.Warn("journal close failed", "error", err)
	}
	stopLauncher(launcher)

	os.Exit(exitCode)
}

func stopLauncher(l *browser.Launcher) {
	if l != nil && l.Running() {
		l.Stop()
	}
}

func seedPolicy(path string, pages *settings.Pages) {
	seed, err := settings.LoadSeed(path)
	if err != nil {
		slog.Warn("policy seed not loaded", "path", path, "error", err)
		return
	}
	applied, err := settings.ApplySeed(context.Background(), seed, pages)
	if err != nil {
		slog.Warn("policy seed apply failed", "path", path, "error", err)
		return
	}
	slog.Info("policy seed applied", "path", path, "domains", applied)
}

func setupLogger(level, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "tabfence.log"),
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
