package browser

import (
	"net"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveBinaryConfiguredPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chromium")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write stub binary: %v", err)
	}

	got, err := ResolveBinary(path)
	if err != nil {
		t.Fatalf("ResolveBinary() error = %v", err)
	}
	if got != path {
		t.Fatalf("ResolveBinary() = %q, want %q", got, path)
	}
}

func TestResolveBinaryMissingConfiguredPath(t *testing.T) {
	if _, err := ResolveBinary(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("ResolveBinary() succeeded for a missing path")
	}
}

func TestIsPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	if !isPortInUse(port) {
		t.Fatalf("isPortInUse(%d) = false with live listener", port)
	}

	_ = ln.Close()
	if isPortInUse(port) {
		t.Fatalf("isPortInUse(%d) = true after close", port)
	}
}
