package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"bhmc/ggbridge/internal/config"
)

// setupTestConfig points the config package at a temp file.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)
	return path
}

// execConfig creates the config command, wires up output buffers, runs
// with the given args, and returns what was written to stdout and stderr.
func execConfig(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestSet_ListenAddr(t *testing.T) {
	setupTestConfig(t)

	stdout, _ := execConfig(t, "set", "listen-addr", ":9090")
	if !strings.Contains(stdout, `":9090"`) {
		t.Errorf("expected confirmation with new value, got: %s", stdout)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("expected ListenAddr %q, got %q", ":9090", cfg.ListenAddr)
	}
}

func TestSet_ProviderTimeout(t *testing.T) {
	setupTestConfig(t)

	execConfig(t, "set", "provider-timeout", "60")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.ProviderTimeoutSeconds != 60 {
		t.Errorf("expected timeout 60, got %d", cfg.ProviderTimeoutSeconds)
	}
}

func TestSet_UnknownKey(t *testing.T) {
	setupTestConfig(t)

	_, stderr := execConfig(t, "set", "no-such-key", "x")
	if !strings.Contains(stderr, "unknown configuration key") {
		t.Errorf("expected unknown-key error, got: %s", stderr)
	}
}

func TestSet_PreservesValueCase(t *testing.T) {
	setupTestConfig(t)

	execConfig(t, "set", "provider-base-url", "https://Example.com/API")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.ProviderBaseURL != "https://Example.com/API" {
		t.Errorf("value was mangled: %q", cfg.ProviderBaseURL)
	}
}
