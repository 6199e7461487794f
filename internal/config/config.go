// Package config handles persistent user configuration for ggbridge.
//
// Configuration is stored as JSON at ~/.config/ggbridge/config.json (or
// the platform-equivalent path returned by os.UserConfigDir). The
// provider API key is deliberately NOT part of this file; it lives in
// the OS keychain (see internal/services/auth).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	appDir   = "ggbridge"
	fileName = "config.json"
)

// Defaults applied when a field is unset.
const (
	DefaultProviderBaseURL = "https://www.golfgenius.com/api_v2"
	DefaultListenAddr      = ":8475"
	DefaultTimeoutSeconds  = 30
)

// pathOverride, when non-empty, replaces the default config file path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the config file path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override, reverting to the default. Intended for testing.
func ResetPath() { pathOverride = "" }

// Config holds user preferences that persist across invocations.
type Config struct {
	// ProviderBaseURL is the tournament platform API base URL.
	ProviderBaseURL string `json:"provider_base_url,omitempty"`

	// ProviderTimeoutSeconds bounds each buffered provider call.
	ProviderTimeoutSeconds int `json:"provider_timeout_seconds,omitempty"`

	// ListenAddr is the address `ggbridge serve` binds to.
	ListenAddr string `json:"listen_addr,omitempty"`
}

// BaseURL returns the configured provider base URL or the default.
func (c *Config) BaseURL() string {
	if c.ProviderBaseURL != "" {
		return c.ProviderBaseURL
	}
	return DefaultProviderBaseURL
}

// Timeout returns the configured provider timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.ProviderTimeoutSeconds > 0 {
		return time.Duration(c.ProviderTimeoutSeconds) * time.Second
	}
	return DefaultTimeoutSeconds * time.Second
}

// Addr returns the configured listen address or the default.
func (c *Config) Addr() string {
	if c.ListenAddr != "" {
		return c.ListenAddr
	}
	return DefaultListenAddr
}

// Path returns the absolute path to the config file.
// If SetPath has been called, that value is returned instead.
// Otherwise it uses os.UserConfigDir which resolves to
// ~/Library/Application Support on macOS, ~/.config on Linux, and
// %AppData% on Windows.
func Path() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load reads the config file from disk and returns the parsed Config.
// If the file does not exist, a zero-value Config is returned (not an error).
func Load() (*Config, error) {
	return loadFrom("")
}

// loadFrom reads the config from the given path. If path is empty, the
// default Path() is used.
func loadFrom(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the parent directory if needed.
func (c *Config) Save() error {
	return c.saveTo("")
}

// saveTo writes the config to the given path. If path is empty, the
// default Path() is used.
func (c *Config) saveTo(path string) error {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}

	return nil
}

// LoadFrom reads the config from the given path. Intended for testing.
func LoadFrom(path string) (*Config, error) {
	return loadFrom(path)
}

// SaveTo writes the config to the given path. Intended for testing.
func (c *Config) SaveTo(path string) error {
	return c.saveTo(path)
}
