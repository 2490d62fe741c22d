package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultListTimeout bounds the session list request
	DefaultListTimeout = 7 * time.Second
	defaultBaseURL     = "http://localhost:8000"
	defaultUserID      = "default"
	configDirName      = ".agent-chat"
)

// Config holds client settings
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	UserID      string        `yaml:"user_id"`
	AutoExecute bool          `yaml:"auto_execute"`
	ListTimeout time.Duration `yaml:"list_timeout"`
	CacheDir    string        `yaml:"cache_dir,omitempty"`
	ArchivePath string        `yaml:"archive_path,omitempty"`
}

// DefaultConfig returns the built-in settings rooted at the user's home directory
func DefaultConfig() Config {
	cfg := Config{
		BaseURL:     defaultBaseURL,
		UserID:      defaultUserID,
		AutoExecute: true,
		ListTimeout: DefaultListTimeout,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.CacheDir = filepath.Join(home, configDirName, "cache")
		cfg.ArchivePath = filepath.Join(home, configDirName, "history.db")
	}
	return cfg
}

// DefaultConfigPath returns ~/.agent-chat/config.yaml
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDirName, "config.yaml"), nil
}

// LoadConfig reads a YAML config file over the defaults. A missing file is
// not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		LogDebug("No config file at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, &CacheError{Path: path, Op: "read", Err: err}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings and normalizes the base URL
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must be an http(s) URL: %s", c.BaseURL)
	}
	if strings.TrimSpace(c.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	if c.ListTimeout <= 0 {
		c.ListTimeout = DefaultListTimeout
	}
	return nil
}
