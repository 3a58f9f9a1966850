// ABOUTME: Application configuration loaded from the XDG config file, .env and the environment
// ABOUTME: Environment variables override file values; `config set` writes the file back
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	AppName = "agentdash"

	DefaultAPIURL = "http://localhost:8080"

	BackendLocal = "local"
	BackendCharm = "charm"
)

type Config struct {
	APIURL                string `json:"api_url" env:"AGENTDASH_API_URL"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty" env:"AGENTDASH_REQUEST_TIMEOUT_SECONDS"`

	// StateBackend selects where persisted stores live: "local" (badger) or "charm".
	StateBackend string `json:"state_backend" env:"AGENTDASH_STATE_BACKEND"`
	StateDir     string `json:"state_dir,omitempty" env:"AGENTDASH_STATE_DIR"`
	DBPath       string `json:"db_path,omitempty" env:"AGENTDASH_DB_PATH"`
	LogLevel     string `json:"log_level,omitempty" env:"AGENTDASH_LOG_LEVEL"`

	GoogleClientID     string `json:"google_client_id,omitempty" env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `json:"google_client_secret,omitempty" env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `json:"google_redirect_url,omitempty" env:"GOOGLE_REDIRECT_URL"`
}

func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.json")
}

func Default() *Config {
	dataDir := filepath.Join(xdg.DataHome, AppName)
	return &Config{
		APIURL:                DefaultAPIURL,
		RequestTimeoutSeconds: 30,
		StateBackend:          BackendLocal,
		StateDir:              filepath.Join(dataDir, "state"),
		DBPath:                filepath.Join(dataDir, "history.db"),
		LogLevel:              "info",
	}
}

// LoadFile reads only the config file at path (DefaultPath when empty) over
// the defaults. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Load reads the config file at path (DefaultPath when empty), then any
// .env files (./.env when none are named), then the environment. A missing
// file at any stage is not an error.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	if c.StateBackend != BackendLocal && c.StateBackend != BackendCharm {
		return fmt.Errorf("state_backend must be %q or %q, got %q", BackendLocal, BackendCharm, c.StateBackend)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds cannot be negative")
	}
	return nil
}

// RequestTimeout returns the per-request timeout; zero means the client default.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Save writes the config to path (DefaultPath when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Values returns every setting keyed by its file name. Secrets are masked.
func (c *Config) Values() map[string]string {
	secret := ""
	if c.GoogleClientSecret != "" {
		secret = "********"
	}
	return map[string]string{
		"api_url":                 c.APIURL,
		"request_timeout_seconds": strconv.Itoa(c.RequestTimeoutSeconds),
		"state_backend":           c.StateBackend,
		"state_dir":               c.StateDir,
		"db_path":                 c.DBPath,
		"log_level":               c.LogLevel,
		"google_client_id":        c.GoogleClientID,
		"google_client_secret":    secret,
		"google_redirect_url":     c.GoogleRedirectURL,
	}
}

// Keys lists the settable keys in display order.
func Keys() []string {
	keys := make([]string, 0, 9)
	for k := range Default().Values() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one setting by key and validates the result.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "api_url":
		c.APIURL = strings.TrimRight(value, "/")
	case "request_timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("request_timeout_seconds must be a whole number: %w", err)
		}
		c.RequestTimeoutSeconds = n
	case "state_backend":
		c.StateBackend = value
	case "state_dir":
		c.StateDir = value
	case "db_path":
		c.DBPath = value
	case "log_level":
		c.LogLevel = value
	case "google_client_id":
		c.GoogleClientID = value
	case "google_client_secret":
		c.GoogleClientSecret = value
	case "google_redirect_url":
		c.GoogleRedirectURL = value
	default:
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
	return c.Validate()
}
