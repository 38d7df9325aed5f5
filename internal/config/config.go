// Package config provides configuration types, defaults and validation for darkpan.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/darkpan/internal/log"
)

// Store types.
const (
	StoreFile = "file"
	StoreGit  = "git"
)

// Config holds all configuration options for darkpan.
type Config struct {
	Root    string        `mapstructure:"root"`
	Store   StoreConfig   `mapstructure:"store"`
	Mirrors []string      `mapstructure:"mirrors"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// StoreConfig selects and configures the archive store.
type StoreConfig struct {
	// Type is "file" (default) or "git".
	Type string    `mapstructure:"type"`
	Git  GitConfig `mapstructure:"git"`
}

// GitConfig holds the identity used for commits made by the git store.
type GitConfig struct {
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
}

// CacheConfig controls how long mirror indexes are reused.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// FetchConfig controls remote downloads.
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// LogConfig controls the debug log.
type LogConfig struct {
	// Path enables logging to a file. Empty disables logging unless Debug is set.
	Path  string `mapstructure:"path"`
	Debug bool   `mapstructure:"debug"`
	Level string `mapstructure:"level"` // debug, info (default), warn, error
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultMirror is the upstream used when no mirrors are configured.
const DefaultMirror = "https://www.cpan.org"

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Store: StoreConfig{
			Type: StoreFile,
			Git: GitConfig{
				AuthorName:  "darkpan",
				AuthorEmail: "darkpan@localhost",
			},
		},
		Mirrors: []string{DefaultMirror},
		Cache: CacheConfig{
			TTL: time.Hour,
		},
		Fetch: FetchConfig{
			Timeout:   60 * time.Second,
			UserAgent: "darkpan/dev",
		},
		Log: LogConfig{
			Level: "info",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the configuration for errors. Empty values use defaults.
func Validate(cfg Config) error {
	if err := ValidateStore(cfg.Store); err != nil {
		return err
	}
	if err := ValidateMirrors(cfg.Mirrors); err != nil {
		return err
	}
	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", cfg.Cache.TTL)
	}
	if cfg.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative, got %s", cfg.Fetch.Timeout)
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateStore checks the store selection.
func ValidateStore(store StoreConfig) error {
	switch store.Type {
	case "", StoreFile, StoreGit:
		return nil
	default:
		return fmt.Errorf("store.type must be %q or %q, got %q", StoreFile, StoreGit, store.Type)
	}
}

// ValidateMirrors checks that every mirror is an absolute URL.
func ValidateMirrors(mirrors []string) error {
	for i, m := range mirrors {
		u, err := url.Parse(m)
		if err != nil {
			return fmt.Errorf("mirrors[%d]: %w", i, err)
		}
		if u.Scheme == "" {
			return fmt.Errorf("mirrors[%d]: %q must be an absolute URL", i, m)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	switch tracing.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
	}

	if tracing.Enabled && tracing.Exporter == "file" && tracing.FilePath == "" {
		return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
	}
	return nil
}

// StoreType returns the configured store type, defaulting to "file".
func (c Config) StoreType() string {
	if c.Store.Type == "" {
		return StoreFile
	}
	return c.Store.Type
}

// MirrorList returns the configured mirrors, defaulting to DefaultMirror.
func (c Config) MirrorList() []string {
	if len(c.Mirrors) == 0 {
		return []string{DefaultMirror}
	}
	return c.Mirrors
}

// DefaultConfigTemplate returns the commented config written by `darkpan init`.
func DefaultConfigTemplate() string {
	return `# darkpan repository configuration

# Archive store backend: "file" keeps plain files, "git" also commits
# every change to a git repository rooted at the repository root.
store:
  type: file
  git:
    author_name: darkpan
    author_email: darkpan@localhost

# Upstream mirrors consulted by "darkpan locate" (first match by version wins).
mirrors:
  - https://www.cpan.org

# How long a downloaded mirror index is reused.
cache:
  ttl: 1h

fetch:
  timeout: 60s
  user_agent: darkpan/dev

# Debug log (also enabled with --debug or DARKPAN_DEBUG=1)
# log:
#   path: .darkpan/log/darkpan.log
#   level: debug

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: .darkpan/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
