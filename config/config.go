// Package config provides configuration loading and management for diagen.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/c360studio/diagen/fragment"
	"gopkg.in/yaml.v3"
)

// Config represents the complete diagen configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Transform TransformConfig `yaml:"transform"`
	Merge     MergeConfig     `yaml:"merge"`
	Watch     WatchConfig     `yaml:"watch"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// PathsConfig locates the inputs and outputs of a run
type PathsConfig struct {
	// Diagrams is the diagram source file or directory
	Diagrams string `yaml:"diagrams"`
	// Fragments is the fragment root written by transform and read by generate
	Fragments string `yaml:"fragments"`
	// Templates is the template catalog directory
	Templates string `yaml:"templates"`
	// Output is the root generated files are routed below
	Output string `yaml:"output"`
}

// TransformConfig configures fragment writing
type TransformConfig struct {
	// SkipNamespace is removed from namespaces before they become directories
	SkipNamespace string `yaml:"skip_namespace"`
}

// MergeConfig configures fragment merging
type MergeConfig struct {
	// Identity is "name" (default) or "qualified" (namespace + name)
	Identity string `yaml:"identity"`
}

// WatchConfig configures the watch command
type WatchConfig struct {
	// Debounce is how long changes settle before a run starts; 0 uses the
	// watcher's default
	Debounce time.Duration `yaml:"debounce"`
	// Retries is how often a failed run is retried; 0 disables retrying
	Retries int `yaml:"retries"`
	// RetryDelay is the initial delay between retries
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
}

// MetricsConfig configures metrics export
type MetricsConfig struct {
	// Textfile is written after every run when set
	Textfile string `yaml:"textfile"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Diagrams:  "docs",
			Fragments: "fragments",
			Templates: "templates",
			Output:    "src",
		},
		Merge: MergeConfig{
			Identity: string(fragment.IdentityName),
		},
		Watch: WatchConfig{
			Debounce:   500 * time.Millisecond,
			Retries:    3,
			RetryDelay: time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := fragment.ParseIdentity(c.Merge.Identity); err != nil {
		return fmt.Errorf("merge.identity: %w", err)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.Watch.Retries < 0 {
		return fmt.Errorf("watch.retries must not be negative")
	}
	if c.Watch.RetryDelay < 0 {
		return fmt.Errorf("watch.retry_delay must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Identity returns the configured merge identity
func (c *Config) Identity() fragment.Identity {
	id, err := fragment.ParseIdentity(c.Merge.Identity)
	if err != nil {
		return fragment.IdentityName
	}
	return id
}

// ParseLevel converts a level name into a slog level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", level)
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeFrom merges another config into this one (other takes precedence for
// non-zero values). A zero watch knob counts as unset here; file layers carry
// explicit zeros through the loader.
func (c *Config) MergeFrom(other *Config) {
	if other == nil {
		return
	}

	// Paths
	if other.Paths.Diagrams != "" {
		c.Paths.Diagrams = other.Paths.Diagrams
	}
	if other.Paths.Fragments != "" {
		c.Paths.Fragments = other.Paths.Fragments
	}
	if other.Paths.Templates != "" {
		c.Paths.Templates = other.Paths.Templates
	}
	if other.Paths.Output != "" {
		c.Paths.Output = other.Paths.Output
	}

	// Transform
	if other.Transform.SkipNamespace != "" {
		c.Transform.SkipNamespace = other.Transform.SkipNamespace
	}

	// Merge
	if other.Merge.Identity != "" {
		c.Merge.Identity = other.Merge.Identity
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.Retries != 0 {
		c.Watch.Retries = other.Watch.Retries
	}
	if other.Watch.RetryDelay != 0 {
		c.Watch.RetryDelay = other.Watch.RetryDelay
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}

	// Metrics
	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}
}
