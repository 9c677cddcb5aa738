package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "diagen.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/diagen"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/diagen/config.yaml)
// 3. Project config (diagen.yaml in current or parent directories)
//
// Relative paths in the project config are resolved against the directory
// holding it, so commands behave the same from any subdirectory.
func (l *Loader) Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return l.LoadFrom(cwd)
}

// LoadFrom is Load with the project config search starting at dir.
func (l *Loader) LoadFrom(dir string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	userConfigPath := l.userConfigPath()
	if userLayer, err := loadLayer(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		userLayer.applyTo(config)
	} else if !os.IsNotExist(err) {
		l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	// Load project config
	projectConfigPath := l.findProjectConfig(dir)
	if projectConfigPath != "" {
		if projectLayer, err := loadLayer(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			projectLayer.config.Paths.resolve(filepath.Dir(projectConfigPath))
			projectLayer.applyTo(config)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	// Check if it already exists
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	// Create default config
	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for diagen.yaml in start and parent directories
func (l *Loader) findProjectConfig(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

// watchLayer holds the watch knobs a file sets explicitly. Zero is a valid
// setting for each of them, so presence is tracked with pointers.
type watchLayer struct {
	Debounce   *time.Duration `yaml:"debounce"`
	Retries    *int           `yaml:"retries"`
	RetryDelay *time.Duration `yaml:"retry_delay"`
}

// layer is one config file as written.
type layer struct {
	config *Config
	watch  watchLayer
}

// applyTo merges the layer over c.
func (l *layer) applyTo(c *Config) {
	c.MergeFrom(l.config)

	if l.watch.Debounce != nil {
		c.Watch.Debounce = *l.watch.Debounce
	}
	if l.watch.Retries != nil {
		c.Watch.Retries = *l.watch.Retries
	}
	if l.watch.RetryDelay != nil {
		c.Watch.RetryDelay = *l.watch.RetryDelay
	}
}

// loadLayer reads a config file without defaults, so only the values it
// sets take part in the merge.
func loadLayer(path string) (*layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	l := &layer{config: &Config{}}
	if err := yaml.Unmarshal(data, l.config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var explicit struct {
		Watch watchLayer `yaml:"watch"`
	}
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	l.watch = explicit.Watch
	return l, nil
}

// resolve makes relative paths absolute against base
func (p *PathsConfig) resolve(base string) {
	for _, path := range []*string{&p.Diagrams, &p.Fragments, &p.Templates, &p.Output} {
		if *path != "" && !filepath.IsAbs(*path) {
			*path = filepath.Join(base, *path)
		}
	}
}
