package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Paths.Fragments != "fragments" {
		t.Errorf("expected default fragments dir fragments, got %s", cfg.Paths.Fragments)
	}
	if cfg.Merge.Identity != "name" {
		t.Errorf("expected default identity name, got %s", cfg.Merge.Identity)
	}
	if cfg.Watch.Retries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Watch.Retries)
	}
	if cfg.Watch.RetryDelay != time.Second {
		t.Errorf("expected retry delay 1s, got %v", cfg.Watch.RetryDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "qualified identity",
			modify:  func(c *Config) { c.Merge.Identity = "qualified" },
			wantErr: false,
		},
		{
			name:    "unknown identity",
			modify:  func(c *Config) { c.Merge.Identity = "namespace" },
			wantErr: true,
		},
		{
			name:    "negative retries",
			modify:  func(c *Config) { c.Watch.Retries = -1 },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
paths:
  diagrams: "design"
  templates: "/opt/templates"
transform:
  skip_namespace: "Company"
merge:
  identity: qualified
watch:
  debounce: 250ms
  retries: 5
log:
  level: debug
metrics:
  textfile: "/var/lib/node_exporter/diagen.prom"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Paths.Diagrams != "design" {
		t.Errorf("expected diagrams design, got %s", cfg.Paths.Diagrams)
	}
	if cfg.Paths.Output != "src" {
		t.Errorf("expected default output src, got %s", cfg.Paths.Output)
	}
	if cfg.Transform.SkipNamespace != "Company" {
		t.Errorf("expected skip namespace Company, got %s", cfg.Transform.SkipNamespace)
	}
	if cfg.Identity() != "qualified" {
		t.Errorf("expected qualified identity, got %s", cfg.Identity())
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.Retries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.Watch.Retries)
	}
	if cfg.Watch.RetryDelay != time.Second {
		t.Errorf("expected default retry delay 1s, got %v", cfg.Watch.RetryDelay)
	}
	if cfg.Metrics.Textfile != "/var/lib/node_exporter/diagen.prom" {
		t.Errorf("unexpected textfile %s", cfg.Metrics.Textfile)
	}
}

func TestConfigMergeFrom(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Paths: PathsConfig{
			Output: "generated",
		},
		Merge: MergeConfig{
			Identity: "qualified",
		},
	}

	base.MergeFrom(override)

	if base.Paths.Output != "generated" {
		t.Errorf("expected output generated, got %s", base.Paths.Output)
	}
	// Fragments should remain from base since override didn't set it
	if base.Paths.Fragments != "fragments" {
		t.Errorf("expected fragments to remain default, got %s", base.Paths.Fragments)
	}
	if base.Merge.Identity != "qualified" {
		t.Errorf("expected identity qualified, got %s", base.Merge.Identity)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Transform.SkipNamespace = "Acme"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Transform.SkipNamespace != "Acme" {
		t.Errorf("expected skip namespace Acme, got %s", loaded.Transform.SkipNamespace)
	}
	if loaded.Watch.Debounce != cfg.Watch.Debounce {
		t.Errorf("expected debounce %v, got %v", cfg.Watch.Debounce, loaded.Watch.Debounce)
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "", "warn", "warning", "error"} {
		if _, err := ParseLevel(level); err != nil {
			t.Errorf("ParseLevel(%q) error = %v", level, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoaderLayers(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	userConfig := filepath.Join(home, UserConfigDir, UserConfigFile)
	if err := os.MkdirAll(filepath.Dir(userConfig), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(userConfig, []byte("watch:\n  retries: 7\nlog:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, ProjectConfigFile), []byte("paths:\n  fragments: model\nlog:\n  level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(project, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader(nil).LoadFrom(nested)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Watch.Retries != 7 {
		t.Errorf("expected user retries 7 to survive, got %d", cfg.Watch.Retries)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected project log level warn, got %s", cfg.Log.Level)
	}
	if want := filepath.Join(project, "model"); cfg.Paths.Fragments != want {
		t.Errorf("expected fragments %s, got %s", want, cfg.Paths.Fragments)
	}
	if cfg.Paths.Output != "src" {
		t.Errorf("expected default output src, got %s", cfg.Paths.Output)
	}
}

func TestLoaderLayers_ExplicitZero(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	userConfig := filepath.Join(home, UserConfigDir, UserConfigFile)
	if err := os.MkdirAll(filepath.Dir(userConfig), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(userConfig, []byte("watch:\n  retries: 7\n  retry_delay: 5s\n"), 0644); err != nil {
		t.Fatal(err)
	}

	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, ProjectConfigFile), []byte("watch:\n  retries: 0\n  retry_delay: 0s\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader(nil).LoadFrom(project)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Watch.Retries != 0 {
		t.Errorf("expected project retries 0 to override user 7, got %d", cfg.Watch.Retries)
	}
	if cfg.Watch.RetryDelay != 0 {
		t.Errorf("expected project retry delay 0 to override user 5s, got %v", cfg.Watch.RetryDelay)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected unset debounce to keep the default, got %v", cfg.Watch.Debounce)
	}
}
