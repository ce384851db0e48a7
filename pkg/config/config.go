// Package config handles loading and saving kc configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/kc/config.yaml
//   - Data:    ~/.local/share/kc/ (exported diagrams, bundles)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// UIConfig holds UI preference settings.
type UIConfig struct {
	DefaultDocument string `yaml:"default_document,omitempty"` // Document opened at startup
	SidebarHidden   bool   `yaml:"sidebar_hidden,omitempty"`   // Start with the sidebar collapsed
	ContentWidth    int    `yaml:"content_width,omitempty"`    // Max rendered content width (0 = auto)
}

// ExportConfig holds defaults for diagram export.
type ExportConfig struct {
	Format    string `yaml:"format,omitempty"`     // "svg" or "png"
	OutputDir string `yaml:"output_dir,omitempty"` // Default export directory
}

// Config is the top-level configuration for kc.
type Config struct {
	DocsDir     string       `yaml:"docs_dir,omitempty"`     // Directory of Markdown articles (empty = embedded set)
	CatalogPath string       `yaml:"catalog_path,omitempty"` // YAML catalog override (empty = built-in catalog)
	UI          UIConfig     `yaml:"ui,omitempty"`
	Export      ExportConfig `yaml:"export,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Export: ExportConfig{
			Format: "svg",
		},
	}
}

// ConfigDir returns the XDG config directory for kc.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "kc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "kc")
}

// DataDir returns the XDG data directory for kc.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "kc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "kc")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist. The KC_DOCS_DIR
// environment variable overrides docs_dir from the file.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return cfg, err
	}
	if dir := os.Getenv("KC_DOCS_DIR"); dir != "" {
		cfg.DocsDir = dir
	}
	return cfg, nil
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DocsDir = expandHome(cfg.DocsDir)
	cfg.CatalogPath = expandHome(cfg.CatalogPath)
	cfg.Export.OutputDir = expandHome(cfg.Export.OutputDir)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
