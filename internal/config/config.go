// Package config holds all printguard configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = ".printguard/config.yaml"

// Config holds all printguard configuration.
type Config struct {
	// Checker settings
	Checker CheckerConfig `yaml:"checker"`

	// Terminal output
	Output OutputConfig `yaml:"output"`

	// Watch mode
	Watch WatchConfig `yaml:"watch"`

	// Run history
	History HistoryConfig `yaml:"history"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CheckerConfig configures which call sites are validated.
type CheckerConfig struct {
	// Functions lists the checked function names. Only printf-family
	// names are honored.
	Functions []string `yaml:"functions"`
}

// OutputConfig configures terminal output.
type OutputConfig struct {
	Color string `yaml:"color"` // auto, always, never
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"` // duration, e.g. "500ms"
}

// DebounceDuration parses the debounce setting, falling back to the
// default on bad input.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// HistoryConfig configures the run history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"` // master toggle, false = no logging
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"` // per-category toggles
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Checker: CheckerConfig{
			Functions: []string{"printf", "sprintf", "snprintf"},
		},
		Output: OutputConfig{
			Color: "auto",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    ".printguard/history.db",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads the config at path, merged over defaults, then applies env
// overrides. A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed reading config at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed parsing config at %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed marshaling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed creating config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides lets the environment win over file settings.
func (c *Config) applyEnvOverrides() {
	if os.Getenv("PRINTGUARD_NO_COLOR") != "" {
		c.Output.Color = "never"
	}
	if os.Getenv("PRINTGUARD_DEBUG") != "" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
	if path := os.Getenv("PRINTGUARD_HISTORY_PATH"); path != "" {
		c.History.Enabled = true
		c.History.Path = path
	}
}
