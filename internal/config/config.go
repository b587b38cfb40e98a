package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from
// ~/.config/displaysnap/config.yaml. Every field has a working default; a
// missing file is not an error.
type Config struct {
	// ProfilesDir overrides where profiles are stored. Empty uses the
	// default under ~/.config/displaysnap/profiles.
	ProfilesDir string `yaml:"profiles_dir"`

	// DisableExtras makes apply disable live displays the profile does not
	// mention, unless overridden per invocation.
	DisableExtras bool `yaml:"disable_extras"`

	// ManageWindows enables window parking around monitor changes.
	ManageWindows *bool `yaml:"manage_windows"`

	AutoApply AutoApplyConfig `yaml:"auto_apply"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AutoApplyConfig makes the daemon re-apply a profile when the live topology
// drifts from it.
type AutoApplyConfig struct {
	Profile    string `yaml:"profile"`
	DebounceMS int    `yaml:"debounce_ms"`
}

// LoggingConfig controls daemon log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "displaysnap", "config.yaml"), nil
}

// Load reads the config from the default location.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the config from an explicit path. A missing file yields
// the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.AutoApply.DebounceMS = 1500
	c.Logging.Level = "info"
}

func (c *Config) validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	if c.AutoApply.DebounceMS < 0 {
		return fmt.Errorf("auto_apply.debounce_ms must not be negative")
	}
	return nil
}

// ManageWindowsEnabled reports whether window parking is on (default true).
func (c *Config) ManageWindowsEnabled() bool {
	return c.ManageWindows == nil || *c.ManageWindows
}

// LogLevel maps the configured level to slog.
func (c *Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
