package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFromPath_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AutoApply.DebounceMS != 1500 {
		t.Fatalf("expected default debounce 1500, got %d", cfg.AutoApply.DebounceMS)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default level info, got %q", cfg.Logging.Level)
	}
	if !cfg.ManageWindowsEnabled() {
		t.Fatalf("expected window parking on by default")
	}
	if cfg.DisableExtras {
		t.Fatalf("expected disable_extras off by default")
	}
}

func TestLoadFromPath_ParsesFullConfig(t *testing.T) {
	path := writeConfig(t, `
profiles_dir: /tmp/profiles
disable_extras: true
manage_windows: false
auto_apply:
  profile: docked
  debounce_ms: 500
logging:
  level: debug
`)
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProfilesDir != "/tmp/profiles" {
		t.Fatalf("profiles_dir: got %q", cfg.ProfilesDir)
	}
	if !cfg.DisableExtras {
		t.Fatalf("expected disable_extras true")
	}
	if cfg.ManageWindowsEnabled() {
		t.Fatalf("expected window parking off")
	}
	if cfg.AutoApply.Profile != "docked" || cfg.AutoApply.DebounceMS != 500 {
		t.Fatalf("auto_apply: got %+v", cfg.AutoApply)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.LogLevel())
	}
}

func TestLoadFromPath_PartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "auto_apply:\n  profile: desk\n")
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AutoApply.Profile != "desk" {
		t.Fatalf("expected profile desk, got %q", cfg.AutoApply.Profile)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default level kept, got %q", cfg.Logging.Level)
	}
}

func TestLoadFromPath_RejectsInvalidLevel(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: verbose\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected invalid level rejected")
	}
}

func TestLoadFromPath_RejectsNegativeDebounce(t *testing.T) {
	path := writeConfig(t, "auto_apply:\n  debounce_ms: -5\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected negative debounce rejected")
	}
}

func TestLoadFromPath_RejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "auto_apply: [oops\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLogLevel_Mapping(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for level, want := range cases {
		cfg := &Config{Logging: LoggingConfig{Level: level}}
		if got := cfg.LogLevel(); got != want {
			t.Fatalf("level %q: expected %v, got %v", level, want, got)
		}
	}
}
