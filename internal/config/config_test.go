package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.Checker.Functions) != 3 {
		t.Errorf("expected 3 checked functions, got %d", len(cfg.Checker.Functions))
	}
	if cfg.Output.Color != "auto" {
		t.Errorf("expected Color=auto, got %s", cfg.Output.Color)
	}
	if cfg.Logging.DebugMode {
		t.Error("debug mode must default to off")
	}
	if cfg.Watch.DebounceDuration() != 500*time.Millisecond {
		t.Errorf("unexpected default debounce: %v", cfg.Watch.DebounceDuration())
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("PRINTGUARD_NO_COLOR", "")
	t.Setenv("PRINTGUARD_DEBUG", "")
	t.Setenv("PRINTGUARD_HISTORY_PATH", "")

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Checker.Functions = []string{"printf"}
	cfg.History.Enabled = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Checker.Functions) != 1 || loaded.Checker.Functions[0] != "printf" {
		t.Errorf("unexpected functions: %v", loaded.Checker.Functions)
	}
	if !loaded.History.Enabled {
		t.Error("expected history enabled")
	}
}

func TestConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PRINTGUARD_NO_COLOR", "")
	t.Setenv("PRINTGUARD_DEBUG", "")
	t.Setenv("PRINTGUARD_HISTORY_PATH", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Output.Color != "auto" {
		t.Errorf("expected defaults, got Color=%s", cfg.Output.Color)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PRINTGUARD_NO_COLOR", "1")
	t.Setenv("PRINTGUARD_DEBUG", "1")
	t.Setenv("PRINTGUARD_HISTORY_PATH", "/tmp/h.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Output.Color != "never" {
		t.Errorf("expected Color=never, got %s", cfg.Output.Color)
	}
	if !cfg.Logging.DebugMode || cfg.Logging.Level != "debug" {
		t.Error("expected debug logging enabled")
	}
	if !cfg.History.Enabled || cfg.History.Path != "/tmp/h.db" {
		t.Errorf("unexpected history config: %+v", cfg.History)
	}
}

func TestDebounceDuration_BadInput(t *testing.T) {
	w := WatchConfig{Debounce: "not-a-duration"}
	if w.DebounceDuration() != 500*time.Millisecond {
		t.Error("bad input must fall back to the default debounce")
	}
}
