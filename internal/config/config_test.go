package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte("feed:\n  symbols:\n    - btcusdt\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.App.LogLevel != "info" {
		t.Fatalf("expected default log level, got %q", cfg.App.LogLevel)
	}
	if cfg.Feed.ReconnectDelay() != 5*time.Second {
		t.Fatalf("expected 5s reconnect delay, got %s", cfg.Feed.ReconnectDelay())
	}
	if cfg.Store.MaxHistoryRows != 500000 {
		t.Fatalf("expected default history limit, got %d", cfg.Store.MaxHistoryRows)
	}
	if cfg.Analytics.CorrelationWindow != 50 {
		t.Fatalf("expected default correlation window, got %d", cfg.Analytics.CorrelationWindow)
	}
	if cfg.Analytics.BarInterval() != time.Minute {
		t.Fatalf("expected 1m bar interval, got %s", cfg.Analytics.BarInterval())
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := &Config{}
	cfg.Feed.Symbols = []string{"btcusdt", "ethusdt"}
	cfg.Feed.ReconnectDelayMs = 50
	cfg.Store.Path = filepath.Join(dir, "ticks.db")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(loaded.Feed.Symbols) != 2 || loaded.Feed.Symbols[0] != "btcusdt" {
		t.Fatalf("unexpected symbols: %+v", loaded.Feed.Symbols)
	}
	if loaded.Feed.ReconnectDelay() != 50*time.Millisecond {
		t.Fatalf("expected 50ms reconnect delay, got %s", loaded.Feed.ReconnectDelay())
	}
	if loaded.Store.Path != cfg.Store.Path {
		t.Fatalf("store path mismatch: %q", loaded.Store.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
