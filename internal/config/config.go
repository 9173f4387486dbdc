// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed describes the upstream trade-stream connectivity parameters.
type Feed struct {
	BaseURL          string   `yaml:"base_url"`
	Symbols          []string `yaml:"symbols"`
	ReconnectDelayMs int      `yaml:"reconnect_delay_ms"`
	StaggerMs        int      `yaml:"stagger_ms"`
}

// Store locates the tick database and bounds history reads.
type Store struct {
	Path           string `yaml:"path"`
	MaxHistoryRows int    `yaml:"max_history_rows"`
}

// Analytics groups the knobs for the pair analytics engine.
type Analytics struct {
	PairA             string `yaml:"pair_a"`
	PairB             string `yaml:"pair_b"`
	BarIntervalSecs   int    `yaml:"bar_interval_secs"`
	CorrelationWindow int    `yaml:"correlation_window"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App       `yaml:"app"`
	Feed      Feed      `yaml:"feed"`
	Store     Store     `yaml:"store"`
	Analytics Analytics `yaml:"analytics"`
}

// ReconnectDelay returns the fixed delay between reconnect attempts.
func (f Feed) ReconnectDelay() time.Duration {
	if f.ReconnectDelayMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(f.ReconnectDelayMs) * time.Millisecond
}

// Stagger returns the pause between launching consecutive consumers.
func (f Feed) Stagger() time.Duration {
	if f.StaggerMs < 0 {
		return 0
	}
	return time.Duration(f.StaggerMs) * time.Millisecond
}

// BarInterval returns the resampling bucket width.
func (a Analytics) BarInterval() time.Duration {
	if a.BarIntervalSecs <= 0 {
		return time.Minute
	}
	return time.Duration(a.BarIntervalSecs) * time.Second
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.MetricsAddr == "" {
		c.App.MetricsAddr = ":9109"
	}
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = "wss://fstream.binance.com/ws"
	}
	if c.Feed.ReconnectDelayMs == 0 {
		c.Feed.ReconnectDelayMs = 5000
	}
	if c.Feed.StaggerMs == 0 {
		c.Feed.StaggerMs = 1000
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/ticks.db"
	}
	if c.Store.MaxHistoryRows <= 0 {
		c.Store.MaxHistoryRows = 500000
	}
	if c.Analytics.CorrelationWindow <= 0 {
		c.Analytics.CorrelationWindow = 50
	}
	if c.Analytics.BarIntervalSecs <= 0 {
		c.Analytics.BarIntervalSecs = 60
	}
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
