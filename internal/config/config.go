package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// MetricKeys lists the toggleable metrics in display order.
var MetricKeys = []string{"cpu", "gpu", "ram", "disk", "net", "chart"}

type Config struct {
	UpdateMS       int             `json:"update_ms"`
	Theme          string          `json:"theme"`
	DefaultLayout  string          `json:"default_layout"`
	StartAtLogin   bool            `json:"start_at_login"`
	PrometheusPort string          `json:"prometheus_port,omitempty"`
	Show           map[string]bool `json:"show"`
}

// legacy HUD config carried per-metric {show, measure} entries under "metrics".
type legacyMetricEntry struct {
	Show    *bool `json:"show"`
	Measure *bool `json:"measure"`
}

func Default() *Config {
	show := make(map[string]bool, len(MetricKeys))
	for _, key := range MetricKeys {
		show[key] = true
	}
	return &Config{
		UpdateMS:      500,
		Theme:         "green",
		DefaultLayout: "default",
		Show:          show,
	}
}

func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".macbar")
}

func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// Load reads the config file, merging it over the defaults. A missing or
// corrupt file yields the defaults.
func Load() *Config {
	return loadFrom(Path())
}

func loadFrom(path string) *Config {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	stored := struct {
		Config
		Metrics map[string]legacyMetricEntry `json:"metrics"`
	}{}
	if err := json.Unmarshal(data, &stored); err != nil {
		return cfg
	}
	if stored.UpdateMS > 0 {
		cfg.UpdateMS = stored.UpdateMS
	}
	if stored.Theme != "" {
		cfg.Theme = stored.Theme
	}
	if stored.DefaultLayout != "" {
		cfg.DefaultLayout = stored.DefaultLayout
	}
	cfg.StartAtLogin = stored.StartAtLogin
	cfg.PrometheusPort = stored.PrometheusPort
	for key, visible := range stored.Show {
		if _, ok := cfg.Show[key]; ok {
			cfg.Show[key] = visible
		}
	}
	for key, entry := range stored.Metrics {
		if _, ok := cfg.Show[key]; ok && entry.Show != nil {
			cfg.Show[key] = *entry.Show
		}
	}
	return cfg
}

func (c *Config) Save() error {
	return c.saveTo(Path())
}

func (c *Config) saveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Visible reports whether a metric should be rendered. Unknown keys are
// visible so new metrics default on.
func (c *Config) Visible(key string) bool {
	visible, ok := c.Show[key]
	if !ok {
		return true
	}
	return visible
}

func (c *Config) Toggle(key string) {
	c.Show[key] = !c.Visible(key)
}
