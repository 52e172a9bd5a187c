package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.UpdateMS != 500 {
		t.Errorf("Expected default interval 500, got %d", cfg.UpdateMS)
	}
	if cfg.Theme != "green" {
		t.Errorf("Expected default theme green, got %s", cfg.Theme)
	}
	for _, key := range MetricKeys {
		if !cfg.Visible(key) {
			t.Errorf("Metric %q should default to visible", key)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg := loadFrom(filepath.Join(t.TempDir(), "config.json"))
	if cfg.UpdateMS != 500 {
		t.Errorf("Missing file should yield defaults, got interval %d", cfg.UpdateMS)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := loadFrom(path)
	if cfg.Theme != "green" {
		t.Errorf("Corrupt file should yield defaults, got theme %s", cfg.Theme)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	stored := `{"update_ms": 1000, "show": {"gpu": false}}`
	if err := os.WriteFile(path, []byte(stored), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := loadFrom(path)
	if cfg.UpdateMS != 1000 {
		t.Errorf("Expected interval 1000, got %d", cfg.UpdateMS)
	}
	if cfg.Visible("gpu") {
		t.Error("gpu should be hidden")
	}
	if !cfg.Visible("cpu") {
		t.Error("cpu should keep its default visibility")
	}
	if cfg.Theme != "green" {
		t.Errorf("Theme should keep its default, got %s", cfg.Theme)
	}
}

func TestLoadIgnoresUnknownShowKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	stored := `{"show": {"flux": true, "net": false}}`
	if err := os.WriteFile(path, []byte(stored), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := loadFrom(path)
	if _, ok := cfg.Show["flux"]; ok {
		t.Error("Unknown metric key should not survive the merge")
	}
	if cfg.Visible("net") {
		t.Error("net should be hidden")
	}
}

func TestLoadLegacyMetricsFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	stored := `{"metrics": {"cpu": {"show": false, "measure": true}, "ram": {"measure": false}}}`
	if err := os.WriteFile(path, []byte(stored), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := loadFrom(path)
	if cfg.Visible("cpu") {
		t.Error("Legacy metrics.cpu.show=false should hide cpu")
	}
	if !cfg.Visible("ram") {
		t.Error("Legacy entry without show should leave ram visible")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.UpdateMS = 250
	cfg.Theme = "cyan"
	cfg.PrometheusPort = "9090"
	cfg.Toggle("disk")
	if err := cfg.saveTo(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded := loadFrom(path)
	if loaded.UpdateMS != 250 {
		t.Errorf("Expected interval 250, got %d", loaded.UpdateMS)
	}
	if loaded.Theme != "cyan" {
		t.Errorf("Expected theme cyan, got %s", loaded.Theme)
	}
	if loaded.Visible("disk") {
		t.Error("disk should still be hidden after roundtrip")
	}
	if loaded.PrometheusPort != "9090" {
		t.Errorf("Expected prometheus port 9090, got %q", loaded.PrometheusPort)
	}
}

func TestToggle(t *testing.T) {
	cfg := Default()
	cfg.Toggle("net")
	if cfg.Visible("net") {
		t.Error("Toggle should hide net")
	}
	cfg.Toggle("net")
	if !cfg.Visible("net") {
		t.Error("Second toggle should show net again")
	}
}
