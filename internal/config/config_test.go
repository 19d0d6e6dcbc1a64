package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hyperbase.toml")
	content := `
[database]
path = "graph.db"

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "graph.db" {
		t.Fatalf("database path = %q", cfg.Database.Path)
	}
	if cfg.Database.Namespace != "default" {
		t.Fatalf("namespace default = %q", cfg.Database.Namespace)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	if cfg.MCP.RateLimit != 20 || cfg.MCP.RateBurst != 40 {
		t.Fatalf("mcp defaults = %+v", cfg.MCP)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Fatalf("debounce = %v", cfg.Watch.Debounce)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Database.Path != "" {
		t.Fatalf("default path = %q", cfg.Database.Path)
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Fatalf("metrics addr = %q", cfg.Metrics.Addr)
	}
}
