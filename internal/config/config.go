package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Database  Database  `toml:"database"`
	Logging   Logging   `toml:"logging"`
	MCP       MCP       `toml:"mcp"`
	Metrics   Metrics   `toml:"metrics"`
	Tracing   Tracing   `toml:"tracing"`
	Watch     Watch     `toml:"watch"`
}

type Database struct {
	Path      string `toml:"path"`      // empty means in-memory
	Namespace string `toml:"namespace"` // initial namespace
}

type Logging struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

type MCP struct {
	RateLimit float64 `toml:"rate_limit"` // tool calls per second
	RateBurst int     `toml:"rate_burst"`
}

type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type Tracing struct {
	Endpoint string `toml:"endpoint"` // OTLP gRPC endpoint; empty disables tracing
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Namespace == "" {
		c.Database.Namespace = "default"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.MCP.RateLimit == 0 {
		c.MCP.RateLimit = 20
	}
	if c.MCP.RateBurst == 0 {
		c.MCP.RateBurst = 40
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
}
