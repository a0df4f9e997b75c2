package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/virtos/core/runcache"
	"github.com/kilianp07/virtos/core/runlog"
)

// LogConfig selects the global log level.
type LogConfig struct {
	Level string `json:"level"`
}

func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LogConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log.level: unknown level %q", c.Level)
}

// LibraryConfig locates the component library document.
type LibraryConfig struct {
	// Backend is "json", "sqlite" or "memory".
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

func (c *LibraryConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "json"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "library.db"
		case "json":
			c.Path = "library.json"
		}
	}
}

func (c LibraryConfig) Validate() error {
	switch c.Backend {
	case "memory":
		return nil
	case "json", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("library.path is required")
		}
		return nil
	}
	return fmt.Errorf("library.backend: unknown backend %q", c.Backend)
}

// RunLogConfig defines storage and rotation of simulation run records.
type RunLogConfig struct {
	// Backend selects the store type: "jsonl", "sqlite" or "none".
	Backend string `json:"backend" yaml:"backend"`
	// Path is the file location of the store.
	Path string `json:"path" yaml:"path"`
	// MaxSizeMB rotates a jsonl log once it exceeds this size.
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups limits the number of rotated files kept.
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

func (c *RunLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "runs.db"
		case "jsonl":
			c.Path = "runs.jsonl"
		}
	}
}

func (c RunLogConfig) Validate() error {
	switch c.Backend {
	case "none":
		return nil
	case "jsonl", "sqlite":
	default:
		return fmt.Errorf("run_log.backend: unknown backend %q", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("run_log.path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("run_log rotation settings must not be negative")
	}
	return nil
}

// Options converts the section into runlog store options.
func (c RunLogConfig) Options() runlog.Options {
	return runlog.Options{
		Backend:    c.Backend,
		Path:       c.Path,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}

// CacheConfig selects the simulation result cache.
type CacheConfig struct {
	// Backend is "memory", "redis" or "none".
	Backend    string               `json:"backend"`
	MaxEntries int                  `json:"max_entries"`
	Redis      runcache.RedisConfig `json:"redis"`
}

func (c *CacheConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = runcache.DefaultMaxEntries
	}
	if c.Backend == "redis" {
		if c.Redis.Addr == "" {
			c.Redis.Addr = "localhost:6379"
		}
		if c.Redis.TTL == 0 {
			c.Redis.TTL = 24 * time.Hour
		}
	}
}

func (c CacheConfig) Validate() error {
	switch c.Backend {
	case "memory", "redis", "none":
		return nil
	}
	return fmt.Errorf("cache.backend: unknown backend %q", c.Backend)
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address string `json:"address"`
	// Token, when set, is required as a bearer token for the run log and
	// library updates.
	Token string `json:"token"`
	// PrometheusAddress serves /metrics on a separate listener when set;
	// otherwise /metrics is mounted on the API server.
	PrometheusAddress string        `json:"prometheus_address"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

func (c ServerConfig) Validate() error {
	if c.PrometheusAddress != "" && c.PrometheusAddress == c.Address {
		return fmt.Errorf("server.prometheus_address must differ from server.address")
	}
	return nil
}
