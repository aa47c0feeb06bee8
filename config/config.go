// Package config loads csvplot settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all csvplot configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Chart   ChartConfig   `yaml:"chart"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP shell.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	MaxUploadMB     int    `yaml:"max_upload_mb"`
}

// ChartConfig configures figure building and rendering.
type ChartConfig struct {
	Renderer      string   `yaml:"renderer"` // echarts, svg, png, gochart
	Width         int      `yaml:"width"`
	Height        int      `yaml:"height"`
	HistogramBins int      `yaml:"histogram_bins"` // 0 = automatic
	TableRows     int      `yaml:"table_rows"`     // 0 = all rows
	Colors        []string `yaml:"colors,omitempty"`
}

// SessionConfig configures the upload cache.
type SessionConfig struct {
	MaxEntries    int    `yaml:"max_entries"`
	TTL           string `yaml:"ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8501",
			ReadTimeout:     "30s",
			WriteTimeout:    "60s",
			ShutdownTimeout: "10s",
			MaxUploadMB:     200,
		},
		Chart: ChartConfig{
			Renderer:  "echarts",
			Width:     900,
			Height:    500,
			TableRows: 1000,
		},
		Session: SessionConfig{
			MaxEntries:    32,
			TTL:           "1h",
			SweepInterval: "1m",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("CSVPLOT_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("CSVPLOT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if r := os.Getenv("CSVPLOT_RENDERER"); r != "" {
		c.Chart.Renderer = r
	}
	if v := os.Getenv("CSVPLOT_MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.MaxUploadMB = n
		}
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Chart.Width < 0 || c.Chart.Height < 0 {
		return fmt.Errorf("chart size must not be negative")
	}
	if c.Chart.HistogramBins < 0 {
		return fmt.Errorf("chart.histogram_bins must not be negative")
	}
	for name, v := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"session.ttl":             c.Session.TTL,
		"session.sweep_interval":  c.Session.SweepInterval,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// ============================================================================
// DURATION ACCESSORS
// ============================================================================

// GetReadTimeout returns the server read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the server write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 60*time.Second)
}

// GetShutdownTimeout returns how long shutdown waits for open requests.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// GetSessionTTL returns the upload idle expiry.
func (c *Config) GetSessionTTL() time.Duration {
	return parseDuration(c.Session.TTL, time.Hour)
}

// GetSweepInterval returns the janitor interval.
func (c *Config) GetSweepInterval() time.Duration {
	return parseDuration(c.Session.SweepInterval, time.Minute)
}

// MaxUploadBytes returns the upload size limit.
func (c *Config) MaxUploadBytes() int64 {
	if c.Server.MaxUploadMB <= 0 {
		return 200 << 20
	}
	return int64(c.Server.MaxUploadMB) << 20
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
