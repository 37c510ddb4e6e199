// Package common provides shared utilities for brokerd
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for brokerd
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Vendor      VendorConfig  `toml:"vendor"`
	Cache       CacheConfig   `toml:"cache"`
	Jobs        JobsConfig    `toml:"jobs"`
	Reports     ReportsConfig `toml:"reports"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the embedded store configuration.
type StorageConfig struct {
	Path string `toml:"path"`
}

// VendorConfig holds the stock vendor API configuration.
type VendorConfig struct {
	BaseURL     string `toml:"base_url"`
	APIKey      string `toml:"api_key"`
	RateLimit   int    `toml:"rate_limit"`
	Timeout     string `toml:"timeout"`
	MaxAttempts int    `toml:"max_attempts"`
}

// GetTimeout parses and returns the per-call timeout duration.
func (c *VendorConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// CacheConfig selects and configures the quote/token cache backend.
// Backend is "memory" (embedded ristretto) or "redis".
type CacheConfig struct {
	Backend  string `toml:"backend"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	QuoteTTL string `toml:"quote_ttl"`
	TokenTTL string `toml:"token_ttl"`
}

// GetQuoteTTL parses the stock quote TTL (default 5 minutes).
func (c *CacheConfig) GetQuoteTTL() time.Duration {
	d, err := time.ParseDuration(c.QuoteTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetTokenTTL parses the pagination token TTL (default 10 minutes).
func (c *CacheConfig) GetTokenTTL() time.Duration {
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// JobsConfig holds report job queue configuration.
type JobsConfig struct {
	Workers       int    `toml:"workers"`
	PollInterval  string `toml:"poll_interval"`
	ScheduleHour  int    `toml:"schedule_hour"`
	PurgeAfter    string `toml:"purge_after"`
	SchedulerOn   bool   `toml:"scheduler_enabled"`
	RetryBackoffs string `toml:"retry_backoffs"`
}

// GetPollInterval parses the queue poll interval (default 1 second).
func (c *JobsConfig) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 1 * time.Second
	}
	return d
}

// GetPurgeAfter parses the completed-job retention window (default 7 days).
func (c *JobsConfig) GetPurgeAfter() time.Duration {
	d, err := time.ParseDuration(c.PurgeAfter)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return d
}

// GetRetryBackoffs parses the comma-separated retry delays.
// Default matches the report pipeline policy: 1m, 5m, 15m.
func (c *JobsConfig) GetRetryBackoffs() []time.Duration {
	defaults := []time.Duration{1 * time.Minute, 5 * time.Minute, 15 * time.Minute}
	if c.RetryBackoffs == "" {
		return defaults
	}
	parts := strings.Split(c.RetryBackoffs, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(p))
		if err != nil {
			return defaults
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}

// ReportsConfig holds daily report dispatch configuration.
type ReportsConfig struct {
	Recipients []string `toml:"recipients"`
	From       string   `toml:"from"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/brokerd",
		},
		Vendor: VendorConfig{
			BaseURL:     "https://vendor.example.com/api",
			RateLimit:   10,
			Timeout:     "10s",
			MaxAttempts: 3,
		},
		Cache: CacheConfig{
			Backend:  "memory",
			Addr:     "localhost:6379",
			QuoteTTL: "5m",
			TokenTTL: "10m",
		},
		Jobs: JobsConfig{
			Workers:      10,
			PollInterval: "1s",
			ScheduleHour: 6,
			PurgeAfter:   "168h",
			SchedulerOn:  true,
		},
		Reports: ReportsConfig{
			From: "reports@brokerd.local",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("BROKERD_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("BROKERD_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("BROKERD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("BROKERD_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("BROKERD_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if url := os.Getenv("BROKERD_VENDOR_URL"); url != "" {
		config.Vendor.BaseURL = url
	}

	if key := os.Getenv("BROKERD_VENDOR_API_KEY"); key != "" {
		config.Vendor.APIKey = key
	}

	if backend := os.Getenv("BROKERD_CACHE_BACKEND"); backend != "" {
		config.Cache.Backend = strings.ToLower(backend)
	}

	if addr := os.Getenv("BROKERD_REDIS_ADDR"); addr != "" {
		config.Cache.Addr = addr
	}

	if workers := os.Getenv("BROKERD_JOB_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			config.Jobs.Workers = w
		}
	}

	if rcpt := os.Getenv("BROKERD_REPORT_RECIPIENTS"); rcpt != "" {
		parts := strings.Split(rcpt, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		config.Reports.Recipients = parts
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
