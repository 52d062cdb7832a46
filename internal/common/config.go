// Package common provides shared utilities for Pulse
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Pulse
type Config struct {
	Environment string        `toml:"environment"`
	Tickers     []string      `toml:"tickers"`
	Engine      EngineConfig  `toml:"engine"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// EngineConfig holds analytics engine configuration.
// Zero values are replaced by documented defaults at engine construction.
type EngineConfig struct {
	PriceThreshold          float64  `toml:"price_threshold" validate:"gte=0"`  // percent change to flag a price jump
	VolumeThreshold         float64  `toml:"volume_threshold" validate:"gte=0"` // multiple of trailing average volume
	BatchSize               int      `toml:"batch_size" validate:"gte=0"`
	MaxProcessingTime       string   `toml:"max_processing_time"`
	EnableRealTimeDetection bool     `toml:"enable_realtime_detection"`
	SignificanceFilters     []string `toml:"significance_filters" validate:"dive,oneof=low medium high critical"`
}

// Engine defaults applied when the corresponding config value is zero.
const (
	DefaultPriceThreshold    = 5.0
	DefaultVolumeThreshold   = 2.0
	DefaultBatchSize         = 100
	DefaultMaxProcessingTime = 60 * time.Second
)

// GetMaxProcessingTime parses and returns the processing deadline
func (c *EngineConfig) GetMaxProcessingTime() time.Duration {
	d, err := time.ParseDuration(c.MaxProcessingTime)
	if err != nil || d <= 0 {
		return DefaultMaxProcessingTime
	}
	return d
}

// StorageConfig holds the event store path.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Engine: EngineConfig{
			PriceThreshold:    DefaultPriceThreshold,
			VolumeThreshold:   DefaultVolumeThreshold,
			BatchSize:         DefaultBatchSize,
			MaxProcessingTime: "60s",
		},
		Storage: StorageConfig{
			Path: "data/events",
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapError(KindConfiguration, err, "failed to read config file %s", path)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, WrapError(KindConfiguration, err, "failed to parse config file %s", path)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PULSE_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("PULSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("PULSE_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if key := os.Getenv("EODHD_API_KEY"); key != "" {
		config.Clients.EODHD.APIKey = key
	}

	if v := os.Getenv("PULSE_PRICE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Engine.PriceThreshold = f
		}
	}

	if v := os.Getenv("PULSE_VOLUME_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Engine.VolumeThreshold = f
		}
	}

	if v := os.Getenv("PULSE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Engine.BatchSize = n
		}
	}

	if v := os.Getenv("PULSE_TICKERS"); v != "" {
		var tickers []string
		for _, t := range strings.Split(v, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tickers = append(tickers, strings.ToUpper(t))
			}
		}
		config.Tickers = tickers
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// Describe returns a short human-readable summary of the engine settings.
func (c *Config) Describe() string {
	return fmt.Sprintf("price>=%.1f%% volume>=%.1fx batch=%d",
		c.Engine.PriceThreshold, c.Engine.VolumeThreshold, c.Engine.BatchSize)
}
