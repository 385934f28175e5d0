// Package config defines all configuration structures for the clauseguard
// service. No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"

	"github.com/careatlas/clauseguard/pkg/types/classify"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"` // "stdout" | "stderr" | file path
}

// ClassifierConfig holds the cascade acceptance thresholds and runtime
// switches.
type ClassifierConfig struct {
	ExactThreshold      float64 `mapstructure:"exact_threshold"`
	RegexThreshold      float64 `mapstructure:"regex_threshold"`
	FuzzyThreshold      float64 `mapstructure:"fuzzy_threshold"`
	SemanticThreshold   float64 `mapstructure:"semantic_threshold"`
	EnableBusinessRules bool    `mapstructure:"enable_business_rules"`
	Concurrency         int     `mapstructure:"concurrency"`
}

// Thresholds converts the classifier section into the engine's threshold
// set.
func (c ClassifierConfig) Thresholds() classify.Thresholds {
	return classify.Thresholds{
		Exact:               c.ExactThreshold,
		Regex:               c.RegexThreshold,
		Fuzzy:               c.FuzzyThreshold,
		Semantic:            c.SemanticThreshold,
		EnableBusinessRules: c.EnableBusinessRules,
	}
}

// SemanticConfig holds the embedding backend settings.
type SemanticConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	EndpointURL  string        `mapstructure:"endpoint_url"`
	Model        string        `mapstructure:"model"`
	APIKey       string        `mapstructure:"api_key"`
	EmbedTimeout time.Duration `mapstructure:"embed_timeout"`
}

// RedisConfig holds the optional external vector-cache backend settings.
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	PoolSize  int           `mapstructure:"pool_size"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config is the aggregate service configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Semantic   SemanticConfig   `mapstructure:"semantic"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// Validate checks the configuration for fatal problems. An invalid
// threshold set must prevent startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release, or test, got %q", c.Server.Mode)
	}

	if err := c.Classifier.Thresholds().Validate(); err != nil {
		return fmt.Errorf("classifier thresholds: %w", err)
	}
	if c.Classifier.Concurrency < 1 {
		return fmt.Errorf("classifier.concurrency must be >= 1, got %d", c.Classifier.Concurrency)
	}

	if c.Semantic.Enabled {
		if c.Semantic.EndpointURL == "" {
			return fmt.Errorf("semantic.endpoint_url is required when semantic matching is enabled")
		}
		if c.Semantic.EmbedTimeout <= 0 {
			return fmt.Errorf("semantic.embed_timeout must be positive, got %s", c.Semantic.EmbedTimeout)
		}
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when the redis cache is enabled")
	}

	return nil
}
