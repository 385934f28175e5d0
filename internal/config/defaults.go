package config

import "time"

// Default cascade thresholds. Exact is an equality gate; the lower stages
// get progressively more lenient.
const (
	DefaultExactThreshold    = 1.0
	DefaultRegexThreshold    = 0.9
	DefaultFuzzyThreshold    = 0.8
	DefaultSemanticThreshold = 0.7
)

// ApplyDefaults fills unset fields with sane defaults. Zero-valued numeric
// fields are treated as unset; boolean switches default at registration time
// in the loader because false is a meaningful value.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Classifier.ExactThreshold == 0 {
		cfg.Classifier.ExactThreshold = DefaultExactThreshold
	}
	if cfg.Classifier.RegexThreshold == 0 {
		cfg.Classifier.RegexThreshold = DefaultRegexThreshold
	}
	if cfg.Classifier.FuzzyThreshold == 0 {
		cfg.Classifier.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if cfg.Classifier.SemanticThreshold == 0 {
		cfg.Classifier.SemanticThreshold = DefaultSemanticThreshold
	}
	if cfg.Classifier.Concurrency == 0 {
		cfg.Classifier.Concurrency = 4
	}

	if cfg.Semantic.Model == "" {
		cfg.Semantic.Model = "all-MiniLM-L6-v2"
	}
	if cfg.Semantic.EmbedTimeout == 0 {
		cfg.Semantic.EmbedTimeout = 30 * time.Second
	}

	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "clauseguard:embeddings:"
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 24 * time.Hour
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
