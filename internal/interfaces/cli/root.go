// Package cli implements the clauseguard command tree.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/careatlas/clauseguard/internal/classify/cascade"
	"github.com/careatlas/clauseguard/internal/classify/semantic"
	"github.com/careatlas/clauseguard/internal/config"
	"github.com/careatlas/clauseguard/internal/infrastructure/database/redis"
	"github.com/careatlas/clauseguard/internal/infrastructure/embedding"
	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/prometheus"
	promclient "github.com/prometheus/client_golang/prometheus"
)

var cfgFile string

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "clauseguard",
		Short: "Classify healthcare contract clauses against standard templates",
		Long: `clauseguard compares provider contract clauses with reference template
language and labels each attribute standard or non-standard, using a
cascade of exact, pattern, fuzzy, and semantic matching with business-rule
review of the lenient stages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file (default: environment only)")

	root.AddCommand(newClassifyCommand())
	root.AddCommand(newServeCommand())
	return root
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadFromEnv()
}

func newLogger(cfg *config.Config) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: []string{cfg.Log.Output},
	})
}

// buildOrchestrator assembles the cascade from configuration: the semantic
// stage and its cache backends are wired only when enabled.
func buildOrchestrator(ctx context.Context, cfg *config.Config, logger logging.Logger, withMetrics bool) (*cascade.Orchestrator, func(), error) {
	opts := []cascade.Option{
		cascade.WithLogger(logger),
		cascade.WithConcurrency(cfg.Classifier.Concurrency),
	}
	if withMetrics && cfg.Metrics.Enabled {
		opts = append(opts, cascade.WithMetrics(prometheus.NewMetrics(promclient.DefaultRegisterer)))
	}

	cleanup := func() {}

	if cfg.Semantic.Enabled {
		embedder := embedding.NewClient(cfg.Semantic.EndpointURL,
			embedding.WithModel(cfg.Semantic.Model),
			embedding.WithAPIKey(cfg.Semantic.APIKey),
			embedding.WithTimeout(cfg.Semantic.EmbedTimeout),
			embedding.WithLogger(logger),
		)

		var backend semantic.VectorCache
		if cfg.Redis.Enabled {
			store, err := redis.NewVectorStore(ctx, cfg.Redis, logger)
			if err != nil {
				return nil, nil, fmt.Errorf("connect vector cache: %w", err)
			}
			backend = store
			cleanup = func() { _ = store.Close() }
		}

		cache := semantic.NewCache(backend, logger)
		opts = append(opts, cascade.WithSemanticMatcher(semantic.NewMatcher(embedder, cache, logger)))
	}

	return cascade.NewOrchestrator(cfg.Classifier.Thresholds(), opts...), cleanup, nil
}
