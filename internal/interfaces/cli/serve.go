package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/careatlas/clauseguard/internal/infrastructure/monitoring/logging"
	httpserver "github.com/careatlas/clauseguard/internal/interfaces/http"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the classification HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			orchestrator, cleanup, err := buildOrchestrator(ctx, cfg, logger, true)
			if err != nil {
				return err
			}
			defer cleanup()

			server := httpserver.NewServer(cfg.Server, cfg.Metrics, orchestrator, logger)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Run() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				logger.Info("shutting down", logging.String("signal", sig.String()))
				return server.Shutdown(context.Background())
			}
		},
	}
}
