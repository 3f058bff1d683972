package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rupeetrack/internal/backend"
	"rupeetrack/internal/cli"
	"rupeetrack/internal/config"
	apphttp "rupeetrack/internal/http"
	applog "rupeetrack/internal/log"
)

func newServeCommand(envFile *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.LoadEnvFile(*envFile); err != nil {
				return err
			}

			cfg, err := cli.LoadAndValidateConfig(func(c *config.Config) {
				if port != "" {
					c.Port = port
				}
			})
			if err != nil {
				return err
			}

			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, stop := cli.WithShutdownSignals(cmd.Context())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("backend config: %w", err)
	}

	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	b := result.Backend
	srv := apphttp.NewServer(apphttp.Options{
		Addr:         cfg.Addr(),
		UploadDir:    cfg.UploadDir,
		MaxBodyBytes: cfg.MaxContentLength,
		Logger:       logger,
	}, b, b, b, b)

	logger.Info("Starting rupeetrack server",
		"addr", cfg.Addr(),
		"backend", cfg.DataBackend,
		"upload_dir", cfg.UploadDir,
		"max_content_length", cfg.MaxContentLength)

	if err := cli.RunServer(ctx, logger, srv, cfg.ShutdownTimeout); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
