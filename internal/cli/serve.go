package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/config"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/logging"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/photo"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/report"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		configFile string
		addr       string
		dev        bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the form server",
		Long: `Start an HTTP server with the visit form and the PDF report endpoint.

Configuration is read from VR_* environment variables, a .env file in the
working directory and, with --config, a YAML file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("dev") {
				cfg.DevMode = dev
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides VR_ADDR)")
	cmd.Flags().BoolVar(&dev, "dev", false, "development mode (text logs at debug level)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.Setup(cfg.DevMode)

	renderer := report.NewRenderer(report.Options{
		Image: photo.NormalizeOptions{
			MaxDimension: cfg.ImageMaxDim,
			Quality:      cfg.ImageQuality,
			MaxPixels:    cfg.ImageMaxPixels,
		},
	}, logger)

	srv, err := web.NewServer(cfg, logger, renderer)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
