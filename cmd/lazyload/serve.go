package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lazyload/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live lazyload sessions over WebSocket",
		Long: `Serve live sessions. Each WebSocket connection on /ws mirrors one
browser page and runs its own engine; attribute patches and load events are
streamed back to the page.

Also serves /healthz and, when metrics are enabled, Prometheus metrics.

Examples:
  lazyload serve
  lazyload serve --addr=:9000
  lazyload serve --config=deploy/lazyload.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, configPath, addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: lazyload.json/yaml in the working directory)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

func runServe(ctx context.Context, configPath, addr string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	sc := server.FromConfig(cfg)
	if addr != "" {
		sc.Address = addr
	}

	srv := server.New(sc,
		server.WithLogger(logger.With("component", "server")),
		server.WithEngineOptions(cfg.EngineOptions()...),
		server.WithBindingDefaults(cfg.ApplyDefaults),
	)
	return srv.ListenAndServe(ctx)
}
