package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nvandessel/cellgrid/internal/grid"
	"github.com/nvandessel/cellgrid/internal/layout"
	"github.com/nvandessel/cellgrid/internal/mcp"
	"github.com/nvandessel/cellgrid/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run cellgrid as an MCP server over stdio",
		Long: `Run cellgrid as a Model Context Protocol server over stdio.

The server owns one spatial index and one placement engine for its lifetime
and exposes them as cellgrid_* tools. With --metrics-addr it also serves
Prometheus metrics at /metrics.

Examples:
  cellgrid mcp-server
  cellgrid mcp-server --metrics-addr :2112 --audit-dir ~/.cellgrid`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Addr, _ = cmd.Flags().GetString("metrics-addr")
			}
			auditDir, _ := cmd.Flags().GetString("audit-dir")

			logger := newLogger(cmd, cfg)

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			observer := metrics.NewObserver(reg)

			ix := grid.New(grid.WithObserver(observer), grid.WithLogger(logger))
			reg.MustRegister(metrics.NewIndexCollector(ix))

			engine, decisions := newEngine(cfg, logger, layout.WithObserver(observer))
			defer decisions.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:           "cellgrid",
				Version:        version,
				Index:          ix,
				Engine:         engine,
				DrainThreshold: &cfg.Pending.DrainThreshold,
				AuditDir:       auditDir,
				Logger:         logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				defer cancel()
				return server.Run(gctx)
			})
			if cfg.Metrics.Addr != "" {
				g.Go(func() error {
					return serveMetrics(gctx, cfg.Metrics.Addr, reg, logger)
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().String("metrics-addr", "", "Listen address for Prometheus /metrics (e.g. :2112); empty disables")
	cmd.Flags().String("audit-dir", "", "Directory for the tool-call audit log; empty disables")

	return cmd
}

// serveMetrics serves reg at /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("serving metrics", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
