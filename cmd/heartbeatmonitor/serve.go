package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heartbeatmonitor/internal/metrics"
	"heartbeatmonitor/internal/monitor"
	"heartbeatmonitor/internal/server"
	"heartbeatmonitor/internal/storage"
)

type serveOptions struct {
	addr    string
	refresh int
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Rerun detection periodically and serve alerts over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "address for the web server")
	cmd.Flags().IntVar(&opts.refresh, "refresh", 30, "seconds between detection passes")
	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions, opts *serveOptions) error {
	cfg, logger, detector, err := setup(cmd, root)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	if cmd.Flags().Changed("refresh") {
		if opts.refresh <= 0 {
			return errors.New("--refresh must be positive")
		}
		cfg.Server.RefreshSeconds = opts.refresh
	}
	if cfg.EventsFile == storage.StdinPath {
		return errors.New("serve mode needs an events file, not stdin")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return err
	}

	source, err := newSource(cfg, logger)
	if err != nil {
		return err
	}
	mon := monitor.New(cfg.Refresh(), source, detector,
		monitor.WithLogger(logger),
		monitor.WithCollector(collector))
	mon.Start()
	defer mon.Stop()

	srv := server.New(cfg.Server.Addr, mon, registry, cfg.Push(), logger)

	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("heartbeatmonitor listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("events", cfg.EventsFile),
		zap.Duration("interval", cfg.Interval()),
		zap.Int("allowed_misses", cfg.AllowedMisses),
		zap.Duration("refresh", cfg.Refresh()))
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
