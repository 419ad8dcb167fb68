package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heartbeatmonitor/internal/config"
	"heartbeatmonitor/internal/logging"
	"heartbeatmonitor/internal/monitor"
	"heartbeatmonitor/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	eventsFile string
	format     string
	interval   int
	misses     int
	outputFile string
	pretty     bool
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "heartbeatmonitor",
		Short:        "Detect services that missed consecutive expected heartbeats",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDetect(cmd, opts)
		},
	}

	defaults := config.DefaultConfig()
	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to configuration file (YAML)")
	pf.StringVarP(&opts.eventsFile, "file", "f", defaults.EventsFile, "path to events JSON (\"-\" for stdin)")
	pf.StringVar(&opts.format, "format", defaults.EventsFormat, "events encoding (auto, json, ndjson)")
	pf.IntVarP(&opts.interval, "interval", "i", defaults.IntervalSeconds, "expected interval seconds")
	pf.IntVarP(&opts.misses, "misses", "m", defaults.AllowedMisses, "allowed consecutive misses")
	pf.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", defaults.LogFormat, "log format (console, json)")

	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "write alerts to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", defaults.Pretty, "indent JSON output")

	cmd.AddCommand(newServeCommand(opts))
	return cmd
}

// loadConfig reads the config file and applies flags that were set explicitly.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.EventsFile = opts.eventsFile
	}
	if flags.Changed("format") {
		cfg.EventsFormat = opts.format
	}
	if flags.Changed("interval") {
		cfg.IntervalSeconds = opts.interval
	}
	if flags.Changed("misses") {
		cfg.AllowedMisses = opts.misses
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if flags.Changed("output") {
		cfg.OutputFile = opts.outputFile
	}
	if flags.Changed("pretty") {
		cfg.Pretty = opts.pretty
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// setup returns the validated config, a logger and a detector shared by all commands.
func setup(cmd *cobra.Command, opts *rootOptions) (config.Config, *zap.Logger, *monitor.Detector, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("initialise logger: %w", err)
	}

	detector, err := monitor.NewDetector(cfg.Interval(), cfg.AllowedMisses)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	if cfg.AllowedMisses <= 0 {
		logger.Warn("allowed_misses is not positive, alerting is disabled", zap.Int("allowed_misses", cfg.AllowedMisses))
	}
	return cfg, logger, detector, nil
}

// newSource opens the configured events file, honouring an explicit format.
func newSource(cfg config.Config, logger *zap.Logger) (*storage.FileSource, error) {
	source := storage.NewFileSource(cfg.EventsFile, logger)
	if cfg.EventsFormat == config.FormatAuto {
		return source, nil
	}
	format, err := storage.ParseFormat(cfg.EventsFormat)
	if err != nil {
		return nil, err
	}
	return source.WithFormat(format), nil
}

func runDetect(cmd *cobra.Command, opts *rootOptions) error {
	cfg, logger, detector, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	source, err := newSource(cfg, logger)
	if err != nil {
		return err
	}
	source.WithStdin(cmd.InOrStdin())
	mon := monitor.New(cfg.Refresh(), source, detector, monitor.WithLogger(logger))

	report, err := mon.RunOnce(cmd.Context())
	if err != nil {
		return err
	}

	if cfg.OutputFile != "" {
		if err := storage.SaveAlerts(cfg.OutputFile, report.Alerts, cfg.Pretty); err != nil {
			return err
		}
		logger.Info("alerts written", zap.String("path", cfg.OutputFile), zap.Int("alerts", len(report.Alerts)))
		return nil
	}
	return storage.EncodeAlerts(cmd.OutOrStdout(), report.Alerts, cfg.Pretty)
}
