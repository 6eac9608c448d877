package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"datalab/internal/archive"
	"datalab/internal/config"
	"datalab/internal/dataset"
	apperrors "datalab/internal/errors"
	"datalab/internal/infrastructure"
)

// app is the state shared by all subcommands, built once flags are parsed
type app struct {
	configFile  string
	dataset     string
	dataDir     string
	metricsFile string
	trace       bool
	logLevel    string

	cfg      *config.Config
	source   dataset.Source
	logger   *slog.Logger
	metrics  *infrastructure.Metrics
	shutdown func(context.Context) error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "datalab",
		Short:         "datalab fetches, cleans, splits and describes tabular datasets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "YAML config file (default datalab.yaml or configs/datalab.yaml when present)")
	flags.StringVar(&a.dataset, "dataset", "", fmt.Sprintf("dataset to work on %v", dataset.SourceNames()))
	flags.StringVar(&a.dataDir, "data-dir", "", "root directory for downloaded and processed data")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write run metrics in Prometheus text format to this file")
	flags.BoolVar(&a.trace, "trace", false, "print OpenTelemetry spans to stderr")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newFetchCmd(a),
		newPreprocessCmd(a),
		newSplitCmd(a),
		newShowCmd(a),
		newInfoCmd(a),
		newRunCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and starts logging,
// tracing and metrics
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configFile != "" {
		cfg, err = config.LoadFrom(".env", a.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return apperrors.NewConfigError("failed to load configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("dataset") {
		cfg.Dataset = a.dataset
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("metrics-file") {
		cfg.Telemetry.MetricsFile = a.metricsFile
	}
	if flags.Changed("trace") {
		cfg.Telemetry.Trace = a.trace
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return apperrors.NewConfigError("failed to initialize logger", err)
	}
	a.logger = logger

	src, err := dataset.LookupSource(cfg.Dataset)
	if err != nil {
		return err
	}
	src.Timeout = cfg.FetchTimeout
	src.RemoveArchive = cfg.RemoveArchive
	a.source = src

	ctx := infrastructure.EnsureRunID(cmd.Context())
	cmd.SetContext(ctx)

	a.metrics = infrastructure.NewMetrics()
	if cfg.Telemetry.Trace {
		shutdown, err := infrastructure.InitializeTracing(ctx, cmd.ErrOrStderr(), logger)
		if err != nil {
			return err
		}
		a.shutdown = shutdown
	}

	logger.DebugContext(ctx, "Configuration loaded",
		slog.String("command", cmd.Name()),
		slog.String("dataset", cfg.Dataset),
		slog.String("data_dir", cfg.DataDir),
		slog.Bool("trace", cfg.Telemetry.Trace))
	return nil
}

// close flushes spans and writes the metrics file
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
		}
		a.shutdown = nil
	}
	if a.cfg != nil {
		if err := a.metrics.WriteTextfile(a.cfg.Telemetry.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) loader() *dataset.Loader {
	fetcher := archive.NewFetcher(a.source.Timeout, a.logger, a.metrics)
	return dataset.NewLoader(a.source, fetcher, archive.NewExtractor(a.logger), a.logger)
}

func (a *app) store() *dataset.Store {
	return dataset.NewStore(a.logger)
}

func (a *app) experiment() dataset.ExperimentConfig {
	return dataset.ExperimentConfig{
		TestSize:    a.cfg.Split.TestSize,
		RandomState: a.cfg.Split.RandomState,
	}
}

// execute runs the command tree with args and returns the process exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if err == nil {
		return 0
	}

	logger := a.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, "Command failed",
		slog.String("error", err.Error()),
		slog.String("error_type", string(apperrors.TypeOf(err))))
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

// ExecuteContext runs datalab with the process arguments and returns the exit code
func ExecuteContext(ctx context.Context) int {
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	infrastructure.CloseLogFile()
	return code
}
