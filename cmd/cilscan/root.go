// # cmd/cilscan/root.go
package main

import (
	"cilscan/internal/core/app"
	"cilscan/internal/core/config"
	"cilscan/internal/shared/observability"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "./cilscan.toml"

const tracingFlushTimeout = 5 * time.Second

type tracingInit func(context.Context, observability.TracingOptions) (func(context.Context) error, error)

type rootOptions struct {
	configPath string
	verbose    bool
	cfg        *config.Config

	initTracing tracingInit
	stopTracing func(context.Context) error
}

func newRootOptions() *rootOptions {
	return &rootOptions{initTracing: observability.InitTracing}
}

func newRootCmd() *cobra.Command {
	return newRootCommand(newRootOptions())
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cilscan",
		Short: "Index type declarations in CIL disassembly listings",
		Long: `cilscan reads .il listings produced by an IL disassembler and builds a
table of the declared types: unique names (Outer$Inner for nested types),
generic parameters, class or interface kind and source line spans.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if err := setupLogging(cmd.ErrOrStderr(), cfg.Log.Level, opts.verbose); err != nil {
				return err
			}
			opts.cfg = cfg

			stop, err := opts.initTracing(cmd.Context(), observability.TracingOptions{
				Endpoint: cfg.Tracing.Endpoint,
				Insecure: cfg.Tracing.Insecure,
			})
			if err != nil {
				return err
			}
			opts.stopTracing = stop
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return opts.flushTracing()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newScanCmd(opts),
		newLookupCmd(opts),
		newWatchCmd(opts),
		newHistoryCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// run executes cmd and flushes traces whether or not the command succeeded.
func run(cmd *cobra.Command, opts *rootOptions) error {
	err := cmd.Execute()
	if flushErr := opts.flushTracing(); flushErr != nil {
		slog.Warn("failed to flush traces", "error", flushErr)
	}
	return err
}

// flushTracing stops the tracer provider once; later calls are no-ops.
func (o *rootOptions) flushTracing() error {
	stop := o.stopTracing
	if stop == nil {
		return nil
	}
	o.stopTracing = nil
	ctx, cancel := context.WithTimeout(context.Background(), tracingFlushTimeout)
	defer cancel()
	return stop(ctx)
}

// loadConfig falls back to defaults only when the implicit config file is absent.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "path", path)
		return config.Default(), nil
	}
	return nil, err
}

func setupLogging(w io.Writer, level string, verbose bool) error {
	logLevel, err := config.ParseLevel(level)
	if err != nil {
		return err
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return nil
}

func (o *rootOptions) newApp() (*app.App, error) {
	return app.New(o.cfg)
}
