// # cmd/cilscan/watch.go
package main

import (
	"cilscan/internal/core/ports"
	"cilscan/internal/shared/observability"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Scan listings and keep the index current as they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := root.cfg
			if cfg.Metrics.Address != "" {
				go func() {
					if err := observability.ServeMetrics(ctx, cfg.Metrics.Address); err != nil {
						slog.Error("metrics server stopped", "error", err)
					}
				}()
				slog.Info("serving metrics", "address", cfg.Metrics.Address)
			}

			a, err := root.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.RunScan(ctx, ports.ScanRequest{Paths: args})
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), result)

			if err := a.StartWatcher(ctx, args); err != nil {
				return err
			}
			slog.Info("watching for changes", "types", len(a.Types()))

			<-ctx.Done()
			slog.Info("shutting down")
			return nil
		},
	}
}
