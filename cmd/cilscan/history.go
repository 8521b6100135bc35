// # cmd/cilscan/history.go
package main

import (
	"cilscan/internal/core/errors"
	"cilscan/internal/engine/graph"
	"fmt"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scans recorded in the symbol store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			if !cfg.DB.Enabled {
				return errors.New(errors.CodeNotSupported, "scan history requires [db] enabled = true")
			}
			store, err := graph.OpenSQLiteSymbolStore(cfg.DB.Path, cfg.DB.ProjectKey)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.RecentScans(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No scans recorded.")
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"ID", "Started", "Duration", "Files", "Types", "Failures"})
			table.SetAutoWrapText(false)
			for _, run := range runs {
				table.Append([]string{
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					run.Duration.Round(time.Millisecond).String(),
					strconv.Itoa(run.Files),
					strconv.Itoa(run.Types),
					strconv.Itoa(run.Failures),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of scans to list")
	return cmd
}
