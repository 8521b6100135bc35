// # cmd/cilscan/scan.go
package main

import (
	"bytes"
	"cilscan/internal/core/app"
	"cilscan/internal/core/ports"
	"cilscan/internal/output"
	"cilscan/internal/shared/util"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

const (
	formatTable   = "table"
	formatJSON    = "json"
	formatTSV     = "tsv"
	formatDOT     = "dot"
	formatMermaid = "mermaid"
)

var scanFormats = []string{formatTable, formatJSON, formatTSV, formatDOT, formatMermaid}

func newScanCmd(root *rootOptions) *cobra.Command {
	var format string
	var strict bool
	var outputPath string

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan listings and print the declared types",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormat(format) {
				return fmt.Errorf("unsupported format %q (want one of %s)", format, strings.Join(scanFormats, ", "))
			}

			a, err := root.newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.RunScan(cmd.Context(), ports.ScanRequest{Paths: args})
			if err != nil {
				return err
			}

			if outputPath == "" {
				if err := writeScan(cmd.OutOrStdout(), format, a, result); err != nil {
					return err
				}
			} else {
				var buf bytes.Buffer
				if err := writeScan(&buf, format, a, result); err != nil {
					return err
				}
				if err := util.WriteFileWithDirs(outputPath, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outputPath, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s output to %s\n", format, outputPath)
			}

			if strict && len(result.Failures) > 0 {
				return fmt.Errorf("%d listing(s) failed to scan", len(result.Failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: "+strings.Join(scanFormats, "|"))
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any listing fails to scan")
	return cmd
}

func validFormat(format string) bool {
	for _, f := range scanFormats {
		if f == format {
			return true
		}
	}
	return false
}

func writeScan(out io.Writer, format string, a *app.App, result ports.ScanResult) error {
	var (
		text string
		err  error
	)
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(scanReport{Result: result, Types: a.Types()})
	case formatTSV:
		text, err = output.NewTSVGenerator(a.Graph).Generate()
	case formatDOT:
		text, err = output.NewDOTGenerator(a.Graph).Generate()
	case formatMermaid:
		text, err = output.NewMermaidGenerator(a.Graph).Generate()
	default:
		renderTypes(out, a.Types())
		renderFailures(out, result.Failures)
		renderSummary(out, result)
		return nil
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, text)
	return err
}
