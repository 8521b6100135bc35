// # cmd/cilscan/output.go
package main

import (
	"cilscan/internal/core/ports"
	"cilscan/internal/engine/cil"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

type scanReport struct {
	Result ports.ScanResult `json:"result"`
	Types  []cil.TypeInfo   `json:"types"`
}

func renderTypes(w io.Writer, infos []cil.TypeInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "No types declared.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Kind", "Type", "Generics", "Lines", "File"})
	table.SetAutoWrapText(false)
	for _, info := range infos {
		table.Append([]string{
			info.Kind(),
			info.UniqueName,
			info.Generics.String(),
			fmt.Sprintf("%d-%d", info.StartLine, info.EndLine),
			info.SourcePath,
		})
	}
	table.Render()
}

func renderFailures(w io.Writer, failures []ports.FileFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(w, "\nFailed listings:")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Code", "Line", "Error"})
	table.SetAutoWrapText(false)
	for _, f := range failures {
		line := ""
		if f.Line != nil {
			line = strconv.Itoa(*f.Line)
		}
		table.Append([]string{f.Path, f.Code, line, f.Message})
	}
	table.Render()
}

func renderSummary(w io.Writer, result ports.ScanResult) {
	fmt.Fprintf(w, "Scanned %d listing(s): %d type(s), %d failure(s) in %s\n",
		result.FilesScanned, result.Types, len(result.Failures), result.Duration.Round(time.Millisecond))
}
