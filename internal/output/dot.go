// # internal/output/dot.go
package output

import (
	"cilscan/internal/engine/cil"
	"cilscan/internal/engine/graph"
	"fmt"
	"strings"
)

// DOTGenerator renders the nesting tree as a Graphviz digraph. Types
// declared by more than one listing are highlighted.
type DOTGenerator struct {
	graph *graph.Graph
}

func NewDOTGenerator(g *graph.Graph) *DOTGenerator {
	return &DOTGenerator{graph: g}
}

func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph nesting {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.0;\n")
	buf.WriteString("  nodesep=0.4;\n\n")

	nodes := uniqueTypes(d.graph)
	duplicates := d.graph.Duplicates()

	for _, info := range nodes {
		label := fmt.Sprintf("%s\\n%s", escapeDOT(info.SimpleName), info.Kind())
		attrs := fmt.Sprintf("label=\"%s\", color=\"darkslategrey\"", label)
		switch {
		case len(duplicates[info.UniqueName]) > 1:
			attrs = fmt.Sprintf("label=\"%s\\n(%d listings)\", fillcolor=\"mistyrose\", color=\"red\", style=\"rounded,filled\", penwidth=2.0",
				label, len(duplicates[info.UniqueName]))
		case info.IsInterface:
			attrs += ", style=\"rounded,dashed\""
		}
		buf.WriteString(fmt.Sprintf("  \"%s\" [%s];\n", escapeDOT(info.UniqueName), attrs))
	}
	buf.WriteString("\n")

	for _, info := range nodes {
		for _, nested := range d.graph.NestedTypes(info.UniqueName) {
			buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"forestgreen\"];\n",
				escapeDOT(info.UniqueName), escapeDOT(nested)))
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

// uniqueTypes returns one TypeInfo per unique name in first-seen order.
func uniqueTypes(g *graph.Graph) []cil.TypeInfo {
	all := g.AllTypes()
	seen := make(map[string]bool, len(all))
	out := make([]cil.TypeInfo, 0, len(all))
	for _, info := range all {
		if seen[info.UniqueName] {
			continue
		}
		seen[info.UniqueName] = true
		out = append(out, info)
	}
	return out
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
