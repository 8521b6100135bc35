// # internal/output/tsv.go
package output

import (
	"cilscan/internal/engine/graph"
	"fmt"
	"strings"
)

type TSVGenerator struct {
	graph *graph.Graph
}

func NewTSVGenerator(g *graph.Graph) *TSVGenerator {
	return &TSVGenerator{graph: g}
}

func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Type\tKind\tDeclaringType\tGenerics\tStartLine\tEndLine\tFile\n")
	for _, info := range t.graph.AllTypes() {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			info.UniqueName,
			info.Kind(),
			info.DeclaringType,
			strings.Join(info.Generics.Names(), ","),
			info.StartLine,
			info.EndLine,
			info.SourcePath,
		))
	}

	return buf.String(), nil
}
