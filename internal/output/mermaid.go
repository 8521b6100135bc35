package output

import (
	"cilscan/internal/engine/graph"
	"fmt"
	"strings"
	"unicode"
)

// MermaidGenerator renders the index as a Mermaid class diagram with
// composition edges from each type to the types nested in it.
type MermaidGenerator struct {
	graph *graph.Graph
}

func NewMermaidGenerator(g *graph.Graph) *MermaidGenerator {
	return &MermaidGenerator{graph: g}
}

func (m *MermaidGenerator) Generate() (string, error) {
	var b strings.Builder
	b.WriteString("classDiagram\n")

	nodes := uniqueTypes(m.graph)
	names := make([]string, 0, len(nodes))
	for _, info := range nodes {
		names = append(names, info.UniqueName)
	}
	ids := makeMermaidIDs(names)
	duplicates := m.graph.Duplicates()

	for _, info := range nodes {
		id := ids[info.UniqueName]
		b.WriteString(fmt.Sprintf("  class %s[\"%s\"]\n", id, escapeMermaidLabel(info.UniqueName)))
		if info.IsInterface {
			b.WriteString(fmt.Sprintf("  <<interface>> %s\n", id))
		}
		if n := len(duplicates[info.UniqueName]); n > 1 {
			b.WriteString(fmt.Sprintf("  note for %s \"declared in %d listings\"\n", id, n))
		}
	}

	for _, info := range nodes {
		for _, nested := range m.graph.NestedTypes(info.UniqueName) {
			nestedID, ok := ids[nested]
			if !ok {
				continue
			}
			b.WriteString(fmt.Sprintf("  %s *-- %s\n", ids[info.UniqueName], nestedID))
		}
	}

	return b.String(), nil
}

func sanitizeMermaidID(name string) string {
	if name == "" {
		return "t"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "t_" + out
	}
	return out
}

func makeMermaidIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeMermaidID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
