package graph

import (
	"cilscan/internal/engine/cil"
	"cilscan/internal/shared/util"
	"sort"
	"sync"
)

// Graph indexes the types of many listings by unique name and by declaring
// type. A unique name may be declared by more than one listing.
type Graph struct {
	mu sync.RWMutex

	files    map[string][]cil.TypeInfo          // path -> types
	types    map[string]map[string]cil.TypeInfo // unique name -> path -> type
	children map[string]map[string]bool         // declaring type -> nested unique names
}

func NewGraph() *Graph {
	return &Graph{
		files:    make(map[string][]cil.TypeInfo),
		types:    make(map[string]map[string]cil.TypeInfo),
		children: make(map[string]map[string]bool),
	}
}

// AddFile replaces the types contributed by path.
func (g *Graph) AddFile(path string, infos []cil.TypeInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.files[path]; exists {
		g.removeFileLocked(path)
	}

	stored := make([]cil.TypeInfo, len(infos))
	copy(stored, infos)
	g.files[path] = stored

	for _, info := range stored {
		byPath, ok := g.types[info.UniqueName]
		if !ok {
			byPath = make(map[string]cil.TypeInfo)
			g.types[info.UniqueName] = byPath
		}
		byPath[path] = info

		if info.DeclaringType != "" {
			kids, ok := g.children[info.DeclaringType]
			if !ok {
				kids = make(map[string]bool)
				g.children[info.DeclaringType] = kids
			}
			kids[info.UniqueName] = true
		}
	}
}

func (g *Graph) RemoveFile(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeFileLocked(path)
}

func (g *Graph) removeFileLocked(path string) {
	infos, ok := g.files[path]
	if !ok {
		return
	}
	delete(g.files, path)

	for _, info := range infos {
		byPath := g.types[info.UniqueName]
		delete(byPath, path)
		if len(byPath) > 0 {
			continue
		}
		delete(g.types, info.UniqueName)
		if kids := g.children[info.DeclaringType]; kids != nil {
			delete(kids, info.UniqueName)
			if len(kids) == 0 {
				delete(g.children, info.DeclaringType)
			}
		}
	}
}

func (g *Graph) FileCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.files)
}

func (g *Graph) TypeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, infos := range g.files {
		n += len(infos)
	}
	return n
}

// GetAllFiles returns the indexed listing paths in sorted order.
func (g *Graph) GetAllFiles() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return util.SortedStringKeys(g.files)
}

func (g *Graph) FileTypes(path string) []cil.TypeInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	infos := g.files[path]
	out := make([]cil.TypeInfo, len(infos))
	copy(out, infos)
	return out
}

// Lookup returns every declaration of uniqueName, ordered by source path.
func (g *Graph) Lookup(uniqueName string) []cil.TypeInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	byPath := g.types[uniqueName]
	out := make([]cil.TypeInfo, 0, len(byPath))
	for _, path := range util.SortedStringKeys(byPath) {
		out = append(out, byPath[path])
	}
	return out
}

// NestedTypes returns the unique names declared directly inside uniqueName.
func (g *Graph) NestedTypes(uniqueName string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return util.SortedStringKeys(g.children[uniqueName])
}

// Duplicates maps unique names declared by more than one listing to those listings.
func (g *Graph) Duplicates() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string][]string)
	for name, byPath := range g.types {
		if len(byPath) < 2 {
			continue
		}
		out[name] = util.SortedStringKeys(byPath)
	}
	return out
}

// AllTypes returns every indexed type ordered by path then start line.
func (g *Graph) AllTypes() []cil.TypeInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]cil.TypeInfo, 0)
	for _, path := range util.SortedStringKeys(g.files) {
		out = append(out, g.files[path]...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SourcePath != out[j].SourcePath {
			return out[i].SourcePath < out[j].SourcePath
		}
		return out[i].StartLine < out[j].StartLine
	})
	return out
}
