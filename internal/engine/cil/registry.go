package cil

import (
	"cilscan/internal/shared/util"
	"slices"
	"sync"
)

// Registrar records which source file declared a unique type name.
type Registrar interface {
	RegisterType(uniqueName, sourcePath string)
}

// AssemblyRegistry maps unique type names to the listings that declared them.
// It is safe for concurrent use by parsers running in parallel.
type AssemblyRegistry struct {
	mu sync.RWMutex
	// Declaring listings per name in registration order; the last one is current.
	types map[string][]string
}

func NewAssemblyRegistry() *AssemblyRegistry {
	return &AssemblyRegistry{types: make(map[string][]string)}
}

// RegisterType is idempotent per (name, path); the latest registration of a
// name becomes its current source.
func (r *AssemblyRegistry) RegisterType(uniqueName, sourcePath string) {
	if r == nil || uniqueName == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	paths := slices.DeleteFunc(r.types[uniqueName], func(p string) bool { return p == sourcePath })
	r.types[uniqueName] = append(paths, sourcePath)
}

// SourceOf returns the listing that most recently declared uniqueName.
func (r *AssemblyRegistry) SourceOf(uniqueName string) (string, bool) {
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := r.types[uniqueName]
	if len(paths) == 0 {
		return "", false
	}
	return paths[len(paths)-1], true
}

// SourcesOf returns every listing declaring uniqueName, oldest registration first.
func (r *AssemblyRegistry) SourcesOf(uniqueName string) []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.types[uniqueName])
}

// Forget drops sourcePath from every name it declared. Names still declared
// by another listing fall back to that listing. It returns how many names
// sourcePath was registered for.
func (r *AssemblyRegistry) Forget(sourcePath string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for name, paths := range r.types {
		kept := slices.DeleteFunc(paths, func(p string) bool { return p == sourcePath })
		if len(kept) == len(paths) {
			continue
		}
		removed++
		if len(kept) == 0 {
			delete(r.types, name)
			continue
		}
		r.types[name] = kept
	}
	return removed
}

func (r *AssemblyRegistry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

func (r *AssemblyRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return util.SortedStringKeys(r.types)
}
