package app

import (
	"cilscan/internal/core/config"
	"cilscan/internal/core/ports"
	"cilscan/internal/core/watcher"
	"cilscan/internal/engine/cil"
	"cilscan/internal/engine/graph"
	"cilscan/internal/shared/util"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gobwas/glob"
)

// App owns the type index for a set of listings and keeps it in sync with
// the optional symbol store.
type App struct {
	Config   *config.Config
	Registry *cil.AssemblyRegistry
	Graph    *graph.Graph

	store        ports.SymbolStore
	limiter      *util.Limiter
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	extensions   map[string]bool

	// Serializes scans so graph, registry and store see one writer at a time.
	// Also guards store and activeWatcher against Close.
	scanMu        sync.Mutex
	activeWatcher *watcher.Watcher
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	a := &App{
		Config:   cfg,
		Registry: cil.NewAssemblyRegistry(),
		Graph:    graph.NewGraph(),
		limiter:  util.NewLimiter(cfg.Performance.MaxFilesPerSecond, cfg.Performance.Workers),
	}

	var err error
	if a.excludeDirs, err = util.CompileGlobs(cfg.Exclude.Dirs); err != nil {
		return nil, fmt.Errorf("invalid exclude dir pattern: %w", err)
	}
	if a.excludeFiles, err = util.CompileGlobs(cfg.Exclude.Files); err != nil {
		return nil, fmt.Errorf("invalid exclude file pattern: %w", err)
	}
	a.extensions = util.ExtensionSet(cfg.Include.Extensions)

	if cfg.DB.Enabled {
		store, err := graph.OpenSQLiteSymbolStore(cfg.DB.Path, cfg.DB.ProjectKey)
		if err != nil {
			return nil, err
		}
		a.store = store
	}
	return a, nil
}

// Close stops the watcher and releases the store. It waits for a scan in
// progress; later change batches only update the in-memory index.
func (a *App) Close() error {
	a.scanMu.Lock()
	defer a.scanMu.Unlock()

	var firstErr error
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			firstErr = err
		}
		a.activeWatcher = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.store = nil
	}
	return firstErr
}

// Lookup returns every known declaration of uniqueName, consulting the
// symbol store when the in-memory index has none.
func (a *App) Lookup(uniqueName string) []cil.TypeInfo {
	a.scanMu.Lock()
	defer a.scanMu.Unlock()

	if infos := a.Graph.Lookup(uniqueName); len(infos) > 0 {
		return infos
	}
	if a.store != nil {
		return a.store.Lookup(uniqueName)
	}
	return nil
}

// FileTypes returns the types declared by the listing at path, consulting
// the symbol store when the listing is not indexed in memory.
func (a *App) FileTypes(path string) ([]cil.TypeInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}

	a.scanMu.Lock()
	defer a.scanMu.Unlock()

	if infos := a.Graph.FileTypes(abs); len(infos) > 0 {
		return infos, nil
	}
	if a.store != nil {
		return a.store.FileTypes(abs)
	}
	return nil, nil
}

// Types returns the whole index ordered by listing and start line.
func (a *App) Types() []cil.TypeInfo {
	return a.Graph.AllTypes()
}
