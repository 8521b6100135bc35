package app

import (
	"cilscan/internal/core/errors"
	"cilscan/internal/core/ports"
	"cilscan/internal/engine/cil"
	"cilscan/internal/engine/graph"
	"cilscan/internal/shared/observability"
	"cilscan/internal/shared/util"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

type fileOutcome struct {
	path  string
	infos []cil.TypeInfo
	err   error
}

// ScanDirectories lists the listings under paths, honoring the configured
// extension filter and exclude patterns. Roots that are files are always kept.
func (a *App) ScanDirectories(paths []string) ([]string, error) {
	var files []string
	for _, root := range absPaths(paths) {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat scan path %q: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && util.MatchesAny(a.excludeDirs, path) {
					return filepath.SkipDir
				}
				return nil
			}
			if a.isListing(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return dedupe(files), nil
}

func (a *App) isListing(path string) bool {
	if !a.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	return !util.MatchesAny(a.excludeFiles, path)
}

// RunScan parses every listing under req.Paths (or the configured scan paths)
// and rebuilds the index for them. Listings that fail to parse are reported
// in the result and dropped from the index; they do not abort the scan.
func (a *App) RunScan(ctx context.Context, req ports.ScanRequest) (ports.ScanResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.RunScan")
	defer span.End()

	roots := req.Paths
	if len(roots) == 0 {
		roots = a.Config.ScanPaths
	}
	files, err := a.ScanDirectories(roots)
	if err != nil {
		return ports.ScanResult{}, errors.AddContext(err, errors.CtxOperation, "scan_directories")
	}

	a.scanMu.Lock()
	defer a.scanMu.Unlock()

	result := ports.ScanResult{ID: uuid.NewString(), StartedAt: time.Now()}
	outcomes, err := a.parseFiles(ctx, files)
	if err != nil {
		return ports.ScanResult{}, err
	}

	seen := make(map[string]bool, len(outcomes))
	for _, out := range outcomes {
		seen[out.path] = true
		result.FilesScanned++
		if out.err != nil {
			result.Failures = append(result.Failures, failureFor(out))
			a.forgetFile(out.path)
			continue
		}
		a.Graph.AddFile(out.path, out.infos)
		result.Types += len(out.infos)
	}

	absRoots := absPaths(roots)
	for _, path := range a.Graph.GetAllFiles() {
		if seen[path] || !util.UnderAnyRoot(path, absRoots) {
			continue
		}
		a.forgetFile(path)
		result.Removed = append(result.Removed, path)
	}

	if a.store != nil {
		if err := a.store.SyncFromGraph(a.Graph, absRoots); err != nil {
			return result, fmt.Errorf("sync symbol store: %w", err)
		}
	}

	result.Duration = time.Since(result.StartedAt)
	a.finishScan(result, "full")
	span.SetAttributes(
		attribute.String("scan.id", result.ID),
		attribute.Int("scan.files", result.FilesScanned),
		attribute.Int("scan.types", result.Types),
		attribute.Int("scan.failures", len(result.Failures)),
	)
	return result, nil
}

// parseFiles scans listings in parallel. Each listing gets its own parser;
// only the registry is shared.
func (a *App) parseFiles(ctx context.Context, files []string) ([]fileOutcome, error) {
	outcomes := make([]fileOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.Performance.Workers)
	for i, path := range files {
		g.Go(func() error {
			if err := a.limiter.Wait(gctx, 1); err != nil {
				return err
			}
			outcomes[i] = a.parseFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (a *App) parseFile(path string) fileOutcome {
	a.Registry.Forget(path)
	start := time.Now()
	p, err := cil.NewFileParser(path, a.Registry)
	observability.ParsingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ParseFailuresTotal.WithLabelValues(string(errors.CodeOf(err))).Inc()
		slog.Warn("failed to parse listing", "path", path, "error", err)
		return fileOutcome{path: path, err: err}
	}
	observability.FilesParsedTotal.Inc()
	slog.Debug("parsed listing", "path", path, "types", p.Len())
	return fileOutcome{path: path, infos: p.Infos()}
}

// forgetFile drops path from the in-memory index and the registry.
func (a *App) forgetFile(path string) {
	a.Graph.RemoveFile(path)
	a.Registry.Forget(path)
}

func (a *App) finishScan(result ports.ScanResult, mode string) {
	observability.ScanDuration.WithLabelValues(mode).Observe(result.Duration.Seconds())
	observability.TypesDeclared.Set(float64(a.Graph.TypeCount()))

	if a.store != nil {
		run := graph.ScanRun{
			ID:        result.ID,
			StartedAt: result.StartedAt,
			Duration:  result.Duration,
			Files:     result.FilesScanned,
			Types:     result.Types,
			Failures:  len(result.Failures),
		}
		if err := a.store.RecordScan(run); err != nil {
			slog.Warn("failed to record scan", "id", result.ID, "error", err)
		}
	}
	slog.Info("scan finished",
		"mode", mode,
		"id", result.ID,
		"files", result.FilesScanned,
		"types", result.Types,
		"failures", len(result.Failures),
		"duration", result.Duration,
	)
}

func failureFor(out fileOutcome) ports.FileFailure {
	f := ports.FileFailure{
		Path:    out.path,
		Code:    string(errors.CodeOf(out.err)),
		Message: out.err.Error(),
	}
	if line, ok := errors.LineOf(out.err); ok {
		f.Line = &line
	}
	return f
}

func absPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		out = append(out, abs)
	}
	return out
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i > 0 && s == sorted[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}
