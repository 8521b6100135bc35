package app

import (
	"cilscan/internal/core/ports"
	"cilscan/internal/core/watcher"
	"cilscan/internal/shared/observability"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// ProcessChanges re-scans changed listings and drops deleted ones.
func (a *App) ProcessChanges(ctx context.Context, paths []string) (ports.ScanResult, error) {
	_, span := observability.Tracer.Start(ctx, "app.ProcessChanges")
	defer span.End()

	a.scanMu.Lock()
	defer a.scanMu.Unlock()

	result := ports.ScanResult{ID: uuid.NewString(), StartedAt: time.Now()}
	for _, path := range absPaths(paths) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			a.forgetFile(path)
			if err := a.deleteStored(path); err != nil {
				return result, err
			}
			result.Removed = append(result.Removed, path)
			continue
		}
		if !a.isListing(path) {
			continue
		}

		out := a.parseFile(path)
		result.FilesScanned++
		if out.err != nil {
			result.Failures = append(result.Failures, failureFor(out))
			a.forgetFile(path)
			if err := a.deleteStored(path); err != nil {
				return result, err
			}
			continue
		}

		a.Graph.AddFile(path, out.infos)
		result.Types += len(out.infos)
		if a.store != nil {
			if err := a.store.ReplaceFile(path, out.infos); err != nil {
				return result, fmt.Errorf("store %s: %w", path, err)
			}
		}
	}

	result.Duration = time.Since(result.StartedAt)
	a.finishScan(result, "incremental")
	return result, nil
}

func (a *App) deleteStored(path string) error {
	if a.store == nil {
		return nil
	}
	if err := a.store.DeleteFile(path); err != nil {
		return fmt.Errorf("delete stored %s: %w", path, err)
	}
	return nil
}

// StartWatcher keeps the index current until ctx is cancelled or Close is called.
func (a *App) StartWatcher(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		paths = a.Config.ScanPaths
	}
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.Config.Include.Extensions,
		func(changed []string) {
			if _, err := a.ProcessChanges(ctx, changed); err != nil {
				slog.Error("failed to process changes", "error", err)
			}
		},
	)
	if err != nil {
		return err
	}
	a.scanMu.Lock()
	a.activeWatcher = w
	a.scanMu.Unlock()
	return w.Watch(absPaths(paths))
}
