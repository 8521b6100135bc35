package app

import (
	"cilscan/internal/core/config"
	"cilscan/internal/core/errors"
	"cilscan/internal/core/ports"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outerListing = `.class public auto ansi Outer
{
  .class nested public Inner
  {
  }
}
`

func writeListing(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestScanDirectories_FiltersAndExcludes(t *testing.T) {
	dir := t.TempDir()
	keep := writeListing(t, dir, "lib/App.il", outerListing)
	writeListing(t, dir, "lib/App.g.il", outerListing)
	writeListing(t, dir, "obj/Temp.il", outerListing)
	writeListing(t, dir, "lib/readme.txt", "text")

	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Exclude.Dirs = []string{"obj"}
		cfg.Exclude.Files = []string{"*.g.il"}
	})

	files, err := a.ScanDirectories([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, files)

	// An explicit file root is kept regardless of filters.
	txt := filepath.Join(dir, "lib/readme.txt")
	files, err = a.ScanDirectories([]string{txt, txt})
	require.NoError(t, err)
	assert.Equal(t, []string{txt}, files)
}

func TestRunScan_IndexesAndReportsFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeListing(t, dir, "Good.il", outerListing)
	bad := writeListing(t, dir, "Bad.il", "}\n")
	cut := writeListing(t, dir, "Cut.il", ".class Cut {\n")

	a := newTestApp(t, nil)
	res, err := a.RunScan(context.Background(), ports.ScanRequest{Paths: []string{dir}})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 3, res.FilesScanned)
	assert.Equal(t, 2, res.Types)
	require.Len(t, res.Failures, 2)

	byPath := map[string]ports.FileFailure{}
	for _, f := range res.Failures {
		byPath[f.Path] = f
	}
	assert.Equal(t, string(errors.CodeStackUnderrun), byPath[bad].Code)
	require.NotNil(t, byPath[bad].Line)
	assert.Equal(t, 0, *byPath[bad].Line)
	assert.NotNil(t, byPath[cut].Line)
	assert.Equal(t, string(errors.CodeTruncatedInput), byPath[cut].Code)

	infos := a.Lookup("Outer$Inner")
	require.Len(t, infos, 1)
	assert.Equal(t, good, infos[0].SourcePath)
	assert.Equal(t, "Outer", infos[0].DeclaringType)

	src, ok := a.Registry.SourceOf("Outer$Inner")
	require.True(t, ok)
	assert.Equal(t, good, src)
	_, ok = a.Registry.SourceOf("Cut")
	assert.False(t, ok, "failed listings must not leave registrations behind")
}

func TestRunScan_RemovesVanishedListings(t *testing.T) {
	dir := t.TempDir()
	writeListing(t, dir, "A.il", ".class A\n{\n}\n")
	b := writeListing(t, dir, "B.il", ".class B\n{\n}\n")

	a := newTestApp(t, nil)
	_, err := a.RunScan(context.Background(), ports.ScanRequest{Paths: []string{dir}})
	require.NoError(t, err)
	require.Len(t, a.Lookup("B"), 1)

	require.NoError(t, os.Remove(b))
	res, err := a.RunScan(context.Background(), ports.ScanRequest{Paths: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, []string{b}, res.Removed)
	assert.Empty(t, a.Lookup("B"))
	assert.Len(t, a.Types(), 1)
}

func TestRunScan_PersistsToStore(t *testing.T) {
	dir := t.TempDir()
	writeListing(t, dir, "A.il", outerListing)
	dbPath := filepath.Join(t.TempDir(), "types.db")

	a := newTestApp(t, func(cfg *config.Config) {
		cfg.DB.Enabled = true
		cfg.DB.Path = dbPath
	})
	_, err := a.RunScan(context.Background(), ports.ScanRequest{Paths: []string{dir}})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	// A fresh app with an empty index falls back to the store.
	fresh := newTestApp(t, func(cfg *config.Config) {
		cfg.DB.Enabled = true
		cfg.DB.Path = dbPath
	})
	infos := fresh.Lookup("Outer$Inner")
	require.Len(t, infos, 1)
	assert.Equal(t, 2, infos[0].StartLine)
	assert.Equal(t, 5, infos[0].EndLine)
}

func TestRunScan_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeListing(t, dir, "A.il", outerListing)

	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Performance.MaxFilesPerSecond = 0.001
		cfg.Performance.Workers = 1
	})
	// Drain the single burst token so the next wait blocks.
	require.NoError(t, a.limiter.Wait(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := a.RunScan(ctx, ports.ScanRequest{Paths: []string{dir}})
	require.Error(t, err)
}

func TestProcessChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeListing(t, dir, "A.il", ".class A\n{\n}\n")

	a := newTestApp(t, nil)
	res, err := a.ProcessChanges(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Types)
	require.Len(t, a.Lookup("A"), 1)

	writeListing(t, dir, "A.il", ".class Renamed\n{\n}\n")
	_, err = a.ProcessChanges(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Empty(t, a.Lookup("A"))
	require.Len(t, a.Lookup("Renamed"), 1)
	_, ok := a.Registry.SourceOf("A")
	assert.False(t, ok)

	writeListing(t, dir, "A.il", "}\n")
	res, err = a.ProcessChanges(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Empty(t, a.Lookup("Renamed"))

	require.NoError(t, os.Remove(path))
	res, err = a.ProcessChanges(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, res.Removed)

	ignored := writeListing(t, dir, "notes.txt", "}")
	res, err = a.ProcessChanges(context.Background(), []string{ignored})
	require.NoError(t, err)
	assert.Equal(t, 0, res.FilesScanned)
}

func TestProcessChanges_SharedTypeNameKeepsRegistryInSync(t *testing.T) {
	root := t.TempDir()
	first := writeListing(t, root, "a/A.il", ".class Foo\n{\n}\n")

	a := newTestApp(t, nil)
	_, err := a.RunScan(context.Background(), ports.ScanRequest{Paths: []string{filepath.Join(root, "a")}})
	require.NoError(t, err)

	second := writeListing(t, root, "b/B.il", ".class Foo\n{\n}\n")
	_, err = a.ProcessChanges(context.Background(), []string{second})
	require.NoError(t, err)
	require.Len(t, a.Lookup("Foo"), 2)
	src, ok := a.Registry.SourceOf("Foo")
	require.True(t, ok)
	assert.Equal(t, second, src)

	require.NoError(t, os.Remove(second))
	_, err = a.ProcessChanges(context.Background(), []string{second})
	require.NoError(t, err)

	infos := a.Lookup("Foo")
	require.Len(t, infos, 1)
	assert.Equal(t, first, infos[0].SourcePath)
	src, ok = a.Registry.SourceOf("Foo")
	require.True(t, ok, "registry must still know the surviving declaration")
	assert.Equal(t, first, src)

	// A listing that stops parsing is dropped the same way.
	writeListing(t, root, "b/B.il", ".class Foo\n{\n}\n")
	_, err = a.ProcessChanges(context.Background(), []string{second})
	require.NoError(t, err)
	writeListing(t, root, "b/B.il", ".class Foo\n{\n")
	res, err := a.ProcessChanges(context.Background(), []string{second})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	src, ok = a.Registry.SourceOf("Foo")
	require.True(t, ok)
	assert.Equal(t, first, src)
	assert.Equal(t, []string{first}, a.Registry.SourcesOf("Foo"))
}

func TestFileTypes_FallsBackToStore(t *testing.T) {
	dir := t.TempDir()
	path := writeListing(t, dir, "A.il", outerListing)
	dbPath := filepath.Join(t.TempDir(), "types.db")
	withDB := func(cfg *config.Config) {
		cfg.DB.Enabled = true
		cfg.DB.Path = dbPath
	}

	a := newTestApp(t, withDB)
	_, err := a.RunScan(context.Background(), ports.ScanRequest{Paths: []string{dir}})
	require.NoError(t, err)
	infos, err := a.FileTypes(path)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.NoError(t, a.Close())

	fresh := newTestApp(t, withDB)
	infos, err = fresh.FileTypes(path)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "Outer", infos[0].UniqueName)
	assert.Equal(t, "Outer$Inner", infos[1].UniqueName)

	infos, err = newTestApp(t, nil).FileTypes(path)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestClose_ConcurrentWithProcessChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeListing(t, dir, "A.il", outerListing)
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.DB.Enabled = true
		cfg.DB.Path = filepath.Join(t.TempDir(), "types.db")
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.ProcessChanges(context.Background(), []string{path})
		}()
	}
	require.NoError(t, a.Close())
	wg.Wait()

	// Changes after Close still update the in-memory index.
	_, err := a.ProcessChanges(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, a.Lookup("Outer"), 1)
	require.NoError(t, a.Close())
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}
