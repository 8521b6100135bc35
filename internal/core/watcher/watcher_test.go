package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, []string{".il"}, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadPattern(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, []string{"[bad"}, nil, nil, func([]string) {}); err == nil {
		t.Fatal("expected invalid glob to fail")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(100*time.Millisecond, []string{"obj"}, []string{"*.g.il"}, []string{".il"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	listing := filepath.Join(tmpDir, "App.il")
	if err := os.WriteFile(listing, []byte(".class App\n{\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == listing {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected to find %s in changed files %v", listing, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for file change event")
	}

	// Excluded by glob and by extension.
	_ = os.WriteFile(filepath.Join(tmpDir, "App.g.il"), []byte("generated"), 0o644)
	_ = os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("notes"), 0o644)

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			base := filepath.Base(p)
			if base == "App.g.il" || base == "notes.txt" {
				t.Errorf("Excluded file %s triggered event", base)
			}
		}
	case <-time.After(500 * time.Millisecond):
		// Expected
	}
}

func TestShouldExcludeFile(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, []string{"*.g.il"}, []string{"IL"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	cases := map[string]bool{
		"src/App.il":   false,
		"src/App.IL":   false,
		"src/App.g.il": true,
		"src/App.cs":   true,
	}
	for path, want := range cases {
		if got := w.shouldExcludeFile(path); got != want {
			t.Errorf("shouldExcludeFile(%q) = %v, want %v", path, got, want)
		}
	}
}
