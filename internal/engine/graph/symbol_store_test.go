package graph

import (
	"cilscan/internal/engine/cil"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteSymbolStore_ReplaceLookupAndDelete(t *testing.T) {
	store, err := OpenSQLiteSymbolStore(filepath.Join(t.TempDir(), "types.db"), "proj-a")
	if err != nil {
		t.Fatalf("open sqlite symbol store: %v", err)
	}
	defer store.Close()

	infos := sampleTypes("a.il")
	infos[0].Generics = cil.GenericDeclarationList{{Name: "T", Variance: cil.Covariant, Constraints: []string{"class X"}}}
	infos[1].IsInterface = true
	if err := store.ReplaceFile("a.il", infos); err != nil {
		t.Fatalf("replace file: %v", err)
	}

	records := store.Lookup("Outer")
	if len(records) != 1 {
		t.Fatalf("expected one lookup match, got %d", len(records))
	}
	if len(records[0].Generics) != 1 || records[0].Generics[0].Name != "T" || records[0].Generics[0].Variance != cil.Covariant {
		t.Fatalf("expected generics to round-trip, got %+v", records[0].Generics)
	}

	inner := store.Lookup("Outer$Inner")
	if len(inner) != 1 || !inner[0].IsInterface || inner[0].DeclaringType != "Outer" || inner[0].EndLine != 5 {
		t.Fatalf("unexpected inner record %+v", inner)
	}

	fileTypes, err := store.FileTypes("a.il")
	if err != nil {
		t.Fatalf("file types: %v", err)
	}
	if len(fileTypes) != 2 || fileTypes[0].UniqueName != "Outer" {
		t.Fatalf("unexpected file types %+v", fileTypes)
	}

	if err := store.ReplaceFile("a.il", infos[:1]); err != nil {
		t.Fatalf("replace file again: %v", err)
	}
	if got := store.Lookup("Outer$Inner"); len(got) != 0 {
		t.Fatalf("expected stale nested type to be removed, got %d", len(got))
	}

	if err := store.DeleteFile("a.il"); err != nil {
		t.Fatalf("delete file: %v", err)
	}
	if got := store.Lookup("Outer"); len(got) != 0 {
		t.Fatalf("expected lookup to be empty after delete, got %d", len(got))
	}
}

func TestSQLiteSymbolStore_ProjectIsolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.db")
	storeA, err := OpenSQLiteSymbolStore(path, "proj-a")
	if err != nil {
		t.Fatalf("open store A: %v", err)
	}
	defer storeA.Close()

	storeB, err := OpenSQLiteSymbolStore(path, "proj-b")
	if err != nil {
		t.Fatalf("open store B: %v", err)
	}
	defer storeB.Close()

	if err := storeA.ReplaceFile("a.il", sampleTypes("a.il")); err != nil {
		t.Fatalf("replace in store A: %v", err)
	}
	if got := storeB.Lookup("Outer"); len(got) != 0 {
		t.Fatalf("expected project-isolated lookup to be empty for store B, got %d", len(got))
	}
}

func TestSQLiteSymbolStore_SyncFromGraphAndPrune(t *testing.T) {
	store, err := OpenSQLiteSymbolStore(filepath.Join(t.TempDir(), "types.db"), "")
	if err != nil {
		t.Fatalf("open sqlite symbol store: %v", err)
	}
	defer store.Close()

	g := NewGraph()
	g.AddFile("a.il", sampleTypes("a.il"))
	g.AddFile("b.il", []cil.TypeInfo{{UniqueName: "B", SimpleName: "B", SourcePath: "b.il", EndLine: 3}})
	if err := store.SyncFromGraph(g, nil); err != nil {
		t.Fatalf("sync graph: %v", err)
	}
	if got := store.Lookup("B"); len(got) != 1 {
		t.Fatalf("expected B after sync, got %d", len(got))
	}

	g.RemoveFile("b.il")
	if err := store.SyncFromGraph(g, nil); err != nil {
		t.Fatalf("sync pruned graph: %v", err)
	}
	if got := store.Lookup("B"); len(got) != 0 {
		t.Fatalf("expected B to be pruned, got %d", len(got))
	}

	if err := store.SyncFromGraph(NewGraph(), nil); err != nil {
		t.Fatalf("sync empty graph: %v", err)
	}
	if got := store.Lookup("Outer"); len(got) != 0 {
		t.Fatalf("expected all types pruned, got %d", len(got))
	}
}

func TestSQLiteSymbolStore_SyncFromGraphKeepsListingsOutsideRoots(t *testing.T) {
	store, err := OpenSQLiteSymbolStore(filepath.Join(t.TempDir(), "types.db"), "")
	if err != nil {
		t.Fatalf("open sqlite symbol store: %v", err)
	}
	defer store.Close()

	rootA := filepath.Join("proj", "a")
	rootB := filepath.Join("proj", "b")
	fileA := filepath.Join(rootA, "A.il")
	staleA := filepath.Join(rootA, "Old.il")
	fileB := filepath.Join(rootB, "B.il")
	sibling := filepath.Join("proj", "ab", "C.il")
	for path, name := range map[string]string{fileA: "A", staleA: "Old", fileB: "B", sibling: "C"} {
		if err := store.ReplaceFile(path, []cil.TypeInfo{{UniqueName: name, SimpleName: name, SourcePath: path, EndLine: 2}}); err != nil {
			t.Fatalf("replace %s: %v", path, err)
		}
	}

	g := NewGraph()
	g.AddFile(fileA, []cil.TypeInfo{{UniqueName: "A", SimpleName: "A", SourcePath: fileA, EndLine: 2}})
	if err := store.SyncFromGraph(g, []string{rootA}); err != nil {
		t.Fatalf("sync graph: %v", err)
	}

	if got := store.Lookup("Old"); len(got) != 0 {
		t.Fatalf("expected stale listing under root to be pruned, got %d", len(got))
	}
	for _, name := range []string{"A", "B", "C"} {
		if got := store.Lookup(name); len(got) != 1 {
			t.Fatalf("expected %s to survive, got %d", name, len(got))
		}
	}
}

func TestSQLiteSymbolStore_RecordScan(t *testing.T) {
	store, err := OpenSQLiteSymbolStore(filepath.Join(t.TempDir(), "types.db"), "proj")
	if err != nil {
		t.Fatalf("open sqlite symbol store: %v", err)
	}
	defer store.Close()

	older := ScanRun{ID: "a", StartedAt: time.Unix(1000, 0), Duration: 1500 * time.Millisecond, Files: 2, Types: 5}
	newer := ScanRun{ID: "b", StartedAt: time.Unix(2000, 0), Files: 3, Types: 7, Failures: 1}
	if err := store.RecordScan(older); err != nil {
		t.Fatalf("record older: %v", err)
	}
	if err := store.RecordScan(newer); err != nil {
		t.Fatalf("record newer: %v", err)
	}

	runs, err := store.RecentScans(5)
	if err != nil {
		t.Fatalf("recent scans: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "b" || runs[1].Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected scans %+v", runs)
	}
}

func TestOpenSQLiteSymbolStore_RejectsDirectory(t *testing.T) {
	if _, err := OpenSQLiteSymbolStore(t.TempDir(), "proj"); err == nil {
		t.Fatal("expected directory path to be rejected")
	}
}
