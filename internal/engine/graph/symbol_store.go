package graph

import (
	"cilscan/internal/engine/cil"
	"cilscan/internal/shared/util"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// ScanRun is one row of scan history.
type ScanRun struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Files     int
	Types     int
	Failures  int
}

type SQLiteSymbolStore struct {
	db         *sql.DB
	projectKey string
	lookupStmt *sql.Stmt

	cacheMu     sync.RWMutex
	lookupCache map[string][]cil.TypeInfo
}

func OpenSQLiteSymbolStore(path, projectKey string) (*SQLiteSymbolStore, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("symbol store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("symbol store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create symbol store directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite symbol store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite symbol store %q: %w", cleanPath, err)
	}

	if err := migrateSymbolSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	key := strings.TrimSpace(projectKey)
	if key == "" {
		key = "default"
	}

	lookupStmt, err := db.Prepare(`SELECT ` + typeColumns + `
FROM types
WHERE project_key = ? AND unique_name = ?
ORDER BY file_path`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare lookup stmt: %w", err)
	}

	return &SQLiteSymbolStore{
		db:          db,
		projectKey:  key,
		lookupStmt:  lookupStmt,
		lookupCache: make(map[string][]cil.TypeInfo),
	}, nil
}

const typeColumns = `unique_name, simple_name, declaring_type, file_path, start_line, end_line, is_interface, generics`

func (s *SQLiteSymbolStore) clearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.lookupCache = make(map[string][]cil.TypeInfo)
}

func (s *SQLiteSymbolStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if s.lookupStmt != nil {
		_ = s.lookupStmt.Close()
	}
	return s.db.Close()
}

// ReplaceFile swaps every stored type of path for infos in one transaction.
func (s *SQLiteSymbolStore) ReplaceFile(path string, infos []cil.TypeInfo) error {
	if s == nil || s.db == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin symbol upsert tx: %w", err)
	}
	if err := replaceFileRows(tx, s.projectKey, path, infos); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit symbol upsert tx: %w", err)
	}
	s.clearCache()
	return nil
}

func (s *SQLiteSymbolStore) DeleteFile(path string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if _, err := s.db.Exec(`DELETE FROM types WHERE project_key = ? AND file_path = ?`, s.projectKey, path); err != nil {
		return fmt.Errorf("delete file types: %w", err)
	}
	s.clearCache()
	return nil
}

// SyncFromGraph makes the stored listings under roots mirror g. Stored
// listings outside every root are left alone; no roots means the whole project.
func (s *SQLiteSymbolStore) SyncFromGraph(g *Graph, roots []string) error {
	if s == nil || s.db == nil || g == nil {
		return nil
	}

	paths := g.GetAllFiles()
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin symbol sync tx: %w", err)
	}
	if err := pruneStale(tx, s.projectKey, paths, roots); err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, path := range paths {
		if err := replaceFileRows(tx, s.projectKey, path, g.FileTypes(path)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit symbol sync tx: %w", err)
	}
	s.clearCache()
	return nil
}

func (s *SQLiteSymbolStore) Lookup(uniqueName string) []cil.TypeInfo {
	if s == nil || s.db == nil || s.lookupStmt == nil {
		return nil
	}
	key := strings.TrimSpace(uniqueName)
	if key == "" {
		return nil
	}

	s.cacheMu.RLock()
	if res, ok := s.lookupCache[key]; ok {
		s.cacheMu.RUnlock()
		return res
	}
	s.cacheMu.RUnlock()

	rows, err := s.lookupStmt.Query(s.projectKey, key)
	if err != nil {
		return nil
	}
	res := scanTypeRows(rows)

	s.cacheMu.Lock()
	s.lookupCache[key] = res
	s.cacheMu.Unlock()

	return res
}

// FileTypes returns the stored types of one listing ordered by start line.
func (s *SQLiteSymbolStore) FileTypes(path string) ([]cil.TypeInfo, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	rows, err := s.db.Query(`SELECT `+typeColumns+`
FROM types
WHERE project_key = ? AND file_path = ?
ORDER BY start_line, unique_name`, s.projectKey, path)
	if err != nil {
		return nil, fmt.Errorf("query file types: %w", err)
	}
	return scanTypeRows(rows), nil
}

func (s *SQLiteSymbolStore) RecordScan(run ScanRun) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO scans (id, project_key, started_at, duration_ms, files, types, failures)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, s.projectKey, run.StartedAt.Unix(), run.Duration.Milliseconds(), run.Files, run.Types, run.Failures)
	if err != nil {
		return fmt.Errorf("record scan: %w", err)
	}
	return nil
}

// RecentScans returns up to limit scans, newest first.
func (s *SQLiteSymbolStore) RecentScans(limit int) ([]ScanRun, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`SELECT id, started_at, duration_ms, files, types, failures
FROM scans
WHERE project_key = ?
ORDER BY started_at DESC, id
LIMIT ?`, s.projectKey, limit)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var out []ScanRun
	for rows.Next() {
		var (
			run        ScanRun
			startedAt  int64
			durationMS int64
		)
		if err := rows.Scan(&run.ID, &startedAt, &durationMS, &run.Files, &run.Types, &run.Failures); err != nil {
			return nil, fmt.Errorf("scan scans row: %w", err)
		}
		run.StartedAt = time.Unix(startedAt, 0)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, run)
	}
	return out, rows.Err()
}

func replaceFileRows(tx *sql.Tx, projectKey, path string, infos []cil.TypeInfo) error {
	if _, err := tx.Exec(`DELETE FROM types WHERE project_key = ? AND file_path = ?`, projectKey, path); err != nil {
		return fmt.Errorf("delete file types: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO types (project_key, file_path, unique_name, simple_name, declaring_type, start_line, end_line, is_interface, generics)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare type insert: %w", err)
	}
	defer stmt.Close()

	for _, info := range infos {
		generics, err := json.Marshal(info.Generics)
		if err != nil {
			return fmt.Errorf("marshal generics for %s: %w", info.UniqueName, err)
		}
		if info.Generics == nil {
			generics = []byte("[]")
		}
		if _, err := stmt.Exec(projectKey, path, info.UniqueName, info.SimpleName, info.DeclaringType, info.StartLine, info.EndLine, info.IsInterface, string(generics)); err != nil {
			return fmt.Errorf("insert type %s: %w", info.UniqueName, err)
		}
	}
	return nil
}

// pruneStale deletes stored listings under roots that are not in keep.
func pruneStale(tx *sql.Tx, projectKey string, keep, roots []string) error {
	rows, err := tx.Query(`SELECT DISTINCT file_path FROM types WHERE project_key = ?`, projectKey)
	if err != nil {
		return fmt.Errorf("query stored paths: %w", err)
	}
	kept := make(map[string]bool, len(keep))
	for _, path := range keep {
		kept[path] = true
	}
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan stored path: %w", err)
		}
		if !kept[path] && (len(roots) == 0 || util.UnderAnyRoot(path, roots)) {
			stale = append(stale, path)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("read stored paths: %w", err)
	}
	_ = rows.Close()

	for _, path := range stale {
		if _, err := tx.Exec(`DELETE FROM types WHERE project_key = ? AND file_path = ?`, projectKey, path); err != nil {
			return fmt.Errorf("delete stale types: %w", err)
		}
	}
	return nil
}

func scanTypeRows(rows *sql.Rows) []cil.TypeInfo {
	defer rows.Close()

	out := make([]cil.TypeInfo, 0)
	for rows.Next() {
		var (
			info     cil.TypeInfo
			generics string
		)
		if err := rows.Scan(
			&info.UniqueName,
			&info.SimpleName,
			&info.DeclaringType,
			&info.SourcePath,
			&info.StartLine,
			&info.EndLine,
			&info.IsInterface,
			&generics,
		); err != nil {
			continue
		}
		if generics != "" && generics != "[]" {
			var list cil.GenericDeclarationList
			if err := json.Unmarshal([]byte(generics), &list); err == nil {
				info.Generics = list
			}
		}
		out = append(out, info)
	}
	return out
}
