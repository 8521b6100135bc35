package ports

import (
	"cilscan/internal/engine/cil"
	"cilscan/internal/engine/graph"
	"time"
)

// SymbolStore abstracts persistence of scanned type tables.
type SymbolStore interface {
	ReplaceFile(path string, infos []cil.TypeInfo) error
	DeleteFile(path string) error
	SyncFromGraph(g *graph.Graph, roots []string) error
	Lookup(uniqueName string) []cil.TypeInfo
	FileTypes(path string) ([]cil.TypeInfo, error)
	RecordScan(run graph.ScanRun) error
	Close() error
}

// ScanRequest defines a scan operation request for driving adapters.
type ScanRequest struct {
	Paths []string
}

// FileFailure is a listing that could not be scanned.
type FileFailure struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Line    *int   `json:"line,omitempty"` // 0-based; nil when not line specific
	Message string `json:"message"`
}

// ScanResult summarizes a completed scan operation.
type ScanResult struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	FilesScanned int           `json:"files_scanned"`
	Types        int           `json:"types"`
	Failures     []FileFailure `json:"failures,omitempty"`
	Removed      []string      `json:"removed,omitempty"`
}
