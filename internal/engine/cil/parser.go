package cil

import (
	"bufio"
	"cilscan/internal/core/errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const maxLineBytes = 16 * 1024 * 1024

// FileParser holds the type table of one disassembly listing. The listing is
// scanned when the parser is created; afterwards it is read-only.
type FileParser struct {
	path  string
	types map[string]*TypeRecord
}

type scopeEntry struct {
	depth  int
	record *TypeRecord
}

type scanState struct {
	path      string
	registrar Registrar
	depth     int
	stack     []scopeEntry
	types     map[string]*TypeRecord
}

// NewFileParser opens and scans the listing at path. Types are registered
// with registrar under the listing's absolute path.
func NewFileParser(path string, registrar Registrar) (*FileParser, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	f, err := os.Open(absPath)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "open listing"), errors.CtxPath, path)
	}
	defer f.Close()
	return Parse(f, absPath, registrar)
}

// Parse scans an already opened listing. The caller keeps ownership of r.
func Parse(r io.Reader, path string, registrar Registrar) (*FileParser, error) {
	st := &scanState{
		path:      path,
		registrar: registrar,
		types:     make(map[string]*TypeRecord),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNum := 0
	for scanner.Scan() {
		if err := st.scanLine(scanner.Text(), lineNum); err != nil {
			return nil, err
		}
		lineNum++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read listing"), errors.CtxPath, path)
	}

	if st.depth != 0 {
		de := &errors.DomainError{Code: errors.CodeTruncatedInput, Message: "listing seems to be truncated"}
		return nil, de.WithContext(errors.CtxPath, path).
			WithContext(errors.CtxLine, lineNum).
			WithContext("open_scopes", st.depth)
	}

	if len(st.stack) > 0 {
		slog.Debug("declarations without a body", "path", path, "count", len(st.stack))
	}
	return &FileParser{path: path, types: st.types}, nil
}

// stripLine trims the line and cuts it at the first // comment.
func stripLine(raw string) string {
	line := strings.TrimSpace(raw)
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	return line
}

func (s *scanState) scanLine(raw string, lineNum int) error {
	line := stripLine(raw)
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, declarationMarker) {
		s.declare(line, lineNum)
	}
	return s.track(line, lineNum)
}

func (s *scanState) declare(line string, lineNum int) {
	generics := ParseGenericDeclaration(line)
	isInterface := false
	for _, token := range Split(line, ' ') {
		if token == interfaceKeyword {
			isInterface = true
			continue
		}
		if isReservedModifier(token) {
			continue
		}

		outer := ""
		if n := len(s.stack); n > 0 && s.stack[n-1].depth == s.depth-1 {
			outer = s.stack[n-1].record.UniqueName()
		}
		rec := newTypeRecord(token, outer, lineNum, generics, isInterface)
		if s.registrar != nil {
			s.registrar.RegisterType(rec.UniqueName(), s.path)
		}
		s.stack = append(s.stack, scopeEntry{depth: s.depth, record: rec})
		return
	}
}

func (s *scanState) track(line string, lineNum int) error {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '{':
			s.depth++
		case '}':
			if s.depth == 0 {
				de := &errors.DomainError{Code: errors.CodeStackUnderrun, Message: "stack underrun"}
				return de.WithContext(errors.CtxPath, s.path).WithContext(errors.CtxLine, lineNum)
			}
			s.depth--
			n := len(s.stack)
			if n == 0 || s.stack[n-1].depth != s.depth {
				continue
			}
			rec := s.stack[n-1].record
			s.stack = s.stack[:n-1]
			rec.close(lineNum + 1)
			if prev, ok := s.types[rec.UniqueName()]; ok {
				slog.Warn("duplicate type declaration", "path", s.path, "type", rec.UniqueName(), "previous_line", prev.StartLine(), "line", rec.StartLine())
			}
			s.types[rec.UniqueName()] = rec
		}
	}
	return nil
}

func (p *FileParser) Path() string { return p.path }

func (p *FileParser) Len() int { return len(p.types) }

// Types returns every closed type ordered by start line.
func (p *FileParser) Types() []*TypeRecord {
	out := make([]*TypeRecord, 0, len(p.types))
	for _, rec := range p.types {
		out = append(out, rec)
	}
	sortRecords(out)
	return out
}

// Lookup finds a type by its exact unique name.
func (p *FileParser) Lookup(uniqueName string) (*TypeRecord, bool) {
	rec, ok := p.types[uniqueName]
	return rec, ok
}

// NestedTypes returns the types declared directly inside uniqueName.
func (p *FileParser) NestedTypes(uniqueName string) []*TypeRecord {
	var out []*TypeRecord
	for _, rec := range p.types {
		if rec.DeclaringType() == uniqueName {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out
}

// Infos converts the table into serializable rows.
func (p *FileParser) Infos() []TypeInfo {
	recs := p.Types()
	out := make([]TypeInfo, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Info(p.path))
	}
	return out
}

func sortRecords(recs []*TypeRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].StartLine() != recs[j].StartLine() {
			return recs[i].StartLine() < recs[j].StartLine()
		}
		return recs[i].UniqueName() < recs[j].UniqueName()
	})
}
