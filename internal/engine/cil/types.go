package cil

import "strings"

// NestedSeparator joins an enclosing type's unique name with a nested type's simple name.
const NestedSeparator = "$"

type Variance int

const (
	Invariant Variance = iota
	Covariant
	Contravariant
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "+"
	case Contravariant:
		return "-"
	default:
		return ""
	}
}

// GenericParameter describes one entry of a `<...>` list on a .class line.
type GenericParameter struct {
	Name               string   `json:"name"`
	Variance           Variance `json:"variance,omitempty"`
	Constraints        []string `json:"constraints,omitempty"`
	ReferenceType      bool     `json:"reference_type,omitempty"`
	ValueType          bool     `json:"value_type,omitempty"`
	DefaultConstructor bool     `json:"default_constructor,omitempty"`
}

type GenericDeclarationList []GenericParameter

func (l GenericDeclarationList) Names() []string {
	names := make([]string, 0, len(l))
	for _, p := range l {
		names = append(names, p.Name)
	}
	return names
}

func (l GenericDeclarationList) String() string {
	if len(l) == 0 {
		return ""
	}
	parts := make([]string, 0, len(l))
	for _, p := range l {
		parts = append(parts, p.Variance.String()+p.Name)
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func (l GenericDeclarationList) clone() GenericDeclarationList {
	if len(l) == 0 {
		return nil
	}
	out := make(GenericDeclarationList, len(l))
	for i, p := range l {
		p.Constraints = append([]string(nil), p.Constraints...)
		out[i] = p
	}
	return out
}

// TypeRecord is one declared class or interface. Its identity and kind are
// fixed at construction; the end line is set once when its scope closes.
type TypeRecord struct {
	uniqueName    string
	simpleName    string
	declaringType string
	startLine     int
	endLine       int
	closed        bool
	generics      GenericDeclarationList
	isInterface   bool
}

func newTypeRecord(simpleName, declaringType string, startLine int, generics GenericDeclarationList, isInterface bool) *TypeRecord {
	unique := simpleName
	if declaringType != "" {
		unique = declaringType + NestedSeparator + simpleName
	}
	return &TypeRecord{
		uniqueName:    unique,
		simpleName:    simpleName,
		declaringType: declaringType,
		startLine:     startLine,
		endLine:       -1,
		generics:      generics.clone(),
		isInterface:   isInterface,
	}
}

func (r *TypeRecord) UniqueName() string    { return r.uniqueName }
func (r *TypeRecord) SimpleName() string    { return r.simpleName }
func (r *TypeRecord) DeclaringType() string { return r.declaringType }
func (r *TypeRecord) IsNested() bool        { return r.declaringType != "" }
func (r *TypeRecord) StartLine() int        { return r.startLine }
func (r *TypeRecord) IsInterface() bool     { return r.isInterface }
func (r *TypeRecord) IsClosed() bool        { return r.closed }

// EndLine is -1 while the record is still open.
func (r *TypeRecord) EndLine() int { return r.endLine }

// Generics returns a copy of the declared generic parameters.
func (r *TypeRecord) Generics() GenericDeclarationList { return r.generics.clone() }

func (r *TypeRecord) close(endLine int) bool {
	if r.closed {
		return false
	}
	r.endLine = endLine
	r.closed = true
	return true
}

// TypeInfo is the exported, serializable view of a TypeRecord.
type TypeInfo struct {
	UniqueName    string                 `json:"unique_name"`
	SimpleName    string                 `json:"simple_name"`
	DeclaringType string                 `json:"declaring_type,omitempty"`
	SourcePath    string                 `json:"source_path"`
	StartLine     int                    `json:"start_line"`
	EndLine       int                    `json:"end_line"`
	IsInterface   bool                   `json:"is_interface"`
	Generics      GenericDeclarationList `json:"generics,omitempty"`
}

func (r *TypeRecord) Info(sourcePath string) TypeInfo {
	return TypeInfo{
		UniqueName:    r.uniqueName,
		SimpleName:    r.simpleName,
		DeclaringType: r.declaringType,
		SourcePath:    sourcePath,
		StartLine:     r.startLine,
		EndLine:       r.endLine,
		IsInterface:   r.isInterface,
		Generics:      r.generics.clone(),
	}
}

// Kind is "interface" or "class".
func (i TypeInfo) Kind() string {
	if i.IsInterface {
		return "interface"
	}
	return "class"
}
