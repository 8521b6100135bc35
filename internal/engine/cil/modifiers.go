package cil

const (
	declarationMarker = ".class"
	interfaceKeyword  = "interface"
)

// reservedModifiers are the .class header keywords that can precede a type name.
var reservedModifiers = map[string]struct{}{
	declarationMarker: {},
	interfaceKeyword:  {},
	"extends":         {},

	// visibility
	"public":      {},
	"private":     {},
	"nested":      {},
	"family":      {},
	"assembly":    {},
	"famandassem": {},
	"famorassem":  {},

	"sealed":   {},
	"abstract": {},

	// layout
	"auto":       {},
	"sequential": {},
	"explicit":   {},

	// string format
	"ansi":     {},
	"unicode":  {},
	"autochar": {},

	"beforefieldinit": {},
	"serializable":    {},
	"specialname":     {},
	"rtspecialname":   {},
	"import":          {},
}

func isReservedModifier(token string) bool {
	_, ok := reservedModifiers[token]
	return ok
}
