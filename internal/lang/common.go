package lang

import (
	"strings"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// LanguageID values, stable for the lifetime of an index since they're
// persisted in the store's symbols/external_symbols tables. They start
// at 1; zero is the unknown-language value.
const (
	LangGo ids.LanguageID = iota + 1
	LangTypeScript
	LangPython
	LangRust
	LangPHP
	LangCSharp
	LangCpp
	LangKotlin
	LangGDScript
)

// nameByID is the inverse of the LanguageID constants above, used to
// resolve a stored symbol's LanguageID back to a Behavior without
// every caller needing its own copy of the id-to-name table.
var nameByID = map[ids.LanguageID]string{
	LangGo:         "go",
	LangTypeScript: "typescript",
	LangPython:     "python",
	LangRust:       "rust",
	LangPHP:        "php",
	LangCSharp:     "csharp",
	LangCpp:        "cpp",
	LangKotlin:     "kotlin",
	LangGDScript:   "gdscript",
}

// Registry maps both language name and file extension to a Behavior.
type Registry struct {
	byName map[string]Behavior
	byExt  map[string]Behavior
}

// NewRegistry indexes the given behaviors by name and extension.
func NewRegistry(behaviors ...Behavior) *Registry {
	r := &Registry{byName: make(map[string]Behavior), byExt: make(map[string]Behavior)}
	for _, b := range behaviors {
		r.byName[b.Name()] = b
		for _, ext := range b.Extensions() {
			r.byExt[ext] = b
		}
	}
	return r
}

// ForExtension returns the Behavior registered for a file extension.
func (r *Registry) ForExtension(ext string) (Behavior, bool) {
	b, ok := r.byExt[ext]
	return b, ok
}

// ForName returns the Behavior registered under a language name.
func (r *Registry) ForName(name string) (Behavior, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// ForLanguageID returns the Behavior registered under a persisted
// LanguageID, for tool-layer code that only has a Symbol's numeric ID
// to work from.
func (r *Registry) ForLanguageID(id ids.LanguageID) (Behavior, bool) {
	name, ok := nameByID[id]
	if !ok {
		return nil, false
	}
	return r.ForName(name)
}

// IDForName is the inverse of ForLanguageID: it maps a language name
// (as accepted by tool inputs, e.g. "go", "rust") back to its
// persisted LanguageID.
func IDForName(name string) (ids.LanguageID, bool) {
	for id, n := range nameByID {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

// Default builds the registry of every Behavior this module ships,
// including Kotlin and GDScript, which carry rules but no parser
// adapter (internal/parsing has no grammar for either — see
// DESIGN.md).
func Default() *Registry {
	return NewRegistry(
		NewGoBehavior(),
		NewTypeScriptBehavior(),
		NewPythonBehavior(),
		NewRustBehavior(),
		NewPHPBehavior(),
		NewCSharpBehavior(),
		NewCppBehavior(),
		NewKotlinBehavior(),
		NewGDScriptBehavior(),
	)
}

// joinPath joins base and name with sep, skipping an empty base.
func joinPath(base, name, sep string) string {
	if base == "" {
		return name
	}
	return base + sep + name
}

// stripExt removes a known extension suffix, if present.
func stripExt(path string, exts ...string) string {
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}

// dotJoinPath converts a slash-separated relative path (extension
// already stripped) into a dot-joined module path, e.g. "a/b/c" ->
// "a.b.c". Used by Python, Kotlin, PHP (PSR-4-ish), C#.
func dotJoinPath(relPath string) string {
	parts := strings.Split(strings.Trim(relPath, "/"), "/")
	return strings.Join(parts, ".")
}

// baseResolutionContext returns a resolve.Context ready for the
// indexer to populate; every language wires its own scope chain on top
// during indexing, so this is identical for all of them today.
func baseResolutionContext(fileID ids.FileID) *resolve.Context {
	return resolve.NewContext(fileID)
}

// hasWordModifier reports whether sig contains modifier as a separate
// token (not a substring of a longer identifier). Every whitespace-
// separated field of sig is checked, including any that follow the
// symbol name.
func hasWordModifier(sig, modifier string) bool {
	fields := strings.Fields(sig)
	for _, f := range fields {
		if f == modifier {
			return true
		}
	}
	return false
}

// externalSymbolKind infers a reasonable Kind for a synthetic external
// symbol; the exact kind rarely matters since externals are opaque
// call/use targets, but KindModule signals "not really resolved" to
// any tool-layer consumer that inspects it.
func externalSymbolKind() symbol.Kind {
	return symbol.KindModule
}
