// Package parsing implements the per-language parser adapters of
// spec.md §4.C: given UTF-8 source, a FileID and a shared SymbolID
// counter, each adapter walks a tree-sitter parse tree and emits
// symbols, imports and unresolved raw edges. Adapters never resolve
// names to IDs; that is the resolution engine's job (internal/resolve,
// internal/lang).
package parsing

import (
	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// Result is everything one file's parse produces.
type Result struct {
	Symbols []symbol.Symbol
	Imports []symbol.Import
	Edges   []symbol.RawEdge
}

// Adapter is the per-language parser contract of spec.md §4.C.
// Implementations must tolerate partial/invalid input: on parse
// failure they return whatever was extracted, never panic.
type Adapter interface {
	// Name identifies the language for logging and LanguageID lookup.
	Name() string
	// Extensions lists the file extensions (including the leading dot)
	// this adapter claims, e.g. [".go"].
	Extensions() []string
	// Parse walks source and emits symbols/imports/raw edges. fileID
	// tags every emitted symbol; counter mints each symbol's ID.
	Parse(source []byte, fileID ids.FileID, counter *ids.Counter) (Result, error)
}

// Registry maps file extensions to the adapter that handles them.
type Registry struct {
	byExt map[string]Adapter
}

// NewRegistry builds a registry from a set of adapters, indexing each
// by every extension it claims. A later adapter silently wins a
// duplicate extension, which should never happen for the built-in set.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byExt: make(map[string]Adapter)}
	for _, a := range adapters {
		for _, ext := range a.Extensions() {
			r.byExt[ext] = a
		}
	}
	return r
}

// For returns the adapter registered for ext, if any.
func (r *Registry) For(ext string) (Adapter, bool) {
	a, ok := r.byExt[ext]
	return a, ok
}

// Extensions returns every extension the registry has an adapter for,
// used by the walker to decide which files are worth reading at all.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	return out
}

// Default builds the registry wired to every grammar bundled with this
// module. Kotlin and GDScript have Behavior implementations (internal/
// lang) but no tree-sitter grammar in this module's dependency set, so
// they carry no Adapter here; files in those languages are only
// reachable via a future grammar addition.
func Default() *Registry {
	return NewRegistry(
		NewGoAdapter(),
		NewTypeScriptAdapter(),
		NewPythonAdapter(),
		NewRustAdapter(),
		NewPHPAdapter(),
		NewCSharpAdapter(),
		NewCppAdapter(),
	)
}
