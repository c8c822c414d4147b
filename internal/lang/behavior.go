// Package lang implements the per-language behavior dispatch surface
// the indexer consults for visibility mapping, module-path formation,
// import matching, external-symbol minting and resolution-context
// construction (spec.md §4.D).
package lang

import (
	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// ExternalSymbolStore is the minimal surface CreateExternalSymbol
// needs from the document store: look an external symbol up by its
// minted name, or allocate and persist a new one.
type ExternalSymbolStore interface {
	FindExternalSymbol(languageID ids.LanguageID, module, name string) (symbol.Symbol, bool)
	PutExternalSymbol(sym symbol.Symbol) error
	NextSymbolID() ids.SymbolID
}

// Behavior is the per-language rule set the indexer and resolver
// consult. One implementation exists per supported language; all are
// registered in the process-wide Registry.
type Behavior interface {
	// Name is the language's canonical identifier, e.g. "rust", "go".
	Name() string

	// Extensions lists the file extensions (with leading dot) this
	// language owns, e.g. []string{".rs"}.
	Extensions() []string

	// ConfigureSymbol sets sym.ModulePath and derives sym.Visibility
	// from the declaration's signature/modifiers. sig is the raw
	// signature text the parser adapter extracted (used to detect
	// modifiers like "pub", "export", a leading underscore, etc).
	ConfigureSymbol(sym *symbol.Symbol, modulePath string, sig string)

	// ModuleSeparator is the language's module-path separator, e.g.
	// "::" for Rust/C, "." for most others, "/" for GDScript.
	ModuleSeparator() string

	// FormatModulePath joins a base module path and a declared name
	// using ModuleSeparator.
	FormatModulePath(base, name string) string

	// ModulePathFromFile derives a file's module path from its
	// project-relative path, applying language-specific collapsing
	// rules (e.g. Rust's lib.rs/main.rs -> "crate", a/mod.rs -> "a").
	ModulePathFromFile(relPath string) string

	// CreateResolutionContext returns a fresh per-file scope
	// container seeded with nothing; the indexer populates it.
	CreateResolutionContext(fileID ids.FileID) *resolve.Context

	// CreateInheritanceResolver returns a language-specific
	// inheritance/trait store. Languages without subtyping return a
	// resolver that always reports no relationships.
	CreateInheritanceResolver() *resolve.InheritanceResolver

	// ImportMatchesSymbol reports whether an import statement's path
	// resolves to a symbol living at symbolModulePath, given the
	// module path of the file doing the importing (needed to resolve
	// relative imports like "./p" or "../p").
	ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool

	// IsResolvableSymbol filters out symbols that can never be the
	// target of a cross-file reference (e.g. bare parameters).
	// Languages that hoist (TS/JS, Python def/class) must return true
	// for functions/classes regardless of source order.
	IsResolvableSymbol(sym symbol.Symbol) bool

	// ResolveExternalCallTarget maps an unresolved name to a
	// (module, member) pair using the file's tracked imports. Returns
	// ok=false when the language has no notion of external module
	// boundaries or the name isn't traceable to an import.
	ResolveExternalCallTarget(toName string, imports []symbol.Import) (module, member string, ok bool)

	// CreateExternalSymbol idempotently creates (or looks up) a
	// synthetic symbol representing an out-of-index reference.
	CreateExternalSymbol(store ExternalSymbolStore, module, name string) symbol.Symbol

	// InheritanceRelationName is the RelationKind raw edges use for
	// "extends/implements" in this language (Extends for struct
	// embedding languages, Implements for interface-style ones).
	InheritanceRelationName() symbol.RelationKind

	// MapRelationship translates a raw edge kind name (as produced by
	// the parser adapter, e.g. "embeds", "calls", "defines_on") into
	// the shared RelationKind vocabulary.
	MapRelationship(raw string) symbol.RelationKind
}
