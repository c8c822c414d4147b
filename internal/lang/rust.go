package lang

import (
	"strings"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// rustBehavior implements spec.md §4.D's Rust row: pub/pub(crate)/
// pub(super) visibility, "::" module paths, a/mod.rs -> "a", and the
// lib.rs/main.rs -> "crate" collapsing noted as a likely bug in §9
// (both collapse to the same path; last one indexed wins).
type rustBehavior struct{}

// NewRustBehavior builds the Rust language behavior.
func NewRustBehavior() Behavior { return rustBehavior{} }

func (rustBehavior) Name() string         { return "rust" }
func (rustBehavior) Extensions() []string { return []string{".rs"} }

func (rustBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string, sig string) {
	sym.ModulePath = modulePath
	switch {
	case hasWordModifier(sig, "pub(crate)"):
		sym.Visibility = symbol.VisibilityCrate
	case hasWordModifier(sig, "pub(super)"):
		sym.Visibility = symbol.VisibilityModule
	case hasWordModifier(sig, "pub"):
		sym.Visibility = symbol.VisibilityPublic
	default:
		sym.Visibility = symbol.VisibilityPrivate
	}
}

func (rustBehavior) ModuleSeparator() string { return "::" }

func (rustBehavior) FormatModulePath(base, name string) string {
	return joinPath(base, name, "::")
}

// ModulePathFromFile strips "src/" and ".rs", then collapses a/mod.rs
// to its directory's path "a" and lib.rs/main.rs to "crate". This is the
// documented bug in §9: a project with both lib.rs and main.rs (a
// crate with both a library and a binary target) silently shares one
// module path for both roots.
func (rustBehavior) ModulePathFromFile(relPath string) string {
	p := strings.TrimPrefix(relPath, "src/")
	p = stripExt(p, ".rs")
	switch {
	case p == "lib", p == "main", strings.HasSuffix(p, "/mod"):
		if strings.HasSuffix(p, "/mod") {
			p = strings.TrimSuffix(p, "/mod")
			return strings.ReplaceAll(p, "/", "::")
		}
		return "crate"
	}
	return strings.ReplaceAll(p, "/", "::")
}

func (rustBehavior) CreateResolutionContext(fileID ids.FileID) *resolve.Context {
	return baseResolutionContext(fileID)
}

func (rustBehavior) CreateInheritanceResolver() *resolve.InheritanceResolver {
	return resolve.NewInheritanceResolver()
}

// ImportMatchesSymbol matches a Rust `use` path against a symbol's
// "::"-separated module path: exact match, or a match on the last
// path segment (use paths are commonly keyed by last segment per
// spec.md §4.E).
func (rustBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	_ = importingModule
	if importPath == symbolModulePath {
		return true
	}
	last := importPath
	if idx := strings.LastIndex(importPath, "::"); idx >= 0 {
		last = importPath[idx+2:]
	}
	symLast := symbolModulePath
	if idx := strings.LastIndex(symbolModulePath, "::"); idx >= 0 {
		symLast = symbolModulePath[idx+2:]
	}
	return last == symLast
}

func (rustBehavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	return sym.Kind != symbol.KindParameter
}

// ResolveExternalCallTarget maps "crate_name::member" or a bare name
// bound by a `use` statement to (crate, member).
func (rustBehavior) ResolveExternalCallTarget(toName string, imports []symbol.Import) (string, string, bool) {
	for _, imp := range imports {
		name := imp.Alias
		if name == "" {
			name = imp.Path
			if idx := strings.LastIndex(name, "::"); idx >= 0 {
				name = name[idx+2:]
			}
		}
		if name == toName {
			return imp.Path, toName, true
		}
	}
	if idx := strings.Index(toName, "::"); idx >= 0 {
		return toName[:idx], toName[idx+2:], true
	}
	return "", "", false
}

func (rustBehavior) CreateExternalSymbol(store ExternalSymbolStore, module, name string) symbol.Symbol {
	if existing, ok := store.FindExternalSymbol(LangRust, module, name); ok {
		return existing
	}
	sym := symbol.Symbol{
		ID: store.NextSymbolID(), Name: name, Kind: externalSymbolKind(),
		ModulePath: module, LanguageID: LangRust,
	}
	_ = store.PutExternalSymbol(sym)
	return sym
}

func (rustBehavior) InheritanceRelationName() symbol.RelationKind {
	return symbol.RelationImplements
}

func (rustBehavior) MapRelationship(raw string) symbol.RelationKind {
	switch raw {
	case "calls":
		return symbol.RelationCalls
	case "impl_trait":
		return symbol.RelationImplements
	case "uses":
		return symbol.RelationUses
	case "defines":
		return symbol.RelationDefines
	default:
		return symbol.RelationReferences
	}
}
