package lang

import (
	"strings"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// goBehavior implements spec.md §4.D's Go row: visibility is purely
// name-cased (no keyword), package scope + imported packages, and
// structural interface satisfaction rather than nominal implements.
type goBehavior struct{}

// NewGoBehavior builds the Go language behavior.
func NewGoBehavior() Behavior { return goBehavior{} }

func (goBehavior) Name() string         { return "go" }
func (goBehavior) Extensions() []string { return []string{".go"} }

func (goBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string, sig string) {
	sym.ModulePath = modulePath
	name := sym.Name
	if name != "" && strings.ToUpper(name[:1]) == name[:1] {
		sym.Visibility = symbol.VisibilityPublic
	} else {
		sym.Visibility = symbol.VisibilityPrivate
	}
	_ = sig
}

func (goBehavior) ModuleSeparator() string { return "." }

func (goBehavior) FormatModulePath(base, name string) string {
	return joinPath(base, name, ".")
}

func (goBehavior) ModulePathFromFile(relPath string) string {
	dir := relPath
	if idx := strings.LastIndex(relPath, "/"); idx >= 0 {
		dir = relPath[:idx]
	} else {
		dir = "."
	}
	return strings.ReplaceAll(dir, "/", ".")
}

func (goBehavior) CreateResolutionContext(fileID ids.FileID) *resolve.Context {
	return baseResolutionContext(fileID)
}

func (goBehavior) CreateInheritanceResolver() *resolve.InheritanceResolver {
	return resolve.NewInheritanceResolver()
}

// ImportMatchesSymbol matches Go's package-path import model: the
// importing file's resolved package path for an import must equal the
// symbol's module path exactly (Go has no wildcard or relative
// imports).
func (goBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	_ = importingModule
	return importPath == symbolModulePath
}

func (goBehavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	switch sym.Kind {
	case symbol.KindParameter:
		return false
	default:
		return true
	}
}

// ResolveExternalCallTarget maps a bare call target (possibly
// package-qualified as "pkg.Name") to its import. Go has no default
// imports, so an unqualified name never resolves externally here; the
// indexer falls back to same-package lookup instead.
func (goBehavior) ResolveExternalCallTarget(toName string, imports []symbol.Import) (string, string, bool) {
	parts := strings.SplitN(toName, ".", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	pkg, member := parts[0], parts[1]
	for _, imp := range imports {
		alias := imp.Alias
		if alias == "" {
			if idx := strings.LastIndex(imp.Path, "/"); idx >= 0 {
				alias = imp.Path[idx+1:]
			} else {
				alias = imp.Path
			}
		}
		if alias == pkg {
			return imp.Path, member, true
		}
	}
	return "", "", false
}

func (goBehavior) CreateExternalSymbol(store ExternalSymbolStore, module, name string) symbol.Symbol {
	if existing, ok := store.FindExternalSymbol(LangGo, module, name); ok {
		return existing
	}
	sym := symbol.Symbol{
		ID: store.NextSymbolID(), Name: name, Kind: externalSymbolKind(),
		ModulePath: module, LanguageID: LangGo,
	}
	_ = store.PutExternalSymbol(sym)
	return sym
}

func (goBehavior) InheritanceRelationName() symbol.RelationKind {
	return symbol.RelationImplements
}

func (goBehavior) MapRelationship(raw string) symbol.RelationKind {
	switch raw {
	case "calls":
		return symbol.RelationCalls
	case "implements":
		return symbol.RelationImplements
	case "uses":
		return symbol.RelationUses
	case "defines":
		return symbol.RelationDefines
	default:
		return symbol.RelationReferences
	}
}
