package lang

import (
	"strings"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// phpBehavior implements spec.md §4.D's PHP row: default/public,
// protected, private modifiers and namespace "\"-joined module paths
// (rendered with "." here per ModuleSeparator, matching the rest of
// the non-Rust/C languages for path-building consistency).
type phpBehavior struct{}

// NewPHPBehavior builds the PHP language behavior.
func NewPHPBehavior() Behavior { return phpBehavior{} }

func (phpBehavior) Name() string         { return "php" }
func (phpBehavior) Extensions() []string { return []string{".php"} }

func (phpBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string, sig string) {
	sym.ModulePath = modulePath
	switch {
	case hasWordModifier(sig, "private"):
		sym.Visibility = symbol.VisibilityPrivate
	case hasWordModifier(sig, "protected"):
		sym.Visibility = symbol.VisibilityModule
	default:
		sym.Visibility = symbol.VisibilityPublic
	}
}

func (phpBehavior) ModuleSeparator() string { return "." }

func (phpBehavior) FormatModulePath(base, name string) string {
	return joinPath(base, name, ".")
}

func (phpBehavior) ModulePathFromFile(relPath string) string {
	return dotJoinPath(stripExt(relPath, ".php"))
}

func (phpBehavior) CreateResolutionContext(fileID ids.FileID) *resolve.Context {
	return baseResolutionContext(fileID)
}

func (phpBehavior) CreateInheritanceResolver() *resolve.InheritanceResolver {
	return resolve.NewInheritanceResolver()
}

// ImportMatchesSymbol handles `use Foo\Bar;`, aliased `use Foo\Bar as
// Baz;` and `include`/`require` (treated as exact-path matches; PHP
// has no wildcard `use`).
func (phpBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	_ = importingModule
	normalized := strings.ReplaceAll(strings.TrimPrefix(importPath, "\\"), "\\", ".")
	return normalized == symbolModulePath
}

func (phpBehavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	return sym.Kind != symbol.KindParameter
}

func (phpBehavior) ResolveExternalCallTarget(toName string, imports []symbol.Import) (string, string, bool) {
	for _, imp := range imports {
		name := imp.Alias
		if name == "" {
			name = lastSegment(strings.ReplaceAll(imp.Path, "\\", "."), ".")
		}
		if name == toName {
			return imp.Path, toName, true
		}
	}
	return "", "", false
}

func (phpBehavior) CreateExternalSymbol(store ExternalSymbolStore, module, name string) symbol.Symbol {
	if existing, ok := store.FindExternalSymbol(LangPHP, module, name); ok {
		return existing
	}
	sym := symbol.Symbol{
		ID: store.NextSymbolID(), Name: name, Kind: externalSymbolKind(),
		ModulePath: module, LanguageID: LangPHP,
	}
	_ = store.PutExternalSymbol(sym)
	return sym
}

func (phpBehavior) InheritanceRelationName() symbol.RelationKind {
	return symbol.RelationExtends
}

func (phpBehavior) MapRelationship(raw string) symbol.RelationKind {
	switch raw {
	case "calls":
		return symbol.RelationCalls
	case "extends":
		return symbol.RelationExtends
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
