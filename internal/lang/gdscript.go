package lang

import (
	"strings"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// gdscriptBehavior implements spec.md §4.D's GDScript row: leading
// underscore visibility, "/"-separated "res://"-prefixed module paths,
// single-class-file-with-embedded-scopes semantics where a
// `class_name` export becomes a project-wide global. No parser
// adapter exists for GDScript in internal/parsing (see DESIGN.md).
type gdscriptBehavior struct{}

// NewGDScriptBehavior builds the GDScript language behavior.
func NewGDScriptBehavior() Behavior { return gdscriptBehavior{} }

func (gdscriptBehavior) Name() string         { return "gdscript" }
func (gdscriptBehavior) Extensions() []string { return []string{".gd"} }

func (gdscriptBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string, sig string) {
	sym.ModulePath = modulePath
	_ = sig
	if strings.HasPrefix(sym.Name, "_") {
		sym.Visibility = symbol.VisibilityPrivate
	} else {
		sym.Visibility = symbol.VisibilityPublic
	}
}

func (gdscriptBehavior) ModuleSeparator() string { return "/" }

func (gdscriptBehavior) FormatModulePath(base, name string) string {
	return joinPath(base, name, "/")
}

// ModulePathFromFile prefixes "res://" per spec.md §4.D.
func (gdscriptBehavior) ModulePathFromFile(relPath string) string {
	return "res://" + strings.TrimSuffix(relPath, ".gd")
}

func (gdscriptBehavior) CreateResolutionContext(fileID ids.FileID) *resolve.Context {
	return baseResolutionContext(fileID)
}

func (gdscriptBehavior) CreateInheritanceResolver() *resolve.InheritanceResolver {
	return resolve.NewInheritanceResolver()
}

// ImportMatchesSymbol compares "res://"-prefixed paths directly;
// GDScript has no wildcard or aliasing import syntax beyond `preload`.
func (gdscriptBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	_ = importingModule
	return importPath == symbolModulePath
}

func (gdscriptBehavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	return sym.Kind != symbol.KindParameter
}

// ResolveExternalCallTarget never applies: GDScript has no external
// module boundary distinct from the project's own res:// tree.
func (gdscriptBehavior) ResolveExternalCallTarget(toName string, imports []symbol.Import) (string, string, bool) {
	_, _ = toName, imports
	return "", "", false
}

func (gdscriptBehavior) CreateExternalSymbol(store ExternalSymbolStore, module, name string) symbol.Symbol {
	if existing, ok := store.FindExternalSymbol(LangGDScript, module, name); ok {
		return existing
	}
	sym := symbol.Symbol{
		ID: store.NextSymbolID(), Name: name, Kind: externalSymbolKind(),
		ModulePath: module, LanguageID: LangGDScript,
	}
	_ = store.PutExternalSymbol(sym)
	return sym
}

func (gdscriptBehavior) InheritanceRelationName() symbol.RelationKind {
	return symbol.RelationExtends
}

func (gdscriptBehavior) MapRelationship(raw string) symbol.RelationKind {
	switch raw {
	case "calls":
		return symbol.RelationCalls
	case "extends":
		return symbol.RelationExtends
	case "uses":
		return symbol.RelationUses
	case "defines":
		return symbol.RelationDefines
	default:
		return symbol.RelationReferences
	}
}
