package lang

import (
	"strings"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// cppBehavior implements both the C row (every symbol Public, "::"
// paths, #include populates the imported set) and the C++ row
// (public/protected/private, `using namespace` search lists, `using
// X::Y` direct bindings, depth-first multiple-inheritance lookup via
// the shared InheritanceResolver) of spec.md §4.D. A single file
// extension table covers both; C sources simply never see a
// visibility modifier other than the default.
type cppBehavior struct{}

// NewCppBehavior builds the C/C++ language behavior.
func NewCppBehavior() Behavior { return cppBehavior{} }

func (cppBehavior) Name() string         { return "cpp" }
func (cppBehavior) Extensions() []string { return []string{".c", ".h", ".cc", ".cpp", ".cxx", ".hpp", ".hh", ".hxx"} }

func (cppBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string, sig string) {
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

func (cppBehavior) ModuleSeparator() string { return "::" }

func (cppBehavior) FormatModulePath(base, name string) string {
	return joinPath(base, name, "::")
}

func (cppBehavior) ModulePathFromFile(relPath string) string {
	p := stripExt(relPath, ".cpp", ".cxx", ".cc", ".hpp", ".hxx", ".hh", ".h", ".c")
	return strings.ReplaceAll(p, "/", "::")
}

func (cppBehavior) CreateResolutionContext(fileID ids.FileID) *resolve.Context {
	return baseResolutionContext(fileID)
}

func (cppBehavior) CreateInheritanceResolver() *resolve.InheritanceResolver {
	return resolve.NewInheritanceResolver()
}

// ImportMatchesSymbol matches `#include "x.h"` (normalized path
// comparison, extension-insensitive) and C++ `using X::Y;` direct
// bindings (exact match on the qualified path).
func (cppBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	_ = importingModule
	normalized := strings.ReplaceAll(stripExt(importPath, ".h", ".hpp", ".hxx"), "/", "::")
	return normalized == symbolModulePath || importPath == symbolModulePath
}

func (cppBehavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	return sym.Kind != symbol.KindParameter
}

func (cppBehavior) ResolveExternalCallTarget(toName string, imports []symbol.Import) (string, string, bool) {
	for _, imp := range imports {
		if imp.Path != "" {
			return imp.Path, toName, true
		}
	}
	return "", "", false
}

func (cppBehavior) CreateExternalSymbol(store ExternalSymbolStore, module, name string) symbol.Symbol {
	if existing, ok := store.FindExternalSymbol(LangCpp, module, name); ok {
		return existing
	}
	sym := symbol.Symbol{
		ID: store.NextSymbolID(), Name: name, Kind: externalSymbolKind(),
		ModulePath: module, LanguageID: LangCpp,
	}
	_ = store.PutExternalSymbol(sym)
	return sym
}

func (cppBehavior) InheritanceRelationName() symbol.RelationKind {
	return symbol.RelationExtends
}

func (cppBehavior) MapRelationship(raw string) symbol.RelationKind {
	switch raw {
	case "calls":
		return symbol.RelationCalls
	case "extends", "embeds":
		return symbol.RelationExtends
	case "uses":
		return symbol.RelationUses
	case "defines":
		return symbol.RelationDefines
	default:
		return symbol.RelationReferences
	}
}
