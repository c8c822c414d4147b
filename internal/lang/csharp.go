package lang

import (
	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// csharpBehavior implements spec.md §4.D's C# row: public/internal/
// protected/private modifiers, "." namespace paths, using-directive
// imports.
type csharpBehavior struct{}

// NewCSharpBehavior builds the C# language behavior.
func NewCSharpBehavior() Behavior { return csharpBehavior{} }

func (csharpBehavior) Name() string         { return "csharp" }
func (csharpBehavior) Extensions() []string { return []string{".cs"} }

func (csharpBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string, sig string) {
	sym.ModulePath = modulePath
	switch {
	case hasWordModifier(sig, "private"):
		sym.Visibility = symbol.VisibilityPrivate
	case hasWordModifier(sig, "protected"):
		sym.Visibility = symbol.VisibilityModule
	case hasWordModifier(sig, "internal"):
		sym.Visibility = symbol.VisibilityCrate
	case hasWordModifier(sig, "public"):
		sym.Visibility = symbol.VisibilityPublic
	default:
		sym.Visibility = symbol.VisibilityPublic
	}
}

func (csharpBehavior) ModuleSeparator() string { return "." }

func (csharpBehavior) FormatModulePath(base, name string) string {
	return joinPath(base, name, ".")
}

func (csharpBehavior) ModulePathFromFile(relPath string) string {
	return dotJoinPath(stripExt(relPath, ".cs"))
}

func (csharpBehavior) CreateResolutionContext(fileID ids.FileID) *resolve.Context {
	return baseResolutionContext(fileID)
}

func (csharpBehavior) CreateInheritanceResolver() *resolve.InheritanceResolver {
	return resolve.NewInheritanceResolver()
}

// ImportMatchesSymbol matches a `using Namespace;` directive: direct
// children only, same rule as a wildcard import in other languages,
// since C#'s `using` always brings in an entire namespace.
func (csharpBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	_ = importingModule
	if importPath == symbolModulePath {
		return true
	}
	prefix := importPath + "."
	rest := symbolModulePath
	if len(rest) > len(prefix) && rest[:len(prefix)] == prefix {
		rest = rest[len(prefix):]
		for _, c := range rest {
			if c == '.' {
				return false
			}
		}
		return true
	}
	return false
}

func (csharpBehavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	return sym.Kind != symbol.KindParameter
}

func (csharpBehavior) ResolveExternalCallTarget(toName string, imports []symbol.Import) (string, string, bool) {
	for _, imp := range imports {
		if imp.Path != "" {
			return imp.Path, toName, true
		}
	}
	return "", "", false
}

func (csharpBehavior) CreateExternalSymbol(store ExternalSymbolStore, module, name string) symbol.Symbol {
	if existing, ok := store.FindExternalSymbol(LangCSharp, module, name); ok {
		return existing
	}
	sym := symbol.Symbol{
		ID: store.NextSymbolID(), Name: name, Kind: externalSymbolKind(),
		ModulePath: module, LanguageID: LangCSharp,
	}
	_ = store.PutExternalSymbol(sym)
	return sym
}

func (csharpBehavior) InheritanceRelationName() symbol.RelationKind {
	return symbol.RelationExtends
}

func (csharpBehavior) MapRelationship(raw string) symbol.RelationKind {
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
