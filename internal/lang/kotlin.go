package lang

import (
	"strings"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// kotlinBehavior implements spec.md §4.D's Kotlin row: default/public,
// internal, protected, private visibility, "." package paths, and the
// src/{main,test}/{kotlin,java}/ module-path stripping rule. No parser
// adapter exists for Kotlin in internal/parsing (see DESIGN.md), so
// this behavior is reachable only through the language registry, not
// through a live indexing pass.
type kotlinBehavior struct{}

// NewKotlinBehavior builds the Kotlin language behavior.
func NewKotlinBehavior() Behavior { return kotlinBehavior{} }

func (kotlinBehavior) Name() string         { return "kotlin" }
func (kotlinBehavior) Extensions() []string { return []string{".kt", ".kts"} }

func (kotlinBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string, sig string) {
	sym.ModulePath = modulePath
	switch {
	case hasWordModifier(sig, "private"):
		sym.Visibility = symbol.VisibilityPrivate
	case hasWordModifier(sig, "protected"):
		sym.Visibility = symbol.VisibilityModule
	case hasWordModifier(sig, "internal"):
		sym.Visibility = symbol.VisibilityCrate
	default:
		sym.Visibility = symbol.VisibilityPublic
	}
}

func (kotlinBehavior) ModuleSeparator() string { return "." }

func (kotlinBehavior) FormatModulePath(base, name string) string {
	return joinPath(base, name, ".")
}

// ModulePathFromFile strips src/{main,test}/{kotlin,java}/ and the
// extension, then dot-joins the remainder per spec.md §4.D.
func (kotlinBehavior) ModulePathFromFile(relPath string) string {
	p := stripExt(relPath, ".kt", ".kts")
	for _, prefix := range []string{"src/main/kotlin/", "src/main/java/", "src/test/kotlin/", "src/test/java/"} {
		if strings.HasPrefix(p, prefix) {
			p = strings.TrimPrefix(p, prefix)
			break
		}
	}
	return dotJoinPath(p)
}

func (kotlinBehavior) CreateResolutionContext(fileID ids.FileID) *resolve.Context {
	return baseResolutionContext(fileID)
}

func (kotlinBehavior) CreateInheritanceResolver() *resolve.InheritanceResolver {
	return resolve.NewInheritanceResolver()
}

// ImportMatchesSymbol handles exact imports and `import pkg.*`
// (direct children only).
func (kotlinBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	_ = importingModule
	if strings.HasSuffix(importPath, ".*") {
		prefix := strings.TrimSuffix(importPath, "*")
		rest := strings.TrimPrefix(symbolModulePath, prefix)
		return rest != symbolModulePath && !strings.Contains(rest, ".")
	}
	return importPath == symbolModulePath
}

func (kotlinBehavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	return sym.Kind != symbol.KindParameter
}

func (kotlinBehavior) ResolveExternalCallTarget(toName string, imports []symbol.Import) (string, string, bool) {
	for _, imp := range imports {
		name := imp.Alias
		if name == "" {
			name = lastSegment(imp.Path, ".")
		}
		if name == toName {
			return imp.Path, toName, true
		}
	}
	return "", "", false
}

func (kotlinBehavior) CreateExternalSymbol(store ExternalSymbolStore, module, name string) symbol.Symbol {
	if existing, ok := store.FindExternalSymbol(LangKotlin, module, name); ok {
		return existing
	}
	sym := symbol.Symbol{
		ID: store.NextSymbolID(), Name: name, Kind: externalSymbolKind(),
		ModulePath: module, LanguageID: LangKotlin,
	}
	_ = store.PutExternalSymbol(sym)
	return sym
}

func (kotlinBehavior) InheritanceRelationName() symbol.RelationKind {
	return symbol.RelationExtends
}

func (kotlinBehavior) MapRelationship(raw string) symbol.RelationKind {
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
