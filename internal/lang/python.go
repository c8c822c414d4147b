package lang

import (
	"strings"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// pyBehavior implements spec.md §4.D's Python row: underscore-prefix
// visibility conventions and LEGB resolution order (spec.md §4.E,
// end-to-end scenario 3).
type pyBehavior struct{}

// NewPythonBehavior builds the Python language behavior.
func NewPythonBehavior() Behavior { return pyBehavior{} }

func (pyBehavior) Name() string         { return "python" }
func (pyBehavior) Extensions() []string { return []string{".py", ".pyi"} }

func (pyBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string, sig string) {
	sym.ModulePath = modulePath
	_ = sig
	name := sym.Name
	switch {
	case strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"):
		sym.Visibility = symbol.VisibilityPublic // dunder methods are never mangled
	case strings.HasPrefix(name, "__"):
		sym.Visibility = symbol.VisibilityPrivate
	case strings.HasPrefix(name, "_"):
		sym.Visibility = symbol.VisibilityModule
	default:
		sym.Visibility = symbol.VisibilityPublic
	}
	// def/class declarations hoist to the top of their enclosing
	// function or module frame (spec.md §4.D).
	if sym.Scope == symbol.ScopeLocal && (sym.Kind == symbol.KindFunction || sym.Kind == symbol.KindClass) {
		sym.Hoisted = true
	}
}

func (pyBehavior) ModuleSeparator() string { return "." }

func (pyBehavior) FormatModulePath(base, name string) string {
	return joinPath(base, name, ".")
}

func (pyBehavior) ModulePathFromFile(relPath string) string {
	p := stripExt(relPath, ".py", ".pyi")
	if strings.HasSuffix(p, "/__init__") {
		p = strings.TrimSuffix(p, "/__init__")
	} else if p == "__init__" {
		p = ""
	}
	return dotJoinPath(p)
}

func (pyBehavior) CreateResolutionContext(fileID ids.FileID) *resolve.Context {
	return baseResolutionContext(fileID)
}

func (pyBehavior) CreateInheritanceResolver() *resolve.InheritanceResolver {
	return resolve.NewInheritanceResolver()
}

// ImportMatchesSymbol handles `from pkg import name`, `import pkg.mod`
// and wildcard `from pkg import *` (direct children only), plus
// relative `from . import x` / `from ..pkg import x`.
func (pyBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	resolved := resolveRelativePyModule(importPath, importingModule)
	if strings.HasSuffix(resolved, ".*") {
		prefix := strings.TrimSuffix(resolved, "*")
		rest := strings.TrimPrefix(symbolModulePath, prefix)
		return rest != symbolModulePath && !strings.Contains(rest, ".")
	}
	return resolved == symbolModulePath
}

func (pyBehavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	switch sym.Kind {
	case symbol.KindFunction, symbol.KindClass:
		return true
	case symbol.KindParameter:
		return false
	default:
		return sym.Scope != symbol.ScopeLocal || sym.Hoisted
	}
}

// ResolveExternalCallTarget maps a bare name bound via `from pkg
// import name` (optionally aliased) to (pkg, name).
func (pyBehavior) ResolveExternalCallTarget(toName string, imports []symbol.Import) (string, string, bool) {
	for _, imp := range imports {
		name := imp.Alias
		if name == "" {
			name = lastSegment(imp.Path, ".")
		}
		if name == toName {
			return imp.Path, toName, true
		}
	}
	if idx := strings.Index(toName, "."); idx >= 0 {
		mod, member := toName[:idx], toName[idx+1:]
		for _, imp := range imports {
			name := imp.Alias
			if name == "" {
				name = lastSegment(imp.Path, ".")
			}
			if name == mod {
				return imp.Path, member, true
			}
		}
	}
	return "", "", false
}

func (pyBehavior) CreateExternalSymbol(store ExternalSymbolStore, module, name string) symbol.Symbol {
	if existing, ok := store.FindExternalSymbol(LangPython, module, name); ok {
		return existing
	}
	sym := symbol.Symbol{
		ID: store.NextSymbolID(), Name: name, Kind: externalSymbolKind(),
		ModulePath: module, LanguageID: LangPython,
	}
	_ = store.PutExternalSymbol(sym)
	return sym
}

func (pyBehavior) InheritanceRelationName() symbol.RelationKind {
	return symbol.RelationExtends
}

func (pyBehavior) MapRelationship(raw string) symbol.RelationKind {
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

func resolveRelativePyModule(importPath, importingModule string) string {
	if !strings.HasPrefix(importPath, ".") {
		return importPath
	}
	baseParts := strings.Split(importingModule, ".")
	if len(baseParts) > 0 {
		baseParts = baseParts[:len(baseParts)-1]
	}
	dots := 0
	for dots < len(importPath) && importPath[dots] == '.' {
		dots++
	}
	for i := 1; i < dots && len(baseParts) > 0; i++ {
		baseParts = baseParts[:len(baseParts)-1]
	}
	rest := importPath[dots:]
	if rest != "" {
		baseParts = append(baseParts, strings.Split(rest, ".")...)
	}
	return strings.Join(baseParts, ".")
}
