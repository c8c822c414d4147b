package lang

import (
	"strings"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// tsBehavior implements spec.md §4.D's TS/JS row. Visibility follows
// export/export default/protected/private/#name-private/default
// private; hoisting keeps functions and classes resolvable regardless
// of source order (spec.md §4.D, §4.E).
type tsBehavior struct{}

// NewTypeScriptBehavior builds the TypeScript/JavaScript behavior.
func NewTypeScriptBehavior() Behavior { return tsBehavior{} }

func (tsBehavior) Name() string         { return "typescript" }
func (tsBehavior) Extensions() []string { return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"} }

func (tsBehavior) ConfigureSymbol(sym *symbol.Symbol, modulePath string, sig string) {
	sym.ModulePath = modulePath
	switch {
	case hasWordModifier(sig, "protected"):
		sym.Visibility = symbol.VisibilityModule
	case hasWordModifier(sig, "private"), strings.Contains(sig, "#"+sym.Name):
		sym.Visibility = symbol.VisibilityPrivate
	case hasWordModifier(sig, "export"):
		sym.Visibility = symbol.VisibilityPublic
	default:
		sym.Visibility = symbol.VisibilityPrivate
	}
	if sym.Scope == symbol.ScopeLocal && (sym.Kind == symbol.KindFunction || sym.Kind == symbol.KindClass) {
		sym.Hoisted = true
	}
}

func (tsBehavior) ModuleSeparator() string { return "." }

func (tsBehavior) FormatModulePath(base, name string) string {
	return joinPath(base, name, ".")
}

// ModulePathFromFile drops the extension and dot-joins the remaining
// path segments; index files collapse to their directory.
func (tsBehavior) ModulePathFromFile(relPath string) string {
	p := stripExt(relPath, ".tsx", ".ts", ".jsx", ".js", ".mjs", ".cjs")
	if strings.HasSuffix(p, "/index") {
		p = strings.TrimSuffix(p, "/index")
	} else if p == "index" {
		p = ""
	}
	return dotJoinPath(p)
}

func (tsBehavior) CreateResolutionContext(fileID ids.FileID) *resolve.Context {
	return baseResolutionContext(fileID)
}

func (tsBehavior) CreateInheritanceResolver() *resolve.InheritanceResolver {
	return resolve.NewInheritanceResolver()
}

// ImportMatchesSymbol handles relative ("./p", "../p"), wildcard
// (direct children only) and exact import paths against a symbol's
// dotted module path.
func (tsBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	resolved := resolveRelativeModule(importPath, importingModule)
	if strings.HasSuffix(resolved, ".*") {
		prefix := strings.TrimSuffix(resolved, "*")
		rest := strings.TrimPrefix(symbolModulePath, prefix)
		return rest != symbolModulePath && !strings.Contains(rest, ".")
	}
	return resolved == symbolModulePath
}

func (tsBehavior) IsResolvableSymbol(sym symbol.Symbol) bool {
	switch sym.Kind {
	case symbol.KindFunction, symbol.KindClass, symbol.KindInterface, symbol.KindTypeAlias:
		return true
	case symbol.KindParameter:
		return false
	default:
		return sym.Scope != symbol.ScopeLocal || sym.Hoisted
	}
}

// ResolveExternalCallTarget maps a named import (e.g. `useState` from
// `react`) or a namespace-qualified reference (`React.useState`) to
// (module, member), the canonical end-to-end scenario 2 case.
func (tsBehavior) ResolveExternalCallTarget(toName string, imports []symbol.Import) (string, string, bool) {
	if idx := strings.Index(toName, "."); idx >= 0 {
		alias, member := toName[:idx], toName[idx+1:]
		for _, imp := range imports {
			if imp.Alias == alias || (imp.Alias == "" && lastSegment(imp.Path, "/") == alias) {
				return imp.Path, member, true
			}
		}
	}
	for _, imp := range imports {
		name := imp.Alias
		if name == "" {
			name = toName
		}
		if name == toName {
			return imp.Path, toName, true
		}
	}
	return "", "", false
}

func (tsBehavior) CreateExternalSymbol(store ExternalSymbolStore, module, name string) symbol.Symbol {
	if existing, ok := store.FindExternalSymbol(LangTypeScript, module, name); ok {
		return existing
	}
	sym := symbol.Symbol{
		ID: store.NextSymbolID(), Name: name, Kind: externalSymbolKind(),
		ModulePath: module, LanguageID: LangTypeScript,
	}
	_ = store.PutExternalSymbol(sym)
	return sym
}

func (tsBehavior) InheritanceRelationName() symbol.RelationKind {
	return symbol.RelationExtends
}

func (tsBehavior) MapRelationship(raw string) symbol.RelationKind {
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

// resolveRelativeModule normalizes "./p" and "../p" against the
// importing file's own module path; non-relative paths pass through
// unchanged (bare package specifiers resolve externally instead).
func resolveRelativeModule(importPath, importingModule string) string {
	if !strings.HasPrefix(importPath, ".") {
		return importPath
	}
	baseParts := strings.Split(importingModule, ".")
	if len(baseParts) > 0 {
		baseParts = baseParts[:len(baseParts)-1] // drop the file's own segment
	}
	for _, seg := range strings.Split(importPath, "/") {
		switch seg {
		case ".", "":
			continue
		case "..":
			if len(baseParts) > 0 {
				baseParts = baseParts[:len(baseParts)-1]
			}
		default:
			baseParts = append(baseParts, strings.TrimSuffix(seg, ".ts"))
		}
	}
	return strings.Join(baseParts, ".")
}

func lastSegment(path, sep string) string {
	if idx := strings.LastIndex(path, sep); idx >= 0 {
		return path[idx+len(sep):]
	}
	return path
}
