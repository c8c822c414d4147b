package parsing

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

const tsQuery = `
(function_declaration name: (identifier) @function.name) @function
(method_definition name: (property_identifier) @method.name) @method
(class_declaration name: (type_identifier) @class.name) @class
(interface_declaration name: (type_identifier) @interface.name) @interface
(type_alias_declaration name: (type_identifier) @type.name) @type
(enum_declaration name: (identifier) @enum.name) @enum
(variable_declarator
	name: (identifier) @function.name
	value: [(arrow_function) (function_expression)]) @function
(import_statement source: (string) @import.source) @import
(call_expression function: (identifier) @call.name) @call
(call_expression
	function: (member_expression
		object: (identifier) @call.receiver
		property: (property_identifier) @call.method)) @methodcall
(class_heritage (extends_clause value: (identifier) @extends.name)) @extends
(class_heritage (implements_clause (type_identifier) @implements.name)) @implements
`

// tsAdapter handles TypeScript and JavaScript. The module depends only
// on the tree-sitter-typescript grammar (no separate JS grammar), so
// .js/.jsx files are parsed with the TSX dialect; this is a documented
// sharp edge, not a bug, since TSX is a superset of JSX syntax.
type tsAdapter struct {
	parser   *tree_sitter.Parser
	language *tree_sitter.Language
	query    *tree_sitter.Query
}

// NewTypeScriptAdapter builds the combined TS/JS adapter.
func NewTypeScriptAdapter() Adapter {
	lang := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	p := tree_sitter.NewParser()
	_ = p.SetLanguage(lang)
	q, _ := tree_sitter.NewQuery(lang, tsQuery)
	return &tsAdapter{parser: p, language: lang, query: q}
}

func (a *tsAdapter) Name() string         { return "typescript" }
func (a *tsAdapter) Extensions() []string { return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"} }

func (a *tsAdapter) Parse(source []byte, fileID ids.FileID, counter *ids.Counter) (Result, error) {
	var res Result
	if a.query == nil {
		return res, nil
	}
	tree := a.parser.Parse(source, nil)
	if tree == nil {
		return res, nil
	}
	defer tree.Close()

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(a.query, tree.RootNode(), source)
	names := a.query.CaptureNames()

	for {
		m := matches.Next()
		if m == nil {
			break
		}
		caps := collectNameCaptures(m.Captures, names)

		for _, c := range m.Captures {
			captureName := names[c.Index]
			node := c.Node

			switch captureName {
			case "function":
				nameNode, ok := caps["function.name"]
				if !ok {
					continue
				}
				body := node.ChildByFieldName("body")
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindFunction, FileID: fileID, Range: nodeRange(&node),
					Signature: signatureBefore(&node, body, source), Scope: symbol.ScopeModule, Hoisted: true,
				})

			case "method":
				nameNode, ok := caps["method.name"]
				if !ok {
					continue
				}
				body := node.ChildByFieldName("body")
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindMethod, FileID: fileID, Range: nodeRange(&node),
					Signature: signatureBefore(&node, body, source), Scope: symbol.ScopeClassMember,
				})

			case "class":
				nameNode, ok := caps["class.name"]
				if !ok {
					continue
				}
				body := node.ChildByFieldName("body")
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindClass, FileID: fileID, Range: nodeRange(&node),
					Signature: signatureBefore(&node, body, source), Scope: symbol.ScopeModule, Hoisted: true,
				})

			case "interface":
				nameNode, ok := caps["interface.name"]
				if !ok {
					continue
				}
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindInterface, FileID: fileID, Range: nodeRange(&node),
					Signature: nodeText(&node, source), Scope: symbol.ScopeModule, Hoisted: true,
				})

			case "type":
				nameNode, ok := caps["type.name"]
				if !ok {
					continue
				}
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindTypeAlias, FileID: fileID, Range: nodeRange(&node),
					Signature: nodeText(&node, source), Scope: symbol.ScopeModule,
				})

			case "enum":
				nameNode, ok := caps["enum.name"]
				if !ok {
					continue
				}
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindEnum, FileID: fileID, Range: nodeRange(&node),
					Signature: nodeText(&node, source), Scope: symbol.ScopeModule, Hoisted: true,
				})

			case "import":
				srcNode, ok := caps["import.source"]
				if !ok {
					continue
				}
				path := trimQuotes(nodeText(&srcNode, source))
				res.Imports = append(res.Imports, symbol.Import{
					Path: path, FileID: fileID, Line: int(node.StartPosition().Row) + 1,
					IsGlob:     isNamespaceImport(&node, source),
					IsTypeOnly: containsToken(nodeText(&node, source), "import type "),
				})

			case "call":
				nameNode, ok := caps["call.name"]
				if !ok {
					continue
				}
				res.Edges = append(res.Edges, symbol.RawEdge{
					ToName: nodeText(&nameNode, source), Kind: symbol.RelationCalls, Site: nodeRange(&node),
				})

			case "methodcall":
				recvNode, ok1 := caps["call.receiver"]
				methodNode, ok2 := caps["call.method"]
				if !ok1 || !ok2 {
					continue
				}
				res.Edges = append(res.Edges, symbol.RawEdge{
					ToName: nodeText(&methodNode, source), Kind: symbol.RelationCalls, Site: nodeRange(&node),
					Metadata: "receiver:" + nodeText(&recvNode, source) + ",static:false",
				})

			case "extends":
				nameNode, ok := caps["extends.name"]
				if !ok {
					continue
				}
				res.Edges = append(res.Edges, symbol.RawEdge{
					ToName: nodeText(&nameNode, source), Kind: symbol.RelationExtends, Site: nodeRange(&node),
				})

			case "implements":
				nameNode, ok := caps["implements.name"]
				if !ok {
					continue
				}
				res.Edges = append(res.Edges, symbol.RawEdge{
					ToName: nodeText(&nameNode, source), Kind: symbol.RelationImplements, Site: nodeRange(&node),
				})
			}
		}
	}

	return res, nil
}

func isNamespaceImport(importStmt *tree_sitter.Node, source []byte) bool {
	text := nodeText(importStmt, source)
	return containsToken(text, "* as ")
}

func containsToken(s, tok string) bool {
	for i := 0; i+len(tok) <= len(s); i++ {
		if s[i:i+len(tok)] == tok {
			return true
		}
	}
	return false
}
