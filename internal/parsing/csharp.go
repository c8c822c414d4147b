package parsing

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

const csharpQuery = `
(method_declaration name: (identifier) @method.name) @method
(class_declaration name: (identifier) @class.name) @class
(interface_declaration name: (identifier) @interface.name) @interface
(enum_declaration name: (identifier) @enum.name) @enum
(class_declaration (base_list (identifier) @base.name)) @baselist
(using_directive (qualified_name) @import.path) @import
(using_directive (identifier) @import.path) @import
(invocation_expression function: (identifier) @call.name) @call
(invocation_expression
	function: (member_access_expression
		expression: (identifier) @call.receiver
		name: (identifier) @call.method)) @methodcall
`

// csharpAdapter parses C# with tree-sitter-c-sharp. The grammar's
// base_list node holds both base class and implemented interfaces
// together, and both are emitted as RelationExtends here. The indexer
// stores the edge with that kind unchanged, so an implemented
// interface is recorded as an Extends edge, not an Implements edge.
type csharpAdapter struct {
	parser   *tree_sitter.Parser
	language *tree_sitter.Language
	query    *tree_sitter.Query
}

// NewCSharpAdapter builds the C# parser adapter.
func NewCSharpAdapter() Adapter {
	lang := tree_sitter.NewLanguage(tree_sitter_csharp.Language())
	p := tree_sitter.NewParser()
	_ = p.SetLanguage(lang)
	q, _ := tree_sitter.NewQuery(lang, csharpQuery)
	return &csharpAdapter{parser: p, language: lang, query: q}
}

func (a *csharpAdapter) Name() string         { return "csharp" }
func (a *csharpAdapter) Extensions() []string { return []string{".cs"} }

func (a *csharpAdapter) Parse(source []byte, fileID ids.FileID, counter *ids.Counter) (Result, error) {
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
					Signature: signatureBefore(&node, body, source), Scope: symbol.ScopeModule,
				})

			case "interface":
				nameNode, ok := caps["interface.name"]
				if !ok {
					continue
				}
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindInterface, FileID: fileID, Range: nodeRange(&node),
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
					Signature: nodeText(&node, source), Scope: symbol.ScopeModule,
				})

			case "baselist":
				nameNode, ok := caps["base.name"]
				if !ok {
					continue
				}
				res.Edges = append(res.Edges, symbol.RawEdge{
					ToName: nodeText(&nameNode, source), Kind: symbol.RelationExtends, Site: nodeRange(&node),
				})

			case "import":
				pathNode, ok := caps["import.path"]
				if !ok {
					continue
				}
				res.Imports = append(res.Imports, symbol.Import{
					Path: nodeText(&pathNode, source), FileID: fileID, Line: int(node.StartPosition().Row) + 1,
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
			}
		}
	}

	return res, nil
}
