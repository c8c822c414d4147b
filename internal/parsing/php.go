package parsing

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

const phpQuery = `
(function_definition name: (name) @function.name) @function
(method_declaration name: (name) @method.name) @method
(class_declaration name: (name) @class.name) @class
(interface_declaration name: (name) @interface.name) @interface
(class_declaration (base_clause (name) @extends.name)) @extends
(class_declaration (class_interface_clause (name) @implements.name)) @implements
(namespace_use_clause (qualified_name) @import.path) @import
(function_call_expression function: (name) @call.name) @call
(member_call_expression
	object: (variable_name) @call.receiver
	name: (name) @call.method) @methodcall
`

// phpAdapter parses PHP with tree-sitter-php. It targets the PHP-only
// grammar variant (no embedded HTML), the idiomatic choice for source
// already split into .php files by the walker's extension filter.
type phpAdapter struct {
	parser   *tree_sitter.Parser
	language *tree_sitter.Language
	query    *tree_sitter.Query
}

// NewPHPAdapter builds the PHP parser adapter.
func NewPHPAdapter() Adapter {
	lang := tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	p := tree_sitter.NewParser()
	_ = p.SetLanguage(lang)
	q, _ := tree_sitter.NewQuery(lang, phpQuery)
	return &phpAdapter{parser: p, language: lang, query: q}
}

func (a *phpAdapter) Name() string         { return "php" }
func (a *phpAdapter) Extensions() []string { return []string{".php"} }

func (a *phpAdapter) Parse(source []byte, fileID ids.FileID, counter *ids.Counter) (Result, error) {
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
					Signature: signatureBefore(&node, body, source), Scope: symbol.ScopeModule,
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
