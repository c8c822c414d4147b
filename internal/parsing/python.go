package parsing

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

const pythonQuery = `
(function_definition name: (identifier) @function.name) @function
(class_definition name: (identifier) @class.name) @class
(class_definition superclasses: (argument_list (identifier) @extends.name)) @extends
(import_statement name: (dotted_name) @import.path) @import
(import_from_statement module_name: (dotted_name) @import.path) @import
(call function: (identifier) @call.name) @call
(call
	function: (attribute
		object: (identifier) @call.receiver
		attribute: (identifier) @call.method)) @methodcall
`

// pythonAdapter parses Python with tree-sitter-python. Python hoists
// def/class statements within their enclosing scope (LEGB resolution
// does not depend on source order within a module or function body),
// so every function/class symbol is marked Hoisted.
type pythonAdapter struct {
	parser   *tree_sitter.Parser
	language *tree_sitter.Language
	query    *tree_sitter.Query
}

// NewPythonAdapter builds the Python parser adapter.
func NewPythonAdapter() Adapter {
	lang := tree_sitter.NewLanguage(tree_sitter_python.Language())
	p := tree_sitter.NewParser()
	_ = p.SetLanguage(lang)
	q, _ := tree_sitter.NewQuery(lang, pythonQuery)
	return &pythonAdapter{parser: p, language: lang, query: q}
}

func (a *pythonAdapter) Name() string         { return "python" }
func (a *pythonAdapter) Extensions() []string { return []string{".py", ".pyi"} }

func (a *pythonAdapter) Parse(source []byte, fileID ids.FileID, counter *ids.Counter) (Result, error) {
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
				kind := symbol.KindFunction
				scope := symbol.ScopeModule
				if isInsideClass(&node) {
					kind = symbol.KindMethod
					scope = symbol.ScopeClassMember
				}
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: kind, FileID: fileID, Range: nodeRange(&node),
					Signature: signatureBefore(&node, body, source), Scope: scope, Hoisted: true,
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

			case "extends":
				nameNode, ok := caps["extends.name"]
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

// isInsideClass walks node's ancestors looking for a class_definition
// before any intervening function_definition, which is how a nested
// def is distinguished from a method.
func isInsideClass(node *tree_sitter.Node) bool {
	parent := node.Parent()
	for parent != nil {
		switch parent.Kind() {
		case "class_definition":
			return true
		case "function_definition":
			return false
		}
		parent = parent.Parent()
	}
	return false
}
