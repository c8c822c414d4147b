package parsing

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

const cppQuery = `
(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
(function_definition
	declarator: (function_declarator
		declarator: (qualified_identifier name: (identifier) @method.name))) @method
(class_specifier name: (type_identifier) @class.name) @class
(struct_specifier name: (type_identifier) @struct.name) @struct
(class_specifier (base_class_clause (type_identifier) @extends.name)) @extends
(preproc_include path: (string_literal) @import.path) @import
(preproc_include path: (system_lib_string) @import.path) @import
(using_declaration (qualified_identifier) @usingdecl.name) @usingdecl
(call_expression function: (identifier) @call.name) @call
(call_expression
	function: (field_expression
		argument: (identifier) @call.receiver
		field: (field_identifier) @call.method)) @methodcall
`

// cppAdapter parses C and C++ with tree-sitter-cpp, the grammar's
// well-documented superset-of-C compatibility. There is no separate C
// grammar in this module's dependency set, so .c/.h files share this
// adapter; extern "C" blocks and C-only syntax parse cleanly under the
// C++ grammar, which is the sharp edge this module accepts instead of
// adding an eighth grammar dependency for a subset language.
type cppAdapter struct {
	parser   *tree_sitter.Parser
	language *tree_sitter.Language
	query    *tree_sitter.Query
}

// NewCppAdapter builds the combined C/C++ parser adapter.
func NewCppAdapter() Adapter {
	lang := tree_sitter.NewLanguage(tree_sitter_cpp.Language())
	p := tree_sitter.NewParser()
	_ = p.SetLanguage(lang)
	q, _ := tree_sitter.NewQuery(lang, cppQuery)
	return &cppAdapter{parser: p, language: lang, query: q}
}

func (a *cppAdapter) Name() string { return "cpp" }
func (a *cppAdapter) Extensions() []string {
	return []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx", ".c", ".h"}
}

func (a *cppAdapter) Parse(source []byte, fileID ids.FileID, counter *ids.Counter) (Result, error) {
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

			case "struct":
				nameNode, ok := caps["struct.name"]
				if !ok {
					continue
				}
				body := node.ChildByFieldName("body")
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindStruct, FileID: fileID, Range: nodeRange(&node),
					Signature: signatureBefore(&node, body, source), Scope: symbol.ScopeModule,
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
					Path: trimQuotes(nodeText(&pathNode, source)), FileID: fileID, Line: int(node.StartPosition().Row) + 1,
				})

			case "usingdecl":
				nameNode, ok := caps["usingdecl.name"]
				if !ok {
					continue
				}
				res.Imports = append(res.Imports, symbol.Import{
					Path: nodeText(&nameNode, source), FileID: fileID, Line: int(node.StartPosition().Row) + 1,
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
