package parsing

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

const goQuery = `
(function_declaration name: (identifier) @function.name) @function
(method_declaration
	receiver: (parameter_list) @method.receiver
	name: (field_identifier) @method.name) @method
(type_declaration
	(type_spec name: (type_identifier) @type.name type: (struct_type)) @struct)
(type_declaration
	(type_spec name: (type_identifier) @type.name type: (interface_type)) @interface)
(type_declaration
	(type_spec name: (type_identifier) @type.name) @typealias)
(const_spec name: (identifier) @const.name) @const
(var_spec name: (identifier) @var.name) @var
(import_spec path: (interpreted_string_literal) @import.path) @import
(call_expression
	function: (identifier) @call.name) @call
(call_expression
	function: (selector_expression
		operand: (identifier) @call.receiver
		field: (field_identifier) @call.method)) @methodcall
`

// goAdapter parses Go source with the tree-sitter-go grammar. Go has
// no package-declaration scope node of its own (the file is the
// package), so the scope stack starts at Package and only descends
// into Local for function/method bodies.
type goAdapter struct {
	parser   *tree_sitter.Parser
	language *tree_sitter.Language
	query    *tree_sitter.Query
}

// NewGoAdapter builds the Go parser adapter.
func NewGoAdapter() Adapter {
	lang := tree_sitter.NewLanguage(tree_sitter_go.Language())
	p := tree_sitter.NewParser()
	_ = p.SetLanguage(lang)
	q, _ := tree_sitter.NewQuery(lang, goQuery)
	return &goAdapter{parser: p, language: lang, query: q}
}

func (a *goAdapter) Name() string         { return "go" }
func (a *goAdapter) Extensions() []string { return []string{".go"} }

func (a *goAdapter) Parse(source []byte, fileID ids.FileID, counter *ids.Counter) (Result, error) {
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
					ID:        ids.NextSymbolID(counter),
					Name:      nodeText(&nameNode, source),
					Kind:      symbol.KindFunction,
					FileID:    fileID,
					Range:     nodeRange(&node),
					Signature: signatureBefore(&node, body, source),
					Scope:     symbol.ScopePackage,
				})

			case "method":
				nameNode, ok := caps["method.name"]
				if !ok {
					continue
				}
				body := node.ChildByFieldName("body")
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID:        ids.NextSymbolID(counter),
					Name:      nodeText(&nameNode, source),
					Kind:      symbol.KindMethod,
					FileID:    fileID,
					Range:     nodeRange(&node),
					Signature: signatureBefore(&node, body, source),
					Scope:     symbol.ScopePackage,
				})

			case "struct", "interface", "typealias":
				nameNode, ok := caps["type.name"]
				if !ok {
					continue
				}
				kind := symbol.KindTypeAlias
				switch captureName {
				case "struct":
					kind = symbol.KindStruct
				case "interface":
					kind = symbol.KindInterface
				}
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID:        ids.NextSymbolID(counter),
					Name:      nodeText(&nameNode, source),
					Kind:      kind,
					FileID:    fileID,
					Range:     nodeRange(&node),
					Signature: nodeText(&node, source),
					Scope:     symbol.ScopePackage,
				})

			case "const":
				nameNode, ok := caps["const.name"]
				if !ok {
					continue
				}
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindConstant, FileID: fileID, Range: nodeRange(&node),
					Signature: nodeText(&node, source), Scope: symbol.ScopePackage,
				})

			case "var":
				nameNode, ok := caps["var.name"]
				if !ok {
					continue
				}
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindVariable, FileID: fileID, Range: nodeRange(&node),
					Signature: nodeText(&node, source), Scope: symbol.ScopePackage,
				})

			case "import":
				pathNode, ok := caps["import.path"]
				if !ok {
					continue
				}
				path := trimQuotes(nodeText(&pathNode, source))
				res.Imports = append(res.Imports, symbol.Import{
					Path: path, FileID: fileID, Line: int(node.StartPosition().Row) + 1,
				})

			case "call":
				nameNode, ok := caps["call.name"]
				if !ok {
					continue
				}
				res.Edges = append(res.Edges, symbol.RawEdge{
					ToName: nodeText(&nameNode, source), Kind: symbol.RelationCalls,
					Site: nodeRange(&node),
				})

			case "methodcall":
				recvNode, ok1 := caps["call.receiver"]
				methodNode, ok2 := caps["call.method"]
				if !ok1 || !ok2 {
					continue
				}
				recv := nodeText(&recvNode, source)
				res.Edges = append(res.Edges, symbol.RawEdge{
					ToName:   nodeText(&methodNode, source),
					Kind:     symbol.RelationCalls,
					Site:     nodeRange(&node),
					Metadata: "receiver:" + recv + ",static:false",
				})
			}
		}
	}

	return res, nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'' || s[0] == '`') {
		return s[1 : len(s)-1]
	}
	return s
}
