package parsing

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

const rustQuery = `
(function_item name: (identifier) @function.name) @function
(struct_item name: (type_identifier) @struct.name) @struct
(enum_item name: (type_identifier) @enum.name) @enum
(trait_item name: (type_identifier) @trait.name) @trait
(impl_item
	trait: (type_identifier) @impl.trait
	type: (type_identifier) @impl.type) @traitimpl
(impl_item
	!trait
	type: (type_identifier) @impl.type) @inherentimpl
(use_declaration argument: (_) @import.path) @import
(call_expression function: (identifier) @call.name) @call
(call_expression
	function: (field_expression
		value: (identifier) @call.receiver
		field: (field_identifier) @call.method)) @methodcall
`

// rustAdapter parses Rust with tree-sitter-rust. Method symbols are
// emitted as children of the enclosing impl_item rather than matched
// directly, since the grammar nests function_item under impl_item's
// declaration_list; the adapter walks each impl block's direct
// function_item children to attribute methods to their impl (and thus
// to the inherent-vs-trait disambiguation done in internal/indexer).
type rustAdapter struct {
	parser   *tree_sitter.Parser
	language *tree_sitter.Language
	query    *tree_sitter.Query
}

// NewRustAdapter builds the Rust parser adapter.
func NewRustAdapter() Adapter {
	lang := tree_sitter.NewLanguage(tree_sitter_rust.Language())
	p := tree_sitter.NewParser()
	_ = p.SetLanguage(lang)
	q, _ := tree_sitter.NewQuery(lang, rustQuery)
	return &rustAdapter{parser: p, language: lang, query: q}
}

func (a *rustAdapter) Name() string         { return "rust" }
func (a *rustAdapter) Extensions() []string { return []string{".rs"} }

func (a *rustAdapter) Parse(source []byte, fileID ids.FileID, counter *ids.Counter) (Result, error) {
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
				if insideImpl(&node) {
					continue // emitted via traitimpl/inherentimpl below, attributed to its impl type
				}
				body := node.ChildByFieldName("body")
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindFunction, FileID: fileID, Range: nodeRange(&node),
					Signature: signatureBefore(&node, body, source), Scope: symbol.ScopeModule,
				})

			case "struct":
				nameNode, ok := caps["struct.name"]
				if !ok {
					continue
				}
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindStruct, FileID: fileID, Range: nodeRange(&node),
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

			case "trait":
				nameNode, ok := caps["trait.name"]
				if !ok {
					continue
				}
				res.Symbols = append(res.Symbols, symbol.Symbol{
					ID: ids.NextSymbolID(counter), Name: nodeText(&nameNode, source),
					Kind: symbol.KindTrait, FileID: fileID, Range: nodeRange(&node),
					Signature: nodeText(&node, source), Scope: symbol.ScopeModule,
				})

			case "traitimpl":
				typeNode, ok1 := caps["impl.type"]
				traitNode, ok2 := caps["impl.trait"]
				if !ok1 || !ok2 {
					continue
				}
				res.Edges = append(res.Edges, symbol.RawEdge{
					FromName: nodeText(&typeNode, source), ToName: nodeText(&traitNode, source),
					Kind: symbol.RelationImplements, Site: nodeRange(&node),
				})
				methodSyms, methodEdges := methodsOfImpl(&node, source, fileID, counter, nodeText(&typeNode, source), nodeText(&traitNode, source))
				res.Symbols = append(res.Symbols, methodSyms...)
				res.Edges = append(res.Edges, methodEdges...)

			case "inherentimpl":
				typeNode, ok := caps["impl.type"]
				if !ok {
					continue
				}
				methodSyms, methodEdges := methodsOfImpl(&node, source, fileID, counter, nodeText(&typeNode, source), "")
				res.Symbols = append(res.Symbols, methodSyms...)
				res.Edges = append(res.Edges, methodEdges...)

			case "import":
				pathNode, ok := caps["import.path"]
				if !ok {
					continue
				}
				path := nodeText(&pathNode, source)
				res.Imports = append(res.Imports, symbol.Import{
					Path: path, FileID: fileID, Line: int(node.StartPosition().Row) + 1,
					IsGlob: containsToken(path, "*"),
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

func insideImpl(node *tree_sitter.Node) bool {
	parent := node.Parent()
	for parent != nil {
		if parent.Kind() == "impl_item" {
			return true
		}
		parent = parent.Parent()
	}
	return false
}

// implTag builds the "inherent:<Type>" or "trait:<Type>:<Trait>" tag a
// method symbol carries as its provisional ModulePath and its Defines
// edge carries as Metadata. The indexer reads the edge's tag to recover
// inherent-vs-trait attribution (the defining type, and for trait
// impls which trait), since lang.Behavior.ConfigureSymbol overwrites
// ModulePath with the crate path proper.
func implTag(implType, traitName string) string {
	if traitName == "" {
		return "inherent:" + implType
	}
	return "trait:" + implType + ":" + traitName
}

// methodsOfImpl extracts each direct function_item method inside an
// impl block's declaration_list, labeling its kind/receiver so
// internal/indexer can register it as inherent or trait-provided. It
// also emits a Defines raw edge from the method back to the impl
// type so the resolver can populate its inheritance/method tables
// without re-walking the tree. traitName is empty for an inherent
// impl.
func methodsOfImpl(impl *tree_sitter.Node, source []byte, fileID ids.FileID, counter *ids.Counter, implType, traitName string) ([]symbol.Symbol, []symbol.RawEdge) {
	body := impl.ChildByFieldName("body")
	if body == nil {
		return nil, nil
	}
	var out []symbol.Symbol
	var edges []symbol.RawEdge
	count := int(body.ChildCount())
	for i := 0; i < count; i++ {
		child := body.Child(uint(i))
		if child == nil || child.Kind() != "function_item" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		fnBody := child.ChildByFieldName("body")
		methodName := nodeText(nameNode, source)
		out = append(out, symbol.Symbol{
			ID: ids.NextSymbolID(counter), Name: methodName,
			Kind: symbol.KindMethod, FileID: fileID, Range: nodeRange(child),
			Signature:  signatureBefore(child, fnBody, source),
			Scope:      symbol.ScopeClassMember,
			ModulePath: implTag(implType, traitName), // provisional; behavior.ConfigureSymbol rewrites to the crate path
		})
		edges = append(edges, symbol.RawEdge{
			FromName: methodName, ToName: implType, Kind: symbol.RelationDefines,
			Site: nodeRange(child), Metadata: implTag(implType, traitName),
		})
	}
	return out, edges
}
