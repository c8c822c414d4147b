package parsing

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// nodeRange converts a tree-sitter node's span into a 0-based Range,
// matching symbol.Range's line/column convention.
func nodeRange(n *tree_sitter.Node) symbol.Range {
	start := n.StartPosition()
	end := n.EndPosition()
	return symbol.Range{
		StartLine:   int(start.Row),
		StartColumn: int(start.Column),
		EndLine:     int(end.Row),
		EndColumn:   int(end.Column),
	}
}

// nodeText returns the verbatim source slice a node spans.
func nodeText(n *tree_sitter.Node, source []byte) string {
	return string(source[n.StartByte():n.EndByte()])
}

// signatureBefore returns the source text from decl's start up to (but
// excluding) body's start, trimmed — i.e. everything but the body, per
// spec.md §4.C's "signature string that excludes the declaration body".
func signatureBefore(decl, body *tree_sitter.Node, source []byte) string {
	if body == nil {
		return trimTrailingSpace(nodeText(decl, source))
	}
	end := body.StartByte()
	start := decl.StartByte()
	if end < start {
		return trimTrailingSpace(nodeText(decl, source))
	}
	return trimTrailingSpace(string(source[start:end]))
}

func trimTrailingSpace(s string) string {
	i := len(s)
	for i > 0 && (s[i-1] == ' ' || s[i-1] == '\t' || s[i-1] == '\n' || s[i-1] == '\r') {
		i--
	}
	return s[:i]
}

// captureMap indexes the capture names for one query match by the
// trailing ".name"-style sub-capture so Parse methods can look a
// child capture up without rescanning match.Captures.
type captureMap map[string]tree_sitter.Node

func collectNameCaptures(captures []tree_sitter.QueryCapture, names []string) captureMap {
	out := make(captureMap, 4)
	for _, c := range captures {
		name := names[c.Index]
		out[name] = c.Node
	}
	return out
}
