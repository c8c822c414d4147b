// Package symbol holds the pure data definitions shared by every
// layer of the index: the parser adapters, the indexer, the store and
// the tool service all exchange Symbol, Range, Import and
// RelationshipEdge values defined here. Nothing in this package has
// behavior — language-specific rules live in internal/lang.
package symbol

import "github.com/standardbeagle/codanna-go/internal/ids"

// Range is a half-open source span, 0-based on both lines and
// columns. Add 1 only when rendering to a human.
type Range struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// TypeParameter is a generic type parameter, e.g. T in func Foo[T any]().
// Display-only metadata; it never participates in resolution.
type TypeParameter struct {
	Name       string
	Constraint string
}

// Symbol is a named declaration extracted from source.
type Symbol struct {
	ID         ids.SymbolID
	Name       string
	Kind       Kind
	FileID     ids.FileID
	Range      Range
	ModulePath string // language-specific separator, empty if not applicable
	Signature  string // declaration head only, never the body
	DocComment string
	Visibility Visibility
	Scope      ScopeContext
	Hoisted    bool // only meaningful when Scope == ScopeLocal
	LanguageID ids.LanguageID

	TypeParameters []TypeParameter `json:",omitempty"`
}

// FileInfo is a row in the file-info table.
type FileInfo struct {
	ID            ids.FileID
	Path          string
	ContentHash   string // SHA-256 hex of the file's utf-8 bytes
	LastIndexedAt int64  // unix seconds, UTC
}

// Import is one import/use/include statement found in a file.
type Import struct {
	Path       string
	Alias      string // empty if not aliased
	FileID     ids.FileID
	Line       int
	IsGlob     bool
	IsTypeOnly bool
}

// RelationshipEdge is a typed directed link between two resolved
// symbols. Metadata is preserved verbatim so callers can reconstruct
// qualified call syntax (Receiver.method or Receiver::method).
type RelationshipEdge struct {
	From     ids.SymbolID
	To       ids.SymbolID
	Kind     RelationKind
	Metadata string
}

// RawEdge is an edge emitted by a parser adapter before name
// resolution: From/To are source-text names, not symbol IDs yet.
type RawEdge struct {
	FromName string
	ToName   string
	Kind     RelationKind
	Site     Range
	Metadata string // e.g. "receiver:<name>,static:<bool>"
}

// ReservedExternalPath is the virtual file path external symbols are
// minted under so they participate in queries but never appear in
// source listings.
const ReservedExternalPath = "codanna://external"
