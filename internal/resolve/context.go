// Package resolve implements the language-agnostic half of symbol
// resolution: per-file scope stacks (spec.md §4.E) and the
// inheritance/trait resolver every language behavior configures with
// its own rules. The per-language dispatch that drives these
// primitives lives in internal/lang and internal/indexer.
package resolve

import "github.com/standardbeagle/codanna-go/internal/ids"

// Context is the ephemeral, per-file resolution container: a
// four-layer name lookup (Local -> Imported -> Module -> Global) plus
// an import-binding table for qualified lookups like "Receiver.method".
//
// Local is a stack of frames so languages with lexical nesting (LEGB
// in Python, block scoping in TS/Go) can shadow correctly: the
// innermost frame is searched first.
type Context struct {
	FileID   ids.FileID
	local    []map[string]ids.SymbolID
	imported map[string]ids.SymbolID
	module   map[string]ids.SymbolID
	global   map[string]ids.SymbolID

	// qualified holds bindings keyed "Receiver.member" for direct
	// lookups before falling back to the inheritance resolver.
	qualified map[string]ids.SymbolID
}

// NewContext returns a fresh Context for fileID with one empty local
// frame (the file/module-level block).
func NewContext(fileID ids.FileID) *Context {
	return &Context{
		FileID:    fileID,
		local:     []map[string]ids.SymbolID{make(map[string]ids.SymbolID)},
		imported:  make(map[string]ids.SymbolID),
		module:    make(map[string]ids.SymbolID),
		global:    make(map[string]ids.SymbolID),
		qualified: make(map[string]ids.SymbolID),
	}
}

// PushScope opens a new, innermost local frame (entering a function
// or block).
func (c *Context) PushScope() {
	c.local = append(c.local, make(map[string]ids.SymbolID))
}

// PopScope closes the innermost local frame (leaving a function or
// block). A no-op if only the outermost frame remains.
func (c *Context) PopScope() {
	if len(c.local) > 1 {
		c.local = c.local[:len(c.local)-1]
	}
}

// DeclareLocal binds name in the current innermost frame.
func (c *Context) DeclareLocal(name string, id ids.SymbolID) {
	c.local[len(c.local)-1][name] = id
}

// DeclareImported binds name via an import/use/using directive.
func (c *Context) DeclareImported(name string, id ids.SymbolID) {
	c.imported[name] = id
}

// DeclareModule binds name as a module-level (current file) symbol.
func (c *Context) DeclareModule(name string, id ids.SymbolID) {
	c.module[name] = id
}

// DeclareGlobal binds name as a globally/package-visible symbol from
// another file.
func (c *Context) DeclareGlobal(name string, id ids.SymbolID) {
	c.global[name] = id
}

// DeclareQualified binds a dotted/colon "Receiver.member" style name
// directly, bypassing scope layering (used for namespace aliases like
// React.useState).
func (c *Context) DeclareQualified(qualifiedName string, id ids.SymbolID) {
	c.qualified[qualifiedName] = id
}

// Lookup resolves name through Local (innermost frame first) ->
// Imported -> Module -> Global, in that order, returning the first
// match. This is the resolution-order invariant of spec.md §8: a name
// shadowed in a more-local scope always wins.
func (c *Context) Lookup(name string) (ids.SymbolID, bool) {
	for i := len(c.local) - 1; i >= 0; i-- {
		if id, ok := c.local[i][name]; ok {
			return id, true
		}
	}
	if id, ok := c.imported[name]; ok {
		return id, true
	}
	if id, ok := c.module[name]; ok {
		return id, true
	}
	if id, ok := c.global[name]; ok {
		return id, true
	}
	return 0, false
}

// LookupQualified resolves a "Receiver.member" or "Receiver::member"
// style name registered via DeclareQualified.
func (c *Context) LookupQualified(qualifiedName string) (ids.SymbolID, bool) {
	id, ok := c.qualified[qualifiedName]
	return id, ok
}

// LookupModule resolves only against the current file's module
// scope, used by languages whose local-package lookup matches symbols
// by declared package/module path rather than by import.
func (c *Context) LookupModule(name string) (ids.SymbolID, bool) {
	id, ok := c.module[name]
	return id, ok
}
