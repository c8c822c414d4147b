// Package indexer implements the reindex orchestration of spec.md
// §4.I: per-file hashing/parsing/resolution/persistence, and
// directory-level walking with bounded parallel parsing ahead of the
// store's single-writer commit.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/standardbeagle/codanna-go/internal/broadcast"
	"github.com/standardbeagle/codanna-go/internal/errs"
	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/lang"
	"github.com/standardbeagle/codanna-go/internal/parsing"
	"github.com/standardbeagle/codanna-go/internal/resolve"
	"github.com/standardbeagle/codanna-go/internal/semantic"
	"github.com/standardbeagle/codanna-go/internal/store"
	"github.com/standardbeagle/codanna-go/internal/symbol"
	"github.com/standardbeagle/codanna-go/internal/symcache"
)

// DefaultParallelism bounds concurrent file parses during directory
// indexing when the caller doesn't specify one.
const DefaultParallelism = 4

// MaxStatErrors caps how many per-file errors a directory-indexing run
// keeps, per spec.md §4.I.
const MaxStatErrors = 100

// Stats summarizes one directory-indexing run.
type Stats struct {
	FilesIndexed int
	FilesFailed  int
	FilesCached  int
	FilesSkipped int
	SymbolsFound int
	Elapsed      time.Duration
	Errors       []error
}

// FileResult summarizes one file's reindex.
type FileResult struct {
	FileID  ids.FileID
	Path    string
	Cached  bool
	Skipped bool // language recognized but no parser grammar bound (Kotlin, GDScript)
	Symbols int
}

// methodKey identifies a defining type's method for the indexer's
// qualified-call symbol table, scoped per language.
type methodKey struct {
	Type   string
	Method string
}

// Indexer drives spec.md §4.I's file and directory reindex algorithm.
// Its InheritanceResolver and qualified-method tables are deliberately
// long-lived across the whole indexing session (not per-file), since
// Rust's inherent-vs-trait disambiguation and any language's cross-
// file method resolution need the full picture built up one file at a
// time, exactly like the teacher's indexing.Engine holds its symbol
// cache for the process lifetime rather than rebuilding it per file.
type Indexer struct {
	store     *store.Store
	languages *lang.Registry
	parsers   *parsing.Registry
	semantic  *semantic.Store // nil disables embedding (spec.md §4.H is optional)
	cache     *symcache.Cache // nil disables the accelerator (spec.md §4.G is optional)
	notify    *broadcast.Broadcaster
	log       *slog.Logger

	mu          sync.Mutex
	inheritance map[ids.LanguageID]*resolve.InheritanceResolver
	methodSym   map[ids.LanguageID]map[methodKey]ids.SymbolID
	methodOwner map[ids.LanguageID]map[methodKey]bool // true once the bound ID is inherent (always wins further trait writes)
}

// New builds an Indexer. semanticStore, cache and notify are each
// optional (nil disables that feature without affecting the rest of
// indexing, per spec.md §7's independence requirements).
func New(st *store.Store, languages *lang.Registry, parsers *parsing.Registry, semanticStore *semantic.Store, cache *symcache.Cache, notify *broadcast.Broadcaster, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store: st, languages: languages, parsers: parsers,
		semantic: semanticStore, cache: cache, notify: notify, log: logger,
		inheritance: make(map[ids.LanguageID]*resolve.InheritanceResolver),
		methodSym:   make(map[ids.LanguageID]map[methodKey]ids.SymbolID),
		methodOwner: make(map[ids.LanguageID]map[methodKey]bool),
	}
}

var languageIDByName = map[string]ids.LanguageID{
	"go":         lang.LangGo,
	"typescript": lang.LangTypeScript,
	"python":     lang.LangPython,
	"rust":       lang.LangRust,
	"php":        lang.LangPHP,
	"csharp":     lang.LangCSharp,
	"cpp":        lang.LangCpp,
	"kotlin":     lang.LangKotlin,
	"gdscript":   lang.LangGDScript,
}

func (ix *Indexer) inheritanceFor(languageID ids.LanguageID, behavior lang.Behavior) *resolve.InheritanceResolver {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	r, ok := ix.inheritance[languageID]
	if !ok {
		r = behavior.CreateInheritanceResolver()
		ix.inheritance[languageID] = r
	}
	return r
}

// declareMethod records that typeName.method resolves to id. An
// inherent binding always wins and is never displaced; among trait
// bindings the first one recorded wins, mirroring
// resolve.InheritanceResolver's own precedence rule exactly so the two
// tables never disagree about which symbol "S::f" means.
func (ix *Indexer) declareMethod(languageID ids.LanguageID, typeName, method string, id ids.SymbolID, inherent bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	m, ok := ix.methodSym[languageID]
	if !ok {
		m = make(map[methodKey]ids.SymbolID)
		ix.methodSym[languageID] = m
	}
	owners, ok := ix.methodOwner[languageID]
	if !ok {
		owners = make(map[methodKey]bool)
		ix.methodOwner[languageID] = owners
	}
	key := methodKey{typeName, method}
	if inherent {
		m[key] = id
		owners[key] = true
		return
	}
	if owners[key] {
		return // an inherent binding already owns this key
	}
	if _, exists := m[key]; !exists {
		m[key] = id
	}
}

// resolveMethodSymbol walks typeName's inheritance chain for method
// and returns the symbol ID bound to whichever type actually defines
// it.
func (ix *Indexer) resolveMethodSymbol(languageID ids.LanguageID, inheritance *resolve.InheritanceResolver, typeName, method string) (ids.SymbolID, bool) {
	definingType, ok := inheritance.ResolveMethod(typeName, method)
	if !ok {
		return 0, false
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	id, ok := ix.methodSym[languageID][methodKey{definingType, method}]
	return id, ok
}

// parseImplTag splits a Rust Defines edge's metadata tag back into its
// impl type and trait name (empty for an inherent impl). See
// parsing/rust.go's implTag.
func parseImplTag(tag string) (implType, traitName string) {
	switch {
	case strings.HasPrefix(tag, "inherent:"):
		return strings.TrimPrefix(tag, "inherent:"), ""
	case strings.HasPrefix(tag, "trait:"):
		rest := strings.TrimPrefix(tag, "trait:")
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) == 2 {
			return parts[0], parts[1]
		}
		return rest, ""
	default:
		return "", ""
	}
}

// parseReceiver extracts the "receiver:<name>" field from a Calls raw
// edge's metadata string (e.g. "receiver:self,static:false"), shared
// verbatim across every parser adapter.
func parseReceiver(meta string) (string, bool) {
	for _, field := range strings.Split(meta, ",") {
		if name, ok := strings.CutPrefix(field, "receiver:"); ok {
			return name, name != ""
		}
	}
	return "", false
}

// ParserExtensions lists every extension this indexer's parser
// registry can handle, used by watchers and directory-add commands to
// build a Walker without reaching into the registry directly.
func (ix *Indexer) ParserExtensions() []string {
	return ix.parsers.Extensions()
}

// MethodsOf returns every method typeName exposes, including
// inherited ones, via the language's live InheritanceResolver. This is
// in-memory-only state rebuilt from Defines edges during indexing
// (spec.md §4.E step 1), not persisted to the store, so
// get_symbol_details' method listing is only as complete as the
// current process's indexing session; a cold store opened without
// reindexing returns nothing here.
func (ix *Indexer) MethodsOf(languageID ids.LanguageID, typeName string) []string {
	ix.mu.Lock()
	r, ok := ix.inheritance[languageID]
	ix.mu.Unlock()
	if !ok {
		return nil
	}
	return r.AllMethods(typeName)
}

// ParseCallReceiver exposes parseReceiver to the tool service so
// get_calls/find_callers can reconstruct qualified call syntax from
// an edge's metadata without duplicating the parsing rule.
func ParseCallReceiver(metadata string) (string, bool) {
	return parseReceiver(metadata)
}

// IndexFile runs spec.md §4.I's ten-step per-file algorithm. root is
// the workspace root; relPath is slash-separated and relative to it.
func (ix *Indexer) IndexFile(ctx context.Context, root, relPath string) (FileResult, error) {
	abs := filepath.Join(root, filepath.FromSlash(relPath))
	data, err := os.ReadFile(abs)
	if err != nil {
		return FileResult{}, errs.NewIndexingError("read", err).WithFile(0, relPath)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	existing, found, err := ix.store.FileInfoByPath(ctx, relPath)
	if err != nil {
		return FileResult{}, errs.NewStoreError("file_info_by_path", err)
	}
	if found && existing.ContentHash == hash {
		return FileResult{FileID: existing.ID, Path: relPath, Cached: true}, nil
	}

	var fileID ids.FileID
	var oldNames []string
	if found {
		fileID = existing.ID
		if old, err := ix.store.SymbolsByFile(ctx, fileID); err == nil {
			for _, s := range old {
				oldNames = append(oldNames, s.Name)
			}
		}
	} else {
		fileID = ix.store.NextFileID()
	}

	ext := filepath.Ext(relPath)
	behavior, ok := ix.languages.ForExtension(ext)
	if !ok {
		return FileResult{}, errs.NewIndexingError("unsupported extension", fmt.Errorf("%s", ext)).WithFile(fileID, relPath)
	}
	adapter, ok := ix.parsers.For(ext)
	if !ok {
		// Behavior registered but no grammar bound (Kotlin, GDScript) -
		// nothing to parse yet; treated as a no-op rather than a failure.
		return FileResult{FileID: fileID, Path: relPath, Skipped: true}, nil
	}

	languageID, ok := languageIDByName[behavior.Name()]
	if !ok {
		languageID = 0
	}

	result, parseErr := adapter.Parse(data, fileID, ix.store.SymbolCounter())
	if parseErr != nil {
		ix.log.Warn("parse error, keeping partial result", "path", relPath, "error", parseErr)
	}

	modulePath := behavior.ModulePathFromFile(relPath)
	for i := range result.Symbols {
		behavior.ConfigureSymbol(&result.Symbols[i], modulePath, result.Symbols[i].Signature)
		result.Symbols[i].LanguageID = languageID
	}

	// Resolution happens against the store's already-committed state
	// (prior files) before this file's own batch opens its write lock:
	// Batch holds the store's writer lock for its entire lifetime, and
	// the global-scope lookup below needs a plain read lock, so the two
	// cannot interleave on the same goroutine (internal/store's mutex
	// isn't reentrant). This file's own just-parsed symbols already
	// carry real IDs from the shared counter, so resolving edges before
	// they're persisted loses nothing.
	resolved, embedCandidates := ix.resolveEdges(ctx, behavior, languageID, fileID, result)

	batch, err := ix.store.StartBatch(ctx)
	if err != nil {
		return FileResult{}, errs.NewStoreError("start_batch", err)
	}

	if err := batch.DeleteFile(ctx, fileID); err != nil {
		_ = batch.Rollback()
		return FileResult{}, errs.NewStoreError("delete_file", err)
	}
	if err := batch.PutFileInfo(ctx, symbol.FileInfo{ID: fileID, Path: relPath, ContentHash: hash, LastIndexedAt: time.Now().Unix()}); err != nil {
		_ = batch.Rollback()
		return FileResult{}, errs.NewStoreError("put_file_info", err)
	}
	for _, sym := range result.Symbols {
		if err := batch.PutSymbol(ctx, sym); err != nil {
			_ = batch.Rollback()
			return FileResult{}, errs.NewStoreError("put_symbol", err)
		}
	}
	for _, imp := range result.Imports {
		if err := batch.PutImport(ctx, imp); err != nil {
			_ = batch.Rollback()
			return FileResult{}, errs.NewStoreError("put_import", err)
		}
	}

	for _, edge := range resolved {
		if err := batch.PutEdge(ctx, edge); err != nil {
			_ = batch.Rollback()
			return FileResult{}, errs.NewStoreError("put_edge", err)
		}
	}

	if _, err := batch.IncrMetadata(ctx, "files_indexed_total", 1); err != nil {
		_ = batch.Rollback()
		return FileResult{}, errs.NewStoreError("incr_metadata", err)
	}
	if _, err := batch.IncrMetadata(ctx, "symbols_indexed_total", uint64(len(result.Symbols))); err != nil {
		_ = batch.Rollback()
		return FileResult{}, errs.NewStoreError("incr_metadata", err)
	}
	if _, err := batch.IncrMetadata(ctx, "edges_resolved_total", uint64(len(resolved))); err != nil {
		_ = batch.Rollback()
		return FileResult{}, errs.NewStoreError("incr_metadata", err)
	}

	if err := batch.Commit(); err != nil {
		return FileResult{}, errs.NewStoreError("commit", err)
	}

	if ix.semantic != nil {
		for _, cand := range embedCandidates {
			if err := ix.semantic.EmbedSymbol(ctx, cand.ID, languageID, cand.docText); err != nil {
				ix.log.Warn("semantic embed failed", "symbol", cand.ID, "error", err)
			}
		}
	}

	if ix.cache != nil {
		for _, name := range oldNames {
			ix.cache.Invalidate(name)
		}
		for _, sym := range result.Symbols {
			ix.cache.Invalidate(sym.Name)
		}
	}
	if ix.notify != nil {
		ix.notify.Publish(broadcast.Event{Kind: broadcast.FileReindexed, Path: relPath})
	}

	return FileResult{FileID: fileID, Path: relPath, Symbols: len(result.Symbols)}, nil
}

// RemoveFile deletes every trace of relPath from the store, used by
// the source watcher on a filesystem Remove event. A path the store
// never indexed is a no-op.
func (ix *Indexer) RemoveFile(ctx context.Context, relPath string) error {
	fi, found, err := ix.store.FileInfoByPath(ctx, relPath)
	if err != nil {
		return errs.NewStoreError("file_info_by_path", err)
	}
	if !found {
		return nil
	}

	var names []string
	if syms, err := ix.store.SymbolsByFile(ctx, fi.ID); err == nil {
		for _, s := range syms {
			names = append(names, s.Name)
		}
	}

	batch, err := ix.store.StartBatch(ctx)
	if err != nil {
		return errs.NewStoreError("start_batch", err)
	}
	if err := batch.DeleteFile(ctx, fi.ID); err != nil {
		_ = batch.Rollback()
		return errs.NewStoreError("delete_file", err)
	}
	if err := batch.DeleteFileInfo(ctx, fi.ID); err != nil {
		_ = batch.Rollback()
		return errs.NewStoreError("delete_file_info", err)
	}
	if err := batch.Commit(); err != nil {
		return errs.NewStoreError("commit", err)
	}

	if ix.cache != nil {
		for _, name := range names {
			ix.cache.Invalidate(name)
		}
	}
	if ix.notify != nil {
		ix.notify.Publish(broadcast.Event{Kind: broadcast.FileDeleted, Path: relPath})
	}
	return nil
}

// embedCandidate pairs a symbol with the text its semantic embedding
// should cover.
type embedCandidate struct {
	ID      ids.SymbolID
	docText string
}

// resolveEdges implements spec.md §4.E's relationship resolution over
// one file's raw edges, using the edge's enclosing declaration as its
// implicit from_name whenever a parser adapter left FromName empty
// (every bundled adapter omits it for Calls/Extends edges and for every
// Implements edge except Rust's, supplying only the site range, so the
// indexer recovers "from" by range containment rather than by name
// lookup).
func (ix *Indexer) resolveEdges(ctx context.Context, behavior lang.Behavior, languageID ids.LanguageID, fileID ids.FileID, result parsing.Result) ([]symbol.RelationshipEdge, []embedCandidate) {
	inheritance := ix.inheritanceFor(languageID, behavior)
	rctx := behavior.CreateResolutionContext(fileID)

	localByName := make(map[string][]ids.SymbolID, len(result.Symbols))
	bySize := make([]symbol.Symbol, len(result.Symbols))
	copy(bySize, result.Symbols)
	sort.Slice(bySize, func(i, j int) bool { return rangeSpan(bySize[i].Range) < rangeSpan(bySize[j].Range) })

	for _, sym := range result.Symbols {
		localByName[sym.Name] = append(localByName[sym.Name], sym.ID)
		if behavior.IsResolvableSymbol(sym) {
			rctx.DeclareModule(sym.Name, sym.ID)
		}
	}

	imports := result.Imports

	// First pass: Defines edges populate the inheritance resolver and
	// the qualified-call symbol table before anything tries to resolve
	// a "Type.method" call against them.
	for _, e := range result.Edges {
		if e.Kind != symbol.RelationDefines {
			continue
		}
		methodID, ok := lastOf(localByName[e.FromName])
		if !ok {
			continue
		}
		implType, traitName := parseImplTag(e.Metadata)
		if implType == "" {
			continue
		}
		if traitName == "" {
			inheritance.AddInherentMethod(implType, e.FromName)
			ix.declareMethod(languageID, implType, e.FromName, methodID, true)
			continue
		}
		inheritance.AddTraitMethod(implType, e.FromName, traitName)
		ix.declareMethod(languageID, implType, e.FromName, methodID, false)
		if cands := inheritance.CandidateTraits(implType, e.FromName); len(cands) > 1 {
			ix.log.Warn("ambiguous trait method resolution, first match wins",
				"type", implType, "method", e.FromName, "candidate_traits", cands)
		}
	}

	var resolved []symbol.RelationshipEdge
	for _, e := range result.Edges {
		if e.Kind == symbol.RelationDefines {
			continue // already consumed above
		}
		fromID, ok := ix.resolveFromName(e, localByName, bySize)
		if !ok {
			continue
		}
		toID, ok := ix.resolveToName(ctx, behavior, languageID, rctx, inheritance, imports, e)
		if !ok {
			continue
		}
		resolved = append(resolved, symbol.RelationshipEdge{From: fromID, To: toID, Kind: e.Kind, Metadata: e.Metadata})
	}

	var candidates []embedCandidate
	for _, sym := range result.Symbols {
		if sym.DocComment == "" {
			continue
		}
		text := sym.DocComment
		if sym.Signature != "" {
			text = sym.Signature + "\n" + text
		}
		candidates = append(candidates, embedCandidate{ID: sym.ID, docText: text})
	}

	return resolved, candidates
}

func lastOf(s []ids.SymbolID) (ids.SymbolID, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

func rangeSpan(r symbol.Range) int {
	return (r.EndLine-r.StartLine)*100000 + (r.EndColumn - r.StartColumn)
}

// rangeContains reports whether outer contains site, bounds included
// (site can equal outer when a symbol's own header is the edge's site, e.g. an
// Implements edge on the type declaration itself).
func rangeContains(outer, site symbol.Range) bool {
	startOK := outer.StartLine < site.StartLine ||
		(outer.StartLine == site.StartLine && outer.StartColumn <= site.StartColumn)
	endOK := outer.EndLine > site.EndLine ||
		(outer.EndLine == site.EndLine && outer.EndColumn >= site.EndColumn)
	return startOK && endOK
}

// resolveFromName resolves a raw edge's from endpoint: by exact local
// name when the adapter supplied one (Rust's Defines/Implements
// edges), otherwise by finding the smallest symbol (by span, so a
// method wins over its enclosing class) whose range contains the
// edge's site.
func (ix *Indexer) resolveFromName(e symbol.RawEdge, localByName map[string][]ids.SymbolID, bySize []symbol.Symbol) (ids.SymbolID, bool) {
	if e.FromName != "" {
		return lastOf(localByName[e.FromName])
	}
	for _, sym := range bySize {
		if rangeContains(sym.Range, e.Site) {
			return sym.ID, true
		}
	}
	return 0, false
}

// resolveToName implements spec.md §4.E step 2-3: qualified lookup for
// receiver calls, then the scope chain, then a cross-file global
// lookup, then external-symbol minting as a last resort.
func (ix *Indexer) resolveToName(ctx context.Context, behavior lang.Behavior, languageID ids.LanguageID, rctx *resolve.Context, inheritance *resolve.InheritanceResolver, imports []symbol.Import, e symbol.RawEdge) (ids.SymbolID, bool) {
	if e.Kind == symbol.RelationCalls {
		if receiver, ok := parseReceiver(e.Metadata); ok {
			if id, ok := rctx.LookupQualified(receiver + "." + e.ToName); ok {
				return id, true
			}
			if id, ok := ix.resolveMethodSymbol(languageID, inheritance, receiver, e.ToName); ok {
				return id, true
			}
		}
	}

	if id, ok := rctx.Lookup(e.ToName); ok {
		return id, true
	}

	if id, ok := ix.globalLookup(ctx, e.ToName, languageID); ok {
		return id, true
	}

	if module, member, ok := behavior.ResolveExternalCallTarget(e.ToName, imports); ok {
		sym := behavior.CreateExternalSymbol(ix.store, module, member)
		return sym.ID, true
	}
	return 0, false
}

// globalLookup resolves a bare name against every already-indexed file
// (spec.md §4.E's Global/Package layer), consulting the symbol cache
// first and repopulating it on a miss.
func (ix *Indexer) globalLookup(ctx context.Context, name string, languageID ids.LanguageID) (ids.SymbolID, bool) {
	if ix.cache != nil {
		if cached, ok := ix.cache.Get(name); ok && len(cached) > 0 {
			return cached[0], true
		}
	}
	lid := languageID
	syms, err := ix.store.SymbolsByName(ctx, name, &lid)
	if err != nil || len(syms) == 0 {
		return 0, false
	}
	if ix.cache != nil {
		out := make([]ids.SymbolID, 0, len(syms))
		for _, s := range syms {
			out = append(out, s.ID)
		}
		ix.cache.Put(name, out)
	}
	return syms[0].ID, true
}
