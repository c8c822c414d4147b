package toolservice

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/codanna-go/internal/errs"
	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/indexer"
	"github.com/standardbeagle/codanna-go/internal/store"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// kindByName is the inverse of symbol.Kind.String(), accepting the
// same vocabulary search_symbols' optional kind input documents.
var kindByName = func() map[string]symbol.Kind {
	m := make(map[string]symbol.Kind)
	for k := symbol.KindFunction; k <= symbol.KindMacro; k++ {
		m[k.String()] = k
	}
	return m
}()

func parseKind(name string) (symbol.Kind, bool) {
	k, ok := kindByName[name]
	return k, ok
}

// location renders a symbol's human-facing file:line, resolving its
// FileID through st. Falls back to "<unknown file>" rather than
// failing the whole render when the file row is somehow missing.
func location(ctx context.Context, st *store.Store, sym symbol.Symbol) string {
	fi, found, err := st.FileInfoByID(ctx, sym.FileID)
	if err != nil || !found {
		return fmt.Sprintf("<unknown file>:%d", sym.Range.StartLine+1)
	}
	return fmt.Sprintf("%s:%d", fi.Path, sym.Range.StartLine+1)
}

func filePath(ctx context.Context, st *store.Store, fileID ids.FileID) string {
	fi, found, err := st.FileInfoByID(ctx, fileID)
	if err != nil || !found {
		return ""
	}
	return fi.Path
}

// FindSymbol implements spec.md §4.L's find_symbol: an exact-name
// lookup rendering location, module, signature, doc preview and a
// one-line relationship summary for every match.
func (s *Service) FindSymbol(ctx context.Context, name, langName string) (string, error) {
	_, st, _ := s.snapshot()

	var langPtr *ids.LanguageID
	if id, ok := languageIDFromName(langName); ok {
		langPtr = &id
	}

	syms, err := st.SymbolsByName(ctx, name, langPtr)
	if err != nil {
		return "", errs.NewStoreError("find_symbol", err)
	}
	if len(syms) == 0 {
		return "", errs.NewNotFoundError(fmt.Sprintf("symbol %q", name))
	}

	blocks := make([]string, 0, len(syms))
	for _, sym := range syms {
		calls, _ := st.EdgesFrom(ctx, sym.ID)
		callers, _ := st.EdgesTo(ctx, sym.ID)
		nCalls, nCallers, nImpl := 0, 0, 0
		for _, e := range calls {
			if e.Kind == symbol.RelationCalls {
				nCalls++
			}
		}
		for _, e := range callers {
			switch e.Kind {
			case symbol.RelationCalls:
				nCallers++
			case symbol.RelationImplements, symbol.RelationExtends:
				nImpl++
			}
		}
		blocks = append(blocks, fmt.Sprintf(
			"%s %s at %s\nmodule: %s\nsignature: %s\ndoc: %s\nrelationships: %d outgoing calls, %d callers, %d implementers",
			sym.Kind, sym.Name, location(ctx, st, sym), sym.ModulePath, sym.Signature,
			docPreview(sym.DocComment, 120), nCalls, nCallers, nImpl))
	}
	return strings.Join(blocks, "\n\n"), nil
}

// SearchSymbols implements spec.md §4.L's search_symbols: ranked
// fuzzy search with kind/module/lang/path filters, pagination and the
// 20000-token auto-truncation-to-summary rule.
func (s *Service) SearchSymbols(ctx context.Context, query string, limit int, kindName, module, langName, filePattern, excludePattern string, offset int, summaryOnly bool) (string, error) {
	_, st, _ := s.snapshot()

	opts := store.SearchOptions{Module: module, Limit: 500}
	if k, ok := parseKind(kindName); ok {
		opts.Kind = &k
	}
	if id, ok := languageIDFromName(langName); ok {
		opts.Language = &id
	}

	hits, err := st.SearchSymbols(ctx, query, opts)
	if err != nil {
		return "", errs.NewStoreError("search_symbols", err)
	}

	type filtered struct {
		hit  store.SearchHit
		path string
	}
	var kept []filtered
	for _, h := range hits {
		p := filePath(ctx, st, h.Symbol.FileID)
		if !passesPathFilters(p, filePattern, excludePattern) {
			continue
		}
		kept = append(kept, filtered{hit: h, path: p})
	}
	if len(kept) == 0 {
		return "", errs.NewNotFoundError(fmt.Sprintf("symbols matching %q", query))
	}

	if limit <= 0 {
		limit = 10
	}
	page := paginate(kept, offset, limit)

	full := make([]string, 0, len(page))
	summary := make([]string, 0, len(page))
	for _, f := range page {
		sym := f.hit.Symbol
		full = append(full, fmt.Sprintf("%s %s at %s (score %.3f)\nmodule: %s\nsignature: %s\ndoc: %s",
			sym.Kind, sym.Name, location(ctx, st, sym), f.hit.Score, sym.ModulePath, sym.Signature, docPreview(sym.DocComment, 120)))
		summary = append(summary, fmt.Sprintf("%s %s at %s (score %.3f)", sym.Kind, sym.Name, location(ctx, st, sym), f.hit.Score))
	}

	body, truncated := renderBlocks(full, summary, summaryOnly)
	header := fmt.Sprintf("%d matches for %q (showing %d-%d of %d)", len(kept), query, offset+1, offset+len(page), len(kept))
	if truncated {
		header += " [truncated to summary: response would exceed 20000 tokens]"
	}
	return header + "\n\n" + body, nil
}

// GetSymbolDetails implements spec.md §4.L's get_symbol_details.
func (s *Service) GetSymbolDetails(ctx context.Context, symbolName, wantFilePath, module string) (string, error) {
	ix, st, _ := s.snapshot()

	syms, err := st.SymbolsByName(ctx, symbolName, nil)
	if err != nil {
		return "", errs.NewStoreError("get_symbol_details", err)
	}
	var candidates []symbol.Symbol
	for _, sym := range syms {
		if module != "" && sym.ModulePath != module {
			continue
		}
		if wantFilePath != "" && filePath(ctx, st, sym.FileID) != wantFilePath {
			continue
		}
		candidates = append(candidates, sym)
	}
	if len(candidates) == 0 {
		return "", errs.NewNotFoundError(fmt.Sprintf("symbol %q", symbolName))
	}
	sym := candidates[0]

	implEdges, _ := st.EdgesTo(ctx, sym.ID)
	var implementers []string
	for _, e := range implEdges {
		if e.Kind != symbol.RelationImplements && e.Kind != symbol.RelationExtends {
			continue
		}
		if child, found, err := st.SymbolByID(ctx, e.From); err == nil && found {
			implementers = append(implementers, fmt.Sprintf("%s at %s", child.Name, location(ctx, st, child)))
		}
		if len(implementers) >= 10 {
			break
		}
	}

	methods := ix.MethodsOf(sym.LanguageID, sym.Name)
	sort.Strings(methods)
	if len(methods) > 10 {
		methods = methods[:10]
	}

	callerEdges, _ := st.EdgesTo(ctx, sym.ID)
	var callers []string
	for _, e := range callerEdges {
		if e.Kind != symbol.RelationCalls {
			continue
		}
		if caller, found, err := st.SymbolByID(ctx, e.From); err == nil && found {
			callers = append(callers, fmt.Sprintf("%s at %s", caller.Name, location(ctx, st, caller)))
		}
		if len(callers) >= 10 {
			break
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s at %s\n", sym.Kind, sym.Name, location(ctx, st, sym))
	fmt.Fprintf(&b, "module: %s\nvisibility: %s\nscope: %s\n", sym.ModulePath, sym.Visibility, sym.Scope)
	fmt.Fprintf(&b, "signature: %s\n", sym.Signature)
	fmt.Fprintf(&b, "doc:\n%s\n", sym.DocComment)
	if len(candidates) > 1 {
		fmt.Fprintf(&b, "(%d other symbols named %q also matched; narrow with file_path/module)\n", len(candidates)-1, symbolName)
	}
	fmt.Fprintf(&b, "implementers (%d): %s\n", len(implementers), strings.Join(implementers, "; "))
	fmt.Fprintf(&b, "methods (%d): %s\n", len(methods), strings.Join(methods, ", "))
	fmt.Fprintf(&b, "callers (%d): %s\n", len(callers), strings.Join(callers, "; "))
	return b.String(), nil
}

// splitQualifiedCall splits a "Type::method" or "Type.method"
// get_calls/find_callers argument into its receiver and bare method
// name. Rust inherent methods (parsing/rust.go's Behavior emits
// Name: methodName, not "Type::method") are stored under their bare
// name, so a qualified argument only resolves once the receiver is
// split off and checked against the inheritance table.
func splitQualifiedCall(name string) (receiver, method string, qualified bool) {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[:i], name[i+2:], true
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i+1:], true
	}
	return "", name, false
}

// methodBelongsToReceiver reports whether sym is one of receiver's
// methods according to the indexer's per-language inheritance table.
func methodBelongsToReceiver(ix *indexer.Indexer, sym symbol.Symbol, receiver string) bool {
	for _, m := range ix.MethodsOf(sym.LanguageID, receiver) {
		if m == sym.Name {
			return true
		}
	}
	return false
}

// renderCallEdges is the shared body of get_calls/find_callers: it
// resolves every edge's other endpoint and reconstructs the qualified
// call expression from the edge metadata.
func (s *Service) renderCallEdges(ctx context.Context, functionName string, outgoing bool) (string, error) {
	ix, st, _ := s.snapshot()

	receiver, method, qualified := splitQualifiedCall(functionName)
	lookupName := functionName
	if qualified {
		lookupName = method
	}

	syms, err := st.SymbolsByName(ctx, lookupName, nil)
	if err != nil {
		return "", errs.NewStoreError("calls", err)
	}
	if qualified {
		var resolved []symbol.Symbol
		for _, sym := range syms {
			if methodBelongsToReceiver(ix, sym, receiver) {
				resolved = append(resolved, sym)
			}
		}
		if len(resolved) > 0 {
			syms = resolved
		}
	}
	if len(syms) == 0 {
		return "", errs.NewNotFoundError(fmt.Sprintf("function %q", functionName))
	}

	var lines []string
	for _, sym := range syms {
		var edges []symbol.RelationshipEdge
		if outgoing {
			edges, err = st.EdgesFrom(ctx, sym.ID)
		} else {
			edges, err = st.EdgesTo(ctx, sym.ID)
		}
		if err != nil {
			return "", errs.NewStoreError("calls", err)
		}
		for _, e := range edges {
			if e.Kind != symbol.RelationCalls {
				continue
			}
			otherID := e.To
			if !outgoing {
				otherID = e.From
			}
			other, found, err := st.SymbolByID(ctx, otherID)
			if err != nil || !found {
				continue
			}
			if outgoing {
				lines = append(lines, fmt.Sprintf("%s calls %s at %s", sym.Name,
					qualifiedCallTargetSimple(e.Metadata, other.Name), location(ctx, st, other)))
			} else {
				lines = append(lines, fmt.Sprintf("%s calls %s at %s", other.Name,
					qualifiedCallTargetSimple(e.Metadata, sym.Name), location(ctx, st, other)))
			}
		}
	}
	if len(lines) == 0 {
		what := "outgoing calls"
		if !outgoing {
			what = "callers"
		}
		return "", errs.NewNotFoundError(fmt.Sprintf("%s for %q", what, functionName))
	}
	return strings.Join(lines, "\n"), nil
}

// qualifiedCallTargetSimple renders "receiver.name" when the edge
// metadata carries a receiver, "receiver::name" when that metadata
// also contains "static:true", and just name when there is no receiver.
func qualifiedCallTargetSimple(metadata, name string) string {
	receiver, ok := indexer.ParseCallReceiver(metadata)
	if !ok || receiver == "" {
		return name
	}
	sep := "."
	if strings.Contains(metadata, "static:true") {
		sep = "::"
	}
	return receiver + sep + name
}

// GetCalls implements spec.md §4.L's get_calls.
func (s *Service) GetCalls(ctx context.Context, functionName string) (string, error) {
	return s.renderCallEdges(ctx, functionName, true)
}

// FindCallers implements spec.md §4.L's find_callers.
func (s *Service) FindCallers(ctx context.Context, functionName string) (string, error) {
	return s.renderCallEdges(ctx, functionName, false)
}

// impactHit is one symbol discovered while walking the incoming-edge
// closure for analyze_impact / semantic_search_with_context.
type impactHit struct {
	sym   symbol.Symbol
	kind  symbol.RelationKind
	depth int
}

// impactClosure walks incoming edges of every kind from root up to
// maxDepth hops, visiting each symbol at most once (spec.md's cyclic-
// graph edge case: "traversal algorithms must use visited sets").
func (s *Service) impactClosure(ctx context.Context, st *store.Store, root ids.SymbolID, maxDepth int) ([]impactHit, error) {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	visited := map[ids.SymbolID]bool{root: true}
	frontier := []ids.SymbolID{root}
	var hits []impactHit

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []ids.SymbolID
		for _, id := range frontier {
			edges, err := st.EdgesTo(ctx, id)
			if err != nil {
				return nil, errs.NewStoreError("analyze_impact", err)
			}
			for _, e := range edges {
				if visited[e.From] {
					continue
				}
				visited[e.From] = true
				sym, found, err := st.SymbolByID(ctx, e.From)
				if err != nil || !found {
					continue
				}
				hits = append(hits, impactHit{sym: sym, kind: e.Kind, depth: depth})
				next = append(next, e.From)
			}
		}
		frontier = next
	}
	return hits, nil
}

// AnalyzeImpact implements spec.md §4.L's analyze_impact.
func (s *Service) AnalyzeImpact(ctx context.Context, symbolName string, maxDepth int) (string, error) {
	_, st, _ := s.snapshot()

	syms, err := st.SymbolsByName(ctx, symbolName, nil)
	if err != nil {
		return "", errs.NewStoreError("analyze_impact", err)
	}
	if len(syms) == 0 {
		return "", errs.NewNotFoundError(fmt.Sprintf("symbol %q", symbolName))
	}

	grouped := make(map[symbol.RelationKind][]impactHit)
	for _, root := range syms {
		hits, err := s.impactClosure(ctx, st, root.ID, maxDepth)
		if err != nil {
			return "", err
		}
		for _, h := range hits {
			grouped[h.kind] = append(grouped[h.kind], h)
		}
	}
	if len(grouped) == 0 {
		return "", errs.NewNotFoundError(fmt.Sprintf("impact for %q", symbolName))
	}

	var kinds []symbol.RelationKind
	for k := range grouped {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	var b strings.Builder
	for _, k := range kinds {
		fmt.Fprintf(&b, "%s (%d):\n", k, len(grouped[k]))
		for _, h := range grouped[k] {
			fmt.Fprintf(&b, "  depth %d: %s at %s\n", h.depth, h.sym.Name, location(ctx, st, h.sym))
		}
	}
	return b.String(), nil
}

// SemanticSearchDocs implements spec.md §4.L's semantic_search_docs.
func (s *Service) SemanticSearchDocs(ctx context.Context, query string, limit int, threshold *float32, langName string) (string, error) {
	sem, err := s.requireSemantic()
	if err != nil {
		return "", err
	}
	_, st, _ := s.snapshot()

	var langPtr *ids.LanguageID
	if id, ok := languageIDFromName(langName); ok {
		langPtr = &id
	}
	if limit <= 0 {
		limit = 10
	}

	hits, err := sem.Search(ctx, query, limit, threshold, langPtr)
	if err != nil {
		return "", errs.NewStoreError("semantic_search_docs", err)
	}
	if len(hits) == 0 {
		return "", errs.NewNotFoundError(fmt.Sprintf("semantic matches for %q", query))
	}

	var b strings.Builder
	for _, h := range hits {
		sym, found, err := st.SymbolByID(ctx, h.SymbolID)
		if err != nil || !found {
			continue
		}
		fmt.Fprintf(&b, "%.4f  %s %s at %s\n  %s\n", h.Score, sym.Kind, sym.Name, location(ctx, st, sym), docPreview(sym.DocComment, 160))
	}
	return b.String(), nil
}

// SemanticSearchWithContext implements spec.md §4.L's
// semantic_search_with_context: a vector search followed by outgoing
// calls, incoming callers and a depth-2 impact closure for every
// function/method hit.
func (s *Service) SemanticSearchWithContext(ctx context.Context, query string, limit int, threshold *float32, langName string) (string, error) {
	sem, err := s.requireSemantic()
	if err != nil {
		return "", err
	}
	_, st, _ := s.snapshot()

	var langPtr *ids.LanguageID
	if id, ok := languageIDFromName(langName); ok {
		langPtr = &id
	}
	if limit <= 0 {
		limit = 5
	}

	hits, err := sem.Search(ctx, query, limit, threshold, langPtr)
	if err != nil {
		return "", errs.NewStoreError("semantic_search_with_context", err)
	}
	if len(hits) == 0 {
		return "", errs.NewNotFoundError(fmt.Sprintf("semantic matches for %q", query))
	}

	var b strings.Builder
	for _, h := range hits {
		sym, found, err := st.SymbolByID(ctx, h.SymbolID)
		if err != nil || !found {
			continue
		}
		fmt.Fprintf(&b, "%.4f  %s %s at %s\n  %s\n", h.Score, sym.Kind, sym.Name, location(ctx, st, sym), docPreview(sym.DocComment, 160))

		if sym.Kind != symbol.KindFunction && sym.Kind != symbol.KindMethod {
			continue
		}
		outEdges, _ := st.EdgesFrom(ctx, sym.ID)
		inEdges, _ := st.EdgesTo(ctx, sym.ID)
		nCalls, nCallers := 0, 0
		for _, e := range outEdges {
			if e.Kind == symbol.RelationCalls {
				nCalls++
			}
		}
		for _, e := range inEdges {
			if e.Kind == symbol.RelationCalls {
				nCallers++
			}
		}
		impacted, err := s.impactClosure(ctx, st, sym.ID, 2)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "  outgoing calls: %d, incoming callers: %d, depth-2 impact: %d symbols\n", nCalls, nCallers, len(impacted))
	}
	return b.String(), nil
}

// GetIndexInfo implements spec.md §4.L's get_index_info. nowUnix is
// passed in by the caller (the MCP handler) so relative-time
// rendering stays testable without this package touching the clock.
func (s *Service) GetIndexInfo(ctx context.Context, nowUnix int64) (string, error) {
	_, st, sem := s.snapshot()

	files, symbols, edges, err := st.Totals(ctx)
	if err != nil {
		return "", errs.NewStoreError("get_index_info", err)
	}
	byKind, err := st.SymbolCountsByKind(ctx)
	if err != nil {
		return "", errs.NewStoreError("get_index_info", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "files: %d, symbols: %d, edges: %d\n", files, symbols, edges)
	fmt.Fprintf(&b, "by kind:\n")
	var kinds []symbol.Kind
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		fmt.Fprintf(&b, "  %s: %d\n", k, byKind[k])
	}

	if sem == nil {
		b.WriteString("semantic search: disabled\n")
		return b.String(), nil
	}
	info := sem.Info()
	fmt.Fprintf(&b, "semantic search: enabled\n  model: %s\n  dimension: %d\n  embeddings: %d\n  created: %s\n  updated: %s\n",
		info.ModelName, info.Dimension, sem.EmbeddingCount(),
		formatRelativeTime(info.CreatedAt, nowUnix), formatRelativeTime(info.UpdatedAt, nowUnix))
	return b.String(), nil
}
