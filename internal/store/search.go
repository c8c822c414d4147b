package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// SearchHit pairs a ranked symbol with the bleve relevance score that
// produced it, highest first.
type SearchHit struct {
	Symbol symbol.Symbol
	Score  float64
}

// SearchSymbols runs a fuzzy/prefix full-text query across the
// name/signature/doc_comment fields, optionally narrowed by kind,
// exact module path or language. Matches the search_symbols and
// semantic_search_docs tool surfaces of spec.md §4.G.
func (s *Store) SearchSymbols(ctx context.Context, text string, opts SearchOptions) ([]SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("store: empty search text")
	}

	matchQ := bleve.NewMatchQuery(text)
	matchQ.Fuzziness = 1

	prefixName := bleve.NewPrefixQuery(strings.ToLower(text))
	prefixName.SetField("name")

	disjunct := bleve.NewDisjunctionQuery(matchQ, prefixName)

	var conjuncts []query.Query
	conjuncts = append(conjuncts, disjunct)
	if opts.Kind != nil {
		kq := bleve.NewTermQuery(opts.Kind.String())
		kq.SetField("kind")
		conjuncts = append(conjuncts, kq)
	}
	if opts.Module != "" {
		mq := bleve.NewTermQuery(opts.Module)
		mq.SetField("module_path")
		conjuncts = append(conjuncts, mq)
	}

	var finalQuery query.Query = disjunct
	if len(conjuncts) > 1 {
		finalQuery = bleve.NewConjunctionQuery(conjuncts...)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	req := bleve.NewSearchRequestOptions(finalQuery, limit, opts.Offset, false)
	result, err := s.text.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}

	hits := make([]SearchHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		idNum, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			continue
		}
		row := s.db.QueryRowContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE id = ?`, idNum)
		sym, err := scanSymbol(row)
		if err != nil {
			continue
		}
		if opts.Language != nil && sym.LanguageID != *opts.Language {
			continue
		}
		hits = append(hits, SearchHit{Symbol: sym, Score: h.Score})
	}
	return hits, nil
}

// symbolIDFromDocID parses the decimal document ID bleve assigns to a
// symbol back into its SymbolID.
func symbolIDFromDocID(docID string) (ids.SymbolID, error) {
	v, err := strconv.ParseUint(docID, 10, 64)
	if err != nil {
		return 0, err
	}
	return ids.SymbolID(v), nil
}
