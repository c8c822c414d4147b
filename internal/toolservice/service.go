// Package toolservice implements the nine query tools of spec.md
// §4.L as plain Go methods on Service, independent of any particular
// transport. mcp.go wires them to github.com/modelcontextprotocol/
// go-sdk/mcp the way the teacher's internal/mcp/server.go wires its
// own tool table, but nothing in service.go or tools.go imports the
// mcp package: the business logic is transport-agnostic, matching
// spec.md §4.L's "stateless query layer over the indexer".
package toolservice

import (
	"errors"
	"sync"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/indexer"
	"github.com/standardbeagle/codanna-go/internal/lang"
	"github.com/standardbeagle/codanna-go/internal/semantic"
	"github.com/standardbeagle/codanna-go/internal/store"
)

// Service is the query-only surface spec.md §4.L describes. Every
// tool method takes its own read lock rather than the caller holding
// one across the call, since no suspension point may be reached while
// holding a write lock (spec.md §5) and Service never writes.
type Service struct {
	mu sync.RWMutex

	indexer   *indexer.Indexer
	store     *store.Store
	semantic  *semantic.Store // nil when semantic search is disabled
	languages *lang.Registry
}

// New builds a Service over an already-open store/indexer pair.
// semanticStore may be nil, in which case semantic_search_docs and
// semantic_search_with_context return a clear "semantic search is
// disabled" error per spec.md's table.
func New(ix *indexer.Indexer, st *store.Store, semanticStore *semantic.Store, languages *lang.Registry) *Service {
	return &Service{indexer: ix, store: st, semantic: semanticStore, languages: languages}
}

// Swap atomically replaces the backing indexer/store/semantic triple,
// used after a config-driven reload (spec.md §4.J's ConfigWatcher)
// swaps in freshly indexed state without restarting the process.
func (s *Service) Swap(ix *indexer.Indexer, st *store.Store, semanticStore *semantic.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexer = ix
	s.store = st
	s.semantic = semanticStore
}

// snapshot returns the current backing triple under a read lock, for
// tool methods to use for the remainder of their call without holding
// Service's own lock across a store suspension point.
func (s *Service) snapshot() (*indexer.Indexer, *store.Store, *semantic.Store) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexer, s.store, s.semantic
}

// errSemanticDisabled is returned by every semantic_* tool when no
// semantic.Store was wired in, per spec.md §4.L's "errors clearly if
// semantic search is disabled".
var errSemanticDisabled = errors.New("semantic search is disabled for this index")

func (s *Service) requireSemantic() (*semantic.Store, error) {
	_, _, sem := s.snapshot()
	if sem == nil {
		return nil, errSemanticDisabled
	}
	return sem, nil
}

func languageIDFromName(name string) (ids.LanguageID, bool) {
	return lang.IDForName(name)
}
