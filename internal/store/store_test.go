package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestBatchPutAndReadSymbol(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b, err := s.StartBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, b.PutFileInfo(ctx, symbol.FileInfo{ID: 1, Path: "main.go", ContentHash: "abc", LastIndexedAt: 100}))
	require.NoError(t, b.PutSymbol(ctx, symbol.Symbol{
		ID: 10, Name: "DoThing", Kind: symbol.KindFunction, FileID: 1,
		Range: symbol.Range{StartLine: 1, EndLine: 3}, ModulePath: "main", Signature: "func DoThing()",
	}))
	require.NoError(t, b.Commit())

	sym, ok, err := s.SymbolByID(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "DoThing", sym.Name)
	require.Equal(t, symbol.KindFunction, sym.Kind)

	byName, err := s.SymbolsByName(ctx, "DoThing", nil)
	require.NoError(t, err)
	require.Len(t, byName, 1)

	byFile, err := s.SymbolsByFile(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byFile, 1)
}

func TestBatchRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b, err := s.StartBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, b.PutFileInfo(ctx, symbol.FileInfo{ID: 1, Path: "f.go", ContentHash: "x", LastIndexedAt: 1}))
	require.NoError(t, b.PutSymbol(ctx, symbol.Symbol{ID: 5, Name: "Gone", Kind: symbol.KindFunction, FileID: 1}))
	require.NoError(t, b.Rollback())

	_, ok, err := s.SymbolByID(ctx, 5)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteFileRemovesSymbolsAndEdges(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b, err := s.StartBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, b.PutFileInfo(ctx, symbol.FileInfo{ID: 1, Path: "a.go", ContentHash: "h1", LastIndexedAt: 1}))
	require.NoError(t, b.PutSymbol(ctx, symbol.Symbol{ID: 1, Name: "A", Kind: symbol.KindFunction, FileID: 1}))
	require.NoError(t, b.PutSymbol(ctx, symbol.Symbol{ID: 2, Name: "B", Kind: symbol.KindFunction, FileID: 1}))
	require.NoError(t, b.PutEdge(ctx, symbol.RelationshipEdge{From: 1, To: 2, Kind: symbol.RelationCalls}))
	require.NoError(t, b.Commit())

	b2, err := s.StartBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, b2.DeleteFile(ctx, 1))
	require.NoError(t, b2.PutFileInfo(ctx, symbol.FileInfo{ID: 1, Path: "a.go", ContentHash: "h2", LastIndexedAt: 2}))
	require.NoError(t, b2.Commit())

	all, err := s.SymbolsByFile(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, all)

	edges, err := s.EdgesFrom(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestMetadataCounterAccumulates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b, err := s.StartBatch(ctx)
	require.NoError(t, err)
	v, err := b.IncrMetadata(ctx, "files_indexed", 3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), v)
	require.NoError(t, b.Commit())

	got, err := s.Metadata(ctx, "files_indexed")
	require.NoError(t, err)
	require.Equal(t, uint64(3), got)
}

func TestExternalSymbolRoundTrip(t *testing.T) {
	s := openTestStore(t)

	id := s.NextSymbolID()
	require.NotZero(t, id)

	sym := symbol.Symbol{
		ID: id, Name: "Vec", Kind: symbol.KindStruct,
		FileID: ids.FileID(0), ModulePath: "std::vec", LanguageID: 3,
	}
	require.NoError(t, s.PutExternalSymbol(sym))

	found, ok := s.FindExternalSymbol(3, "std::vec", "Vec")
	require.True(t, ok)
	require.Equal(t, id, found.ID)

	_, ok = s.FindExternalSymbol(3, "std::vec", "Missing")
	require.False(t, ok)
}

func TestSearchSymbolsMatchesByNameAndKind(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	b, err := s.StartBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, b.PutFileInfo(ctx, symbol.FileInfo{ID: 1, Path: "u.go", ContentHash: "h", LastIndexedAt: 1}))
	require.NoError(t, b.PutSymbol(ctx, symbol.Symbol{
		ID: 1, Name: "ParseConfig", Kind: symbol.KindFunction, FileID: 1,
		DocComment: "parses configuration from disk",
	}))
	require.NoError(t, b.Commit())

	kind := symbol.KindFunction
	hits, err := s.SearchSymbols(ctx, "parse", SearchOptions{Kind: &kind, Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "ParseConfig", hits[0].Symbol.Name)
}
