package toolservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/codanna-go/internal/indexer"
	"github.com/standardbeagle/codanna-go/internal/lang"
	"github.com/standardbeagle/codanna-go/internal/parsing"
	"github.com/standardbeagle/codanna-go/internal/store"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}

// newTestService builds a Service over a fresh store seeded with two
// functions and a Calls edge between them, mirroring the fixture style
// of internal/store/store_test.go's openTestStore.
func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })

	ctx := context.Background()
	b, err := st.StartBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, b.PutFileInfo(ctx, symbol.FileInfo{ID: 1, Path: "main.go", ContentHash: "abc", LastIndexedAt: 100}))
	require.NoError(t, b.PutSymbol(ctx, symbol.Symbol{
		ID: 10, Name: "main", Kind: symbol.KindFunction, FileID: 1,
		Range: symbol.Range{StartLine: 4, EndLine: 8}, ModulePath: "main", Signature: "func main()",
		DocComment: "main is the entry point.", LanguageID: lang.LangGo,
	}))
	require.NoError(t, b.PutSymbol(ctx, symbol.Symbol{
		ID: 11, Name: "Run", Kind: symbol.KindFunction, FileID: 1,
		Range: symbol.Range{StartLine: 10, EndLine: 20}, ModulePath: "main", Signature: "func Run() error",
		DocComment: "Run starts the server.", LanguageID: lang.LangGo,
	}))
	require.NoError(t, b.PutEdge(ctx, symbol.RelationshipEdge{From: 10, To: 11, Kind: symbol.RelationCalls}))
	require.NoError(t, b.Commit())

	ix := indexer.New(st, lang.Default(), parsing.Default(), nil, nil, nil, nil)
	return New(ix, st, nil, lang.Default()), st
}

func TestFindSymbolRendersRelationshipCounts(t *testing.T) {
	svc, _ := newTestService(t)
	text, err := svc.FindSymbol(context.Background(), "main", "")
	require.NoError(t, err)
	require.Contains(t, text, "main")
	require.Contains(t, text, "main.go")
	require.Contains(t, text, "1 outgoing calls")
}

func TestFindSymbolNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.FindSymbol(context.Background(), "NoSuchSymbol", "")
	require.Error(t, err)
}

func TestGetCallsAndFindCallers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	calls, err := svc.GetCalls(ctx, "main")
	require.NoError(t, err)
	require.Contains(t, calls, "Run")

	callers, err := svc.FindCallers(ctx, "Run")
	require.NoError(t, err)
	require.Contains(t, callers, "main")
}

func TestAnalyzeImpactWalksIncomingEdges(t *testing.T) {
	svc, _ := newTestService(t)
	text, err := svc.AnalyzeImpact(context.Background(), "Run", 2)
	require.NoError(t, err)
	require.Contains(t, text, "main")
	require.Contains(t, text, "calls")
}

func TestAnalyzeImpactCyclicGraphTerminates(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })

	b, err := st.StartBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, b.PutFileInfo(ctx, symbol.FileInfo{ID: 1, Path: "cycle.go"}))
	require.NoError(t, b.PutSymbol(ctx, symbol.Symbol{ID: 20, Name: "A", Kind: symbol.KindFunction, FileID: 1}))
	require.NoError(t, b.PutSymbol(ctx, symbol.Symbol{ID: 21, Name: "B", Kind: symbol.KindFunction, FileID: 1}))
	require.NoError(t, b.PutEdge(ctx, symbol.RelationshipEdge{From: 20, To: 21, Kind: symbol.RelationCalls}))
	require.NoError(t, b.PutEdge(ctx, symbol.RelationshipEdge{From: 21, To: 20, Kind: symbol.RelationCalls}))
	require.NoError(t, b.Commit())

	ix := indexer.New(st, lang.Default(), parsing.Default(), nil, nil, nil, nil)
	svc := New(ix, st, nil, lang.Default())

	text, err := svc.AnalyzeImpact(ctx, "A", 5)
	require.NoError(t, err)
	require.NotEmpty(t, text)
}

func TestSemanticToolsErrorWhenDisabled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SemanticSearchDocs(ctx, "entry point", 5, nil, "")
	require.ErrorIs(t, err, errSemanticDisabled)

	_, err = svc.SemanticSearchWithContext(ctx, "entry point", 5, nil, "")
	require.ErrorIs(t, err, errSemanticDisabled)
}

func TestGetIndexInfoReportsTotals(t *testing.T) {
	svc, _ := newTestService(t)
	text, err := svc.GetIndexInfo(context.Background(), 1_700_000_000)
	require.NoError(t, err)
	require.Contains(t, text, "files: 1")
	require.Contains(t, text, "symbols: 2")
	require.Contains(t, text, "semantic search: disabled")
}

func TestSearchSymbolsFiltersByFilePattern(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	b, err := st.StartBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, b.PutFileInfo(ctx, symbol.FileInfo{ID: 2, Path: "pkg/other.go", ContentHash: "def", LastIndexedAt: 100}))
	require.NoError(t, b.PutSymbol(ctx, symbol.Symbol{
		ID: 12, Name: "RunOther", Kind: symbol.KindFunction, FileID: 2,
		ModulePath: "pkg", Signature: "func RunOther()", LanguageID: lang.LangGo,
	}))
	require.NoError(t, b.Commit())

	text, err := svc.SearchSymbols(ctx, "Run", 10, "", "", "", "pkg/**", "", 0, false)
	require.NoError(t, err)
	require.Contains(t, text, "RunOther")
	require.NotContains(t, text, "main.go")
}
