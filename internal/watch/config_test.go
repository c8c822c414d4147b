package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codanna-go/internal/broadcast"
	"github.com/standardbeagle/codanna-go/internal/config"
	"github.com/standardbeagle/codanna-go/internal/indexer"
	"github.com/standardbeagle/codanna-go/internal/lang"
	"github.com/standardbeagle/codanna-go/internal/parsing"
	"github.com/standardbeagle/codanna-go/internal/store"
)

func TestConfigWatcherReindexesAddedPath(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watch test in short mode")
	}

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "extra.go"), []byte("package lib\n\nfunc Extra() {}\n"), 0o644))

	cfgDir := filepath.Join(root, ".codanna")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	cfgPath := filepath.Join(cfgDir, "settings.toml")

	cfg := config.Default(root)
	cfg.Indexing.IndexedPaths = []string{"src"}
	require.NoError(t, config.Save(cfg, cfgPath))

	st, err := store.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })

	notify := broadcast.New(8)
	ix := indexer.New(st, lang.Default(), parsing.Default(), nil, nil, notify, nil)

	cw, err := NewConfigWatcher(cfgPath, root, cfg, ix, notify, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = cw.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	sub := notify.Subscribe()
	defer notify.Unsubscribe(sub)

	time.Sleep(20 * time.Millisecond)
	cfg.Indexing.IndexedPaths = []string{"src", "lib"}
	require.NoError(t, config.Save(cfg, cfgPath))

	select {
	case ev := <-sub.C:
		require.Equal(t, broadcast.IndexReloaded, ev.Kind)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for IndexReloaded notification")
	}

	syms, err := st.SymbolsByName(context.Background(), "Extra", nil)
	require.NoError(t, err)
	require.Len(t, syms, 1)
}
