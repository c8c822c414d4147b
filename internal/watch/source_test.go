package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codanna-go/internal/broadcast"
	"github.com/standardbeagle/codanna-go/internal/indexer"
	"github.com/standardbeagle/codanna-go/internal/lang"
	"github.com/standardbeagle/codanna-go/internal/parsing"
	"github.com/standardbeagle/codanna-go/internal/store"
)

func TestSourceWatcherReindexesOnWrite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watch test in short mode")
	}

	root := t.TempDir()
	file := filepath.Join(root, "watched.go")
	require.NoError(t, os.WriteFile(file, []byte("package main\n\nfunc Original() {}\n"), 0o644))

	st, err := store.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })

	notify := broadcast.New(8)
	ix := indexer.New(st, lang.Default(), parsing.Default(), nil, nil, notify, nil)

	ctx := context.Background()
	_, err = ix.IndexFile(ctx, root, "watched.go")
	require.NoError(t, err)

	w, err := New(root, st.IndexPath(), ix, st, nil, notify, 50, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	require.NoError(t, w.Start(ctx))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		_ = w.Run(runCtx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	sub := notify.Subscribe()
	defer notify.Unsubscribe(sub)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte("package main\n\nfunc Original() {}\n\nfunc Added() {}\n"), 0o644))

	select {
	case ev := <-sub.C:
		require.Equal(t, broadcast.FileReindexed, ev.Kind)
		require.Equal(t, "watched.go", ev.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for FileReindexed notification")
	}

	syms, err := st.SymbolsByName(ctx, "Added", nil)
	require.NoError(t, err)
	require.Len(t, syms, 1)
}

func TestSourceWatcherRemovesOnDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watch test in short mode")
	}

	root := t.TempDir()
	file := filepath.Join(root, "gone.go")
	require.NoError(t, os.WriteFile(file, []byte("package main\n\nfunc ToDelete() {}\n"), 0o644))

	st, err := store.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })

	notify := broadcast.New(8)
	ix := indexer.New(st, lang.Default(), parsing.Default(), nil, nil, notify, nil)

	ctx := context.Background()
	_, err = ix.IndexFile(ctx, root, "gone.go")
	require.NoError(t, err)

	w, err := New(root, st.IndexPath(), ix, st, nil, notify, 50, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	require.NoError(t, w.Start(ctx))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		_ = w.Run(runCtx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	sub := notify.Subscribe()
	defer notify.Unsubscribe(sub)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.Remove(file))

	select {
	case ev := <-sub.C:
		require.Equal(t, broadcast.FileDeleted, ev.Kind)
		require.Equal(t, "gone.go", ev.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for FileDeleted notification")
	}

	_, found, err := st.FileInfoByPath(ctx, "gone.go")
	require.NoError(t, err)
	require.False(t, found)
}
