// Command codanna is the CLI driver of spec.md §1: it loads
// .codanna/settings.toml, opens the store, runs an initial directory
// index, starts the source/config watchers, and serves the nine
// query tools over MCP's stdio transport. Structured around
// urfave/cli/v2 the way the teacher's cmd/lci/main.go is.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codanna-go/internal/broadcast"
	"github.com/standardbeagle/codanna-go/internal/config"
	"github.com/standardbeagle/codanna-go/internal/ignore"
	"github.com/standardbeagle/codanna-go/internal/indexer"
	"github.com/standardbeagle/codanna-go/internal/lang"
	"github.com/standardbeagle/codanna-go/internal/parsing"
	"github.com/standardbeagle/codanna-go/internal/store"
	"github.com/standardbeagle/codanna-go/internal/symcache"
	"github.com/standardbeagle/codanna-go/internal/toolservice"
	"github.com/standardbeagle/codanna-go/internal/watch"
)

func main() {
	app := &cli.App{
		Name:  "codanna",
		Usage: "code intelligence index: indexes a workspace and serves symbol/call/impact queries over MCP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Value: ".", Usage: "workspace root to index"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "", Usage: "path to settings.toml (default: <root>/.codanna/settings.toml)"},
			&cli.IntFlag{Name: "cache-size", Value: 10000, Usage: "name-resolution cache entries, 0 disables the cache"},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "index the workspace then serve MCP tools over stdio (default command)",
				Action: serveCommand,
			},
			{
				Name:   "index",
				Usage:  "run a one-shot index and print summary stats, without serving",
				Action: indexCommand,
			},
		},
		Action: serveCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "codanna:", err)
		os.Exit(1)
	}
}

// buildRuntime opens the config/store/indexer triple shared by both
// commands, plus the resources (lang/parsing registries, cache,
// broadcaster) every indexing path needs.
type runtime struct {
	cfg       *config.Config
	st        *store.Store
	ix        *indexer.Indexer
	notify    *broadcast.Broadcaster
	languages *lang.Registry
	parsers   *parsing.Registry
	logger    *slog.Logger
}

func buildRuntime(c *cli.Context) (*runtime, error) {
	root, err := filepath.Abs(c.String("root"))
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	configPath := c.String("config")
	if configPath == "" {
		configPath = filepath.Join(root, ".codanna", "settings.toml")
	}
	cfg, err := config.Load(configPath, root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.Default()

	languages := lang.Default()
	parsers := parsing.Default()

	st, err := store.Open(cfg.IndexPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var cache *symcache.Cache
	if n := c.Int("cache-size"); n > 0 {
		cache = symcache.New(n, 0)
	}

	notify := broadcast.New(64)

	// No concrete Embedder ships with this module: embedding itself
	// is external per spec.md §1's non-goal boundary, so semantic
	// search stays disabled unless a future build wires one in.
	ix := indexer.New(st, languages, parsers, nil, cache, notify, logger)

	return &runtime{cfg: cfg, st: st, ix: ix, notify: notify, languages: languages, parsers: parsers, logger: logger}, nil
}

func (rt *runtime) indexAll(ctx context.Context) (indexer.Stats, error) {
	matcher := ignore.NewMatcher()
	if err := matcher.LoadProjectDefaults(rt.cfg.WorkspaceRoot); err != nil {
		rt.logger.Warn("loading ignore defaults", "err", err)
	}

	var total indexer.Stats
	for _, rel := range rt.cfg.Indexing.IndexedPaths {
		root := filepath.Join(rt.cfg.WorkspaceRoot, rel)
		walker := indexer.NewWalker(root, rt.ix.ParserExtensions(), matcher)
		stats, err := rt.ix.IndexDirectory(ctx, root, walker, indexer.DefaultParallelism)
		if err != nil {
			return total, fmt.Errorf("index %s: %w", rel, err)
		}
		total.FilesIndexed += stats.FilesIndexed
		total.FilesCached += stats.FilesCached
		total.FilesFailed += stats.FilesFailed
		total.SymbolsFound += stats.SymbolsFound
		total.Errors = append(total.Errors, stats.Errors...)
		total.Elapsed += stats.Elapsed
	}
	return total, nil
}

func indexCommand(c *cli.Context) error {
	rt, err := buildRuntime(c)
	if err != nil {
		return err
	}
	defer rt.st.Close()

	stats, err := rt.indexAll(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d files (%d cached, %d failed), %d symbols, in %s\n",
		stats.FilesIndexed, stats.FilesCached, stats.FilesFailed, stats.SymbolsFound, stats.Elapsed)
	for _, e := range stats.Errors {
		fmt.Fprintln(os.Stderr, "  error:", e)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	rt, err := buildRuntime(c)
	if err != nil {
		return err
	}
	defer rt.st.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := rt.indexAll(ctx)
	if err != nil {
		return err
	}
	rt.logger.Info("initial index complete", "files", stats.FilesIndexed, "symbols", stats.SymbolsFound, "elapsed", stats.Elapsed)

	sourceWatcher, err := watch.New(rt.cfg.WorkspaceRoot, rt.cfg.IndexPath, rt.ix, rt.st, nil, rt.notify, rt.cfg.FileWatch.DebounceMs, rt.logger)
	if err != nil {
		return fmt.Errorf("start source watcher: %w", err)
	}
	defer sourceWatcher.Close()
	if err := sourceWatcher.Start(ctx); err != nil {
		return fmt.Errorf("start source watcher: %w", err)
	}
	go func() {
		if err := sourceWatcher.Run(ctx); err != nil && ctx.Err() == nil {
			rt.logger.Error("source watcher stopped", "err", err)
		}
	}()

	configWatcher, err := watch.NewConfigWatcher(rt.cfg.Path(), rt.cfg.WorkspaceRoot, rt.cfg, rt.ix, rt.notify, rt.logger)
	if err != nil {
		return fmt.Errorf("start config watcher: %w", err)
	}
	defer configWatcher.Close()
	go func() {
		if err := configWatcher.Run(ctx); err != nil && ctx.Err() == nil {
			rt.logger.Error("config watcher stopped", "err", err)
		}
	}()

	svc := toolservice.New(rt.ix, rt.st, nil, rt.languages)

	server := mcp.NewServer(&mcp.Implementation{Name: "codanna", Version: "0.1.0"}, nil)
	toolservice.RegisterTools(server, svc)

	rt.logger.Info("serving MCP tools over stdio")
	return server.Run(ctx, &mcp.StdioTransport{})
}
