// Package store implements the persistent document/index store of
// spec.md §4.F: a sqlite-backed structured store for symbols, files,
// edges and metadata counters, paired with a bleve full-text index for
// name/prefix/fuzzy symbol search. Writes happen inside a Batch; a
// Batch commits atomically across both backends or not at all.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/standardbeagle/codanna-go/internal/ids"
)

// Store is the document/index store's full read+write surface.
type Store struct {
	mu      sync.RWMutex
	db      *sql.DB
	text    bleve.Index
	lock    *flock.Flock
	log     *slog.Logger
	counter *ids.Counter // next SymbolID
	files   *ids.Counter // next FileID

	path string
}

// Open opens (creating if absent) the store rooted at indexPath,
// which becomes "<indexPath>/store.db" (sqlite) and
// "<indexPath>/fulltext.bleve" (bleve).
func Open(indexPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(indexPath, 0o755); err != nil {
		return nil, fmt.Errorf("store: create index dir: %w", err)
	}

	lock := flock.New(filepath.Join(indexPath, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("store: acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("store: index %s is locked by another process", indexPath)
	}

	dbPath := filepath.Join(indexPath, "store.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer; batches serialize at commit per spec.md §5

	if err := migrate(db); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	textPath := filepath.Join(indexPath, "fulltext.bleve")
	text, err := openOrCreateText(textPath)
	if err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("store: open text index: %w", err)
	}

	var maxID uint64
	if err := db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM symbols`).Scan(&maxID); err != nil {
		_ = text.Close()
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("store: read max symbol id: %w", err)
	}
	var maxFileID uint64
	if err := db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM files`).Scan(&maxFileID); err != nil {
		_ = text.Close()
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("store: read max file id: %w", err)
	}

	return &Store{
		db: db, text: text, lock: lock, log: logger, path: indexPath,
		counter: ids.NewCounter(maxID), files: ids.NewCounter(maxFileID),
	}, nil
}

// Close releases both backends and the advisory lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	if err := s.text.Close(); err != nil {
		firstErr = err
	}
	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY,
	path TEXT NOT NULL UNIQUE,
	content_hash TEXT NOT NULL,
	last_indexed_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS symbols (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	kind INTEGER NOT NULL,
	file_id INTEGER NOT NULL REFERENCES files(id),
	start_line INTEGER NOT NULL,
	start_col INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	end_col INTEGER NOT NULL,
	module_path TEXT,
	signature TEXT,
	doc_comment TEXT,
	visibility INTEGER NOT NULL,
	scope INTEGER NOT NULL,
	hoisted INTEGER NOT NULL DEFAULT 0,
	language_id INTEGER,
	type_params TEXT
);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_module ON symbols(module_path);

CREATE TABLE IF NOT EXISTS imports (
	file_id INTEGER NOT NULL REFERENCES files(id),
	path TEXT NOT NULL,
	alias TEXT,
	line INTEGER NOT NULL,
	is_glob INTEGER NOT NULL,
	is_type_only INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_id);

CREATE TABLE IF NOT EXISTS edges (
	from_id INTEGER NOT NULL,
	to_id INTEGER NOT NULL,
	kind INTEGER NOT NULL,
	metadata TEXT
);
CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);
CREATE INDEX IF NOT EXISTS idx_edges_kind ON edges(kind);

CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS external_symbols (
	language_id INTEGER NOT NULL,
	module TEXT NOT NULL,
	name TEXT NOT NULL,
	symbol_id INTEGER NOT NULL,
	PRIMARY KEY (language_id, module, name)
);
`
	_, err := db.Exec(schema)
	return err
}

// IndexPath returns the root directory this store was opened under,
// used by watchers and the semantic store to locate sibling files.
func (s *Store) IndexPath() string { return s.path }
