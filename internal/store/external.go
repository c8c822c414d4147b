package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// NextSymbolID mints the next SymbolID, satisfying
// lang.ExternalSymbolStore. It is backed by the in-memory counter
// seeded from MAX(id) at Open, not by a sqlite sequence, so it never
// needs a transaction of its own.
func (s *Store) NextSymbolID() ids.SymbolID {
	return ids.NextSymbolID(s.counter)
}

// NextFileID mints the next FileID for a path the store has never
// seen before. The indexer calls this only after confirming
// FileInfoByPath found nothing, so IDs stay stable across reindexes of
// the same path.
func (s *Store) NextFileID() ids.FileID {
	return ids.NextFileID(s.files)
}

// SymbolCounter exposes the store's symbol-id counter directly so the
// indexer can hand it to a parser adapter's Parse call, which mints
// IDs as it walks the tree rather than one at a time through a store
// method (ids.Counter is already safe for concurrent use).
func (s *Store) SymbolCounter() *ids.Counter {
	return s.counter
}

// FindExternalSymbol looks up a previously-minted external symbol for
// (languageID, module, name), used when two files both reference the
// same unresolved external so they share one placeholder symbol
// instead of minting a duplicate (spec.md §4.E).
func (s *Store) FindExternalSymbol(languageID ids.LanguageID, module, name string) (symbol.Symbol, bool) {
	ctx := context.Background()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var symID uint64
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol_id FROM external_symbols WHERE language_id = ? AND module = ? AND name = ?
	`, languageID, module, name).Scan(&symID)
	if err == sql.ErrNoRows {
		return symbol.Symbol{}, false
	}
	if err != nil {
		s.log.Error("find external symbol", "error", err, "module", module, "name", name)
		return symbol.Symbol{}, false
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE id = ?`, symID)
	sym, err := scanSymbol(row)
	if err != nil {
		return symbol.Symbol{}, false
	}
	return sym, true
}

// PutExternalSymbol persists a newly-minted external symbol and its
// (languageID, module, name) lookup key outside of any caller-managed
// Batch, since external symbols are typically minted mid-resolution
// rather than mid-file-write.
func (s *Store) PutExternalSymbol(sym symbol.Symbol) error {
	ctx := context.Background()
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: put external symbol: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO symbols (id, name, kind, file_id, start_line, start_col, end_line, end_col,
			module_path, signature, doc_comment, visibility, scope, hoisted, language_id, type_params)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO NOTHING
	`, sym.ID, sym.Name, uint8(sym.Kind), sym.FileID,
		sym.Range.StartLine, sym.Range.StartColumn, sym.Range.EndLine, sym.Range.EndColumn,
		sym.ModulePath, sym.Signature, sym.DocComment, uint8(sym.Visibility), uint8(sym.Scope),
		sym.Hoisted, sym.LanguageID, "")
	if err != nil {
		return fmt.Errorf("store: put external symbol: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO external_symbols (language_id, module, name, symbol_id) VALUES (?,?,?,?)
	`, sym.LanguageID, sym.ModulePath, sym.Name, sym.ID)
	if err != nil {
		return fmt.Errorf("store: put external symbol: %w", err)
	}

	return tx.Commit()
}
