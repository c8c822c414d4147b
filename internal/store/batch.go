package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

// Batch groups file-scoped writes so readers never see torn state:
// all of a Batch's writes commit atomically, or none do. The file-
// level replacement protocol (spec.md §4.F) is just DeleteFile
// followed by Put* calls within one Batch.
type Batch struct {
	store     *Store
	tx        *sql.Tx
	textBatch *bleve.Batch
	done      bool
}

// StartBatch begins a new batch. The caller must Commit or Rollback
// it; holding a Batch open across unrelated work violates the "no
// write lock across a suspension point" rule of spec.md §5.
func (s *Store) StartBatch(ctx context.Context) (*Batch, error) {
	s.mu.Lock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("store: begin batch: %w", err)
	}
	return &Batch{store: s, tx: tx, textBatch: s.text.NewBatch()}, nil
}

// Commit atomically applies the batch to both the sqlite store and
// the bleve text index. The text index is flushed first so a failure
// there can still be rolled back in sqlite; a failure committing
// sqlite after a successful text flush is a narrow, documented gap
// (see DESIGN.md) since bleve batches cannot be rolled back.
func (b *Batch) Commit() error {
	defer b.store.mu.Unlock()
	if b.done {
		return fmt.Errorf("store: batch already closed")
	}
	b.done = true

	if b.textBatch.Size() > 0 {
		if err := b.store.text.Batch(b.textBatch); err != nil {
			_ = b.tx.Rollback()
			return fmt.Errorf("store: commit text batch: %w", err)
		}
	}
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("store: commit batch: %w", err)
	}
	return nil
}

// Rollback discards every write made on this batch.
func (b *Batch) Rollback() error {
	defer b.store.mu.Unlock()
	if b.done {
		return nil
	}
	b.done = true
	return b.tx.Rollback()
}

// DeleteFile removes every symbol, import and edge referencing
// fileID, in preparation for inserting its fresh reindexed state. It
// never touches the files row itself; callers follow up with
// PutFileInfo.
func (b *Batch) DeleteFile(ctx context.Context, fileID ids.FileID) error {
	rows, err := b.tx.QueryContext(ctx, `SELECT id FROM symbols WHERE file_id = ?`, fileID)
	if err != nil {
		return err
	}
	var symIDs []ids.SymbolID
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		symIDs = append(symIDs, ids.SymbolID(id))
	}
	rows.Close()

	for _, id := range symIDs {
		b.textBatch.Delete(strconv.FormatUint(uint64(id), 10))
	}

	if len(symIDs) > 0 {
		placeholders := make([]interface{}, 0, len(symIDs)*2)
		for _, id := range symIDs {
			placeholders = append(placeholders, uint64(id))
		}
		q, args := inClauseQuery(`DELETE FROM edges WHERE from_id IN (%s) OR to_id IN (%s)`, placeholders, placeholders)
		if _, err := b.tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}

	if _, err := b.tx.ExecContext(ctx, `DELETE FROM symbols WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	if _, err := b.tx.ExecContext(ctx, `DELETE FROM imports WHERE file_id = ?`, fileID); err != nil {
		return err
	}
	return nil
}

// DeleteFileInfo removes fileID's own row, used when a file is removed
// from the workspace entirely (as opposed to reindexed). Callers must
// call DeleteFile first to drop its symbols/imports/edges.
func (b *Batch) DeleteFileInfo(ctx context.Context, fileID ids.FileID) error {
	_, err := b.tx.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, fileID)
	return err
}

func inClauseQuery(format string, a, b []interface{}) (string, []interface{}) {
	ph := func(n int) string {
		s := ""
		for i := 0; i < n; i++ {
			if i > 0 {
				s += ","
			}
			s += "?"
		}
		return s
	}
	q := fmt.Sprintf(format, ph(len(a)), ph(len(b)))
	args := append(append([]interface{}{}, a...), b...)
	return q, args
}

// PutFileInfo inserts or replaces a file's metadata row.
func (b *Batch) PutFileInfo(ctx context.Context, info symbol.FileInfo) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO files (id, path, content_hash, last_indexed_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET path=excluded.path, content_hash=excluded.content_hash, last_indexed_at=excluded.last_indexed_at
	`, info.ID, info.Path, info.ContentHash, info.LastIndexedAt)
	return err
}

// PutSymbol inserts a symbol row and its full-text document.
func (b *Batch) PutSymbol(ctx context.Context, sym symbol.Symbol) error {
	typeParams, err := json.Marshal(sym.TypeParameters)
	if err != nil {
		return err
	}
	_, err = b.tx.ExecContext(ctx, `
		INSERT INTO symbols (id, name, kind, file_id, start_line, start_col, end_line, end_col,
			module_path, signature, doc_comment, visibility, scope, hoisted, language_id, type_params)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, sym.ID, sym.Name, uint8(sym.Kind), sym.FileID,
		sym.Range.StartLine, sym.Range.StartColumn, sym.Range.EndLine, sym.Range.EndColumn,
		sym.ModulePath, sym.Signature, sym.DocComment, uint8(sym.Visibility), uint8(sym.Scope),
		sym.Hoisted, sym.LanguageID, string(typeParams))
	if err != nil {
		return err
	}

	var filePath string
	_ = b.tx.QueryRowContext(ctx, `SELECT path FROM files WHERE id = ?`, sym.FileID).Scan(&filePath)

	doc := textDoc{
		Name:       sym.Name,
		Signature:  sym.Signature,
		DocComment: sym.DocComment,
		Kind:       sym.Kind.String(),
		ModulePath: sym.ModulePath,
		FilePath:   filePath,
	}
	return b.textBatch.Index(strconv.FormatUint(uint64(sym.ID), 10), doc)
}

// PutImport inserts one import row for a file.
func (b *Batch) PutImport(ctx context.Context, imp symbol.Import) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO imports (file_id, path, alias, line, is_glob, is_type_only) VALUES (?,?,?,?,?,?)
	`, imp.FileID, imp.Path, imp.Alias, imp.Line, imp.IsGlob, imp.IsTypeOnly)
	return err
}

// PutEdge inserts one resolved relationship edge.
func (b *Batch) PutEdge(ctx context.Context, edge symbol.RelationshipEdge) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO edges (from_id, to_id, kind, metadata) VALUES (?,?,?,?)
	`, edge.From, edge.To, uint8(edge.Kind), edge.Metadata)
	return err
}

// IncrMetadata adds delta to the named counter within this batch and
// returns its new value, creating the row at 0 if absent.
func (b *Batch) IncrMetadata(ctx context.Context, key string, delta uint64) (uint64, error) {
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = value + excluded.value
	`, key, delta)
	if err != nil {
		return 0, err
	}
	var val uint64
	err = b.tx.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&val)
	return val, err
}

// PutExternalSymbolTx idempotently inserts an external symbol mapping
// within the batch, used by the resolution engine when minting a
// synthetic symbol mid-reindex.
func (b *Batch) PutExternalSymbolTx(ctx context.Context, languageID ids.LanguageID, module, name string, symID ids.SymbolID) error {
	_, err := b.tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO external_symbols (language_id, module, name, symbol_id) VALUES (?,?,?,?)
	`, languageID, module, name, symID)
	return err
}
