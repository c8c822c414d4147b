package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/standardbeagle/codanna-go/internal/ids"
	"github.com/standardbeagle/codanna-go/internal/symbol"
)

func scanSymbol(row interface {
	Scan(dest ...interface{}) error
}) (symbol.Symbol, error) {
	var sym symbol.Symbol
	var kind, vis, scope uint8
	var langNull sql.NullInt64
	var typeParamsJSON sql.NullString
	var modulePath, signature, docComment sql.NullString
	err := row.Scan(&sym.ID, &sym.Name, &kind, &sym.FileID,
		&sym.Range.StartLine, &sym.Range.StartColumn, &sym.Range.EndLine, &sym.Range.EndColumn,
		&modulePath, &signature, &docComment, &vis, &scope, &sym.Hoisted, &langNull, &typeParamsJSON)
	if err != nil {
		return symbol.Symbol{}, err
	}
	sym.Kind = symbol.Kind(kind)
	sym.Visibility = symbol.Visibility(vis)
	sym.Scope = symbol.ScopeContext(scope)
	sym.ModulePath = modulePath.String
	sym.Signature = signature.String
	sym.DocComment = docComment.String
	if langNull.Valid {
		sym.LanguageID = ids.LanguageID(langNull.Int64)
	}
	if typeParamsJSON.Valid && typeParamsJSON.String != "" {
		_ = json.Unmarshal([]byte(typeParamsJSON.String), &sym.TypeParameters)
	}
	return sym, nil
}

const symbolColumns = `id, name, kind, file_id, start_line, start_col, end_line, end_col,
	module_path, signature, doc_comment, visibility, scope, hoisted, language_id, type_params`

// SymbolsByName returns exact-name matches, optionally filtered by
// language.
func (s *Store) SymbolsByName(ctx context.Context, name string, lang *ids.LanguageID) ([]symbol.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := `SELECT ` + symbolColumns + ` FROM symbols WHERE name = ?`
	args := []interface{}{name}
	if lang != nil {
		q += ` AND language_id = ?`
		args = append(args, *lang)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

// SymbolByID returns the symbol with the given ID, if any.
func (s *Store) SymbolByID(ctx context.Context, id ids.SymbolID) (symbol.Symbol, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE id = ?`, id)
	sym, err := scanSymbol(row)
	if err == sql.ErrNoRows {
		return symbol.Symbol{}, false, nil
	}
	if err != nil {
		return symbol.Symbol{}, false, err
	}
	return sym, true, nil
}

// SymbolsByFile returns every symbol declared in fileID.
func (s *Store) SymbolsByFile(ctx context.Context, fileID ids.FileID) ([]symbol.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE file_id = ? ORDER BY start_line`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

// AllSymbols returns up to limit symbols, for get_index_info-style
// bulk enumeration. limit <= 0 means unbounded.
func (s *Store) AllSymbols(ctx context.Context, limit int) ([]symbol.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := `SELECT ` + symbolColumns + ` FROM symbols`
	if limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, limit)
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

// SearchOptions narrows SearchSymbols results.
type SearchOptions struct {
	Kind     *symbol.Kind
	Module   string
	Language *ids.LanguageID
	Limit    int
	Offset   int
}

func scanAll(rows *sql.Rows) ([]symbol.Symbol, error) {
	var out []symbol.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// EdgesFrom returns every edge whose From endpoint is id.
func (s *Store) EdgesFrom(ctx context.Context, id ids.SymbolID) ([]symbol.RelationshipEdge, error) {
	return s.queryEdges(ctx, `SELECT from_id, to_id, kind, metadata FROM edges WHERE from_id = ?`, id)
}

// EdgesTo returns every edge whose To endpoint is id.
func (s *Store) EdgesTo(ctx context.Context, id ids.SymbolID) ([]symbol.RelationshipEdge, error) {
	return s.queryEdges(ctx, `SELECT from_id, to_id, kind, metadata FROM edges WHERE to_id = ?`, id)
}

// EdgesByKind returns every stored edge of the given kind.
func (s *Store) EdgesByKind(ctx context.Context, kind symbol.RelationKind) ([]symbol.RelationshipEdge, error) {
	return s.queryEdges(ctx, `SELECT from_id, to_id, kind, metadata FROM edges WHERE kind = ?`, uint8(kind))
}

func (s *Store) queryEdges(ctx context.Context, q string, arg interface{}) ([]symbol.RelationshipEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []symbol.RelationshipEdge
	for rows.Next() {
		var e symbol.RelationshipEdge
		var kind uint8
		var meta sql.NullString
		if err := rows.Scan(&e.From, &e.To, &kind, &meta); err != nil {
			return nil, err
		}
		e.Kind = symbol.RelationKind(kind)
		e.Metadata = meta.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// FileInfoByPath looks up a file's metadata row by its indexed path.
func (s *Store) FileInfoByPath(ctx context.Context, path string) (symbol.FileInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT id, path, content_hash, last_indexed_at FROM files WHERE path = ?`, path)
	var fi symbol.FileInfo
	err := row.Scan(&fi.ID, &fi.Path, &fi.ContentHash, &fi.LastIndexedAt)
	if err == sql.ErrNoRows {
		return symbol.FileInfo{}, false, nil
	}
	if err != nil {
		return symbol.FileInfo{}, false, err
	}
	return fi, true, nil
}

// FileInfoByID looks up a file's metadata row by its FileID.
func (s *Store) FileInfoByID(ctx context.Context, id ids.FileID) (symbol.FileInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT id, path, content_hash, last_indexed_at FROM files WHERE id = ?`, id)
	var fi symbol.FileInfo
	err := row.Scan(&fi.ID, &fi.Path, &fi.ContentHash, &fi.LastIndexedAt)
	if err == sql.ErrNoRows {
		return symbol.FileInfo{}, false, nil
	}
	if err != nil {
		return symbol.FileInfo{}, false, err
	}
	return fi, true, nil
}

// IndexedPaths lists every path currently tracked in the file-info
// table, used by the source watcher to compute its minimal watch set.
func (s *Store) IndexedPaths(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ImportsByFile returns every import statement recorded for fileID.
func (s *Store) ImportsByFile(ctx context.Context, fileID ids.FileID) ([]symbol.Import, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT path, alias, file_id, line, is_glob, is_type_only FROM imports WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []symbol.Import
	for rows.Next() {
		var imp symbol.Import
		var alias sql.NullString
		if err := rows.Scan(&imp.Path, &alias, &imp.FileID, &imp.Line, &imp.IsGlob, &imp.IsTypeOnly); err != nil {
			return nil, err
		}
		imp.Alias = alias.String
		out = append(out, imp)
	}
	return out, rows.Err()
}

// Totals reports the file, symbol and edge row counts, for
// get_index_info's headline numbers.
func (s *Store) Totals(ctx context.Context) (files, symbols, edges int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&files); err != nil {
		return
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols`).Scan(&symbols); err != nil {
		return
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&edges)
	return
}

// SymbolCountsByKind groups the symbols table by kind, for
// get_index_info's per-kind breakdown.
func (s *Store) SymbolCountsByKind(ctx context.Context) (map[symbol.Kind]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM symbols GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[symbol.Kind]int)
	for rows.Next() {
		var k uint8
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[symbol.Kind(k)] = n
	}
	return out, rows.Err()
}

// Metadata reads the current value of a named counter (0 if absent).
func (s *Store) Metadata(ctx context.Context, key string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var v uint64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return v, err
}
