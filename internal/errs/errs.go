// Package errs implements the error taxonomy of spec.md §7: a set of
// typed errors (kinds, not ad hoc strings) that every ambient layer of
// this module raises, modeled closely on the teacher's
// internal/errors package (renamed and rewired to this module's
// ids.FileID instead of its own types.FileID).
package errs

import (
	"fmt"
	"time"

	"github.com/standardbeagle/codanna-go/internal/ids"
)

// Kind classifies an error without needing a type switch at every
// call site; each concrete error type below also carries its own Kind
// field so callers that do type-switch still see it.
type Kind string

const (
	KindIndexing   Kind = "indexing"
	KindParse      Kind = "parse"
	KindStore      Kind = "store"
	KindResolution Kind = "resolution"
	KindWatch      Kind = "watch"
	KindSemantic   Kind = "semantic"
	KindConfig     Kind = "config"
	KindNotFound   Kind = "not_found"
)

// IndexingError wraps a failure during the indexer's file-level
// pipeline (spec.md §4.I steps 1-10).
type IndexingError struct {
	Kind        Kind
	FileID      ids.FileID
	FilePath    string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
	Suggestion  string
}

// NewIndexingError builds an IndexingError for operation op.
func NewIndexingError(op string, err error) *IndexingError {
	return &IndexingError{Kind: KindIndexing, Operation: op, Underlying: err, Timestamp: time.Now()}
}

// WithFile attaches file context to the error.
func (e *IndexingError) WithFile(fileID ids.FileID, path string) *IndexingError {
	e.FileID = fileID
	e.FilePath = path
	return e
}

// WithSuggestion attaches the user-visible actionable suggestion
// string required by spec.md §7.
func (e *IndexingError) WithSuggestion(s string) *IndexingError {
	e.Suggestion = s
	return e
}

func (e *IndexingError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("indexing %s failed for %s: %v", e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("indexing %s failed: %v", e.Operation, e.Underlying)
}

func (e *IndexingError) Unwrap() error { return e.Underlying }

// ParseError reports a per-file parse failure. Parse errors never
// halt directory indexing (spec.md §7); the indexer records them in
// stats.Errors (capped at 100).
type ParseError struct {
	Kind        Kind
	FileID      ids.FileID
	FilePath    string
	ErrorOffset int // byte offset of the first unrecoverable error node, -1 if unknown
	Underlying  error
	Timestamp   time.Time
}

// NewParseError builds a ParseError. offset is the byte position of
// the first tree-sitter error node, or -1 if the adapter didn't track
// one.
func NewParseError(fileID ids.FileID, path string, offset int, err error) *ParseError {
	return &ParseError{Kind: KindParse, FileID: fileID, FilePath: path, ErrorOffset: offset, Underlying: err, Timestamp: time.Now()}
}

func (e *ParseError) Error() string {
	if e.ErrorOffset >= 0 {
		return fmt.Sprintf("parse error in %s at byte offset %d: %v", e.FilePath, e.ErrorOffset, e.Underlying)
	}
	return fmt.Sprintf("parse error in %s: %v", e.FilePath, e.Underlying)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

// StoreError reports a batch commit or query failure. Commit
// failures bubble up to the caller with the batch rolled back, so no
// partial state is ever visible (spec.md §7).
type StoreError struct {
	Kind       Kind
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewStoreError builds a StoreError for operation op.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Kind: KindStore, Operation: op, Underlying: err, Timestamp: time.Now()}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Operation, e.Underlying)
}

func (e *StoreError) Unwrap() error { return e.Underlying }

// ResolutionError is never fatal: unresolved names are dropped or
// routed through the external-symbol mechanism. It exists mainly so
// the indexer can log a structured warning (e.g. the Rust
// inherent-vs-trait ambiguity case).
type ResolutionError struct {
	Kind       Kind
	SymbolName string
	Reason     string
	Timestamp  time.Time
}

// NewResolutionError builds a ResolutionError.
func NewResolutionError(symbolName, reason string) *ResolutionError {
	return &ResolutionError{Kind: KindResolution, SymbolName: symbolName, Reason: reason, Timestamp: time.Now()}
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve %q: %s", e.SymbolName, e.Reason)
}

// WatchError reports a per-path watch setup failure. The watcher logs
// it and continues watching every other path (spec.md §7).
type WatchError struct {
	Kind       Kind
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewWatchError builds a WatchError for path.
func NewWatchError(path string, err error) *WatchError {
	return &WatchError{Kind: KindWatch, Path: path, Underlying: err, Timestamp: time.Now()}
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("watch %s failed: %v", e.Path, e.Underlying)
}

func (e *WatchError) Unwrap() error { return e.Underlying }

// SemanticError reports a semantic-store reload failure. Per spec.md
// §4.H/§7, it is independent of the main store: it disables the
// semantic endpoints but never the rest of the index. MetadataPath/
// SegmentGlob echo the expected on-disk paths so the message is
// actionable.
type SemanticError struct {
	Kind         Kind
	MetadataPath string
	SegmentGlob  string
	Underlying   error
	Timestamp    time.Time
}

// NewSemanticError builds a SemanticError.
func NewSemanticError(metadataPath, segmentGlob string, err error) *SemanticError {
	return &SemanticError{Kind: KindSemantic, MetadataPath: metadataPath, SegmentGlob: segmentGlob, Underlying: err, Timestamp: time.Now()}
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("semantic search disabled: %v (expected %s and %s)", e.Underlying, e.MetadataPath, e.SegmentGlob)
}

func (e *SemanticError) Unwrap() error { return e.Underlying }

// ConfigError reports one malformed or invalid configuration field.
// The config validator collects every violation rather than
// fail-fast, so Load returns a *MultiError of these.
type ConfigError struct {
	Kind       Kind
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError builds a ConfigError.
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Kind: KindConfig, Field: field, Value: value, Underlying: err, Timestamp: time.Now()}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config field %s=%q invalid: %v", e.Field, e.Value, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// NotFoundError reports a user-facing "no such symbol/file" lookup
// miss in the tool service, distinguished from StoreError because
// it's not a failure, just an empty result the caller should render
// as plain text rather than log.
type NotFoundError struct {
	Kind Kind
	What string
}

// NewNotFoundError builds a NotFoundError describing what wasn't found.
func NewNotFoundError(what string) *NotFoundError {
	return &NotFoundError{Kind: KindNotFound, What: what}
}

func (e *NotFoundError) Error() string { return e.What + " not found" }

// MultiError aggregates independent failures, used by the config
// validator (collect-all, not fail-fast).
type MultiError struct {
	Errors []error
}

// NewMultiError filters nils and builds a MultiError. Returns nil if
// every entry was nil.
func NewMultiError(errors []error) error {
	filtered := make([]error, 0, len(errors))
	for _, e := range errors {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

func (e *MultiError) Unwrap() []error { return e.Errors }

// Suggestion returns a short actionable string for err, falling back
// to a generic message for errors outside this package's taxonomy.
// Used by the tool service to render spec.md §7's "short actionable
// suggestion string" alongside any user-visible failure.
func Suggestion(err error) string {
	switch e := err.(type) {
	case *IndexingError:
		if e.Suggestion != "" {
			return e.Suggestion
		}
		return "check the file still exists and is readable"
	case *ParseError:
		return "the file may use syntax this adapter doesn't recognize yet; partial results were kept"
	case *StoreError:
		return "retry the operation; if it persists the index directory may need rebuilding"
	case *WatchError:
		return "check filesystem permissions on the watched path"
	case *SemanticError:
		return fmt.Sprintf("run a full reindex with semantic search enabled to regenerate %s", e.MetadataPath)
	case *ConfigError:
		return "fix the field in .codanna/settings.toml and reload"
	case *NotFoundError:
		return "check the name, module and language filters"
	default:
		return "see the underlying error for details"
	}
}
