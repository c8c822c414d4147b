// Package ids provides the compact numeric identifiers shared across
// the symbol graph: FileId, SymbolId, LanguageId and a monotonically
// increasing Counter for each. It does not intern strings.
package ids

import "sync/atomic"

// FileID identifies a row in the file-info table. Zero is the sentinel
// "no file" value; real IDs start at 1.
type FileID uint64

// SymbolID identifies a stored symbol. Zero is the sentinel value.
type SymbolID uint64

// LanguageID identifies a registered language. Zero means "unknown".
type LanguageID uint32

// Counter issues monotonically increasing, non-zero IDs. It is safe
// for concurrent use and its value is persisted in the store's
// metadata table so IDs survive a process restart.
type Counter struct {
	next uint64
}

// NewCounter returns a Counter that will issue start+1 as its first ID.
// Pass the last persisted value read from the store's metadata table
// (0 if none has been persisted yet).
func NewCounter(start uint64) *Counter {
	return &Counter{next: start}
}

// Next issues the next non-zero ID.
func (c *Counter) Next() uint64 {
	return atomic.AddUint64(&c.next, 1)
}

// Peek returns the last issued value without allocating a new one.
func (c *Counter) Peek() uint64 {
	return atomic.LoadUint64(&c.next)
}

// Advance bumps the counter forward if value is larger than the
// current position, used when restoring from a persisted checkpoint
// that is ahead of what this process has issued so far.
func (c *Counter) Advance(value uint64) {
	for {
		cur := atomic.LoadUint64(&c.next)
		if value <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&c.next, cur, value) {
			return
		}
	}
}

// NextFileID issues the next FileID from a Counter.
func NextFileID(c *Counter) FileID { return FileID(c.Next()) }

// NextSymbolID issues the next SymbolID from a Counter.
func NextSymbolID(c *Counter) SymbolID { return SymbolID(c.Next()) }
