package toolservice

import (
	"fmt"
	"strings"
	"time"
)

// maxResponseChars is spec.md §4.L's "estimated response > 20000
// tokens (chars/4)" truncation threshold expressed directly in
// characters, since that's the unit strings.Builder actually counts.
const maxResponseChars = 20000 * 4

// renderBlocks joins full, one block per result, but falls back to
// summary (one line per result) when the full rendering would exceed
// maxResponseChars, per search_symbols' auto-truncation rule. Either
// slice may be empty; len(full) must equal len(summary).
func renderBlocks(full, summary []string, forceSummary bool) (text string, truncated bool) {
	joined := strings.Join(full, "\n\n")
	if !forceSummary && len(joined) <= maxResponseChars {
		return joined, false
	}
	return strings.Join(summary, "\n"), true
}

// paginate slices a result set to [offset, offset+limit), clamping
// both ends, for search_symbols' offset/limit inputs.
func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// formatRelativeTime renders a unix-seconds timestamp as a short
// "N <unit> ago" string relative to now, for get_index_info's
// semantic created/updated fields (spec.md §4.L).
func formatRelativeTime(unixSeconds, nowUnixSeconds int64) string {
	if unixSeconds == 0 {
		return "never"
	}
	d := time.Duration(nowUnixSeconds-unixSeconds) * time.Second
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// docPreview truncates a doc comment to its first line (or n runes,
// whichever is shorter), matching find_symbol's "doc preview" column.
func docPreview(doc string, n int) string {
	if nl := strings.IndexByte(doc, '\n'); nl >= 0 {
		doc = doc[:nl]
	}
	doc = strings.TrimSpace(doc)
	if r := []rune(doc); len(r) > n {
		return string(r[:n]) + "..."
	}
	return doc
}
