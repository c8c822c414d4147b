package toolservice

import "github.com/bmatcuk/doublestar/v4"

// matchesPattern implements spec.md §6/§9's glob semantics literally:
// "**" crosses path segments, a bare "*" does not. doublestar.Match
// already has exactly this behavior, unlike filepath.Match's
// single-segment-only "*" and no "**" support at all, so no
// shell-glob divergence needs documenting beyond what spec.md already
// calls out.
func matchesPattern(pattern, path string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}

// passesPathFilters reports whether path should be kept given
// search_symbols' optional file_pattern/exclude_pattern inputs.
func passesPathFilters(path, filePattern, excludePattern string) bool {
	if filePattern != "" && !matchesPattern(filePattern, path) {
		return false
	}
	if excludePattern != "" && matchesPattern(excludePattern, path) {
		return false
	}
	return true
}
