package indexer

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/codanna-go/internal/ignore"
)

// Walker enumerates indexable files under a root directory, honoring
// ignore rules and the set of extensions the language registry
// actually parses (spec.md §6).
type Walker struct {
	Root       string
	Extensions map[string]bool
	Ignore     *ignore.Matcher
}

// NewWalker builds a Walker for root, restricted to extensions (with
// leading dots) and filtered through matcher (nil means "no ignore
// rules beyond hidden-file skipping", which Matcher always applies).
func NewWalker(root string, extensions []string, matcher *ignore.Matcher) *Walker {
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[e] = true
	}
	if matcher == nil {
		matcher = ignore.NewMatcher()
	}
	return &Walker{Root: root, Extensions: extSet, Ignore: matcher}
}

// Walk invokes fn for every indexable file under w.Root, in
// lexicographic directory order. It stops and returns the first
// non-nil error fn or the walk itself produces.
func (w *Walker) Walk(fn func(relPath string) error) error {
	return filepath.WalkDir(w.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == w.Root {
			return nil
		}
		rel, relErr := filepath.Rel(w.Root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if w.Ignore.ShouldIgnore(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !w.Extensions[filepath.Ext(path)] {
			return nil
		}
		return fn(rel)
	})
}
