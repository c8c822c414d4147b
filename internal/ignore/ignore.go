// Package ignore implements the ignore-rule matching of spec.md §6:
// .gitignore syntax (including a repo's global excludes file and
// .git/info/exclude) plus a project-level .codannaignore file sharing
// identical syntax. Hidden files and directories are always skipped
// regardless of any pattern.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// patternType classifies a parsed pattern so common cases (exact,
// prefix, suffix) skip regex matching entirely.
type patternType int

const (
	patternExact patternType = iota
	patternPrefix
	patternSuffix
	patternComplex
)

type pattern struct {
	raw       string
	negate    bool
	directory bool
	absolute  bool

	kind     patternType
	prefix   string
	suffix   string
	compiled *regexp.Regexp
}

// Matcher holds every pattern loaded from one or more ignore files and
// answers ShouldIgnore queries against project-relative, slash
// separated paths.
type Matcher struct {
	patterns []pattern
	mu       sync.Mutex // guards cache only
	cache    map[string]*regexp.Regexp
}

// NewMatcher returns an empty Matcher.
func NewMatcher() *Matcher {
	return &Matcher{cache: make(map[string]*regexp.Regexp)}
}

// LoadFile loads patterns from one ignore file (.gitignore,
// .codannaignore, or .git/info/exclude); a missing file is not an
// error since most projects carry only some of them.
func (m *Matcher) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.patterns = append(m.patterns, parsePattern(line))
	}
	return scanner.Err()
}

// LoadProjectDefaults loads the standard ignore sources for
// projectRoot: .gitignore, .git/info/exclude and .codannaignore, in
// that order, plus the current user's global gitignore if git's
// core.excludesFile is configured via $XDG_CONFIG_HOME/git/ignore or
// ~/.config/git/ignore (the common default when core.excludesFile is
// unset, used as a best-effort fallback since this package does not
// shell out to git).
func (m *Matcher) LoadProjectDefaults(projectRoot string) error {
	if err := m.LoadFile(filepath.Join(projectRoot, ".gitignore")); err != nil {
		return err
	}
	if err := m.LoadFile(filepath.Join(projectRoot, ".git", "info", "exclude")); err != nil {
		return err
	}
	if err := m.LoadFile(filepath.Join(projectRoot, ".codannaignore")); err != nil {
		return err
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		_ = m.LoadFile(filepath.Join(xdg, "git", "ignore"))
	} else if home, err := os.UserHomeDir(); err == nil {
		_ = m.LoadFile(filepath.Join(home, ".config", "git", "ignore"))
	}
	return nil
}

func parsePattern(line string) pattern {
	p := pattern{raw: line}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.absolute = true
		line = line[1:]
	}
	p.raw = line
	p.kind, p.prefix, p.suffix, p.compiled = analyzePattern(line)
	return p
}

func analyzePattern(pat string) (patternType, string, string, *regexp.Regexp) {
	if !strings.ContainsAny(pat, "*?[") {
		return patternExact, pat, pat, nil
	}
	if strings.Contains(pat, "*") && !strings.Contains(pat, "?") && !strings.Contains(pat, "[") {
		if strings.HasPrefix(pat, "*") && !strings.Contains(pat[1:], "*") {
			return patternSuffix, "", pat[1:], nil
		}
		if strings.HasSuffix(pat, "*") && !strings.Contains(pat[:len(pat)-1], "*") {
			return patternPrefix, pat[:len(pat)-1], "", nil
		}
	}
	return patternComplex, "", "", globToRegex(pat)
}

func globToRegex(pat string) *regexp.Regexp {
	regex := regexp.QuoteMeta(pat)
	regex = strings.ReplaceAll(regex, `\*`, `.*`)
	regex = strings.ReplaceAll(regex, `\?`, `.`)
	regex = strings.ReplaceAll(regex, `\[`, `[`)
	regex = strings.ReplaceAll(regex, `\]`, `]`)
	compiled, err := regexp.Compile("^" + regex + "$")
	if err != nil {
		return nil
	}
	return compiled
}

func matchesOne(p pattern, path string) bool {
	switch p.kind {
	case patternExact:
		return p.prefix == path
	case patternPrefix:
		return strings.HasPrefix(path, p.prefix)
	case patternSuffix:
		return strings.HasSuffix(path, p.suffix)
	case patternComplex:
		return p.compiled != nil && p.compiled.MatchString(path)
	default:
		return false
	}
}

func (p pattern) matches(path string, isDir bool) bool {
	if p.directory {
		if isDir {
			if matchesOne(p, path) {
				return true
			}
			return strings.HasPrefix(path, p.raw+"/")
		}
		return strings.HasPrefix(path, p.raw+"/")
	}
	if p.absolute {
		return matchesOne(p, path)
	}
	if matchesOne(p, path) {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		if matchesOne(p, strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

// ShouldIgnore reports whether relPath (slash-separated, relative to
// the project root) should be excluded from indexing. Hidden files
// and directories (any path segment starting with ".") are always
// ignored, independent of any loaded pattern.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	for _, seg := range strings.Split(relPath, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
	}

	ignored := false
	for _, p := range m.patterns {
		if p.matches(relPath, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}
