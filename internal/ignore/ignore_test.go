package ignore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_BasicPatterns(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		path     string
		isDir    bool
		expected bool
	}{
		{"simple file match", "README.md", "README.md", false, true},
		{"simple file no match", "README.md", "main.go", false, false},
		{"directory pattern matches directory", "node_modules/", "node_modules", true, true},
		{"directory pattern matches files inside", "node_modules/", "node_modules/react/index.js", false, true},
		{"directory pattern no match outside", "node_modules/", "src/main.go", false, false},
		{"absolute pattern matches only root", "/build", "build", true, true},
		{"absolute pattern does not match nested", "/build", "internal/build", true, false},
		{"suffix wildcard", "*.log", "debug.log", false, true},
		{"prefix wildcard", "test*", "test_helper.go", false, true},
		{"negation re-includes", "!keep.log", "keep.log", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher()
			if tt.name == "negation re-includes" {
				m.patterns = append(m.patterns, parsePattern("*.log"))
			}
			m.patterns = append(m.patterns, parsePattern(tt.pattern))
			assert.Equal(t, tt.expected, m.ShouldIgnore(tt.path, tt.isDir))
		})
	}
}

func TestMatcher_HiddenPathsAlwaysIgnored(t *testing.T) {
	m := NewMatcher()
	assert.True(t, m.ShouldIgnore(".git/config", false))
	assert.True(t, m.ShouldIgnore("src/.hidden/file.go", false))
	assert.False(t, m.ShouldIgnore("src/visible/file.go", false))
}

func TestMatcher_LoadFileMissingIsNotError(t *testing.T) {
	m := NewMatcher()
	assert.NoError(t, m.LoadFile("/nonexistent/.gitignore"))
}
