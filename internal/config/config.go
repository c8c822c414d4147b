// Package config loads and validates the `.codanna/settings.toml`
// configuration file of spec.md §6, using the teacher's own TOML
// dependency (github.com/pelletier/go-toml/v2). Validation follows
// the teacher's internal/config/validator.go shape: collect every
// violation instead of failing on the first one.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/codanna-go/internal/errs"
)

// LanguageConfig is one entry under the `languages.<id>` table.
type LanguageConfig struct {
	Enabled bool `toml:"enabled"`
}

// FileWatchConfig is the `[file_watch]` table.
type FileWatchConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounce_ms"`
}

// MCPConfig is the `[mcp]` table.
type MCPConfig struct {
	Debug bool `toml:"debug"`
}

// IndexingConfig is the `[indexing]` table.
type IndexingConfig struct {
	IndexedPaths []string `toml:"indexed_paths"`
}

// Config mirrors spec.md §6's config file shape exactly.
type Config struct {
	IndexPath     string                    `toml:"index_path"`
	WorkspaceRoot string                    `toml:"workspace_root"`
	Languages     map[string]LanguageConfig `toml:"languages"`
	FileWatch     FileWatchConfig           `toml:"file_watch"`
	MCP           MCPConfig                 `toml:"mcp"`
	Indexing      IndexingConfig            `toml:"indexing"`

	// path is the file this Config was loaded from, kept so the
	// config watcher knows what to watch without the caller having to
	// remember it separately.
	path string
}

// Default returns a Config with the defaults this module ships when
// no settings.toml exists yet: index under .codanna/index, watch the
// workspace root, 500ms debounce, every bundled language enabled.
func Default(workspaceRoot string) *Config {
	langs := map[string]LanguageConfig{}
	for _, name := range []string{"go", "typescript", "javascript", "python", "rust", "php", "csharp", "cpp", "c", "kotlin", "gdscript"} {
		langs[name] = LanguageConfig{Enabled: true}
	}
	return &Config{
		IndexPath:     filepath.Join(workspaceRoot, ".codanna", "index"),
		WorkspaceRoot: workspaceRoot,
		Languages:     langs,
		FileWatch:     FileWatchConfig{Enabled: true, DebounceMs: 500},
		Indexing:      IndexingConfig{IndexedPaths: []string{"."}},
	}
}

// Path returns the file this Config was loaded from (empty if it was
// built via Default rather than loaded by Load; Save does not set it).
func (c *Config) Path() string { return c.path }

// LanguageEnabled reports whether name is enabled, defaulting to true
// when the config is silent about it (spec.md §6 only lists
// languages it wants to turn off).
func (c *Config) LanguageEnabled(name string) bool {
	lc, ok := c.Languages[name]
	if !ok {
		return true
	}
	return lc.Enabled
}

// Load reads and validates path (typically "./.codanna/settings.toml").
// A missing file is not an error: Load returns Default(workspaceRoot).
func Load(path, workspaceRoot string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(workspaceRoot), nil
	}
	if err != nil {
		return nil, errs.NewConfigError("path", path, err)
	}

	cfg := Default(workspaceRoot)
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errs.NewConfigError("toml", path, err)
	}
	cfg.path = path

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg back to path as TOML, used by the CLI driver's
// init-style commands (out of scope here beyond this helper, per
// spec.md §1's "config file loader" boundary).
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.NewConfigError("path", path, err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return errs.NewConfigError("marshal", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate collects every configuration violation instead of
// stopping at the first one, matching the teacher's validator shape.
func Validate(cfg *Config) error {
	var violations []error

	if cfg.IndexPath == "" {
		violations = append(violations, errs.NewConfigError("index_path", "", fmt.Errorf("must not be empty")))
	}
	if cfg.WorkspaceRoot == "" {
		violations = append(violations, errs.NewConfigError("workspace_root", "", fmt.Errorf("must not be empty")))
	}
	if cfg.FileWatch.Enabled && cfg.FileWatch.DebounceMs < 0 {
		violations = append(violations, errs.NewConfigError("file_watch.debounce_ms", fmt.Sprint(cfg.FileWatch.DebounceMs), fmt.Errorf("must be >= 0")))
	}
	for _, p := range cfg.Indexing.IndexedPaths {
		if p == "" {
			violations = append(violations, errs.NewConfigError("indexing.indexed_paths", p, fmt.Errorf("entries must not be empty")))
		}
	}

	return errs.NewMultiError(violations)
}
