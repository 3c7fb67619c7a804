// Package config loads the optional .arbor.toml file at a repository root.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/jward/arbor/internal/lang"
)

// FileName is the config file looked up at the repository root.
const FileName = ".arbor.toml"

// DefaultDB is the index location relative to the repository root.
const DefaultDB = ".arbor/index.db"

// Config is the on-disk configuration. Zero fields mean "use the default".
type Config struct {
	// Languages restricts indexing to these language names.
	Languages []string `toml:"languages"`
	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the repository root.
	Exclude []string `toml:"exclude"`
	Trivia  bool     `toml:"trivia"`
	Workers int      `toml:"workers"`
	DB      string   `toml:"db"`
	// Scripts is the directory holding visitor scripts for `arbor visit`.
	Scripts string `toml:"scripts"`
}

// Load reads root/.arbor.toml. A missing file yields the zero Config.
func Load(root string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read: %w", err)
	}
	cfg, err = Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("config: %s: %w", FileName, err)
	}
	return cfg, nil
}

// Parse decodes and validates TOML config data. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks language names, exclude patterns and the worker count.
func (c Config) Validate() error {
	var errs []error
	for _, name := range c.Languages {
		if _, ok := lang.Get(name); !ok {
			errs = append(errs, fmt.Errorf("unknown language %q (supported: %v)", name, lang.Names()))
		}
	}
	for _, p := range c.Exclude {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid exclude pattern %q", p))
		}
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

// DBPath returns the configured index path resolved against root.
func (c Config) DBPath(root string) string {
	p := c.DB
	if p == "" {
		p = DefaultDB
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// Excluded reports whether rel, a path relative to the repository root,
// matches any exclude pattern.
func (c Config) Excluded(rel string) bool {
	return MatchAny(c.Exclude, rel)
}

// MatchAny reports whether rel matches any of patterns.
func MatchAny(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
