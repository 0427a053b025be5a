// Package config loads the TOML project/target configuration file that
// drives a build: the target triple, optimization level, cache directory,
// and the compile-time variables that feed the object cache's version
// token.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// OptLevel mirrors the optimization levels spec.md §9 names. Balanced is
// kept as a literal alias for None (see DESIGN.md Open Question decisions).
type OptLevel string

const (
	OptNone     OptLevel = "none"
	OptBalanced OptLevel = "balanced"
	OptAggressive OptLevel = "aggressive"
)

// Target describes one compilation target.
type Target struct {
	Triple string `toml:"triple"`
	CPU    string `toml:"cpu"`
}

// Config is the root of a project's `emberc.toml`.
type Config struct {
	Target Target `toml:"target"`

	OutputDir string `toml:"output_dir"`
	CacheDir  string `toml:"cache_dir"`
	Workers   int    `toml:"workers"`

	Opt OptLevel `toml:"opt"`

	// EntrySymbol names the linked binary's entry point, defaulting to
	// "main" when empty (spec.md §4.6 entry module generation).
	EntrySymbol string `toml:"entry_symbol"`

	// CompileTimeVars holds values supplied outside the source: build-time
	// feature flags, version strings, and similar. They feed only the
	// cache-busting version token (split.VersionToken); the constant
	// evaluator does not read them.
	CompileTimeVars map[string]string `toml:"vars"`

	// Version/CompiledAt feed the cache-busting version token (spec.md §4.5 item 2,
	// "<semver>-<build-time>-<vars-hash>"). CompiledAt is populated by the
	// driver at build time, never read from the file itself — a
	// checked-in config has no business carrying a build timestamp.
	Version    string    `toml:"version"`
	CompiledAt time.Time `toml:"-"`

	// DisableIncremental forces every module to be treated as changed,
	// bypassing the object cache entirely (spec.md §4.5 condition 1).
	DisableIncremental bool `toml:"disable_incremental"`

	// DumpVerify re-runs every module through codegen even on a cache hit
	// (spec.md §4.5 condition 1, "dump-verify"); like DisableIncremental it
	// forces Cache.Changed to report every module as changed. The freshly
	// emitted object is not compared against the cached one.
	DumpVerify bool `toml:"dump_verify"`
}

// Load reads and parses path into a Config, applying the same defaults the
// driver would apply to a zero-value Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Target.Triple == "" {
		c.Target.Triple = "x86_64-unknown-linux-gnu"
	}
	if c.OutputDir == "" {
		c.OutputDir = "build"
	}
	if c.CacheDir == "" {
		c.CacheDir = ".emberc-cache"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Opt == "" {
		c.Opt = OptNone
	}
	if c.Opt == OptBalanced {
		c.Opt = OptNone
	}
	if c.EntrySymbol == "" {
		c.EntrySymbol = "main"
	}
}
