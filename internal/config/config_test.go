package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "emberc.toml")
	require.NoError(t, os.WriteFile(path, []byte(`version = "0.1.0"`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "x86_64-unknown-linux-gnu", cfg.Target.Triple)
	assert.Equal(t, "build", cfg.OutputDir)
	assert.Equal(t, ".emberc-cache", cfg.CacheDir)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, OptNone, cfg.Opt)
	assert.Equal(t, "main", cfg.EntrySymbol)
	assert.Equal(t, "0.1.0", cfg.Version)
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "emberc.toml")
	contents := `
entry_symbol = "app_start"
workers = 8
opt = "aggressive"

[target]
triple = "aarch64-apple-darwin"
cpu = "apple-m1"

[vars]
feature_x = "1"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "aarch64-apple-darwin", cfg.Target.Triple)
	assert.Equal(t, "apple-m1", cfg.Target.CPU)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, OptAggressive, cfg.Opt)
	assert.Equal(t, "app_start", cfg.EntrySymbol)
	assert.Equal(t, "1", cfg.CompileTimeVars["feature_x"])
}

func TestBalancedOptCollapsesToNone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "emberc.toml")
	require.NoError(t, os.WriteFile(path, []byte(`opt = "balanced"`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, OptNone, cfg.Opt)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
