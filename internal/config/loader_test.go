package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp switches the working directory to a fresh temp dir for the
// duration of the test. Equivalent to t.Chdir(t.TempDir()), which needs Go 1.24.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Analysis.MaxRetries)
	assert.InDelta(t, 0.8, cfg.Analysis.SimilarityThreshold, 1e-9)
	assert.Equal(t, 25, cfg.Analysis.MaxDocFiles)
	assert.Equal(t, 10*time.Minute, cfg.Analysis.Timeout)
	assert.False(t, cfg.Analysis.EnableDiagrams)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "127.0.0.1:8484", cfg.Server.Addr)
	assert.Equal(t, 60*time.Second, cfg.GitHub.CommandTimeout)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "omnidoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
github:
  repo: acme/widget
analysis:
  max_retries: 5
  enable_diagrams: true
`), 0o600))

	cfg, err := NewLoader().WithConfigFile(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "acme/widget", cfg.GitHub.Repo)
	assert.Equal(t, 5, cfg.Analysis.MaxRetries)
	assert.True(t, cfg.Analysis.EnableDiagrams)
	// Unset keys keep their defaults.
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("OMNIDOC_LOG_LEVEL", "warn")
	t.Setenv("OMNIDOC_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("OMNIDOC_ANALYSIS_MAX_RETRIES", "2")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2, cfg.Analysis.MaxRetries)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "omnidoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: loud
analysis:
  max_retries: 99
  similarity_threshold: 7
`), 0o600))

	_, err := NewLoader().WithConfigFile(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "max_retries")
	assert.Contains(t, err.Error(), "similarity_threshold")
}

func TestValidate_RepoForm(t *testing.T) {
	chdirTemp(t)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	cfg.GitHub.Repo = "not-a-repo"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner/repo")
}
