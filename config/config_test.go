package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Store.DefaultBudget.IsUnlimited())
	assert.Equal(t, 0.6, cfg.Store.DefaultBudget.HistoryRatio)
	assert.Equal(t, 32*1024, cfg.Queue.InlineMaxBytes)
	assert.True(t, cfg.Queue.RedactSecrets)
	assert.NotEmpty(t, cfg.Queue.SecretPatterns)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  default_budget:
    max_tokens: 128000
    history_ratio: 0.5
    output_reserve: 4000
    compact_threshold: 0.75
  tokenizer_model: gpt-4o
artifacts:
  base_path: /tmp/ctx-artifacts
queue:
  enabled: true
  inline_max_bytes: 4096
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 128000, cfg.Store.DefaultBudget.MaxTokens)
	assert.Equal(t, 62000, cfg.Store.DefaultBudget.HistoryBudget())
	assert.Equal(t, "gpt-4o", cfg.Store.TokenizerModel)
	assert.Equal(t, "/tmp/ctx-artifacts", cfg.Artifacts.BasePath)
	assert.Equal(t, 4096, cfg.Queue.InlineMaxBytes)
}

func TestLoad_InvalidBudgetFailsFast(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  default_budget:
    max_tokens: 1000
    history_ratio: 3.5
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history_ratio")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONTEXTCORE_ARTIFACTS_PATH", "/tmp/env-artifacts")
	t.Setenv("CONTEXTCORE_MAX_TOKENS", "9000")
	t.Setenv("CONTEXTCORE_QUEUE_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-artifacts", cfg.Artifacts.BasePath)
	assert.Equal(t, 9000, cfg.Store.DefaultBudget.MaxTokens)
	assert.False(t, cfg.Queue.Enabled)
}
