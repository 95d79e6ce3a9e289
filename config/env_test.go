package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvDBPath, "/var/lib/treerag")
	t.Setenv(EnvAIHost, "http://gpu-box:8080")
	t.Setenv(EnvAIModel, "llama3")
	t.Setenv(EnvAIAPIKey, "sk-test")
	t.Setenv(EnvAITimeout, "5s")
	t.Setenv(EnvMaxDepth, "9")
	t.Setenv(EnvMaxBranches, "2")
	t.Setenv(EnvNodeBudget, "250")
	t.Setenv(EnvPoolSize, "6")
	t.Setenv(EnvCacheTTL, "90s")

	cfg := Default()
	cfg.Database.InMemory = true
	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/var/lib/treerag", cfg.Database.Path)
	assert.False(t, cfg.Database.InMemory)
	assert.Equal(t, "http://gpu-box:8080", cfg.AI.Host)
	assert.Equal(t, "llama3", cfg.AI.Model)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 9, cfg.Traversal.MaxDepth)
	assert.Equal(t, 2, cfg.Traversal.MaxBranches)
	assert.Equal(t, 250, cfg.Traversal.NodeBudget)
	assert.Equal(t, 6, cfg.Traversal.PoolSize)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
}

func TestApplyEnv_Unset(t *testing.T) {
	cfg := Default()
	want := *cfg
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, want, *cfg)
}

func TestApplyEnv_EmptyIsUnset(t *testing.T) {
	t.Setenv(EnvAIModel, "")
	t.Setenv(EnvMaxDepth, "")

	cfg := Default()
	want := *cfg
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, want, *cfg)
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
	}{
		{"int", EnvMaxDepth, "deep"},
		{"duration", EnvAITimeout, "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			err := ApplyEnv(Default())
			assert.ErrorIs(t, err, ErrInvalidEnv)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TREERAG_DOTENV_TEST=loaded\n"), 0600))
	t.Setenv("TREERAG_DOTENV_TEST", "")
	os.Unsetenv("TREERAG_DOTENV_TEST")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("TREERAG_DOTENV_TEST"))
}

func TestLoadDotEnv_KeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TREERAG_DOTENV_KEEP=file\n"), 0600))
	t.Setenv("TREERAG_DOTENV_KEEP", "process")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "process", os.Getenv("TREERAG_DOTENV_KEEP"))
}
