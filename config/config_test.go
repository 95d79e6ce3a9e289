package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/treerag/cache"
	"github.com/poiesic/treerag/navigator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "treerag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.Database.Path)
	assert.Equal(t, navigator.DefaultMaxDepth, cfg.Traversal.MaxDepth)
	assert.Equal(t, navigator.DefaultMaxBranches, cfg.Traversal.MaxBranches)
	assert.Equal(t, navigator.DefaultNodeBudget, cfg.Traversal.NodeBudget)
	assert.Equal(t, navigator.DefaultPoolSize, cfg.Traversal.PoolSize)
	assert.Equal(t, cache.DefaultMaxEntries, cfg.Cache.MaxEntries)
	assert.Equal(t, cache.DefaultTTL, cfg.Cache.TTL)
	assert.Equal(t, DefaultAPIKeyEnv, cfg.AI.APIKeyEnv)
	assert.Nil(t, cfg.Traversal.Policy)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
database:
  path: ./data
ai:
  host: http://llm.internal:8000
  model: gpt-4o-mini
  timeout: 45s
  retry_delay: 250ms
traversal:
  max_depth: 7
  max_branches: 4
  node_budget: 500
  policy:
    explore_threshold: 0.2
    select_threshold: 0.6
    high_confidence: 0.8
    medium_confidence: 0.5
cache:
  ttl: 10m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data"), cfg.Database.Path)
	assert.Equal(t, "http://llm.internal:8000", cfg.AI.Host)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.AI.RetryDelay)
	assert.Equal(t, 3, cfg.AI.MaxAttempts)
	assert.Equal(t, 7, cfg.Traversal.MaxDepth)
	assert.Equal(t, 4, cfg.Traversal.MaxBranches)
	assert.Equal(t, 500, cfg.Traversal.NodeBudget)
	require.NotNil(t, cfg.Traversal.Policy)
	assert.Equal(t, 0.2, cfg.Traversal.Policy.ExploreThreshold)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, cache.DefaultMaxEntries, cfg.Cache.MaxEntries)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "traversal: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_InMemoryKeepsEmptyPath(t *testing.T) {
	path := writeConfig(t, "database:\n  in_memory: true\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Database.InMemory)
	assert.Empty(t, cfg.Database.Path)
	assert.NoError(t, cfg.Validate())
}

func TestSave_RoundTripWithoutAPIKey(t *testing.T) {
	cfg := Default()
	cfg.AI.APIKey = "secret"
	cfg.Traversal.MaxDepth = 8
	path := filepath.Join(t.TempDir(), "nested", "treerag.yaml")

	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Equal(t, "secret", cfg.AI.APIKey, "caller's config must not be modified")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Traversal.MaxDepth)
	assert.Equal(t, cfg.Cache.TTL, loaded.Cache.TTL)
	assert.Equal(t, cfg.AI.Timeout, loaded.AI.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"no database path", func(c *Config) { c.Database.Path = "" }},
		{"negative depth", func(c *Config) { c.Traversal.MaxDepth = -1 }},
		{"zero budget", func(c *Config) { c.Traversal.NodeBudget = 0 }},
		{"negative oracle timeout", func(c *Config) { c.Traversal.OracleTimeout = -time.Second }},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }},
		{"policy out of range", func(c *Config) {
			c.Traversal.Policy = &PolicyConfig{ExploreThreshold: 1.5, HighConfidence: 0.7, MediumConfidence: 0.4}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestAIConfig_ToAI(t *testing.T) {
	t.Setenv("TREERAG_TEST_KEY", "from-env")

	cfg := Default()
	cfg.AI.APIKeyEnv = "TREERAG_TEST_KEY"
	aiCfg := cfg.AI.ToAI()
	assert.Equal(t, "from-env", aiCfg.APIKey)
	assert.Equal(t, cfg.AI.Model, aiCfg.Model)
	assert.Equal(t, cfg.AI.MaxAttempts, aiCfg.MaxAttempts)
	assert.NoError(t, aiCfg.Validate())

	cfg.AI.APIKey = "literal"
	assert.Equal(t, "literal", cfg.AI.ToAI().APIKey)
}

func TestTraversalConfig_NavigatorOptions(t *testing.T) {
	cfg := Default()
	assert.Len(t, cfg.Traversal.NavigatorOptions(), 3)

	cfg.Traversal.Policy = &PolicyConfig{ExploreThreshold: 0.1, SelectThreshold: 0.2, HighConfidence: 0.9, MediumConfidence: 0.5}
	assert.Len(t, cfg.Traversal.NavigatorOptions(), 4)
}

func TestCacheConfig_CacheOptions(t *testing.T) {
	cfg := Default()
	c, err := cache.New(cfg.Cache.CacheOptions()...)
	require.NoError(t, err)
	c.Close()
}
