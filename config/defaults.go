package config

import (
	"os"
	"path/filepath"

	"github.com/poiesic/treerag/ai"
	"github.com/poiesic/treerag/cache"
	"github.com/poiesic/treerag/navigator"
)

// DefaultAPIKeyEnv is read for the oracle API key when none is configured.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Database.Path == "" && !cfg.Database.InMemory {
		cfg.Database.Path = defaultDatabasePath()
	}

	aiDefaults := ai.DefaultConfig()
	if cfg.AI.Host == "" {
		cfg.AI.Host = aiDefaults.Host
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = aiDefaults.Model
	}
	if cfg.AI.APIKeyEnv == "" {
		cfg.AI.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = aiDefaults.Timeout
	}
	if cfg.AI.MaxAttempts == 0 {
		cfg.AI.MaxAttempts = aiDefaults.MaxAttempts
	}
	if cfg.AI.RetryDelay == 0 {
		cfg.AI.RetryDelay = aiDefaults.RetryDelay
	}

	if cfg.Traversal.MaxDepth == 0 {
		cfg.Traversal.MaxDepth = navigator.DefaultMaxDepth
	}
	if cfg.Traversal.MaxBranches == 0 {
		cfg.Traversal.MaxBranches = navigator.DefaultMaxBranches
	}
	if cfg.Traversal.NodeBudget == 0 {
		cfg.Traversal.NodeBudget = navigator.DefaultNodeBudget
	}
	if cfg.Traversal.PoolSize == 0 {
		cfg.Traversal.PoolSize = navigator.DefaultPoolSize
	}

	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = cache.DefaultMaxEntries
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = cache.DefaultTTL
	}
}

// defaultDatabasePath is ~/.treerag/db, or ./treerag-db without a home directory.
func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "treerag-db"
	}
	return filepath.Join(home, ".treerag", "db")
}
