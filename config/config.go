// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/treerag/ai"
	"github.com/poiesic/treerag/cache"
	"github.com/poiesic/treerag/navigator"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for treerag.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Database  DatabaseConfig  `yaml:"database"`
	AI        AIConfig        `yaml:"ai"`
	Traversal TraversalConfig `yaml:"traversal"`
	Cache     CacheConfig     `yaml:"cache"`
}

// DatabaseConfig locates the tree store.
type DatabaseConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// AIConfig configures the LLM relevance oracle.
type AIConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
	// APIKey takes precedence over APIKeyEnv.
	APIKey      string        `yaml:"api_key,omitempty"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
}

// TraversalConfig holds search limits and navigator tuning.
type TraversalConfig struct {
	MaxDepth      int           `yaml:"max_depth"`
	MaxBranches   int           `yaml:"max_branches"`
	NodeBudget    int           `yaml:"node_budget"`
	PoolSize      int           `yaml:"pool_size"`
	OracleTimeout time.Duration `yaml:"oracle_timeout"`
	// Policy replaces the default confidence thresholds when set.
	// All four values are taken as written.
	Policy *PolicyConfig `yaml:"policy,omitempty"`
}

// PolicyConfig mirrors navigator.Policy.
type PolicyConfig struct {
	ExploreThreshold float64 `yaml:"explore_threshold"`
	SelectThreshold  float64 `yaml:"select_threshold"`
	HighConfidence   float64 `yaml:"high_confidence"`
	MediumConfidence float64 `yaml:"medium_confidence"`
}

// CacheConfig configures the query result cache.
type CacheConfig struct {
	Disabled   bool          `yaml:"disabled"`
	MaxEntries int           `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads a YAML config from path and applies defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyDefaults(&cfg)

	if cfg.Database.Path != "" && !filepath.IsAbs(cfg.Database.Path) {
		cfg.Database.Path = filepath.Join(filepath.Dir(path), cfg.Database.Path)
	}
	return &cfg, nil
}

// Save writes the config to path, creating directories as needed.
// Literal API keys are not written.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out := *cfg
	out.AI.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks ranges that defaults cannot repair.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("%w: database path is required", ErrInvalidConfig)
	}
	t := c.Traversal
	if t.MaxDepth < 1 || t.MaxBranches < 1 || t.NodeBudget < 1 || t.PoolSize < 1 {
		return fmt.Errorf("%w: traversal limits must be positive", ErrInvalidConfig)
	}
	if t.OracleTimeout < 0 {
		return fmt.Errorf("%w: oracle timeout cannot be negative", ErrInvalidConfig)
	}
	if t.Policy != nil {
		if err := t.Policy.toPolicy().Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if c.Cache.MaxEntries < 0 || c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache limits cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// ToAI converts the AI section into an ai.Config.
// The API key is resolved from APIKeyEnv when not set literally.
func (a AIConfig) ToAI() *ai.Config {
	key := a.APIKey
	if key == "" && a.APIKeyEnv != "" {
		key = os.Getenv(a.APIKeyEnv)
	}
	return ai.NewConfig(
		ai.WithHost(a.Host),
		ai.WithModel(a.Model),
		ai.WithAPIKey(key),
		ai.WithTemperature(a.Temperature),
		ai.WithTimeout(a.Timeout),
		ai.WithMaxAttempts(a.MaxAttempts),
		ai.WithRetryDelay(a.RetryDelay),
	)
}

func (p PolicyConfig) toPolicy() navigator.Policy {
	return navigator.Policy{
		ExploreThreshold: p.ExploreThreshold,
		SelectThreshold:  p.SelectThreshold,
		HighConfidence:   p.HighConfidence,
		MediumConfidence: p.MediumConfidence,
	}
}

// NavigatorOptions converts the traversal section into navigator options.
func (t TraversalConfig) NavigatorOptions() []navigator.Option {
	opts := []navigator.Option{
		navigator.WithNodeBudget(t.NodeBudget),
		navigator.WithPoolSize(t.PoolSize),
		navigator.WithOracleTimeout(t.OracleTimeout),
	}
	if t.Policy != nil {
		opts = append(opts, navigator.WithPolicy(t.Policy.toPolicy()))
	}
	return opts
}

// CacheOptions converts the cache section into cache options.
func (c CacheConfig) CacheOptions() []cache.Option {
	return []cache.Option{
		cache.WithMaxEntries(c.MaxEntries),
		cache.WithTTL(c.TTL),
	}
}
