package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Environment variables that override file settings.
const (
	EnvLogLevel    = "TREERAG_LOG_LEVEL"
	EnvDBPath      = "TREERAG_DB_PATH"
	EnvAIHost      = "TREERAG_AI_HOST"
	EnvAIModel     = "TREERAG_AI_MODEL"
	EnvAIAPIKey    = "TREERAG_AI_API_KEY"
	EnvAITimeout   = "TREERAG_AI_TIMEOUT"
	EnvMaxDepth    = "TREERAG_MAX_DEPTH"
	EnvMaxBranches = "TREERAG_MAX_BRANCHES"
	EnvNodeBudget  = "TREERAG_NODE_BUDGET"
	EnvPoolSize    = "TREERAG_POOL_SIZE"
	EnvCacheTTL    = "TREERAG_CACHE_TTL"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment. Variables already set are kept. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// envKey maps a TREERAG_* variable to its viper key.
func envKey(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, envPrefix+"_"))
}

const envPrefix = "TREERAG"

// newEnv returns a viper instance bound to the TREERAG_* variables.
// Empty variables count as unset.
func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// ApplyEnv overrides cfg with any TREERAG_* variables that are set.
func ApplyEnv(cfg *Config) error {
	v := newEnv()

	setString(v, &cfg.LogLevel, EnvLogLevel)
	if v.IsSet(envKey(EnvDBPath)) {
		cfg.Database.Path = v.GetString(envKey(EnvDBPath))
		cfg.Database.InMemory = false
	}
	setString(v, &cfg.AI.Host, EnvAIHost)
	setString(v, &cfg.AI.Model, EnvAIModel)
	setString(v, &cfg.AI.APIKey, EnvAIAPIKey)

	for _, d := range []struct {
		name string
		dst  *time.Duration
	}{
		{EnvAITimeout, &cfg.AI.Timeout},
		{EnvCacheTTL, &cfg.Cache.TTL},
	} {
		if err := setDuration(v, d.dst, d.name); err != nil {
			return err
		}
	}

	for _, i := range []struct {
		name string
		dst  *int
	}{
		{EnvMaxDepth, &cfg.Traversal.MaxDepth},
		{EnvMaxBranches, &cfg.Traversal.MaxBranches},
		{EnvNodeBudget, &cfg.Traversal.NodeBudget},
		{EnvPoolSize, &cfg.Traversal.PoolSize},
	} {
		if err := setInt(v, i.dst, i.name); err != nil {
			return err
		}
	}
	return nil
}

func setString(v *viper.Viper, dst *string, name string) {
	if v.IsSet(envKey(name)) {
		*dst = v.GetString(envKey(name))
	}
}

func setInt(v *viper.Viper, dst *int, name string) error {
	if !v.IsSet(envKey(name)) {
		return nil
	}
	raw := v.Get(envKey(name))
	n, err := cast.ToIntE(raw)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, name, raw)
	}
	*dst = n
	return nil
}

func setDuration(v *viper.Viper, dst *time.Duration, name string) error {
	if !v.IsSet(envKey(name)) {
		return nil
	}
	raw := v.Get(envKey(name))
	d, err := cast.ToDurationE(raw)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, name, raw)
	}
	*dst = d
	return nil
}
