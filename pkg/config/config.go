package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/mattsolo1/grove-codetree/pkg/codebase"
	"github.com/mattsolo1/grove-codetree/pkg/render"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "CODETREE"

// Config holds the resolved codetree configuration.
type Config struct {
	DataDir   string
	Provider  string
	Format    string
	Sort      string
	Strict    bool
	Cache     CacheConfig
	GitHub    GitHubConfig
	Providers map[string]ProviderConfig
}

// CacheConfig controls the sqlite tree cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// GitHubConfig holds settings for the REST provider.
type GitHubConfig struct {
	Token   string
	BaseURL string
}

// ProviderConfig defines a named provider alias, e.g. a GitHub Enterprise
// host reachable through the REST provider.
type ProviderConfig struct {
	Type    string `mapstructure:"type"`
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

// DefaultConfigPath returns $HOME/.config/codetree/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "codetree", "config.yaml")
}

// Load reads configuration from cfgFile (or the default location when
// empty), a .env file in the working directory, and CODETREE_* variables.
// A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	// Try to load .env file (optional - don't fail if it doesn't exist)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "codetree"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Set defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("data_dir", filepath.Join(home, ".local", "share", "codetree"))
	v.SetDefault("provider", "github")
	v.SetDefault("format", string(render.FormatText))
	v.SetDefault("sort", string(codebase.SortDirsFirst))
	v.SetDefault("strict", false)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("github.base_url", "https://api.github.com")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		DataDir:  v.GetString("data_dir"),
		Provider: v.GetString("provider"),
		Format:   v.GetString("format"),
		Sort:     v.GetString("sort"),
		Strict:   v.GetBool("strict"),
		Cache: CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			TTL:     v.GetDuration("cache.ttl"),
		},
		GitHub: GitHubConfig{
			Token:   firstNonEmpty(v.GetString("github.token"), os.Getenv("GITHUB_TOKEN"), os.Getenv("GH_TOKEN")),
			BaseURL: v.GetString("github.base_url"),
		},
	}

	providers, err := decodeProviders(v.GetStringMap("providers"))
	if err != nil {
		return nil, err
	}
	cfg.Providers = providers

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func decodeProviders(raw map[string]interface{}) (map[string]ProviderConfig, error) {
	providers := make(map[string]ProviderConfig, len(raw))
	for name, entry := range raw {
		entryMap, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("provider config '%s' is not a map", name)
		}

		var pc ProviderConfig
		if err := mapstructure.Decode(entryMap, &pc); err != nil {
			return nil, fmt.Errorf("failed to decode provider config '%s': %w", name, err)
		}
		if pc.Type == "" {
			return nil, fmt.Errorf("provider config '%s' missing 'type' field", name)
		}
		providers[name] = pc
	}
	return providers, nil
}

// Validate rejects unusable settings.
func (c *Config) Validate() error {
	if _, err := render.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := codebase.ParseSortOrder(c.Sort); err != nil {
		return err
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
