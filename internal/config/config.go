package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Lumos-Labs-HQ/colonize/internal/database"
	"github.com/spf13/viper"
)

const (
	DefaultURLEnv      = "COLONIZE_STORE_URL"
	DefaultSeedingPath = "seeding"
	EnvPrefix          = "COLONIZE"
)

// keys lists every config key. Each is bound to COLONIZE_<KEY> so it can be
// set from the environment without a config file.
var keys = []string{
	"store_url",
	"url_env",
	"provider",
	"connection_whitelist",
	"drop_store_before_seed",
	"seeding_path",
	"pattern",
	"faker_seed",
	"verbose",
}

type Config struct {
	StoreURL            string   `json:"store_url" mapstructure:"store_url"`
	URLEnv              string   `json:"url_env" mapstructure:"url_env"`
	Provider            string   `json:"provider" mapstructure:"provider"` // inferred from store_url when empty
	ConnectionWhitelist []string `json:"connection_whitelist" mapstructure:"connection_whitelist"`
	DropStoreBeforeSeed bool     `json:"drop_store_before_seed" mapstructure:"drop_store_before_seed"`
	SeedingPath         string   `json:"seeding_path" mapstructure:"seeding_path"`
	Pattern             string   `json:"pattern,omitempty" mapstructure:"pattern"`
	FakerSeed           int64    `json:"faker_seed,omitempty" mapstructure:"faker_seed"`
	Verbose             bool     `json:"verbose,omitempty" mapstructure:"verbose"`
}

// UnsafeConnectionError is returned when the store URL is not whitelisted.
type UnsafeConnectionError struct {
	URL string
}

func (e *UnsafeConnectionError) Error() string {
	return fmt.Sprintf("refusing to seed %q: url is not in the connection whitelist", e.URL)
}

func Load() (*Config, error) {
	var cfg Config

	for _, key := range keys {
		if err := viper.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	if cfg.SeedingPath == "" {
		cfg.SeedingPath = DefaultSeedingPath
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.URLEnv == "" {
		c.URLEnv = DefaultURLEnv
	}
	if c.StoreURL == "" {
		c.StoreURL = os.Getenv(c.URLEnv)
	}
	if c.Provider == "" {
		c.Provider = database.ProviderFromURL(c.StoreURL)
	}
}

func (c *Config) GetStoreURL() (string, error) {
	if c.StoreURL != "" {
		return c.StoreURL, nil
	}
	url := os.Getenv(c.URLEnv)
	if url == "" {
		return "", fmt.Errorf("store URL not configured and environment variable %s is empty", c.URLEnv)
	}
	return url, nil
}

func (c *Config) Validate() error {
	url, err := c.GetStoreURL()
	if err != nil {
		return err
	}

	if c.Provider == "" {
		return fmt.Errorf("cannot infer store provider from %q: set provider explicitly", url)
	}
	supported := false
	for _, provider := range database.Providers {
		if c.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported store provider: %s. Supported providers: %v", c.Provider, database.Providers)
	}

	return c.CheckWhitelist(url)
}

// CheckWhitelist fails with *UnsafeConnectionError unless url is listed
// verbatim in ConnectionWhitelist.
func (c *Config) CheckWhitelist(url string) error {
	for _, allowed := range c.ConnectionWhitelist {
		if allowed == url {
			return nil
		}
	}
	return &UnsafeConnectionError{URL: url}
}
