package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds the full application configuration, loaded from YAML and
// overridden by environment variables for sensitive values.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		CoinGecko struct {
			BaseURL    string   `yaml:"base_url"`
			APIKey     string   `yaml:"api_key"`
			TimeoutSec int      `yaml:"timeout_sec"`
			AssetIDs   []string `yaml:"asset_ids"`
		} `yaml:"coingecko"`
	} `yaml:"api"`

	Refresh struct {
		IntervalSec int `yaml:"interval_sec"`
	} `yaml:"refresh"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.API.CoinGecko.BaseURL == "" ||
		(!hasPrefix(c.API.CoinGecko.BaseURL, "http://") && !hasPrefix(c.API.CoinGecko.BaseURL, "https://")) {
		return fmt.Errorf("invalid CoinGecko base URL: %s", c.API.CoinGecko.BaseURL)
	}
	if len(c.API.CoinGecko.AssetIDs) == 0 {
		return fmt.Errorf("at least one tracked asset id is required")
	}
	if c.Refresh.IntervalSec <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}
	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv overrides config values from environment variables
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("CRYPTOTRACK_COINGECKO_KEY"); key != "" {
		cfg.API.CoinGecko.APIKey = key
	}
	if addr := os.Getenv("CRYPTOTRACK_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
}
