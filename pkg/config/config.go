// Package config loads application configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	DBPath    string      `yaml:"dbPath"`
	LogLevel  string      `yaml:"logLevel"`
	CountMode string      `yaml:"countMode"`
	Crawl     CrawlConfig `yaml:"crawl"`
}

// CrawlConfig holds crawler settings.
type CrawlConfig struct {
	UserAgent      string `yaml:"userAgent"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	DefaultLimit   int    `yaml:"defaultLimit"`
	Workers        int    `yaml:"workers"`
	// RedditURL overrides the reddit API base URL. Empty means the real one.
	RedditURL string `yaml:"redditURL"`
}

// Timeout returns the crawl request timeout as a duration.
func (c CrawlConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DBPath:    "wordindex.db",
		LogLevel:  "info",
		CountMode: "occurrences",
		Crawl: CrawlConfig{
			UserAgent:      "wordindex reddit crawler",
			TimeoutSeconds: 30,
			DefaultLimit:   500,
			Workers:        4,
		},
	}
}

// Load reads configuration from path (optional, "" for defaults) and applies
// WORDINDEX_* environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WORDINDEX_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("WORDINDEX_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WORDINDEX_COUNT_MODE"); v != "" {
		cfg.CountMode = v
	}
	if v := os.Getenv("WORDINDEX_USER_AGENT"); v != "" {
		cfg.Crawl.UserAgent = v
	}
	if v := os.Getenv("WORDINDEX_REDDIT_URL"); v != "" {
		cfg.Crawl.RedditURL = v
	}
	if v := os.Getenv("WORDINDEX_CRAWL_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawl.DefaultLimit = n
		}
	}
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("dbPath must not be empty")
	}
	if c.Crawl.DefaultLimit <= 0 {
		return fmt.Errorf("crawl.defaultLimit must be positive, got %d", c.Crawl.DefaultLimit)
	}
	if c.Crawl.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawl.timeoutSeconds must be positive, got %d", c.Crawl.TimeoutSeconds)
	}
	if c.Crawl.Workers <= 0 {
		return fmt.Errorf("crawl.workers must be positive, got %d", c.Crawl.Workers)
	}
	return nil
}
