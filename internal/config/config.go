// Package config loads storefront settings from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	CatalogEmbedded = "embedded"
	CatalogFile     = "file"
	CatalogPostgres = "postgres"

	CartSQLite   = "sqlite"
	CartMemory   = "memory"
	CartPostgres = "postgres"

	minSecretLen = 32
)

type Config struct {
	Service  string `yaml:"service"`
	Port     string `yaml:"port"`
	Currency string `yaml:"currency"`
	// TrustProxy honours X-Forwarded-For for client addresses. Enable only
	// behind a proxy that overwrites the header.
	TrustProxy bool           `yaml:"trust_proxy"`
	Log        LogConfig      `yaml:"log"`
	Catalog    CatalogConfig  `yaml:"catalog"`
	Database   DatabaseConfig `yaml:"database"`
	Cart       CartConfig     `yaml:"cart"`
	Session    SessionConfig  `yaml:"session"`
	Metrics    MetricsConfig  `yaml:"metrics"`
	Search     SearchConfig   `yaml:"search"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type CatalogConfig struct {
	Source string `yaml:"source"` // embedded, file, postgres
	Path   string `yaml:"path"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type CartConfig struct {
	Backend     string `yaml:"backend"` // sqlite, memory, postgres
	SQLitePath  string `yaml:"sqlite_path"`
	SaveTimeout string `yaml:"save_timeout"`
	IdleTTL     string `yaml:"idle_ttl"`
}

type SessionConfig struct {
	Secret       string `yaml:"secret"`
	TTL          string `yaml:"ttl"`
	SecureCookie bool   `yaml:"secure_cookie"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type SearchConfig struct {
	Threshold       float64 `yaml:"threshold"`
	Limit           int     `yaml:"limit"`
	RateLimitPerMin int     `yaml:"rate_limit_per_min"`
}

func DefaultConfig() *Config {
	return &Config{
		Service:  "storefront",
		Port:     "8080",
		Currency: "KZT",
		Log:      LogConfig{Level: "info"},
		Catalog:  CatalogConfig{Source: CatalogEmbedded},
		Cart: CartConfig{
			Backend:     CartSQLite,
			SQLitePath:  "data/carts.db",
			SaveTimeout: "2s",
			IdleTTL:     "30m",
		},
		Session: SessionConfig{TTL: "720h"},
		Metrics: MetricsConfig{Enabled: true},
		Search: SearchConfig{
			Threshold:       0.3,
			Limit:           6,
			RateLimitPerMin: 60,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CATALOG_SOURCE"); v != "" {
		c.Catalog.Source = v
	}
	if v := os.Getenv("CATALOG_PATH"); v != "" {
		c.Catalog.Path = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("CART_BACKEND"); v != "" {
		c.Cart.Backend = v
	}
	if v := os.Getenv("CART_SQLITE_PATH"); v != "" {
		c.Cart.SQLitePath = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Session.Secret = v
	}
	if v := os.Getenv("SESSION_SECURE_COOKIE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Session.SecureCookie = b
		}
	}
	if v := os.Getenv("TRUST_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.TrustProxy = b
		}
	}
	if v := os.Getenv("METRICS_TOKEN"); v != "" {
		c.Metrics.Token = v
	}
}

func (c *Config) Validate() error {
	if len(c.Session.Secret) < minSecretLen {
		return fmt.Errorf("session secret is required and must be at least %d chars (set SESSION_SECRET)", minSecretLen)
	}

	switch c.Catalog.Source {
	case CatalogEmbedded:
	case CatalogFile:
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog source %q needs a path", c.Catalog.Source)
		}
	case CatalogPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("catalog source %q needs database.url", c.Catalog.Source)
		}
	default:
		return fmt.Errorf("invalid catalog source: %s", c.Catalog.Source)
	}

	switch c.Cart.Backend {
	case CartMemory:
	case CartSQLite:
		if c.Cart.SQLitePath == "" {
			return fmt.Errorf("cart backend %q needs sqlite_path", c.Cart.Backend)
		}
	case CartPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("cart backend %q needs database.url", c.Cart.Backend)
		}
	default:
		return fmt.Errorf("invalid cart backend: %s", c.Cart.Backend)
	}

	if c.Search.Threshold < 0 || c.Search.Threshold > 1 {
		return fmt.Errorf("search threshold out of range: %v", c.Search.Threshold)
	}
	if _, err := time.ParseDuration(c.Session.TTL); c.Session.TTL != "" && err != nil {
		return fmt.Errorf("invalid session ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.Cart.SaveTimeout); c.Cart.SaveTimeout != "" && err != nil {
		return fmt.Errorf("invalid cart save timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Cart.IdleTTL); c.Cart.IdleTTL != "" && err != nil {
		return fmt.Errorf("invalid cart idle ttl: %w", err)
	}
	return nil
}

func (c *Config) Addr() string { return ":" + c.Port }

// GetSessionTTL returns the session TTL, defaulting to 30 days.
func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.TTL)
	if err != nil || d <= 0 {
		return 30 * 24 * time.Hour
	}
	return d
}

func (c *Config) GetSaveTimeout() time.Duration {
	d, err := time.ParseDuration(c.Cart.SaveTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// GetCartIdleTTL returns how long an untouched cart stays in memory,
// defaulting to 30 minutes.
func (c *Config) GetCartIdleTTL() time.Duration {
	d, err := time.ParseDuration(c.Cart.IdleTTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// SharedSlots reports whether the cart backend may be written by other
// processes, so carts must be re-read on every request.
func (c *Config) SharedSlots() bool {
	return c.Cart.Backend == CartPostgres
}
