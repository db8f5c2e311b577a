// Package config loads staylens settings from defaults, an optional YAML
// file, a .env file and STAYLENS_* environment variables, in increasing
// order of precedence. Command-line flags are bound on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/pkg/credential"
	"github.com/jmylchreest/staylens/pkg/fetcher"
	"github.com/jmylchreest/staylens/pkg/source"
	"github.com/jmylchreest/staylens/pkg/source/graphql"
	"github.com/jmylchreest/staylens/pkg/source/scraper"
)

// EnvPrefix prefixes every environment override, e.g.
// STAYLENS_SCRAPER_REQUESTS_PER_SECOND.
const EnvPrefix = "STAYLENS"

// Fetch modes for the HTML source.
const (
	FetchStatic  = "static"
	FetchDynamic = "dynamic"
)

// Config is the complete runtime configuration.
type Config struct {
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`
	GraphQL GraphQLConfig `mapstructure:"graphql" yaml:"graphql"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
}

// ScraperConfig covers transport settings shared by both sources.
type ScraperConfig struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent" validate:"required"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=0,lte=10"`
	RespectRobotsTxt  bool          `mapstructure:"respect_robots_txt" yaml:"respect_robots_txt"`
	FetchMode         string        `mapstructure:"fetch_mode" yaml:"fetch_mode" validate:"oneof=static dynamic"`
}

// GraphQLConfig covers the API source.
type GraphQLConfig struct {
	Enabled     bool           `mapstructure:"enabled" yaml:"enabled"`
	APIKeyCache time.Duration  `mapstructure:"api_key_cache" yaml:"api_key_cache" validate:"gt=0"`
	Hashes      graphql.Hashes `mapstructure:"hashes" yaml:"hashes"`
}

// CacheConfig covers the response cache.
type CacheConfig struct {
	MaxEntries  int    `mapstructure:"max_entries" yaml:"max_entries" validate:"gt=0"`
	RedisURL    string `mapstructure:"redis_url" yaml:"redis_url,omitempty" validate:"omitempty,url"`
	RedisPrefix string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
	source.TTLs `mapstructure:",squash" yaml:",inline"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Scraper: ScraperConfig{
			BaseURL:           "https://www.airbnb.com",
			UserAgent:         fetcher.DefaultUserAgent,
			RequestsPerSecond: 0.5,
			Timeout:           30 * time.Second,
			MaxRetries:        2,
			RespectRobotsTxt:  true,
			FetchMode:         FetchStatic,
		},
		GraphQL: GraphQLConfig{
			Enabled:     true,
			APIKeyCache: credential.DefaultTTL,
			Hashes:      graphql.DefaultHashes(),
		},
		Cache: CacheConfig{
			MaxEntries:  500,
			RedisPrefix: "staylens:",
			TTLs:        source.DefaultTTLs(),
		},
	}
}

// SetDefaults registers every default on v so that environment variables
// can override keys that no config file mentions.
func SetDefaults(v *viper.Viper) {
	d := Default()
	defaults := map[string]any{
		"scraper.base_url":            d.Scraper.BaseURL,
		"scraper.user_agent":          d.Scraper.UserAgent,
		"scraper.requests_per_second": d.Scraper.RequestsPerSecond,
		"scraper.timeout":             d.Scraper.Timeout,
		"scraper.max_retries":         d.Scraper.MaxRetries,
		"scraper.respect_robots_txt":  d.Scraper.RespectRobotsTxt,
		"scraper.fetch_mode":          d.Scraper.FetchMode,

		"graphql.enabled":                          d.GraphQL.Enabled,
		"graphql.api_key_cache":                    d.GraphQL.APIKeyCache,
		"graphql.hashes.stays_search":              d.GraphQL.Hashes.StaysSearch,
		"graphql.hashes.stays_pdp_sections":        d.GraphQL.Hashes.StaysPdpSections,
		"graphql.hashes.stays_pdp_reviews":         d.GraphQL.Hashes.Reviews,
		"graphql.hashes.pdp_availability_calendar": d.GraphQL.Hashes.Calendar,

		"cache.max_entries":  d.Cache.MaxEntries,
		"cache.redis_url":    d.Cache.RedisURL,
		"cache.redis_prefix": d.Cache.RedisPrefix,
		"cache.search_ttl":   d.Cache.Search,
		"cache.detail_ttl":   d.Cache.Detail,
		"cache.reviews_ttl":  d.Cache.Reviews,
		"cache.calendar_ttl": d.Cache.Calendar,
		"cache.host_ttl":     d.Cache.Host,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Setup prepares v to read cfgFile, or .staylens.yaml from $HOME and the
// working directory when cfgFile is empty. A .env file in the working
// directory is loaded into the environment first.
func Setup(v *viper.Viper, cfgFile string) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("ignoring unreadable .env file", "error", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".staylens")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Load reads the configured file, if any, and decodes and validates the
// result. A config file that cannot be found falls back to defaults; one
// that cannot be parsed is an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile loads configuration from path on top of the defaults.
func FromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	SetDefaults(v)
	return Load(v)
}

var validate = validator.New()

// Validate checks cfg against its field constraints.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %s", fe.Namespace(), fe.ActualTag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Fetch returns the static fetcher settings.
func (c *Config) Fetch() fetcher.StaticConfig {
	return fetcher.StaticConfig{
		UserAgent:        c.Scraper.UserAgent,
		Timeout:          c.Scraper.Timeout,
		RespectRobotsTxt: c.Scraper.RespectRobotsTxt,
		MaxBodySize:      fetcher.DefaultStaticConfig().MaxBodySize,
	}
}

// APIFetch returns the fetcher settings for persisted-query calls. These
// are API requests rather than page crawls, so robots.txt is not consulted
// for them.
func (c *Config) APIFetch() fetcher.StaticConfig {
	cfg := c.Fetch()
	cfg.RespectRobotsTxt = false
	return cfg
}

// HTMLSource returns the HTML source settings.
func (c *Config) HTMLSource() scraper.Config {
	cfg := scraper.DefaultConfig()
	cfg.BaseURL = c.Scraper.BaseURL
	cfg.UserAgent = c.Scraper.UserAgent
	cfg.Timeout = c.Scraper.Timeout
	cfg.MaxRetries = c.Scraper.MaxRetries
	cfg.TTLs = c.Cache.TTLs
	return cfg
}

// APISource returns the GraphQL source settings.
func (c *Config) APISource() graphql.Config {
	return graphql.Config{
		BaseURL:   c.Scraper.BaseURL,
		UserAgent: c.Scraper.UserAgent,
		Timeout:   c.Scraper.Timeout,
		Hashes:    c.GraphQL.Hashes,
		TTLs:      c.Cache.TTLs,
	}
}
