package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/platewise/reviewpipe/internal/domain"
)

// Config holds all configuration for the pipeline
type Config struct {
	Platform  PlatformConfig  `mapstructure:"platform"`
	Google    GoogleConfig    `mapstructure:"google"`
	Yelp      YelpConfig      `mapstructure:"yelp"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Harvest   HarvestConfig   `mapstructure:"harvest"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// PlatformConfig locates the hosted catalog database
type PlatformConfig struct {
	Driver      string `mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `mapstructure:"database_url"`
}

// GoogleConfig holds Places API configuration
type GoogleConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// YelpConfig holds Yelp Fusion configuration; an empty key disables Yelp
type YelpConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	ReviewLimit       int     `mapstructure:"review_limit"`
	DefaultLocality   string  `mapstructure:"default_locality"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "none", "file", "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	File     string        `mapstructure:"file"` // relative names live in the data dir
	TTL      time.Duration `mapstructure:"ttl"`
}

// HarvestConfig holds harvest pacing
type HarvestConfig struct {
	RestaurantDelay time.Duration `mapstructure:"restaurant_delay"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
}

// PipelineConfig names the stage files
type PipelineConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	RawFile     string `mapstructure:"raw_file"`
	MatchedFile string `mapstructure:"matched_file"`
	OutputFile  string `mapstructure:"output_file"`
	LexiconFile string `mapstructure:"lexicon_file"`
}

// GeneratorConfig shapes the generated statements
type GeneratorConfig struct {
	Table        string `mapstructure:"table"`
	SystemUserID string `mapstructure:"system_user_id"`
	Origin       string `mapstructure:"origin"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds the optional textfile export path
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Options control where Load reads from
type Options struct {
	// File is an explicit config file; empty searches the default locations
	File string
	// Stage is the sub-operation being run; harvest and all need the Places key
	Stage string
	// Flags are command-line overrides, bound by FlagKeys
	Flags *pflag.FlagSet
}

// FlagKeys maps command-line flag names to config keys
var FlagKeys = map[string]string{
	"data-dir":         "pipeline.data_dir",
	"lexicon":          "pipeline.lexicon_file",
	"output":           "pipeline.output_file",
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"cache":            "cache.type",
	"metrics-textfile": "metrics.textfile",
}

// Load loads configuration from flags, environment variables and an optional config file
func Load(opts Options) (*Config, error) {
	v := viper.New()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("reviewpipe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/reviewpipe/")
	}

	// Environment variable settings
	v.SetEnvPrefix("REVIEWPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if opts.Flags != nil {
		for name, key := range FlagKeys {
			if flag := opts.Flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config, opts.Stage); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("platform.driver", "postgres")
	v.SetDefault("platform.database_url", "")

	v.SetDefault("google.api_key", "")
	v.SetDefault("google.base_url", "https://places.googleapis.com")
	v.SetDefault("google.requests_per_second", 5)

	v.SetDefault("yelp.api_key", "")
	v.SetDefault("yelp.base_url", "https://api.yelp.com")
	v.SetDefault("yelp.requests_per_second", 5)
	v.SetDefault("yelp.review_limit", 3)
	v.SetDefault("yelp.default_locality", "Maine")

	v.SetDefault("cache.type", "file")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.file", "provider_cache.json")
	v.SetDefault("cache.ttl", "720h") // 30 days

	v.SetDefault("harvest.restaurant_delay", "1s")
	v.SetDefault("harvest.http_timeout", "30s")

	v.SetDefault("pipeline.data_dir", "./data")
	v.SetDefault("pipeline.raw_file", "raw_reviews.json")
	v.SetDefault("pipeline.matched_file", "matched_reviews.json")
	v.SetDefault("pipeline.output_file", "generated_reviews.sql")
	v.SetDefault("pipeline.lexicon_file", "")

	v.SetDefault("generator.table", "reviews")
	v.SetDefault("generator.system_user_id", "00000000-0000-4000-8000-00000000beef")
	v.SetDefault("generator.origin", "third_party_harvest")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("metrics.textfile", "")
}

// NeedsHarvest reports whether the named stage runs the harvest step
func NeedsHarvest(stage string) bool {
	switch strings.ToLower(strings.TrimSpace(stage)) {
	case "", "all", "harvest":
		return true
	}
	return false
}

// validate validates the configuration for the stage being run
func validate(config *Config, stage string) error {
	if config.Platform.DatabaseURL == "" {
		return fmt.Errorf("%w: platform database URL is required (set REVIEWPIPE_PLATFORM_DATABASE_URL)", domain.ErrMissingConfig)
	}

	if NeedsHarvest(stage) && config.Google.APIKey == "" {
		return fmt.Errorf("%w: Places API key is required for harvesting (set REVIEWPIPE_GOOGLE_API_KEY)", domain.ErrMissingConfig)
	}

	switch config.Platform.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: platform driver must be 'postgres' or 'sqlite', got: %s", domain.ErrInvalidConfig, config.Platform.Driver)
	}

	switch config.Cache.Type {
	case "none", "file", "memory", "redis":
	default:
		return fmt.Errorf("%w: cache type must be 'none', 'file', 'memory' or 'redis', got: %s", domain.ErrInvalidConfig, config.Cache.Type)
	}

	if config.Cache.Type == "file" && config.Cache.File == "" {
		return fmt.Errorf("%w: cache file is required when cache type is 'file'", domain.ErrInvalidConfig)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("%w: Redis URL is required when cache type is 'redis'", domain.ErrInvalidConfig)
	}

	if config.Harvest.RestaurantDelay < 0 {
		return fmt.Errorf("%w: harvest restaurant delay must not be negative", domain.ErrInvalidConfig)
	}

	if config.Yelp.ReviewLimit < 1 {
		return fmt.Errorf("%w: yelp review limit must be at least 1, got: %d", domain.ErrInvalidConfig, config.Yelp.ReviewLimit)
	}

	if config.Pipeline.DataDir == "" {
		return fmt.Errorf("%w: pipeline data dir is required", domain.ErrInvalidConfig)
	}

	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level must be debug, info, warn or error, got: %s", domain.ErrInvalidConfig, config.Logging.Level)
	}

	switch config.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format must be 'console' or 'json', got: %s", domain.ErrInvalidConfig, config.Logging.Format)
	}

	return nil
}
