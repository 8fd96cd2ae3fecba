package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Scopus     ScopusConfig `yaml:"scopus" mapstructure:"scopus"`
	Cache      CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Window     WindowConfig `yaml:"window" mapstructure:"window"`
	PolicyFile string       `yaml:"policy_file" mapstructure:"policy_file"`
	Server     ServerConfig `yaml:"server" mapstructure:"server"`
	Log        LogConfig    `yaml:"log" mapstructure:"log"`
}

// ScopusConfig configures the Scopus API client.
type ScopusConfig struct {
	Key         string        `yaml:"key" mapstructure:"key"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	RatePerSec  float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int           `yaml:"burst" mapstructure:"burst"`
	TimeoutSecs int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retry       RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit     CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig configures retries of transient Scopus failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// CircuitConfig configures the Scopus circuit breaker.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// CacheConfig configures the metadata cache. An empty driver disables it.
type CacheConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	TTLHours    int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns the cache time-to-live.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// WindowConfig is the default reporting window as YYYY-MM-DD dates.
type WindowConfig struct {
	Start string `yaml:"start" mapstructure:"start"`
	End   string `yaml:"end" mapstructure:"end"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PUBMETRICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("scopus.key", "")
	v.SetDefault("scopus.base_url", "https://api.elsevier.com")
	v.SetDefault("scopus.concurrency", 4)
	v.SetDefault("scopus.rate_per_sec", 2.0)
	v.SetDefault("scopus.burst", 2)
	v.SetDefault("scopus.timeout_secs", 30)
	v.SetDefault("scopus.retry.max_attempts", 3)
	v.SetDefault("scopus.retry.initial_backoff_ms", 500)
	v.SetDefault("scopus.retry.max_backoff_ms", 10000)
	v.SetDefault("scopus.circuit.failure_threshold", 10)
	v.SetDefault("scopus.circuit.reset_timeout_secs", 60)
	v.SetDefault("cache.driver", "")
	v.SetDefault("cache.database_url", "")
	v.SetDefault("cache.ttl_hours", 720)
	v.SetDefault("window.start", "2024-07-01")
	v.SetDefault("window.end", "2025-06-30")
	v.SetDefault("policy_file", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode needs. Modes: "run" and
// "fetch" query Scopus, "offline" replays a metadata dump, "serve" runs the
// HTTP API, "prune" maintains the cache.
func (c *Config) Validate(mode string) error {
	var errs []string
	switch mode {
	case "run", "fetch":
		errs = append(errs, c.scopusErrors()...)
		errs = append(errs, c.cacheErrors()...)
	case "offline":
	case "serve":
		errs = append(errs, c.scopusErrors()...)
		errs = append(errs, c.cacheErrors()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "prune":
		if c.Cache.Driver == "" {
			errs = append(errs, "cache.driver is required")
		}
		errs = append(errs, c.cacheErrors()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) scopusErrors() []string {
	var errs []string
	if c.Scopus.Key == "" {
		errs = append(errs, "scopus.key is required (PUBMETRICS_SCOPUS_KEY)")
	}
	if c.Scopus.Concurrency < 1 || c.Scopus.Concurrency > 32 {
		errs = append(errs, "scopus.concurrency must be between 1 and 32")
	}
	if c.Scopus.RatePerSec <= 0 {
		errs = append(errs, "scopus.rate_per_sec must be > 0")
	}
	return errs
}

func (c *Config) cacheErrors() []string {
	switch c.Cache.Driver {
	case "":
		return nil
	case "sqlite", "postgres":
		if c.Cache.DatabaseURL == "" {
			return []string{"cache.database_url is required"}
		}
		return nil
	default:
		return []string{"cache.driver must be sqlite or postgres"}
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
