package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the runtime configuration of the API server.
//
// Values come from, in increasing precedence: defaults, an optional YAML file, a .env file
// in the working directory, and the process environment.
type Config struct {
	Port string `mapstructure:"port"`

	StorageBackend string `mapstructure:"storage_backend"`
	DatabaseURL    string `mapstructure:"database_url"`

	IdempotencyBackend string        `mapstructure:"idempotency_backend"`
	IdempotencyTTL     time.Duration `mapstructure:"idempotency_ttl"`
	RedisAddr          string        `mapstructure:"redis_addr"`
	RedisPassword      string        `mapstructure:"redis_password"`
	RedisDB            int           `mapstructure:"redis_db"`

	EnforceCapacity bool `mapstructure:"enforce_capacity"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	TracingEnabled bool `mapstructure:"tracing_enabled"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// New returns a viper instance with defaults and env bindings applied.
// Callers may bind flags onto it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("storage_backend", BackendMemory)
	v.SetDefault("database_url", "")
	v.SetDefault("idempotency_backend", BackendMemory)
	v.SetDefault("idempotency_ttl", 24*time.Hour)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("enforce_capacity", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("tracing_enabled", false)
	v.SetDefault("shutdown_timeout", 10*time.Second)

	// PORT, STORAGE_BACKEND, DATABASE_URL, ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration into a validated Config. configFile may be empty.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.IdempotencyBackend = strings.ToLower(strings.TrimSpace(cfg.IdempotencyBackend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port must be set")
	}
	switch c.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when storage_backend=postgres")
		}
	default:
		return fmt.Errorf("storage_backend must be memory or postgres, got %q", c.StorageBackend)
	}
	switch c.IdempotencyBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required when idempotency_backend=redis")
		}
	default:
		return fmt.Errorf("idempotency_backend must be memory or redis, got %q", c.IdempotencyBackend)
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("idempotency_ttl must be positive (e.g. 24h), got %s", c.IdempotencyTTL)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive (e.g. 10s), got %s", c.ShutdownTimeout)
	}
	return nil
}
