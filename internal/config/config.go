package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Env      string `mapstructure:"BRD_ENV"`
	HTTPAddr string `mapstructure:"BRD_HTTP_ADDR"`

	Mongo    MongoConfig    `mapstructure:",squash"`
	Cache    CacheConfig    `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`
}

type MongoConfig struct {
	// URI has no default: running without a configured durable store is a
	// startup error, not a per-request fallback trigger.
	URI            string        `mapstructure:"BRD_MONGO_URI"`
	Database       string        `mapstructure:"BRD_MONGO_DB"`
	ConnectTimeout time.Duration `mapstructure:"BRD_MONGO_CONNECT_TIMEOUT"`
}

type CacheConfig struct {
	RedisAddr string        `mapstructure:"BRD_REDIS_ADDR"`
	ListTTL   time.Duration `mapstructure:"BRD_CACHE_LIST_TTL"`
}

type SecurityConfig struct {
	RateLimitRPM       int      `mapstructure:"BRD_RATE_LIMIT_RPM"`
	CORSAllowedOrigins []string `mapstructure:"BRD_CORS_ALLOWED_ORIGINS"`
}

func loadDotEnvFiles() {
	candidates := []string{
		".env",
		filepath.Join("..", ".env"),
		filepath.Join("..", "..", ".env"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = gotenv.Load(path) // env vars already set take precedence
		}
	}
}

func Load() (*Config, error) {
	loadDotEnvFiles()

	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Keys without a default are invisible to Unmarshal unless bound.
	_ = v.BindEnv("BRD_MONGO_URI")

	v.SetDefault("BRD_ENV", "dev")
	v.SetDefault("BRD_HTTP_ADDR", ":8080")
	v.SetDefault("BRD_MONGO_DB", "board")
	v.SetDefault("BRD_MONGO_CONNECT_TIMEOUT", "5s")
	v.SetDefault("BRD_REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("BRD_CACHE_LIST_TTL", "3s")
	v.SetDefault("BRD_RATE_LIMIT_RPM", 120)
	v.SetDefault("BRD_CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")

	if origins := v.GetString("BRD_CORS_ALLOWED_ORIGINS"); origins != "" {
		v.Set("BRD_CORS_ALLOWED_ORIGINS", strings.Split(origins, ","))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("BRD_MONGO_URI is required")
	}
	if c.Mongo.ConnectTimeout <= 0 {
		return fmt.Errorf("BRD_MONGO_CONNECT_TIMEOUT must be positive")
	}
	switch c.Env {
	case "dev", "test", "prod":
	default:
		return fmt.Errorf("invalid BRD_ENV %q (must be dev, test, or prod)", c.Env)
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
