package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application's configuration, loaded from config.yaml
// and SURVEY_* environment variables.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Driver string // "sqlite" or "memory"
		DSN    string
	}
	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	}
	Queue struct {
		Buffer      int
		MaxAttempts int `mapstructure:"max_attempts"`
	}
}

// Load reads configuration from config.yaml (working directory or
// ./config) and the environment. Missing file is fine; defaults plus
// environment variables are a complete configuration.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "surveypipe.db")
	v.SetDefault("auth.jwt_secret", "surveypipe-dev-secret")
	v.SetDefault("auth.token_ttl", 30*24*time.Hour)
	v.SetDefault("queue.buffer", 256)
	v.SetDefault("queue.max_attempts", 3)

	v.SetEnvPrefix("SURVEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "memory" {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.Queue.Buffer <= 0 || cfg.Queue.MaxAttempts <= 0 {
		return nil, fmt.Errorf("queue.buffer and queue.max_attempts must be positive")
	}
	return &cfg, nil
}
