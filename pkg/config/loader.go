// Package config provides configuration loading, validation, and hot reload.
package config

import (
	"fmt"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from ./configs/<APP_ENV>.yaml and environment
// variables, validates it, and returns the resulting Config together with the
// viper instance backing it (used by the hot-reload watcher).
func Load() (*Config, *viper.Viper, error) {
	// Missing env files are fine in containerized deployments.
	_ = godotenv.Load(".env.local", ".env")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.poll_timeout", 0)
	v.SetDefault("bot.poll_interval", "1m")
	v.SetDefault("bot.scheduler", "ticker")
	v.SetDefault("state.backend", "file")
	v.SetDefault("state.file_path", "data/poll_state.json")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
}
