package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "FACTORCLAIM"

// Config is the server configuration.
type Config struct {
	DB              string        `mapstructure:"db"`
	Addr            string        `mapstructure:"addr"`
	Log             string        `mapstructure:"log"`
	LogLevel        string        `mapstructure:"log_level"`
	AdminEmail      string        `mapstructure:"admin_email"`
	AdminName       string        `mapstructure:"admin_name"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	Metrics         bool          `mapstructure:"metrics"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	ClaimIDAttempts int           `mapstructure:"claim_id_attempts"`
}

// New returns a viper instance with defaults and environment lookup set up.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("config", "")
	v.SetDefault("env_file", ".env")
	v.SetDefault("db", "factorclaim.sqlite3")
	v.SetDefault("addr", ":8080")
	v.SetDefault("log", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("admin_email", "admin@factorclaim.local")
	v.SetDefault("admin_name", "Admin")
	v.SetDefault("token_ttl", "168h")
	v.SetDefault("metrics", true)
	v.SetDefault("redis_addr", "")
	v.SetDefault("claim_id_attempts", 3)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves the configuration. Precedence: bound flags, environment,
// the .env file, the config file, defaults.
func Load(v *viper.Viper) (*Config, error) {
	if envFile := v.GetString("env_file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("factorclaim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DB) == "" {
		return errors.New("db path is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if c.ClaimIDAttempts < 1 {
		return errors.New("claim_id_attempts must be at least 1")
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
