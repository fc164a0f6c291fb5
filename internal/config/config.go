// Package config loads runtime settings from an optional config.yml and the
// environment, environment winning.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/sakif/hardship-board/internal/model"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds every setting for both cmd/server and cmd/board.
type Config struct {
	Port            int    `mapstructure:"PORT"`
	StoreDriver     string `mapstructure:"STORE_DRIVER"`
	DBPath          string `mapstructure:"DB_PATH"`
	StaticDir       string `mapstructure:"STATIC_DIR"`
	Categories      string `mapstructure:"CATEGORIES"` // comma separated
	DefaultViewerID int64  `mapstructure:"DEFAULT_VIEWER_ID"`
	MaxTextLength   int    `mapstructure:"MAX_TEXT_LENGTH"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"` // comma separated, "" disables Kafka
	KafkaTopic      string `mapstructure:"KAFKA_TOPIC"`
	BoardFile       string `mapstructure:"BOARD_FILE"`
	RedisURL        string `mapstructure:"REDIS_URL"` // "" keeps the client board in BoardFile
	BoardKey        string `mapstructure:"BOARD_KEY"`
}

// Load reads config.yml from the working directory (if present) and the
// environment.
func Load() (*Config, error) {
	return LoadFrom(viper.New(), ".")
}

// LoadFrom is Load with an explicit viper instance and search paths, so tests
// never touch global state.
func LoadFrom(v *viper.Viper, paths ...string) (*Config, error) {
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("DB_PATH", "data/hardships.db")
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("CATEGORIES", strings.Join(model.DefaultCategories, ","))
	v.SetDefault("DEFAULT_VIEWER_ID", 1)
	v.SetDefault("MAX_TEXT_LENGTH", 1000)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "hardship-activity")
	v.SetDefault("BOARD_FILE", "data/board.json")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("BOARD_KEY", "hardships")
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMemory, DriverSQLite, c.StoreDriver)
	}
	if len(c.CategoryList()) == 0 {
		return errors.New("CATEGORIES must name at least one category")
	}
	if c.DefaultViewerID <= 0 {
		return errors.New("DEFAULT_VIEWER_ID must be positive")
	}
	if c.MaxTextLength <= 0 {
		return errors.New("MAX_TEXT_LENGTH must be positive")
	}
	if len(c.KafkaBrokerList()) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// CategoryList splits CATEGORIES, dropping blanks and duplicates.
func (c *Config) CategoryList() model.Categories {
	return splitList(c.Categories)
}

// KafkaBrokerList splits KAFKA_BROKERS.
func (c *Config) KafkaBrokerList() []string {
	return splitList(c.KafkaBrokers)
}

// SlogLevel maps LOG_LEVEL to a slog.Level, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func splitList(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}
