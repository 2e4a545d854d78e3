// Package config provides application configuration with multi-source
// priority:
//
//  1. Environment variables (AUTOSMM_ prefix, runtime override)
//  2. Config file (~/.autosmm/config.yaml)
//  3. Defaults
//
// Sensitive values (the database password) are never logged; see MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidEmbedderModel indicates the embedder model is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")
)

// Defaults for generation. Temperature and token limit match the settings
// the promo generator was tuned with.
const (
	DefaultModelName     = "googleai/gemini-2.5-flash"
	DefaultEmbedderModel = "text-embedding-004"
	DefaultTemperature   = 0.5
	DefaultMaxTokens     = 3000
)

// Config stores application configuration.
type Config struct {
	// Generation
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float64 `mapstructure:"temperature" json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`

	// PostgreSQL
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"-"`
	PostgresDBName   string `mapstructure:"postgres_dbname" json:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode" json:"postgres_sslmode"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load reads configuration from defaults, an optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "autosmm")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_dbname", "autosmm")
	v.SetDefault("postgres_sslmode", "disable")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetEnvPrefix("AUTOSMM")
	v.AutomaticEnv()

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".autosmm"))
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine; defaults plus env apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks all configuration values and returns the first violation.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model is empty", ErrInvalidEmbedderModel)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (must be within [0, 2])", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens <= 0 || c.MaxTokens > 100_000 {
		return fmt.Errorf("%w: %d (must be within (0, 100000])", ErrInvalidMaxTokens, c.MaxTokens)
	}
	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidPostgresDBName)
	}
	return nil
}

// MarshalJSON masks the database password so Config can be logged safely.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // drop methods to avoid recursion
	a := alias(c)
	a.PostgresPassword = "***"

	type masked struct {
		alias
		PostgresPassword string `json:"postgres_password"`
	}
	return json.Marshal(masked{alias: a, PostgresPassword: "***"})
}
