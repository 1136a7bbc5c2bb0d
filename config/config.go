// Package config provides Viper-based hierarchical configuration management
// for the finance engine.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server struct {
		Port int `mapstructure:"port" yaml:"port"`
	} `mapstructure:"server" yaml:"server"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Insight struct {
		CacheTTLMinutes int `mapstructure:"cache_ttl_minutes" yaml:"cache_ttl_minutes"`
	} `mapstructure:"insight" yaml:"insight"`

	Recalc struct {
		SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes" yaml:"sweep_interval_minutes"`
	} `mapstructure:"recalc" yaml:"recalc"`
}

// Load initializes configuration with hierarchical loading: defaults, then
// an optional config.yaml, then PESOPLAN_* environment variables.
func Load() (*Config, error) {
	// .env is optional; real environment wins over file values.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.pesoplan")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PESOPLAN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue with defaults and env vars.
			fmt.Fprintf(os.Stderr, "warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// The API key always comes from the environment, unprefixed.
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to bind GEMINI_API_KEY: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "./data/finance.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.timeout_seconds", 10)

	v.SetDefault("insight.cache_ttl_minutes", 15)
	v.SetDefault("recalc.sweep_interval_minutes", 60)
}

func validate(c *Config) error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.AI.Enabled && c.AI.APIKey == "" {
		return fmt.Errorf("ai.enabled requires GEMINI_API_KEY")
	}
	if c.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("ai.timeout_seconds must be positive: %d", c.AI.TimeoutSeconds)
	}
	if c.Insight.CacheTTLMinutes <= 0 {
		return fmt.Errorf("insight.cache_ttl_minutes must be positive: %d", c.Insight.CacheTTLMinutes)
	}
	if c.Recalc.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("recalc.sweep_interval_minutes must be positive: %d", c.Recalc.SweepIntervalMinutes)
	}
	return nil
}

// NewLogger builds a logrus logger from the Log section.
func NewLogger(c *Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		log.Warnf("Invalid log level '%s', using 'info'", c.Log.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.ToLower(c.Log.Format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}
