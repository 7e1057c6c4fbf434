package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"lead-scoring/backend/internal/ai"
	"lead-scoring/backend/internal/api"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StoreConfig selects the state store. An empty DBPath keeps state in memory.
type StoreConfig struct {
	DBPath   string `mapstructure:"db_path"`
	SilentDB bool   `mapstructure:"silent_db"`
}

// ClassifierConfig configures the text-generation endpoint.
type ClassifierConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Temperature       float64       `mapstructure:"temperature"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	PreviewLength     int           `mapstructure:"preview_length"`
	Disabled          bool          `mapstructure:"disabled"`
}

// ScoringConfig tunes scoring runs.
type ScoringConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional config.yaml and LEADSCORE_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("store.db_path", "")
	v.SetDefault("store.silent_db", true)
	v.SetDefault("classifier.base_url", "http://localhost:11434")
	v.SetDefault("classifier.model", "llama3")
	v.SetDefault("classifier.timeout", "5m")
	v.SetDefault("classifier.temperature", 0.2)
	v.SetDefault("classifier.requests_per_second", 0)
	v.SetDefault("classifier.preview_length", 200)
	v.SetDefault("classifier.disabled", false)
	v.SetDefault("scoring.concurrency", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.Scoring.Concurrency <= 0 {
		cfg.Scoring.Concurrency = 1
	}
	return &cfg, nil
}

// API converts the loaded configuration into server settings.
func (c *Config) API() api.Config {
	return api.Config{
		DBPath:         c.Store.DBPath,
		SilentDB:       c.Store.SilentDB,
		AllowedOrigins: c.Server.AllowedOrigins,
		Concurrency:    c.Scoring.Concurrency,
		AIConfig: ai.Config{
			BaseURL:           c.Classifier.BaseURL,
			Model:             c.Classifier.Model,
			Timeout:           c.Classifier.Timeout,
			Temperature:       c.Classifier.Temperature,
			RequestsPerSecond: c.Classifier.RequestsPerSecond,
			PreviewLength:     c.Classifier.PreviewLength,
			Disabled:          c.Classifier.Disabled,
		},
	}
}

// InitLogger configures the standard logrus logger.
func InitLogger(cfg LogConfig) error {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return fmt.Errorf("config: log level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("config: unknown log format %q", cfg.Format)
	}
	return nil
}
