// ABOUTME: Typed configuration loaded from config file and environment via viper.
// ABOUTME: Constructed once in main and injected into every component that needs it.

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the pipeline. Mapstructure tags
// map environment variables and config file keys.
type Config struct {
	// LLM configuration
	OpenAIKey string `mapstructure:"OPENAI_API_KEY"`
	Model     string `mapstructure:"OPENAI_MODEL"`

	// Pipeline configuration
	WorkspaceRoot         string `mapstructure:"WORKSPACE_ROOT"`
	StateDir              string `mapstructure:"STATE_DIR"`
	Workers               int    `mapstructure:"WORKERS"`
	MaxFixIterations      int    `mapstructure:"MAX_FIX_ITERATIONS"`
	CommandTimeoutSeconds int    `mapstructure:"COMMAND_TIMEOUT_SECONDS"`
	LLMTimeoutSeconds     int    `mapstructure:"LLM_TIMEOUT_SECONDS"`

	// Dev server configuration
	DevHost string `mapstructure:"DEV_HOST"`
	DevPort int    `mapstructure:"DEV_PORT"`

	// Status server configuration
	StatusAddr string `mapstructure:"STATUS_ADDR"`

	// Social search configuration
	TwitterAPIKey string `mapstructure:"TWITTERAPI_API_KEY"`
}

// Load reads configuration from an optional config file in the given path and
// from environment variables. Environment variables take precedence over the
// file; defaults fill anything left unset. The OpenAI key is required.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-5")
	v.SetDefault("WORKSPACE_ROOT", "")
	v.SetDefault("STATE_DIR", "")
	v.SetDefault("WORKERS", 10)
	v.SetDefault("MAX_FIX_ITERATIONS", 20)
	v.SetDefault("COMMAND_TIMEOUT_SECONDS", 300)
	v.SetDefault("LLM_TIMEOUT_SECONDS", 120)
	v.SetDefault("DEV_HOST", "0.0.0.0")
	v.SetDefault("DEV_PORT", 3000)
	v.SetDefault("STATUS_ADDR", "127.0.0.1:8400")
	v.SetDefault("TWITTERAPI_API_KEY", "")

	if path != "" {
		v.AddConfigPath(path)
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.OpenAIKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}
