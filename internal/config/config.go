// Package config loads this service's environment-variable surface
// into a typed Config (no range or consistency checks are applied),
// adapted from the teacher's
// viper+godotenv+mapstructure Load/setDefaults/bindEnvironmentVariables
// pattern but flattened: this service has no YAML config file and no
// nested domain sections, just env vars.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is this service's full runtime configuration surface (§6/§6.1).
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	CORSEnabled        bool     `mapstructure:"cors_enabled"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	APIToken string `mapstructure:"api_token"`

	EmbeddingModelName          string `mapstructure:"embedding_model_name"`
	ExpectedEmbeddingDimensions int    `mapstructure:"expected_embedding_dimensions"`
	BatchSize                   int    `mapstructure:"batch_size"`
	MaxTextLength               int    `mapstructure:"max_text_length"`
	EncoderAPIKey               string `mapstructure:"encoder_api_key"`
}

var globalConfig *Config

// Load reads a .env file if present, applies defaults, binds the env
// vars named in §6/§6.1, and unmarshals into Config — mirroring the
// teacher's Load (internal/config/config.go) minus the YAML config-file
// branch this service has no use for.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("warning: error loading .env file: %v\n", err)
		}
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration, loading it with defaults if
// Load has not yet been called.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			return &Config{}
		}
		return cfg
	}
	return globalConfig
}

func setDefaults() {
	viper.SetDefault("host", "0.0.0.0")
	viper.SetDefault("port", 8080)
	viper.SetDefault("read_timeout", "30s")
	viper.SetDefault("write_timeout", "30s")
	viper.SetDefault("cors_enabled", false)
	viper.SetDefault("cors_allowed_origins", []string{})
	viper.SetDefault("api_token", "")
	viper.SetDefault("embedding_model_name", "")
	viper.SetDefault("expected_embedding_dimensions", 384)
	viper.SetDefault("batch_size", 32)
	viper.SetDefault("max_text_length", 512)
	viper.SetDefault("encoder_api_key", "")
}

// bindEnvironmentVariables mirrors the teacher's bindEnvKeys pattern:
// one viper key can be satisfied by any of several real env var names,
// first match wins.
func bindEnvironmentVariables() {
	bindEnvKeys("host", []string{"HOST"})
	bindEnvKeys("port", []string{"PORT"})
	bindEnvKeys("read_timeout", []string{"READ_TIMEOUT"})
	bindEnvKeys("write_timeout", []string{"WRITE_TIMEOUT"})
	bindEnvKeys("cors_enabled", []string{"CORS_ENABLED"})
	bindEnvKeys("cors_allowed_origins", []string{"CORS_ALLOWED_ORIGINS"})
	bindEnvKeys("api_token", []string{"API_TOKEN"})
	bindEnvKeys("embedding_model_name", []string{"EMBEDDING_MODEL_NAME"})
	bindEnvKeys("expected_embedding_dimensions", []string{"EXPECTED_EMBEDDING_DIMENSIONS"})
	bindEnvKeys("batch_size", []string{"BATCH_SIZE"})
	bindEnvKeys("max_text_length", []string{"MAX_TEXT_LENGTH"})
	bindEnvKeys("encoder_api_key", []string{"ENCODER_API_KEY", "GENAI_API_KEY"})
}

func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			if viperKey == "cors_allowed_origins" {
				viper.Set(viperKey, strings.Split(value, ","))
			} else {
				viper.Set(viperKey, value)
			}
			return
		}
	}
}
