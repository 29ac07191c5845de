package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       App       `mapstructure:"app"`
	AI        AI        `mapstructure:"ai"`
	Server    Server    `mapstructure:"server"`
	Analytics Analytics `mapstructure:"analytics"`
	Logging   Logging   `mapstructure:"logging"`
	CLI       CLI       `mapstructure:"cli"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	ConfigFile string `mapstructure:"config_file"`
}

// AI holds AI/LLM configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini and Imagen configuration
type GeminiConfig struct {
	APIKey               string  `mapstructure:"api_key"`
	TextModel            string  `mapstructure:"text_model"`
	ImageModel           string  `mapstructure:"image_model"`
	PrimaryTemperature   float32 `mapstructure:"primary_temperature"`
	SimilarTemperature   float32 `mapstructure:"similar_temperature"`
	NarrativeTemperature float32 `mapstructure:"narrative_temperature"`
	ImageCount           int     `mapstructure:"image_count"`
	ImageMIMEType        string  `mapstructure:"image_mime_type"`
	MaxConcurrency       int     `mapstructure:"max_concurrency"` // Listings enriched at once, 0 means all
}

// Server holds HTTP server configuration
type Server struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CORS           CORSConfig    `mapstructure:"cors"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Analytics holds product analytics configuration
type Analytics struct {
	PostHog PostHogConfig `mapstructure:"posthog"`
}

// PostHogConfig holds PostHog configuration
type PostHogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Host    string `mapstructure:"host"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CLI holds CLI-specific configuration
type CLI struct {
	DefaultFormat string `mapstructure:"default_format"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".casaideal")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = viper.ConfigFileUsed()

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)

	viper.SetDefault("ai.gemini.text_model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.image_model", "imagen-3.0-generate-002")
	viper.SetDefault("ai.gemini.primary_temperature", 0.8)
	viper.SetDefault("ai.gemini.similar_temperature", 0.9)
	viper.SetDefault("ai.gemini.narrative_temperature", 0.75)
	viper.SetDefault("ai.gemini.image_count", 3)
	viper.SetDefault("ai.gemini.image_mime_type", "image/jpeg")
	viper.SetDefault("ai.gemini.max_concurrency", 0)

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "180s")
	viper.SetDefault("server.request_timeout", "170s")
	viper.SetDefault("server.cors.enabled", true)
	viper.SetDefault("server.cors.allowed_origins", []string{"*"})

	viper.SetDefault("analytics.posthog.enabled", false)
	viper.SetDefault("analytics.posthog.host", "https://app.posthog.com")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("cli.default_format", "terminal")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("analytics.posthog.api_key", []string{
		"POSTHOG_API_KEY",
	})

	bindEnvKeys("server.port", []string{
		"PORT",
	})
}

// bindEnvKeys sets the first non-empty environment variable as the value of viperKey
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// validateConfig checks value ranges. A missing Gemini API key is not an error
// here: it surfaces as a configuration failure on the first generation call.
func validateConfig(config *Config) error {
	var errors []string

	temps := map[string]float32{
		"ai.gemini.primary_temperature":   config.AI.Gemini.PrimaryTemperature,
		"ai.gemini.similar_temperature":   config.AI.Gemini.SimilarTemperature,
		"ai.gemini.narrative_temperature": config.AI.Gemini.NarrativeTemperature,
	}
	for key, temp := range temps {
		if temp < 0 || temp > 2 {
			errors = append(errors, fmt.Sprintf("%s must be between 0 and 2, got %.2f", key, temp))
		}
	}

	if n := config.AI.Gemini.ImageCount; n < 1 || n > 4 {
		errors = append(errors, fmt.Sprintf("ai.gemini.image_count must be between 1 and 4, got %d", n))
	}

	if n := config.AI.Gemini.MaxConcurrency; n < 0 {
		errors = append(errors, fmt.Sprintf("ai.gemini.max_concurrency must not be negative, got %d", n))
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("server.port must be between 1 and 65535, got %d", config.Server.Port))
	}

	if config.Analytics.PostHog.Enabled && config.Analytics.PostHog.APIKey == "" {
		errors = append(errors, "PostHog analytics is enabled but no API key is set. Set POSTHOG_API_KEY or analytics.posthog.api_key")
	}

	switch strings.ToLower(config.CLI.DefaultFormat) {
	case "terminal", "json", "markdown", "html":
	default:
		errors = append(errors, fmt.Sprintf("cli.default_format %q is not one of terminal, json, markdown, html", config.CLI.DefaultFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Convenience getters
func GetAI() AI               { return Get().AI }
func GetServer() Server       { return Get().Server }
func GetAnalytics() Analytics { return Get().Analytics }
func GetLogging() Logging     { return Get().Logging }
func GetCLI() CLI             { return Get().CLI }

// HasGeminiAPIKey reports whether a Gemini key was configured
func HasGeminiAPIKey() bool { return Get().AI.Gemini.APIKey != "" }

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
