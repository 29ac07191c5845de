package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY", "POSTHOG_API_KEY", "PORT"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	Reset()
	t.Cleanup(Reset)

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Gemini.TextModel)
	assert.Equal(t, "imagen-3.0-generate-002", cfg.AI.Gemini.ImageModel)
	assert.InDelta(t, 0.8, cfg.AI.Gemini.PrimaryTemperature, 0.0001)
	assert.InDelta(t, 0.9, cfg.AI.Gemini.SimilarTemperature, 0.0001)
	assert.InDelta(t, 0.75, cfg.AI.Gemini.NarrativeTemperature, 0.0001)
	assert.Equal(t, 3, cfg.AI.Gemini.ImageCount)
	assert.Equal(t, "image/jpeg", cfg.AI.Gemini.ImageMIMEType)
	assert.Zero(t, cfg.AI.Gemini.MaxConcurrency)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "terminal", cfg.CLI.DefaultFormat)
	assert.Empty(t, cfg.AI.Gemini.APIKey)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	clearEnv(t)
	Reset()
	t.Cleanup(Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "casaideal.yaml")
	content := []byte(`
ai:
  gemini:
    text_model: gemini-custom
    image_count: 2
    max_concurrency: 2
server:
  port: 9090
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("GOOGLE_AI_API_KEY", "test-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-custom", cfg.AI.Gemini.TextModel)
	assert.Equal(t, 2, cfg.AI.Gemini.ImageCount)
	assert.Equal(t, 2, cfg.AI.Gemini.MaxConcurrency)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "test-key", cfg.AI.Gemini.APIKey)
	assert.Equal(t, path, cfg.App.ConfigFile)
	assert.Same(t, cfg, Get())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	Reset()
	t.Cleanup(Reset)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := []byte(`
ai:
  gemini:
    image_count: 9
    primary_temperature: 3.5
    max_concurrency: -1
cli:
  default_format: pdf
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image_count")
	assert.Contains(t, err.Error(), "primary_temperature")
	assert.Contains(t, err.Error(), "max_concurrency")
	assert.Contains(t, err.Error(), "default_format")
}

func TestValidateConfigPostHogNeedsKey(t *testing.T) {
	cfg := &Config{
		AI:     AI{Gemini: GeminiConfig{ImageCount: 3}},
		Server: Server{Port: 8080},
		CLI:    CLI{DefaultFormat: "json"},
	}
	require.NoError(t, validateConfig(cfg))

	cfg.Analytics.PostHog.Enabled = true
	err := validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PostHog")
}
