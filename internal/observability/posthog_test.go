package observability

import (
	"casaideal/internal/config"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostHogClientDisabled(t *testing.T) {
	client, err := NewPostHogClient(config.PostHogConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())

	ctx := context.Background()
	assert.NoError(t, client.TrackSearch(ctx, "run-1", "primary", "Comprar", 3, 1200, true))
	assert.NoError(t, client.TrackLLMCall(ctx, "gemini-2.5-flash", "text_generation", 900, true))
	assert.NoError(t, client.Close())
}

func TestNewPostHogClientRequiresKey(t *testing.T) {
	_, err := NewPostHogClient(config.PostHogConfig{Enabled: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing API key")
}

func TestNilClientIsDisabled(t *testing.T) {
	var client *PostHogClient
	assert.False(t, client.IsEnabled())
	assert.NoError(t, client.TrackError(context.Background(), "generic", "boom", "pipeline"))
}
