package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsGetFallsBackToDefaults(t *testing.T) {
	store := newFakeStore()
	svc := NewSettingsService(fakeSettings{store}, testContextConfig())

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.True(t, settings.ContextEnabled)
	assert.Equal(t, 8000, settings.SummarizationThresholdTokens)
	assert.Equal(t, 6, settings.RecentMessagesToKeep)
	assert.Equal(t, "claude-haiku-4-5-20251001", settings.DefaultModel)
}

func TestSettingsUpdateRoundTrip(t *testing.T) {
	store := newFakeStore()
	svc := NewSettingsService(fakeSettings{store}, testContextConfig())

	err := svc.Update(context.Background(), Settings{
		ContextEnabled:               false,
		SummarizationThresholdTokens: 12000,
		RecentMessagesToKeep:         10,
		DefaultModel:                 "claude-sonnet-4-5",
	})
	require.NoError(t, err)

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.False(t, settings.ContextEnabled)
	assert.Equal(t, 12000, settings.SummarizationThresholdTokens)
	assert.Equal(t, 10, settings.RecentMessagesToKeep)
	assert.Equal(t, "claude-sonnet-4-5", settings.DefaultModel)
}

func TestSettingsIgnoresUnparseableStoredValues(t *testing.T) {
	store := newFakeStore()
	repo := fakeSettings{store}
	require.NoError(t, repo.Set(context.Background(), "context.enabled", "not-a-bool"))
	require.NoError(t, repo.Set(context.Background(), "context.summarization_threshold_tokens", "lots"))

	svc := NewSettingsService(repo, testContextConfig())

	settings, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.True(t, settings.ContextEnabled)
	assert.Equal(t, 8000, settings.SummarizationThresholdTokens)
}
