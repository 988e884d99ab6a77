package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Honback/claude-code-api/internal/config"
	"github.com/Honback/claude-code-api/internal/models"
	"github.com/Honback/claude-code-api/internal/repository"
)

// Settings are the context-management knobs exposed over the settings
// API. Values stored in app_settings override the config defaults.
type Settings struct {
	ContextEnabled               bool   `json:"contextEnabled"`
	SummarizationThresholdTokens int    `json:"summarizationThresholdTokens"`
	RecentMessagesToKeep         int    `json:"recentMessagesToKeep"`
	DefaultModel                 string `json:"defaultModel"`
}

// SettingsService reads and writes application settings.
type SettingsService struct {
	settings repository.SettingRepository
	defaults config.ContextConfig
}

// NewSettingsService creates a new settings service
func NewSettingsService(settings repository.SettingRepository, defaults config.ContextConfig) *SettingsService {
	return &SettingsService{settings: settings, defaults: defaults}
}

// Get returns the effective settings: stored values where present,
// config defaults elsewhere.
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	result := &Settings{
		ContextEnabled:               s.defaults.Enabled,
		SummarizationThresholdTokens: s.defaults.SummarizationThresholdTokens,
		RecentMessagesToKeep:         s.defaults.RecentMessagesToKeep,
		DefaultModel:                 s.defaults.DefaultModel,
	}

	stored, err := s.settings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	for _, setting := range stored {
		switch setting.Key {
		case models.SettingContextEnabled:
			if v, err := strconv.ParseBool(setting.Value); err == nil {
				result.ContextEnabled = v
			}
		case models.SettingSummarizationThreshold:
			if v, err := strconv.Atoi(setting.Value); err == nil {
				result.SummarizationThresholdTokens = v
			}
		case models.SettingRecentMessagesToKeep:
			if v, err := strconv.Atoi(setting.Value); err == nil {
				result.RecentMessagesToKeep = v
			}
		case models.SettingDefaultModel:
			if setting.Value != "" {
				result.DefaultModel = setting.Value
			}
		}
	}

	return result, nil
}

// Update persists the given settings.
func (s *SettingsService) Update(ctx context.Context, settings Settings) error {
	values := map[string]string{
		models.SettingContextEnabled:         strconv.FormatBool(settings.ContextEnabled),
		models.SettingSummarizationThreshold: strconv.Itoa(settings.SummarizationThresholdTokens),
		models.SettingRecentMessagesToKeep:   strconv.Itoa(settings.RecentMessagesToKeep),
		models.SettingDefaultModel:           settings.DefaultModel,
	}

	for key, value := range values {
		if err := s.settings.Set(ctx, key, value); err != nil {
			return fmt.Errorf("failed to store setting %s: %w", key, err)
		}
	}

	return nil
}
