package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Honback/claude-code-api/internal/models"
	"github.com/Honback/claude-code-api/internal/repository"
)

// UsageService serves aggregate reads over the append-only usage logs.
type UsageService struct {
	usageLogs repository.UsageLogRepository
}

// NewUsageService creates a new usage service
func NewUsageService(usageLogs repository.UsageLogRepository) *UsageService {
	return &UsageService{usageLogs: usageLogs}
}

// UserSummary aggregates a user's usage over the last N days.
func (s *UsageService) UserSummary(ctx context.Context, userID uuid.UUID, days int) (*models.UsageSummary, error) {
	summary, err := s.usageLogs.UserSummary(ctx, userID, since(days))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage: %w", err)
	}
	return summary, nil
}

// GlobalSummary aggregates all usage over the last N days.
func (s *UsageService) GlobalSummary(ctx context.Context, days int) (*models.UsageSummary, error) {
	summary, err := s.usageLogs.GlobalSummary(ctx, since(days))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage: %w", err)
	}
	return summary, nil
}

// ByModel aggregates usage per model over the last N days.
func (s *UsageService) ByModel(ctx context.Context, days int) ([]*models.ModelUsage, error) {
	usage, err := s.usageLogs.ByModel(ctx, since(days))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage: %w", err)
	}
	return usage, nil
}

func since(days int) time.Time {
	if days <= 0 {
		days = 30
	}
	return time.Now().AddDate(0, 0, -days)
}
