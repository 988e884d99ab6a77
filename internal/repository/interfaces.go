package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Honback/claude-code-api/internal/models"
)

// ConversationRepository persists conversations.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
	Touch(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MessageRepository persists conversation turns. Messages are append-only.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error)
	ListAfter(ctx context.Context, conversationID uuid.UUID, after time.Time) ([]*models.Message, error)
	SumTokens(ctx context.Context, conversationID uuid.UUID) (int, error)
	SumTokensAfter(ctx context.Context, conversationID uuid.UUID, after time.Time) (int, error)
}

// SummaryRepository persists conversation summaries. Rows are created
// in_progress and finalized exactly once.
type SummaryRepository interface {
	Create(ctx context.Context, summary *models.ConversationSummary) error
	Finalize(ctx context.Context, id uuid.UUID, status, summaryText string) error
	LatestCompleted(ctx context.Context, conversationID uuid.UUID) (*models.ConversationSummary, error)
	ExistsInProgress(ctx context.Context, conversationID uuid.UUID) (bool, error)
}

// UsageLogRepository persists append-only usage records and serves
// aggregate reads.
type UsageLogRepository interface {
	Create(ctx context.Context, entry *models.UsageLog) error
	UserSummary(ctx context.Context, userID uuid.UUID, since time.Time) (*models.UsageSummary, error)
	GlobalSummary(ctx context.Context, since time.Time) (*models.UsageSummary, error)
	ByModel(ctx context.Context, since time.Time) ([]*models.ModelUsage, error)
}

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// APIKeyRepository persists API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	GetByHash(ctx context.Context, hash string) (*models.APIKey, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	Revoke(ctx context.Context, userID, id uuid.UUID) error
}

// SettingRepository persists application settings.
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.AppSetting, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]*models.AppSetting, error)
}
