package services

import (
	"github.com/sirupsen/logrus"

	"github.com/Honback/claude-code-api/internal/claude"
	"github.com/Honback/claude-code-api/internal/config"
	"github.com/Honback/claude-code-api/internal/repository"
)

// Services holds all service instances.
type Services struct {
	Chat          *ChatService
	Context       *ContextService
	Conversations *ConversationService
	Usage         *UsageService
	Settings      *SettingsService
}

// NewServices creates all service instances
func NewServices(
	cfg *config.Config,
	upstream *claude.Client,
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	summaryRepo repository.SummaryRepository,
	usageLogRepo repository.UsageLogRepository,
	settingRepo repository.SettingRepository,
	log *logrus.Logger,
) *Services {
	conversations := NewConversationService(conversationRepo, messageRepo, summaryRepo, cfg.Context.DefaultModel)
	contextSvc := NewContextService(messageRepo, summaryRepo, upstream, cfg.Context, cfg.Upstream.SummarizeTimeout, log)
	chat := NewChatService(conversations, conversationRepo, usageLogRepo, contextSvc, upstream,
		cfg.Context.DefaultModel, cfg.Upstream.StreamTimeout, log)

	return &Services{
		Chat:          chat,
		Context:       contextSvc,
		Conversations: conversations,
		Usage:         NewUsageService(usageLogRepo),
		Settings:      NewSettingsService(settingRepo, cfg.Context),
	}
}
