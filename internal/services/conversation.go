package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Honback/claude-code-api/internal/models"
	"github.com/Honback/claude-code-api/internal/repository"
)

// ConversationListItem is a conversation as shown in the sidebar listing.
type ConversationListItem struct {
	*models.Conversation
	HasSummary  bool `json:"hasSummary"`
	TotalTokens int  `json:"totalTokens"`
}

// ConversationDetail is a conversation with its full message history.
type ConversationDetail struct {
	*models.Conversation
	Messages    []*models.Message `json:"messages"`
	TotalTokens int               `json:"totalTokens"`
}

// ConversationService handles conversation CRUD and turn persistence.
type ConversationService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	summaries     repository.SummaryRepository
	defaultModel  string
}

// NewConversationService creates a new conversation service
func NewConversationService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	summaries repository.SummaryRepository,
	defaultModel string,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		summaries:     summaries,
		defaultModel:  defaultModel,
	}
}

// Create creates a conversation. An empty title becomes the default
// sentinel and an empty model becomes the configured default.
func (s *ConversationService) Create(ctx context.Context, userID uuid.UUID, title, model string) (*models.Conversation, error) {
	if title == "" {
		title = models.DefaultConversationTitle
	}
	if model == "" {
		model = s.defaultModel
	}

	conversation := &models.Conversation{
		UserID: userID,
		Title:  title,
		Model:  model,
	}
	if err := s.conversations.Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return conversation, nil
}

// List returns the user's conversations, most recently updated first.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]*ConversationListItem, error) {
	conversations, err := s.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	items := make([]*ConversationListItem, 0, len(conversations))
	for _, conversation := range conversations {
		summary, err := s.summaries.LatestCompleted(ctx, conversation.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up summary: %w", err)
		}
		totalTokens, err := s.messages.SumTokens(ctx, conversation.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum tokens: %w", err)
		}
		items = append(items, &ConversationListItem{
			Conversation: conversation,
			HasSummary:   summary != nil,
			TotalTokens:  totalTokens,
		})
	}

	return items, nil
}

// Get returns a conversation with its messages. ErrNotFound when the
// conversation does not exist, ErrForbidden when it belongs to another
// user.
func (s *ConversationService) Get(ctx context.Context, conversationID, userID uuid.UUID) (*ConversationDetail, error) {
	conversation, err := s.ownedConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	totalTokens, err := s.messages.SumTokens(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum tokens: %w", err)
	}

	return &ConversationDetail{
		Conversation: conversation,
		Messages:     messages,
		TotalTokens:  totalTokens,
	}, nil
}

// Rename updates a conversation's title.
func (s *ConversationService) Rename(ctx context.Context, conversationID, userID uuid.UUID, title string) (*models.Conversation, error) {
	conversation, err := s.ownedConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	if title != "" {
		if err := s.conversations.UpdateTitle(ctx, conversationID, title); err != nil {
			return nil, fmt.Errorf("failed to update title: %w", err)
		}
		conversation.Title = title
	}

	return conversation, nil
}

// Delete removes a conversation and everything owned by it.
func (s *ConversationService) Delete(ctx context.Context, conversationID, userID uuid.UUID) error {
	if _, err := s.ownedConversation(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.conversations.Delete(ctx, conversationID)
}

// SaveMessage appends a turn with its token estimate and bumps the
// conversation's updated_at.
func (s *ConversationService) SaveMessage(ctx context.Context, conversationID uuid.UUID, role, content string) (*models.Message, error) {
	message := &models.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		TokenCount:     EstimateTokens(content),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	if err := s.conversations.Touch(ctx, conversationID); err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	return message, nil
}

func (s *ConversationService) ownedConversation(ctx context.Context, conversationID, userID uuid.UUID) (*models.Conversation, error) {
	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrNotFound
	}
	if conversation.UserID != userID {
		return nil, ErrForbidden
	}
	return conversation, nil
}
