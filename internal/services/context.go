package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Honback/claude-code-api/internal/config"
	"github.com/Honback/claude-code-api/internal/models"
	"github.com/Honback/claude-code-api/internal/repository"
)

const (
	// maxMessageLengthInContext caps each history message rendered into a
	// chat prompt.
	maxMessageLengthInContext = 2000
	// maxMessageLengthInSummary caps each message rendered into a
	// summarization prompt.
	maxMessageLengthInSummary = 3000

	truncationMarker = "... [truncated]"
)

// summarizer is the upstream call RunSummarization depends on. Satisfied
// by *claude.Client.
type summarizer interface {
	Summarize(ctx context.Context, model, prompt string) (string, error)
}

// ContextService keeps the history sent upstream bounded. It assembles
// context-enriched prompts from a prior summary plus a window of recent
// turns, and compresses old history into new summary versions in the
// background once the unsummarized tail grows past a threshold.
type ContextService struct {
	messages  repository.MessageRepository
	summaries repository.SummaryRepository
	upstream  summarizer

	cfg              config.ContextConfig
	summarizeTimeout time.Duration
	log              *logrus.Logger

	// mu guards locks; each conversation gets its own mutex so the
	// check-then-insert window in RunSummarization is closed in-process.
	// The partial unique index on in_progress rows backs this up across
	// processes.
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewContextService creates a new context service
func NewContextService(
	messages repository.MessageRepository,
	summaries repository.SummaryRepository,
	upstream summarizer,
	cfg config.ContextConfig,
	summarizeTimeout time.Duration,
	log *logrus.Logger,
) *ContextService {
	return &ContextService{
		messages:         messages,
		summaries:        summaries,
		upstream:         upstream,
		cfg:              cfg,
		summarizeTimeout: summarizeTimeout,
		log:              log,
		locks:            make(map[uuid.UUID]*sync.Mutex),
	}
}

// BuildPrompt assembles the outbound prompt for the current message.
// The current user message must already be persisted as the
// conversation's most recent message; it is excluded from history here.
// The result is deterministic given the stored state and has no side
// effects.
func (s *ContextService) BuildPrompt(ctx context.Context, conversationID uuid.UUID, currentMessage string) (string, error) {
	if !s.cfg.Enabled {
		return currentMessage, nil
	}

	allMessages, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to list messages: %w", err)
	}

	// The last message is the just-persisted current one.
	var previous []*models.Message
	if len(allMessages) > 1 {
		previous = allMessages[:len(allMessages)-1]
	}
	if len(previous) <= 1 {
		return currentMessage, nil
	}

	latest, err := s.summaries.LatestCompleted(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to look up summary: %w", err)
	}

	var b strings.Builder

	if latest != nil {
		b.WriteString("[CONVERSATION CONTEXT]\n")
		b.WriteString("The following is a summary of our earlier conversation:\n")
		b.WriteString(latest.SummaryText)
		b.WriteString("\n\n")

		recent, err := s.recentSince(ctx, latest, previous)
		if err != nil {
			return "", err
		}
		if len(recent) > 0 {
			b.WriteString("[RECENT MESSAGES]\n")
			s.renderMessages(&b, limitMessages(recent, s.cfg.RecentMessagesToKeep), maxMessageLengthInContext)
			b.WriteString("\n")
		}
	} else {
		b.WriteString("[RECENT MESSAGES]\n")
		s.renderMessages(&b, limitMessages(previous, s.cfg.RecentMessagesToKeep), maxMessageLengthInContext)
		b.WriteString("\n")
	}

	b.WriteString("[CURRENT MESSAGE]\n")
	b.WriteString(currentMessage)

	return b.String(), nil
}

// recentSince filters previous messages to those created strictly after
// the summary's covered-until message. When that message is gone the
// last-N window is the fallback.
func (s *ContextService) recentSince(ctx context.Context, summary *models.ConversationSummary, previous []*models.Message) ([]*models.Message, error) {
	covered, err := s.messages.GetByID(ctx, summary.CoveredUntilMessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up covered message: %w", err)
	}
	if covered == nil {
		return limitMessages(previous, s.cfg.RecentMessagesToKeep), nil
	}

	var recent []*models.Message
	for _, m := range previous {
		if m.CreatedAt.After(covered.CreatedAt) {
			recent = append(recent, m)
		}
	}
	return recent, nil
}

// ShouldSummarize reports whether the conversation's unsummarized
// history exceeds the token threshold. Always false while a
// summarization run is in flight or context management is disabled.
func (s *ContextService) ShouldSummarize(ctx context.Context, conversationID uuid.UUID) (bool, error) {
	if !s.cfg.Enabled {
		return false, nil
	}

	inProgress, err := s.summaries.ExistsInProgress(ctx, conversationID)
	if err != nil {
		return false, fmt.Errorf("failed to check in-progress summary: %w", err)
	}
	if inProgress {
		return false, nil
	}

	unsummarized, err := s.unsummarizedTokens(ctx, conversationID)
	if err != nil {
		return false, err
	}

	return unsummarized > s.cfg.SummarizationThresholdTokens, nil
}

func (s *ContextService) unsummarizedTokens(ctx context.Context, conversationID uuid.UUID) (int, error) {
	latest, err := s.summaries.LatestCompleted(ctx, conversationID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up summary: %w", err)
	}

	if latest != nil {
		covered, err := s.messages.GetByID(ctx, latest.CoveredUntilMessageID)
		if err != nil {
			return 0, fmt.Errorf("failed to look up covered message: %w", err)
		}
		if covered != nil {
			sum, err := s.messages.SumTokensAfter(ctx, conversationID, covered.CreatedAt)
			if err != nil {
				return 0, fmt.Errorf("failed to sum tokens: %w", err)
			}
			return sum, nil
		}
	}

	sum, err := s.messages.SumTokens(ctx, conversationID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum tokens: %w", err)
	}
	return sum, nil
}

// RunSummarization compresses the conversation's history into a new
// summary version. It is meant to run in the background; failures are
// recorded as a failed summary row and never reach the chat caller. A
// failed terminal row does not block later attempts.
func (s *ContextService) RunSummarization(ctx context.Context, conversationID uuid.UUID) error {
	log := s.log.WithField("conversation_id", conversationID)

	lock := s.lockFor(conversationID)
	lock.Lock()

	inProgress, err := s.summaries.ExistsInProgress(ctx, conversationID)
	if err != nil {
		lock.Unlock()
		return fmt.Errorf("failed to check in-progress summary: %w", err)
	}
	if inProgress {
		lock.Unlock()
		return nil
	}

	latest, err := s.summaries.LatestCompleted(ctx, conversationID)
	if err != nil {
		lock.Unlock()
		return fmt.Errorf("failed to look up summary: %w", err)
	}
	nextVersion := 1
	if latest != nil {
		nextVersion = latest.SummaryVersion + 1
	}

	allMessages, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		lock.Unlock()
		return fmt.Errorf("failed to list messages: %w", err)
	}
	if len(allMessages) == 0 {
		lock.Unlock()
		return nil
	}
	lastMessage := allMessages[len(allMessages)-1]

	totalTokens, err := s.messages.SumTokens(ctx, conversationID)
	if err != nil {
		lock.Unlock()
		return fmt.Errorf("failed to sum tokens: %w", err)
	}

	// Inserting the in_progress row is what makes the run visible to
	// concurrent ShouldSummarize checks.
	summary := &models.ConversationSummary{
		ConversationID:        conversationID,
		SummaryText:           "",
		CoveredUntilMessageID: lastMessage.ID,
		CoveredMessageCount:   len(allMessages),
		CoveredTokenCount:     totalTokens,
		SummaryVersion:        nextVersion,
		Status:                models.SummaryStatusInProgress,
	}
	if err := s.summaries.Create(ctx, summary); err != nil {
		lock.Unlock()
		return fmt.Errorf("failed to create summary row: %w", err)
	}
	lock.Unlock()

	log.WithField("version", nextVersion).Info("starting summarization")

	prompt, err := s.buildSummarizationPrompt(ctx, latest, allMessages)
	if err != nil {
		s.finalize(ctx, summary.ID, models.SummaryStatusFailed, "")
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.summarizeTimeout)
	defer cancel()

	text, err := s.upstream.Summarize(callCtx, s.cfg.DefaultModel, prompt)
	if err != nil {
		log.WithError(err).Warn("summarization failed")
		s.finalize(ctx, summary.ID, models.SummaryStatusFailed, "")
		return err
	}
	if strings.TrimSpace(text) == "" {
		log.Warn("summarization returned empty result")
		s.finalize(ctx, summary.ID, models.SummaryStatusFailed, "")
		return nil
	}

	s.finalize(ctx, summary.ID, models.SummaryStatusCompleted, text)
	log.WithField("version", nextVersion).Info("summarization completed")
	return nil
}

func (s *ContextService) finalize(ctx context.Context, id uuid.UUID, status, text string) {
	if err := s.summaries.Finalize(ctx, id, status, text); err != nil {
		s.log.WithError(err).WithField("summary_id", id).Error("failed to finalize summary")
	}
}

// buildSummarizationPrompt renders the compression request. With a prior
// completed summary the prompt continues from it and includes only the
// messages past its coverage point; otherwise it covers everything.
func (s *ContextService) buildSummarizationPrompt(ctx context.Context, previous *models.ConversationSummary, allMessages []*models.Message) (string, error) {
	var b strings.Builder
	b.WriteString("Summarize the following conversation concisely. ")
	b.WriteString("Focus on key topics discussed, decisions made, and important context. ")
	b.WriteString("Keep the summary under 500 words.\n\n")

	messages := allMessages
	if previous != nil && strings.TrimSpace(previous.SummaryText) != "" {
		b.WriteString("Previous summary:\n")
		b.WriteString(previous.SummaryText)
		b.WriteString("\n\nNew messages since last summary:\n")

		covered, err := s.messages.GetByID(ctx, previous.CoveredUntilMessageID)
		if err != nil {
			return "", fmt.Errorf("failed to look up covered message: %w", err)
		}
		if covered != nil {
			messages, err = s.messages.ListAfter(ctx, allMessages[0].ConversationID, covered.CreatedAt)
			if err != nil {
				return "", fmt.Errorf("failed to list messages: %w", err)
			}
		}
	} else {
		b.WriteString("Conversation:\n")
	}

	s.renderMessages(&b, messages, maxMessageLengthInSummary)

	return b.String(), nil
}

func (s *ContextService) renderMessages(b *strings.Builder, messages []*models.Message, maxLen int) {
	for _, m := range messages {
		content := m.Content
		if len(content) > maxLen {
			content = content[:maxLen] + truncationMarker
		}
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(content)
		b.WriteString("\n")
	}
}

func (s *ContextService) lockFor(conversationID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[conversationID] = lock
	}
	return lock
}

func limitMessages(messages []*models.Message, max int) []*models.Message {
	if len(messages) <= max {
		return messages
	}
	return messages[len(messages)-max:]
}
