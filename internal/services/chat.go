package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/Honback/claude-code-api/internal/claude"
	"github.com/Honback/claude-code-api/internal/models"
	"github.com/Honback/claude-code-api/internal/repository"
)

const (
	// maxTitleLength caps the auto-generated conversation title.
	maxTitleLength = 50
	// maxStreamErrorLength caps the message embedded in a stream_error
	// frame.
	maxStreamErrorLength = 300
)

// ChatRequest is an incoming chat call. ConversationID is optional; a
// new conversation is created when it is absent. Messages is an optional
// caller-supplied history prepended verbatim to the outbound request.
type ChatRequest struct {
	ConversationID *uuid.UUID    `json:"conversationId,omitempty"`
	Model          string        `json:"model,omitempty"`
	Message        string        `json:"message"`
	Messages       []ChatMessage `json:"messages,omitempty"`
}

// ChatMessage is one caller-supplied history entry.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatStreamer is the upstream call ChatService depends on. Satisfied by
// *claude.Client.
type chatStreamer interface {
	StreamChatCompletions(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (*claude.ChatStream, error)
}

// ChatService proxies chat requests to the upstream completion API and
// re-emits the response as a normalized event stream. The returned
// stream always terminates well-formed: either forwarded upstream
// content ending in the provider's own terminal marker, or an injected
// error frame followed by the [DONE] sentinel.
type ChatService struct {
	conversations    *ConversationService
	conversationRepo repository.ConversationRepository
	usageLogs        repository.UsageLogRepository
	contextSvc       *ContextService
	upstream         chatStreamer

	defaultModel  string
	streamTimeout time.Duration
	log           *logrus.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	conversations *ConversationService,
	conversationRepo repository.ConversationRepository,
	usageLogs repository.UsageLogRepository,
	contextSvc *ContextService,
	upstream chatStreamer,
	defaultModel string,
	streamTimeout time.Duration,
	log *logrus.Logger,
) *ChatService {
	return &ChatService{
		conversations:    conversations,
		conversationRepo: conversationRepo,
		usageLogs:        usageLogs,
		contextSvc:       contextSvc,
		upstream:         upstream,
		defaultModel:     defaultModel,
		streamTimeout:    streamTimeout,
		log:              log,
	}
}

// StreamChat is the primary entry point. It resolves the conversation,
// persists the user turn, builds the context prompt, and returns a
// channel of stream payloads whose first element is always the metadata
// frame carrying the conversation id. Persistence failures during setup
// are hard errors; everything after the stream opens is surfaced
// in-stream.
func (s *ChatService) StreamChat(ctx context.Context, req ChatRequest, userID uuid.UUID) (<-chan string, error) {
	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	var conversationID uuid.UUID
	if req.ConversationID != nil {
		conversationID = *req.ConversationID
	} else {
		conversation, err := s.conversations.Create(ctx, userID, "", model)
		if err != nil {
			return nil, err
		}
		conversationID = conversation.ID
	}

	// The user turn must be durable before the prompt is built: the
	// context builder excludes the most recent message as "current".
	if _, err := s.conversations.SaveMessage(ctx, conversationID, models.RoleUser, req.Message); err != nil {
		return nil, err
	}

	prompt, err := s.contextSvc.BuildPrompt(ctx, conversationID, req.Message)
	if err != nil {
		return nil, err
	}

	outbound := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	for _, m := range req.Messages {
		outbound = append(outbound, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	outbound = append(outbound, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	out := make(chan string)
	go s.stream(out, conversationID, userID, model, req.Message, outbound)

	return out, nil
}

// stream drives one upstream exchange. It owns the out channel and
// always closes it after a well-formed terminal frame. The exchange is
// detached from the caller's context and bounded by the stream timeout.
func (s *ChatService) stream(out chan<- string, conversationID, userID uuid.UUID, model, userMessage string, messages []openai.ChatCompletionMessage) {
	started := time.Now()
	log := s.log.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"model":           model,
	})

	out <- fmt.Sprintf(`{"metadata":{"conversationId":"%s"}}`, conversationID)

	ctx, cancel := context.WithTimeout(context.Background(), s.streamTimeout)
	defer cancel()

	stream, err := s.upstream.StreamChatCompletions(ctx, model, messages)
	if err != nil {
		var statusErr *claude.StatusError
		if errors.As(err, &statusErr) {
			message, errType := statusErr.ExtractMessage()
			log.WithField("status", statusErr.StatusCode).Error("upstream rejected chat request")
			out <- errorFrame(escapeErrorMessage(message), errType)
			out <- "[DONE]"
			close(out)
			s.recordUsage(conversationID, userID, model, 0, 0, started, models.UsageStatusError)
			return
		}

		log.WithError(err).Error("failed to open upstream stream")
		s.emitStreamError(out, err)
		close(out)
		s.recordUsage(conversationID, userID, model, 0, 0, started, models.UsageStatusError)
		return
	}
	defer stream.Close()

	var accumulator strings.Builder
	for {
		payload, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.WithError(err).Error("chat streaming error")
			s.emitStreamError(out, err)
			close(out)
			s.recordUsage(conversationID, userID, model, 0, 0, started, models.UsageStatusError)
			return
		}

		// Forward the chunk unchanged; accumulate the delta on the side.
		out <- payload
		if content := claude.ExtractDeltaContent(payload); content != "" {
			accumulator.WriteString(content)
		}
	}

	// The caller sees stream-end now; persistence and bookkeeping follow
	// without holding the stream open.
	close(out)
	s.complete(conversationID, userID, model, userMessage, accumulator.String(), started)
}

// complete runs the once-per-request post-stream sequence: persist the
// assistant turn, rewrite the default title, maybe kick off background
// summarization, and record usage.
func (s *ChatService) complete(conversationID, userID uuid.UUID, model, userMessage, fullResponse string, started time.Time) {
	ctx := context.Background()
	log := s.log.WithField("conversation_id", conversationID)

	if _, err := s.conversations.SaveMessage(ctx, conversationID, models.RoleAssistant, fullResponse); err != nil {
		log.WithError(err).Error("failed to persist assistant message")
	}

	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		log.WithError(err).Error("failed to load conversation for title rewrite")
	} else if conversation != nil && conversation.Title == models.DefaultConversationTitle {
		title := userMessage
		if len(title) > maxTitleLength {
			title = title[:maxTitleLength] + "..."
		}
		if err := s.conversationRepo.UpdateTitle(ctx, conversationID, title); err != nil {
			log.WithError(err).Error("failed to rewrite conversation title")
		}
	}

	should, err := s.contextSvc.ShouldSummarize(ctx, conversationID)
	if err != nil {
		log.WithError(err).Error("failed to evaluate summarization trigger")
	} else if should {
		go func() {
			if err := s.contextSvc.RunSummarization(context.Background(), conversationID); err != nil {
				log.WithError(err).Warn("background summarization failed")
			}
		}()
	}

	s.recordUsage(conversationID, userID, model,
		EstimateTokens(userMessage), EstimateTokens(fullResponse),
		started, models.UsageStatusSuccess)
}

func (s *ChatService) recordUsage(conversationID, userID uuid.UUID, model string, inputTokens, outputTokens int, started time.Time, status string) {
	entry := &models.UsageLog{
		UserID:         userID,
		ConversationID: conversationID,
		Model:          model,
		InputTokens:    inputTokens,
		OutputTokens:   outputTokens,
		TotalTokens:    inputTokens + outputTokens,
		ResponseTimeMs: time.Since(started).Milliseconds(),
		Status:         status,
	}
	if err := s.usageLogs.Create(context.Background(), entry); err != nil {
		s.log.WithError(err).Error("failed to record usage log")
	}
}

// emitStreamError converts a mid-stream failure into the standard error
// frame plus terminal sentinel so the caller never sees a bare drop.
func (s *ChatService) emitStreamError(out chan<- string, err error) {
	message := "Connection error"
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	out <- errorFrame(sanitizeStreamError(message), "stream_error")
	out <- "[DONE]"
}

func errorFrame(message, errType string) string {
	return fmt.Sprintf(`{"error":{"message":"%s","type":"%s"}}`, message, errType)
}

// escapeErrorMessage makes an upstream-provided message safe for direct
// interpolation into a JSON frame.
func escapeErrorMessage(message string) string {
	message = strings.ReplaceAll(message, `\`, `\\`)
	message = strings.ReplaceAll(message, `"`, `\"`)
	message = strings.ReplaceAll(message, "\n", " ")
	return message
}

// sanitizeStreamError strips quoting and caps the length of an internal
// error message before it is embedded in a frame.
func sanitizeStreamError(message string) string {
	message = strings.ReplaceAll(message, `"`, "'")
	message = strings.ReplaceAll(message, "\n", " ")
	if len(message) > maxStreamErrorLength {
		message = message[:maxStreamErrorLength]
	}
	return message
}
