package models

import (
	"time"

	"github.com/google/uuid"
)

// Usage log outcomes.
const (
	UsageStatusSuccess = "success"
	UsageStatusError   = "error"
)

// UsageLog records one proxy call, successful or not. Append-only; it
// references a conversation but may outlive it.
type UsageLog struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"userId"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversationId"`
	Model          string    `db:"model" json:"model"`
	InputTokens    int       `db:"input_tokens" json:"inputTokens"`
	OutputTokens   int       `db:"output_tokens" json:"outputTokens"`
	TotalTokens    int       `db:"total_tokens" json:"totalTokens"`
	ResponseTimeMs int64     `db:"response_time_ms" json:"responseTimeMs"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// UsageSummary is an aggregate over usage logs for a time window.
type UsageSummary struct {
	TotalRequests     int64   `db:"total_requests" json:"totalRequests"`
	TotalInputTokens  int64   `db:"total_input_tokens" json:"totalInputTokens"`
	TotalOutputTokens int64   `db:"total_output_tokens" json:"totalOutputTokens"`
	TotalTokens       int64   `db:"total_tokens" json:"totalTokens"`
	AvgResponseTimeMs float64 `db:"avg_response_time_ms" json:"avgResponseTimeMs"`
}

// ModelUsage is a per-model aggregate over usage logs.
type ModelUsage struct {
	Model        string `db:"model" json:"model"`
	RequestCount int64  `db:"request_count" json:"requestCount"`
	InputTokens  int64  `db:"input_tokens" json:"inputTokens"`
	OutputTokens int64  `db:"output_tokens" json:"outputTokens"`
	TotalTokens  int64  `db:"total_tokens" json:"totalTokens"`
}
