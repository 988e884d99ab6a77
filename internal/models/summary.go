package models

import (
	"time"

	"github.com/google/uuid"
)

// Summary lifecycle states. A row is created in_progress and moves exactly
// once to completed or failed, then never changes again.
const (
	SummaryStatusInProgress = "in_progress"
	SummaryStatusCompleted  = "completed"
	SummaryStatusFailed     = "failed"
)

// ConversationSummary is a compressed rendering of conversation history.
// CoveredUntilMessageID marks the last message the summary accounts for;
// everything created after it counts as unsummarized. Versions are
// strictly increasing per conversation and the highest-version completed
// row is the one the context builder uses.
type ConversationSummary struct {
	ID                    uuid.UUID `db:"id" json:"id"`
	ConversationID        uuid.UUID `db:"conversation_id" json:"conversationId"`
	SummaryText           string    `db:"summary_text" json:"summaryText"`
	CoveredUntilMessageID uuid.UUID `db:"covered_until_message_id" json:"coveredUntilMessageId"`
	CoveredMessageCount   int       `db:"covered_message_count" json:"coveredMessageCount"`
	CoveredTokenCount     int       `db:"covered_token_count" json:"coveredTokenCount"`
	SummaryVersion        int       `db:"summary_version" json:"summaryVersion"`
	Status                string    `db:"status" json:"status"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}
