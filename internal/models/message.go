package models

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a conversation. Immutable once created; ordering
// is by creation time, which must be strictly orderable per conversation
// for summarization coverage to work.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversationId"`
	Role           string    `db:"role" json:"role"`
	Content        string    `db:"content" json:"content"`
	TokenCount     int       `db:"token_count" json:"tokenCount"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
