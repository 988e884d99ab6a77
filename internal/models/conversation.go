package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultConversationTitle is the sentinel title given to a conversation
// until the first assistant response completes.
const DefaultConversationTitle = "New Conversation"

// Conversation is the root of a chat thread. Messages and summaries hang
// off it and have no independent lifecycle.
type Conversation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	Model     string    `db:"model" json:"model"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
