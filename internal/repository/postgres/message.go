package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Honback/claude-code-api/internal/models"
	"github.com/Honback/claude-code-api/internal/repository"
)

// MessageRepository implements repository.MessageRepository using PostgreSQL
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new message
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()

	query := `
		INSERT INTO messages (id, conversation_id, role, content, token_count, created_at)
		VALUES (:id, :conversation_id, :role, :content, :token_count, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, message)
	return err
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	query := `
		SELECT id, conversation_id, role, content, token_count, created_at
		FROM messages
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &message, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &message, nil
}

// ListByConversation retrieves all messages for a conversation in
// creation order
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error) {
	var messages []*models.Message
	query := `
		SELECT id, conversation_id, role, content, token_count, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	err := r.db.SelectContext(ctx, &messages, query, conversationID)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// ListAfter retrieves messages created strictly after the given time,
// in creation order
func (r *MessageRepository) ListAfter(ctx context.Context, conversationID uuid.UUID, after time.Time) ([]*models.Message, error) {
	var messages []*models.Message
	query := `
		SELECT id, conversation_id, role, content, token_count, created_at
		FROM messages
		WHERE conversation_id = $1 AND created_at > $2
		ORDER BY created_at ASC
	`

	err := r.db.SelectContext(ctx, &messages, query, conversationID, after)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// SumTokens returns the total estimated token count of a conversation
func (r *MessageRepository) SumTokens(ctx context.Context, conversationID uuid.UUID) (int, error) {
	var sum int
	query := `
		SELECT COALESCE(SUM(token_count), 0)
		FROM messages
		WHERE conversation_id = $1
	`

	err := r.db.GetContext(ctx, &sum, query, conversationID)
	return sum, err
}

// SumTokensAfter returns the estimated token count of messages created
// strictly after the given time
func (r *MessageRepository) SumTokensAfter(ctx context.Context, conversationID uuid.UUID, after time.Time) (int, error) {
	var sum int
	query := `
		SELECT COALESCE(SUM(token_count), 0)
		FROM messages
		WHERE conversation_id = $1 AND created_at > $2
	`

	err := r.db.GetContext(ctx, &sum, query, conversationID, after)
	return sum, err
}
