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

// ConversationRepository implements repository.ConversationRepository
// using PostgreSQL.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates a new PostgreSQL conversation repository
func NewConversationRepository(db *sqlx.DB) repository.ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create creates a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	query := `
		INSERT INTO conversations (id, user_id, title, model, created_at, updated_at)
		VALUES (:id, :user_id, :title, :model, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, conversation)
	return err
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	query := `
		SELECT id, user_id, title, model, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &conversation, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &conversation, nil
}

// ListByUser retrieves all conversations for a user, most recently
// updated first
func (r *ConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	query := `
		SELECT id, user_id, title, model, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	err := r.db.SelectContext(ctx, &conversations, query, userID)
	if err != nil {
		return nil, err
	}

	return conversations, nil
}

// UpdateTitle updates a conversation title
func (r *ConversationRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	query := `UPDATE conversations SET title = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, title, time.Now(), id)
	return err
}

// Touch bumps the conversation's updated_at timestamp
func (r *ConversationRepository) Touch(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE conversations SET updated_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

// Delete deletes a conversation; messages and summaries go with it via
// foreign keys
func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM conversations WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
