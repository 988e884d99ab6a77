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

// SummaryRepository implements repository.SummaryRepository using PostgreSQL
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository creates a new PostgreSQL summary repository
func NewSummaryRepository(db *sqlx.DB) repository.SummaryRepository {
	return &SummaryRepository{db: db}
}

// Create inserts a summary row. The schema carries a partial unique index
// on (conversation_id) WHERE status = 'in_progress', so a racing second
// insert for the same conversation fails instead of producing two
// concurrent summarization runs.
func (r *SummaryRepository) Create(ctx context.Context, summary *models.ConversationSummary) error {
	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}
	now := time.Now()
	summary.CreatedAt = now
	summary.UpdatedAt = now

	query := `
		INSERT INTO conversation_summaries
			(id, conversation_id, summary_text, covered_until_message_id,
			 covered_message_count, covered_token_count, summary_version,
			 status, created_at, updated_at)
		VALUES
			(:id, :conversation_id, :summary_text, :covered_until_message_id,
			 :covered_message_count, :covered_token_count, :summary_version,
			 :status, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, summary)
	return err
}

// Finalize moves a summary to its terminal status. Only in_progress rows
// are touched; a terminal row is never rewritten.
func (r *SummaryRepository) Finalize(ctx context.Context, id uuid.UUID, status, summaryText string) error {
	query := `
		UPDATE conversation_summaries
		SET status = $1, summary_text = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	_, err := r.db.ExecContext(ctx, query, status, summaryText, time.Now(), id, models.SummaryStatusInProgress)
	return err
}

// LatestCompleted returns the highest-version completed summary for a
// conversation, or nil when none exists
func (r *SummaryRepository) LatestCompleted(ctx context.Context, conversationID uuid.UUID) (*models.ConversationSummary, error) {
	var summary models.ConversationSummary
	query := `
		SELECT id, conversation_id, summary_text, covered_until_message_id,
		       covered_message_count, covered_token_count, summary_version,
		       status, created_at, updated_at
		FROM conversation_summaries
		WHERE conversation_id = $1 AND status = $2
		ORDER BY summary_version DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &summary, query, conversationID, models.SummaryStatusCompleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &summary, nil
}

// ExistsInProgress reports whether the conversation has a summarization
// run in flight
func (r *SummaryRepository) ExistsInProgress(ctx context.Context, conversationID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM conversation_summaries
			WHERE conversation_id = $1 AND status = $2
		)
	`

	err := r.db.GetContext(ctx, &exists, query, conversationID, models.SummaryStatusInProgress)
	return exists, err
}
