package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Honback/claude-code-api/internal/models"
	"github.com/Honback/claude-code-api/internal/repository"
)

// UsageLogRepository implements repository.UsageLogRepository using
// PostgreSQL
type UsageLogRepository struct {
	db *sqlx.DB
}

// NewUsageLogRepository creates a new PostgreSQL usage log repository
func NewUsageLogRepository(db *sqlx.DB) repository.UsageLogRepository {
	return &UsageLogRepository{db: db}
}

// Create appends a usage log entry
func (r *UsageLogRepository) Create(ctx context.Context, entry *models.UsageLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO usage_logs
			(id, user_id, conversation_id, model, input_tokens, output_tokens,
			 total_tokens, response_time_ms, status, created_at)
		VALUES
			(:id, :user_id, :conversation_id, :model, :input_tokens, :output_tokens,
			 :total_tokens, :response_time_ms, :status, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, entry)
	return err
}

// UserSummary aggregates a user's usage since the given time
func (r *UsageLogRepository) UserSummary(ctx context.Context, userID uuid.UUID, since time.Time) (*models.UsageSummary, error) {
	var summary models.UsageSummary
	query := `
		SELECT COUNT(*) AS total_requests,
		       COALESCE(SUM(input_tokens), 0) AS total_input_tokens,
		       COALESCE(SUM(output_tokens), 0) AS total_output_tokens,
		       COALESCE(SUM(total_tokens), 0) AS total_tokens,
		       COALESCE(AVG(response_time_ms), 0) AS avg_response_time_ms
		FROM usage_logs
		WHERE user_id = $1 AND created_at >= $2
	`

	err := r.db.GetContext(ctx, &summary, query, userID, since)
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

// GlobalSummary aggregates all usage since the given time
func (r *UsageLogRepository) GlobalSummary(ctx context.Context, since time.Time) (*models.UsageSummary, error) {
	var summary models.UsageSummary
	query := `
		SELECT COUNT(*) AS total_requests,
		       COALESCE(SUM(input_tokens), 0) AS total_input_tokens,
		       COALESCE(SUM(output_tokens), 0) AS total_output_tokens,
		       COALESCE(SUM(total_tokens), 0) AS total_tokens,
		       COALESCE(AVG(response_time_ms), 0) AS avg_response_time_ms
		FROM usage_logs
		WHERE created_at >= $1
	`

	err := r.db.GetContext(ctx, &summary, query, since)
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

// ByModel aggregates usage grouped by model since the given time
func (r *UsageLogRepository) ByModel(ctx context.Context, since time.Time) ([]*models.ModelUsage, error) {
	var usage []*models.ModelUsage
	query := `
		SELECT model,
		       COUNT(*) AS request_count,
		       COALESCE(SUM(input_tokens), 0) AS input_tokens,
		       COALESCE(SUM(output_tokens), 0) AS output_tokens,
		       COALESCE(SUM(total_tokens), 0) AS total_tokens
		FROM usage_logs
		WHERE created_at >= $1
		GROUP BY model
		ORDER BY request_count DESC
	`

	err := r.db.SelectContext(ctx, &usage, query, since)
	if err != nil {
		return nil, err
	}

	return usage, nil
}
