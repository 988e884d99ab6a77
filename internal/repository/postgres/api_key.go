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

// APIKeyRepository implements repository.APIKeyRepository using PostgreSQL
type APIKeyRepository struct {
	db *sqlx.DB
}

// NewAPIKeyRepository creates a new PostgreSQL API key repository
func NewAPIKeyRepository(db *sqlx.DB) repository.APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create creates a new API key
func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	key.CreatedAt = time.Now()

	query := `
		INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, created_at)
		VALUES (:id, :user_id, :name, :key_hash, :key_prefix, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, key)
	return err
}

// GetByHash retrieves an active (non-revoked) API key by its hash
func (r *APIKeyRepository) GetByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	var key models.APIKey
	query := `
		SELECT id, user_id, name, key_hash, key_prefix, created_at, revoked_at
		FROM api_keys
		WHERE key_hash = $1 AND revoked_at IS NULL
	`

	err := r.db.GetContext(ctx, &key, query, hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &key, nil
}

// ListByUser retrieves all API keys for a user
func (r *APIKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	var keys []*models.APIKey
	query := `
		SELECT id, user_id, name, key_hash, key_prefix, created_at, revoked_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.SelectContext(ctx, &keys, query, userID)
	if err != nil {
		return nil, err
	}

	return keys, nil
}

// Revoke marks an API key as revoked
func (r *APIKeyRepository) Revoke(ctx context.Context, userID, id uuid.UUID) error {
	query := `
		UPDATE api_keys SET revoked_at = $1
		WHERE id = $2 AND user_id = $3 AND revoked_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id, userID)
	return err
}
