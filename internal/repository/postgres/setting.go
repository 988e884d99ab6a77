package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Honback/claude-code-api/internal/models"
	"github.com/Honback/claude-code-api/internal/repository"
)

// SettingRepository implements repository.SettingRepository using PostgreSQL
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository creates a new PostgreSQL setting repository
func NewSettingRepository(db *sqlx.DB) repository.SettingRepository {
	return &SettingRepository{db: db}
}

// Get retrieves a setting by key, or nil when unset
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.AppSetting, error) {
	var setting models.AppSetting
	query := `SELECT key, value, updated_at FROM app_settings WHERE key = $1`

	err := r.db.GetContext(ctx, &setting, query, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &setting, nil
}

// Set upserts a setting
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, key, value, time.Now())
	return err
}

// List retrieves all settings
func (r *SettingRepository) List(ctx context.Context) ([]*models.AppSetting, error) {
	var settings []*models.AppSetting
	query := `SELECT key, value, updated_at FROM app_settings ORDER BY key`

	err := r.db.SelectContext(ctx, &settings, query)
	if err != nil {
		return nil, err
	}

	return settings, nil
}
