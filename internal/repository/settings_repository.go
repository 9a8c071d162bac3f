package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/groupcal-api/internal/models"
)

// SettingsRepository reads and writes the install-wide settings row.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a settings repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row or sql.ErrNoRows when the install has none yet.
func (r *SettingsRepository) Get(ctx context.Context) (*models.AppSettings, error) {
	const query = `SELECT server_offset, current_season, updated_by, updated_at FROM app_settings WHERE id = 1`
	var settings models.AppSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert stores the settings row.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.AppSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO app_settings (id, server_offset, current_season, updated_by, updated_at)
VALUES (1, :server_offset, :current_season, :updated_by, :updated_at)
ON CONFLICT (id) DO UPDATE SET server_offset = EXCLUDED.server_offset, current_season = EXCLUDED.current_season,
updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
