package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/models"
)

const templateColumns = "id, site, name, slots, created_by, created_at, updated_at"

// TemplateRepository persists weekly templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs a template repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// ListBySite returns the templates of a site ordered by name.
func (r *TemplateRepository) ListBySite(ctx context.Context, site string) ([]models.Template, error) {
	query := "SELECT " + templateColumns + " FROM templates WHERE site = $1 ORDER BY name ASC"
	var templates []models.Template
	if err := r.db.SelectContext(ctx, &templates, query, site); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// GetByID fetches a template of a site.
func (r *TemplateRepository) GetByID(ctx context.Context, site, id string) (*models.Template, error) {
	query := "SELECT " + templateColumns + " FROM templates WHERE site = $1 AND id = $2"
	var tpl models.Template
	if err := r.db.GetContext(ctx, &tpl, query, site, id); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Create inserts a template.
func (r *TemplateRepository) Create(ctx context.Context, tpl *models.Template) error {
	if tpl.ID == "" {
		tpl.ID = calendar.NewID()
	}
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	query := `INSERT INTO templates (id, site, name, slots, created_by, created_at, updated_at)
VALUES (:id, :site, :name, :slots, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tpl); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// Update modifies the name and slots of a template.
func (r *TemplateRepository) Update(ctx context.Context, tpl *models.Template) error {
	tpl.UpdatedAt = time.Now().UTC()
	query := `UPDATE templates SET name = :name, slots = :slots, updated_at = :updated_at WHERE id = :id AND site = :site`
	res, err := r.db.NamedExecContext(ctx, query, tpl)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a template.
func (r *TemplateRepository) Delete(ctx context.Context, site, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM templates WHERE site = $1 AND id = $2", site, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
