package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/groupcal-api/internal/calendar"
	"github.com/noah-isme/groupcal-api/internal/models"
)

const categoryColumns = "id, site, name, color, label_color, priority, icon, icon_color, actions, created_at, updated_at"

// CategoryRepository persists event categories and their actions.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs a category repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListBySite returns the categories of a site, highest priority first.
func (r *CategoryRepository) ListBySite(ctx context.Context, site string) ([]models.Category, error) {
	query := "SELECT " + categoryColumns + " FROM categories WHERE site = $1 ORDER BY COALESCE(priority, 2) DESC, name ASC"
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, site); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetByID fetches a category of a site.
func (r *CategoryRepository) GetByID(ctx context.Context, site, id string) (*models.Category, error) {
	query := "SELECT " + categoryColumns + " FROM categories WHERE site = $1 AND id = $2"
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, site, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// Create inserts a category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = calendar.NewID()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	if category.Actions == nil {
		category.Actions = models.Actions{}
	}
	query := `INSERT INTO categories (id, site, name, color, label_color, priority, icon, icon_color, actions, created_at, updated_at)
VALUES (:id, :site, :name, :color, :label_color, :priority, :icon, :icon_color, :actions, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update modifies a category including its action list.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	query := `UPDATE categories SET name = :name, color = :color, label_color = :label_color, priority = :priority, icon = :icon,
icon_color = :icon_color, actions = :actions, updated_at = :updated_at WHERE id = :id AND site = :site`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// ReplaceActions overwrites the ordered action list of a category.
func (r *CategoryRepository) ReplaceActions(ctx context.Context, site, id string, actions models.Actions) error {
	if actions == nil {
		actions = models.Actions{}
	}
	res, err := r.db.ExecContext(ctx, "UPDATE categories SET actions = $1, updated_at = $2 WHERE site = $3 AND id = $4", actions, time.Now().UTC(), site, id)
	if err != nil {
		return fmt.Errorf("replace category actions: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a category. Events keep their reference and fall back to no category.
func (r *CategoryRepository) Delete(ctx context.Context, site, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE site = $1 AND id = $2", site, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
