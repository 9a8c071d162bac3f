package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/groupcal-api/internal/models"
)

const userColumns = "id, email, display_name, role, site, planet_number, alliance, custom_color, discord_username, created_at, updated_at"

// UserRepository provides database access for the user directory.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a directory entry by identity-service uid.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = $1 LIMIT 1"
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// insertUser writes a directory entry through exec, which may be a transaction.
func insertUser(ctx context.Context, exec sqlx.ExtContext, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.CustomColor == "" {
		user.CustomColor = models.DefaultUserColor
	}
	query := `INSERT INTO users (id, email, display_name, role, site, planet_number, alliance, custom_color, discord_username, created_at, updated_at)
VALUES (:id, :email, :display_name, :role, :site, :planet_number, :alliance, :custom_color, :discord_username, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// List returns the active members of a site with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	conditions := []string{"site = $1", "role <> $2"}
	args := []interface{}{filter.Site, models.RoleRemoved}

	if search := strings.TrimSpace(filter.Search); search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(display_name) LIKE $%d OR LOWER(alliance) LIKE $%d OR planet_number LIKE $%d)", idx, idx, idx+1))
		args = append(args, "%"+strings.ToLower(search)+"%", "%"+search+"%")
	}
	baseQuery := "FROM users WHERE " + strings.Join(conditions, " AND ")

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"planetNumber":  "planet_number",
		"planet_number": "planet_number",
		"alliance":      "alliance",
		"displayName":   "display_name",
		"display_name":  "display_name",
		"created_at":    "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "planet_number"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", userColumns, baseQuery, column, sortOrder, pageSize, offset)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// UpdateRole changes the role of a user.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET role = $2, updated_at = $3 WHERE id = $1", id, role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return requireAffected(res)
}

// RemoveAccess detaches a user from every site.
func (r *UserRepository) RemoveAccess(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET role = $2, site = $3, updated_at = $4 WHERE id = $1",
		id, models.RoleRemoved, models.RemovedSite, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("remove user access: %w", err)
	}
	return requireAffected(res)
}

// UpdateProfile stores the self-service profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	query := `UPDATE users SET display_name = :display_name, planet_number = :planet_number, alliance = :alliance,
custom_color = :custom_color, discord_username = :discord_username, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return requireAffected(res)
}
