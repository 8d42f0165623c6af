package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/studybot/pkg/models"
)

// UserRepository handles database operations for study profiles
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByID returns a profile by ID, or nil when it does not exist
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var user models.UserProfile
	query := DB.Rebind("SELECT id, name, avatar, created_at, career_id FROM users WHERE id = ?")

	err := DB.GetContext(ctx, &user, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %v", err)
	}
	return &user, nil
}

// GetAll returns all profiles, oldest first
func (r *UserRepository) GetAll(ctx context.Context) ([]models.UserProfile, error) {
	var users []models.UserProfile
	err := DB.SelectContext(ctx, &users, "SELECT id, name, avatar, created_at, career_id FROM users ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %v", err)
	}
	return users, nil
}

// Create inserts a new profile or updates its name and avatar if it exists
func (r *UserRepository) Create(ctx context.Context, user *models.UserProfile) error {
	query := DB.Rebind(`
		INSERT INTO users (id, name, avatar, created_at, career_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			avatar = excluded.avatar
	`)

	_, err := DB.ExecContext(ctx, query, user.ID, user.Name, user.Avatar, user.CreatedAt, user.CareerID)
	if err != nil {
		return fmt.Errorf("failed to create user: %v", err)
	}
	return nil
}

// UpdateCareer changes the default career of a profile
func (r *UserRepository) UpdateCareer(ctx context.Context, id, careerID string) error {
	query := DB.Rebind("UPDATE users SET career_id = ? WHERE id = ?")
	res, err := DB.ExecContext(ctx, query, careerID, id)
	if err != nil {
		return fmt.Errorf("failed to update career: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s not found", id)
	}
	return nil
}

// Delete removes a profile together with its stored plan state
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM plan_states WHERE user_id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete plan state: %v", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM users WHERE id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete user: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}
