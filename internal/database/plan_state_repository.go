package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PlanStateRepository stores the plan state blob of each profile in SQL
type PlanStateRepository struct{}

// NewPlanStateRepository creates a new repository instance
func NewPlanStateRepository() *PlanStateRepository {
	return &PlanStateRepository{}
}

// LoadPlanState returns the stored blob, or nil when there is none
func (r *PlanStateRepository) LoadPlanState(ctx context.Context, userID string) ([]byte, error) {
	var row PlanStateRow
	query := DB.Rebind("SELECT user_id, data, updated_at FROM plan_states WHERE user_id = ?")

	err := DB.GetContext(ctx, &row, query, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan state: %v", err)
	}
	return []byte(row.Data), nil
}

// SavePlanState inserts or replaces the blob of a profile
func (r *PlanStateRepository) SavePlanState(ctx context.Context, userID string, data []byte) error {
	query := DB.Rebind(`
		INSERT INTO plan_states (user_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`)

	_, err := DB.ExecContext(ctx, query, userID, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save plan state: %v", err)
	}
	return nil
}

// DeletePlanState removes the blob of a profile
func (r *PlanStateRepository) DeletePlanState(ctx context.Context, userID string) error {
	query := DB.Rebind("DELETE FROM plan_states WHERE user_id = ?")
	if _, err := DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete plan state: %v", err)
	}
	return nil
}

// CountPlanStates returns how many profiles have stored plans
func (r *PlanStateRepository) CountPlanStates(ctx context.Context) (int, error) {
	var count int
	if err := DB.GetContext(ctx, &count, "SELECT COUNT(*) FROM plan_states"); err != nil {
		return 0, fmt.Errorf("failed to count plan states: %v", err)
	}
	return count, nil
}
