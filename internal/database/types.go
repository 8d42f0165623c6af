package database

// PlanStateRow is the stored plan state blob of a profile
type PlanStateRow struct {
	UserID    string `db:"user_id"`
	Data      string `db:"data"`
	UpdatedAt int64  `db:"updated_at"` // Unix milliseconds
}
