package models

// UserProfile is a local study profile. Each Telegram user owns exactly one.
type UserProfile struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Avatar    string `json:"avatar" db:"avatar"`
	CreatedAt int64  `json:"createdAt" db:"created_at"` // Unix milliseconds
	CareerID  string `json:"careerId,omitempty" db:"career_id"`
}
