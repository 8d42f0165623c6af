package bot

import (
	"time"
)

// Config represents the configuration for the bot
type Config struct {
	// Telegram users allowed to run /admin
	AdminUserIDs []int64
	// Career given to new profiles
	DefaultCareer string
	// How long a Yes/No confirmation stays answerable
	ConfirmTTL time.Duration
	// Minimum time between two edits of a running timer message
	TimerEditInterval time.Duration
	// Largest document accepted by /import
	MaxImportBytes int64
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultCareer:     "fiscal",
		ConfirmTTL:        10 * time.Minute,
		TimerEditInterval: 5 * time.Second,
		MaxImportBytes:    5 << 20,
	}
}

func (c *Config) isAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
