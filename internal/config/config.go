package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Telegram
	TelegramToken string
	AdminUserIDs  []int64

	// Database
	DatabaseDriver string
	DatabaseURL    string
	DataDir        string

	// Plan state storage: "sql" or "redis"
	StorageBackend string
	RedisURL       string

	// Reminders
	EnableScheduler       bool
	NotificationStartHour int
	NotificationEndHour   int
	ReminderInterval      time.Duration

	// Study
	DefaultCareer        string
	CareersFile          string
	TimerRefreshInterval time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	cfg := &Config{
		TelegramToken:         os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminUserIDs:          getEnvAsIDList("ADMIN_USER_IDS"),
		DatabaseDriver:        getEnvOrDefault("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:           getEnvOrDefault("DATABASE_URL", ""),
		DataDir:               getEnvOrDefault("DATA_DIR", "data"),
		StorageBackend:        getEnvOrDefault("STORAGE_BACKEND", "sql"),
		RedisURL:              getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		EnableScheduler:       getEnvAsBoolOrDefault("ENABLE_SCHEDULER", true),
		NotificationStartHour: getEnvAsIntOrDefault("NOTIFICATION_START_HOUR", 8),
		NotificationEndHour:   getEnvAsIntOrDefault("NOTIFICATION_END_HOUR", 22),
		ReminderInterval:      getEnvAsDurationOrDefault("REMINDER_INTERVAL", time.Hour),
		DefaultCareer:         getEnvOrDefault("DEFAULT_CAREER", "fiscal"),
		CareersFile:           getEnvOrDefault("CAREERS_FILE", ""),
		TimerRefreshInterval:  getEnvAsDurationOrDefault("TIMER_REFRESH_INTERVAL", time.Second),
	}

	return cfg
}

// IsAdmin reports whether a Telegram user id is listed in ADMIN_USER_IDS
func (c *Config) IsAdmin(id int64) bool {
	for _, admin := range c.AdminUserIDs {
		if admin == id {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvAsIDList(key string) []int64 {
	var ids []int64
	for _, raw := range strings.Split(os.Getenv(key), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Printf("Warning: Invalid admin user ID: %s", raw)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
