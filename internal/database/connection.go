package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Config selects the SQL backend
type Config struct {
	// Driver is "sqlite3" or "postgres"
	Driver string
	// URL is the postgres DSN or an explicit sqlite file path
	URL string
	// DataDir holds the sqlite file when URL is empty
	DataDir string
}

// Connect establishes a connection to the database
func Connect(cfg Config) error {
	db, err := open(cfg)
	if err != nil {
		return err
	}
	DB = db

	// Initialize schema
	return initializeSchema()
}

func open(cfg Config) (*sqlx.DB, error) {
	switch cfg.Driver {
	case "postgres":
		if cfg.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for postgres")
		}
		db, err := sqlx.Connect("postgres", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %v", err)
		}
		return db, nil

	case "", "sqlite3":
		dbPath := cfg.URL
		if dbPath == "" {
			dataDir := cfg.DataDir
			if dataDir == "" {
				dataDir = "data"
			}
			// Create data directory if it doesn't exist
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %v", err)
			}
			dbPath = filepath.Join(dataDir, "studybot.db")
		}

		db, err := sqlx.Connect("sqlite3", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %v", err)
		}

		// Enable foreign keys
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
		}

		// Set connection pool settings
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		err := DB.Close()
		DB = nil
		return err
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	// Create users table
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			career_id TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	// Create plan_states table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS plan_states (
			user_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create plan_states table: %v", err)
	}

	return nil
}
