package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDatabase initializes the database connection
func InitDatabase(dbURL string) error {
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Test the connection
	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	log.Println("Successfully connected to database")
	return nil
}

// CreateTables creates the necessary tables if they don't exist
func CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			gender VARCHAR(20),
			age INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			name TEXT NOT NULL,
			image_url TEXT DEFAULT '',
			screenshot_path TEXT DEFAULT '',
			current_price DECIMAL(12,2) DEFAULT 0,
			previous_price DECIMAL(12,2) DEFAULT 0,
			currency VARCHAR(4) DEFAULT '$',
			retention_days INTEGER DEFAULT 90,
			last_checked TIMESTAMP,
			date_added TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			shared_by VARCHAR(255),
			shared_on TIMESTAMP,
			original_item_id INTEGER,
			deleted BOOLEAN DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS prices (
			id SERIAL PRIMARY KEY,
			item_id INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			price DECIMAL(12,2) NOT NULL,
			date TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_items_user ON items (user_id) WHERE NOT deleted`,
		`CREATE INDEX IF NOT EXISTS idx_items_url ON items (url)`,
		`CREATE INDEX IF NOT EXISTS idx_prices_item ON prices (item_id, date)`,
	}

	for _, query := range queries {
		_, err := DB.Exec(query)
		if err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}

	return nil
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
