package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

// ConnectToSQLite initializes and returns a SQLite connection
func ConnectToSQLite(dbPath string) (*sql.DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for SQLite: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	log.Info("Connected to SQLite database")
	return db, nil
}

// InitializeSchema creates the tracking table and its index if they don't
// exist. Safe to run on every process start.
func InitializeSchema(db *sql.DB) error {
	// The UNIQUE constraint over the location tuple is the dedup mechanism:
	// an observation is persisted only if at least one field differs from
	// every prior observation for that url.
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS tracking (
		url TEXT,
		detected_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		geom_lat DOUBLE,
		geom_lon DOUBLE,
		country TEXT,
		city TEXT,
		isp TEXT,
		org TEXT,
		as_number TEXT,
		UNIQUE(url, geom_lat, geom_lon, country, city, isp, org, as_number)
	)`)
	if err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	_, err = db.Exec(`
	CREATE INDEX IF NOT EXISTS idx_url_detected
	ON tracking(url, detected_at)`)
	if err != nil {
		return fmt.Errorf("failed to create tracking index: %w", err)
	}

	log.Info("Database schema initialized successfully")
	return nil
}
