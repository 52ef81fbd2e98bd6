// Package database persists finished runs and their action logs in
// SQLite through gorm.
package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver

	"brigade/internal/models"
)

// Store is a handle on the run database
type Store struct {
	db *gorm.DB
}

// Open connects to the run database and migrates the schema. Dialect is
// "sqlite3" or "postgres"; source is the file path (":memory:" for an
// ephemeral store) or the connection string.
func Open(dialect, source string) (*Store, error) {
	if dialect == "" {
		dialect = "sqlite3"
	}
	db, err := gorm.Open(dialect, source)
	if err != nil {
		return nil, fmt.Errorf("open run database: %w", err)
	}
	if err := db.AutoMigrate(&models.Run{}, &models.ActionLogEntry{}).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate run database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection
func (s *Store) Close() error {
	return s.db.Close()
}
