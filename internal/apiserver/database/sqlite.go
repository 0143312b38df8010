package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/amoylab/familia/internal/common/config"

	"github.com/glebarez/sqlite"
)

// SQLite implements the Database interface using SQLite
type SQLite struct {
	*store
}

// NewSQLite creates a new SQLite instance
func NewSQLite(cfg *config.DatabaseConfig) (Database, error) {
	memory := cfg.DBName == ":memory:"
	dsn := cfg.DBName
	if !memory {
		if err := os.MkdirAll(filepath.Dir(cfg.DBName), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn += "?_pragma=busy_timeout(5000)"
	}

	s, err := openStore(sqlite.Open(dsn))
	if err != nil {
		return nil, err
	}

	if memory {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := s.db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return &SQLite{store: s}, nil
}
