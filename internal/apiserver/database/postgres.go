package database

import (
	"github.com/amoylab/familia/internal/common/config"

	"gorm.io/driver/postgres"
)

// Postgres implements the Database interface using PostgreSQL
type Postgres struct {
	*store
}

// NewPostgres creates a new Postgres instance
func NewPostgres(cfg *config.DatabaseConfig) (Database, error) {
	s, err := openStore(postgres.Open(cfg.GetDSN()))
	if err != nil {
		return nil, err
	}
	return &Postgres{store: s}, nil
}
