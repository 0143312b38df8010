package database

import (
	"github.com/amoylab/familia/internal/common/config"

	"gorm.io/driver/mysql"
)

// MySQL implements the Database interface using MySQL
type MySQL struct {
	*store
}

// NewMySQL creates a new MySQL instance
func NewMySQL(cfg *config.DatabaseConfig) (Database, error) {
	s, err := openStore(mysql.Open(cfg.GetDSN()))
	if err != nil {
		return nil, err
	}
	return &MySQL{store: s}, nil
}
