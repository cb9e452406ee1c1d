// Package postgres is the production Store/ContentBank adapter, backed by
// PostgreSQL via gormstore.
package postgres

import (
	"gorm.io/driver/postgres"

	"mse-engine/internal/config"
	"mse-engine/internal/storage/gormstore"
)

// Open connects to Postgres and migrates every model gormstore owns.
func Open(cfg *config.Config) (*gormstore.Adapter, error) {
	return gormstore.Open(postgres.Open(cfg.Postgres.DSN), "postgres")
}
