// Package sqlite is an in-process Store/ContentBank adapter backed by
// gormstore, a lighter-weight persistence option than Postgres — the teacher
// carries the same sqlite driver in its go.mod. No package in this module
// imports it; the engine tests use storage/memory, and gormstore's own tests
// open the sqlite driver directly.
package sqlite

import (
	"gorm.io/driver/sqlite"

	"mse-engine/internal/storage/gormstore"
)

// Open creates (or opens) a sqlite database file at path and migrates
// every model gormstore owns. Use ":memory:" for an ephemeral test database.
func Open(path string) (*gormstore.Adapter, error) {
	return gormstore.Open(sqlite.Open(path), "sqlite")
}
