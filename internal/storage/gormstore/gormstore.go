package gormstore

import (
	"log"

	"gorm.io/gorm"
)

// Adapter wraps a *gorm.DB and implements both engine.Store and
// engine.ContentBank, following db.Init's open-then-AutoMigrate sequence.
type Adapter struct {
	db *gorm.DB
}

// Open connects through the given dialector and migrates every model this
// package owns. The postgres and sqlite packages are thin callers of this.
func Open(dialector gorm.Dialector, name string) (*Adapter, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, err
	}
	log.Printf("[storage/%s] connected and migrated", name)
	return &Adapter{db: db}, nil
}

// DB returns the underlying *gorm.DB so collaborators outside the engine's
// domain (operator auth accounts) can share this adapter's connection pool
// instead of opening a second one.
func (a *Adapter) DB() *gorm.DB {
	return a.db
}
