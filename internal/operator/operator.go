// Package operator is the credential store backing the optional human
// operator login path: a small, separate identity from the agent_id the
// rest of the engine keys on, used only to mint operator-role JWTs for the
// evaluator-facing route (compareAgents). Adapted from the teacher's internal/user, trimmed to the
// fields an operator account actually needs.
package operator

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Operator is a human evaluator account.
type Operator struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var ErrInvalidCredentials = errors.New("invalid username or password")

// Store is a thin GORM-backed CRUD layer for Operator accounts.
type Store struct {
	db *gorm.DB
}

// New wraps an already-open *gorm.DB (shared with the engine's storage
// adapter) and migrates the Operator table.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Operator{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Create hashes password and inserts a new operator account.
func (s *Store) Create(username, password string) (*Operator, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	op := &Operator{Username: username, PasswordHash: string(hash)}
	if err := s.db.Create(op).Error; err != nil {
		return nil, err
	}
	return op, nil
}

// Authenticate verifies username/password and returns the matching account.
func (s *Store) Authenticate(username, password string) (*Operator, error) {
	var op Operator
	if err := s.db.First(&op, "username = ?", username).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &op, nil
}

// Count reports how many operator accounts exist (used to gate first-run setup).
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.Model(&Operator{}).Count(&n).Error
	return n, err
}
