// Package repository is the gorm-backed data store. Every call is bounded by the store timeout.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when a unique constraint rejects a write
var ErrDuplicate = errors.New("duplicate record")

// DefaultTimeout bounds a single store round trip when none is configured
const DefaultTimeout = 5 * time.Second

// Repositories groups all repositories
type Repositories struct {
	Companies   *CompanyRepository
	Users       *UserRepository
	Fields      *FieldRepository
	Forms       *FormRepository
	Submissions *SubmissionRepository
	Locations   *LocationRepository
	APIKeys     *APIKeyRepository
}

// NewRepositories creates all repositories sharing one connection pool
func NewRepositories(db *gorm.DB, timeout time.Duration) *Repositories {
	b := base{db: db, timeout: timeout}
	if b.timeout <= 0 {
		b.timeout = DefaultTimeout
	}
	return &Repositories{
		Companies:   &CompanyRepository{base: b},
		Users:       &UserRepository{base: b},
		Fields:      &FieldRepository{base: b},
		Forms:       &FormRepository{base: b},
		Submissions: &SubmissionRepository{base: b},
		Locations:   &LocationRepository{base: b},
		APIKeys:     &APIKeyRepository{base: b},
	}
}

type base struct {
	db      *gorm.DB
	timeout time.Duration
}

// conn returns a session bound to ctx plus the store timeout
func (b base) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.db.WithContext(ctx), cancel
}

// translate maps driver errors onto repository sentinels
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
