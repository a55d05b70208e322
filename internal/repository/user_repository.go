package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aethra/foxops/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyRepository stores tenants
type CompanyRepository struct {
	base
}

// Create inserts a company; ErrDuplicate on slug collision
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	if err := db.Create(company).Error; err != nil {
		if err = translate(err); errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// List returns all companies by name
func (r *CompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var companies []models.Company
	if err := db.Order("name").Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// FindBySlug returns nil when no company has slug
func (r *CompanyRepository) FindBySlug(ctx context.Context, slug string) (*models.Company, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var company models.Company
	err := db.Where("slug = ?", slug).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find company: %w", err)
	}
	return &company, nil
}

// UserRepository stores dashboard users
type UserRepository struct {
	base
}

// FindByEmail returns nil when no active user has email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	err := db.Where("email = ? AND is_active = ?", email, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// FindByID returns nil when no active user has id
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	err := db.Where("id = ? AND is_active = ?", id, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// Create inserts a user; ErrDuplicate on email collision
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := db.Create(user).Error; err != nil {
		if err = translate(err); errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// TouchLastLogin stamps the login time
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if err := db.Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error; err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
