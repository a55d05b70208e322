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

// APIKeyRepository stores API keys
type APIKeyRepository struct {
	base
}

// FindByHash returns nil when no key has the given hash
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var key models.APIKey
	err := db.Where("key_hash = ?", hash).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find api key: %w", err)
	}
	return &key, nil
}

// RecordUsage bumps total_requests in SQL so concurrent requests are never lost
func (r *APIKeyRepository) RecordUsage(ctx context.Context, id uuid.UUID, at time.Time) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Model(&models.APIKey{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"total_requests": gorm.Expr("total_requests + ?", 1),
			"last_used_at":   at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record api key usage: %w", err)
	}
	return nil
}

// Create inserts a key
func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if err := db.Create(key).Error; err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}
	return nil
}

// ListByCompany returns every key of a company, newest first
func (r *APIKeyRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.APIKey, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var keys []models.APIKey
	if err := db.Where("company_id = ?", companyID).Order("created_at DESC").Find(&keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

// Revoke marks a company's key revoked. Returns false when nothing matched.
func (r *APIKeyRepository) Revoke(ctx context.Context, id, companyID uuid.UUID) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.APIKey{}).
		Where("id = ? AND company_id = ?", id, companyID).
		Updates(map[string]interface{}{"status": models.APIKeyStatusRevoked, "updated_at": time.Now()})
	if result.Error != nil {
		return false, fmt.Errorf("failed to revoke api key: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
