package repository

import (
	"context"
	"fmt"

	"github.com/aethra/foxops/internal/models"
	"github.com/aethra/foxops/internal/security"
	"github.com/google/uuid"
)

// LocationFilter narrows a location listing
type LocationFilter struct {
	Status string
	Type   string
	Search string
	Limit  int
	Offset int
}

// LocationRepository stores live locations
type LocationRepository struct {
	base
}

// Create inserts a location
func (r *LocationRepository) Create(ctx context.Context, loc *models.Location) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	if err := db.Create(loc).Error; err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

// List returns one page of a company's locations, newest first, with the unpaged total
func (r *LocationRepository) List(ctx context.Context, companyID uuid.UUID, filter LocationFilter) ([]models.Location, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := db.Model(&models.Location{}).Where("company_id = ?", companyID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Search != "" {
		pattern := "%" + security.EscapeLikePattern(filter.Search) + "%"
		query = query.Where(`(name ILIKE ? ESCAPE '\' OR city ILIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count locations: %w", err)
	}

	var locations []models.Location
	err := query.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&locations).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, total, nil
}
