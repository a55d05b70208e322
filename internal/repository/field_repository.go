package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aethra/foxops/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FieldRepository stores field definitions, company configs and custom fields
type FieldRepository struct {
	base
}

// ListActiveDefinitions returns active platform definitions ordered by display order
func (r *FieldRepository) ListActiveDefinitions(ctx context.Context) ([]models.FieldDefinition, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var defs []models.FieldDefinition
	if err := db.Where("is_active = ?", true).Order("display_order").Order("field_key").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("failed to list field definitions: %w", err)
	}
	return defs, nil
}

// GetActiveDefinition returns nil when the definition is missing or retired
func (r *FieldRepository) GetActiveDefinition(ctx context.Context, id uuid.UUID) (*models.FieldDefinition, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var def models.FieldDefinition
	err := db.Where("id = ? AND is_active = ?", id, true).First(&def).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get field definition: %w", err)
	}
	return &def, nil
}

// ListConfigs returns every config row of a company with its definition
func (r *FieldRepository) ListConfigs(ctx context.Context, companyID uuid.UUID) ([]models.FieldConfig, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var configs []models.FieldConfig
	if err := db.Preload("FieldDefinition").Where("company_id = ?", companyID).Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list field configs: %w", err)
	}
	return configs, nil
}

// UpsertConfig inserts or updates the single config row of (company, definition).
// The stored row is scanned back into cfg.
func (r *FieldRepository) UpsertConfig(ctx context.Context, cfg *models.FieldConfig) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}, {Name: "field_definition_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_required", "is_visible", "custom_label", "custom_placeholder",
			"custom_help_text", "display_order", "updated_at",
		}),
	}, clause.Returning{}).Create(cfg).Error
	if err != nil {
		return fmt.Errorf("failed to upsert field config: %w", err)
	}
	return nil
}

// ListCustomFields returns a company's custom fields ordered by display order
func (r *FieldRepository) ListCustomFields(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]models.CustomField, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := db.Where("company_id = ?", companyID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var fields []models.CustomField
	if err := query.Order("display_order").Order("field_key").Find(&fields).Error; err != nil {
		return nil, fmt.Errorf("failed to list custom fields: %w", err)
	}
	return fields, nil
}

// CustomFieldKeyExists reports whether the company already uses key
func (r *FieldRepository) CustomFieldKeyExists(ctx context.Context, companyID uuid.UUID, key string) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&models.CustomField{}).Where("company_id = ? AND field_key = ?", companyID, key).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check custom field key: %w", err)
	}
	return count > 0, nil
}

// CreateCustomField inserts a custom field; ErrDuplicate on key collision
func (r *FieldRepository) CreateCustomField(ctx context.Context, field *models.CustomField) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if field.ID == uuid.Nil {
		field.ID = uuid.New()
	}
	if err := db.Create(field).Error; err != nil {
		if err = translate(err); errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("failed to create custom field: %w", err)
	}
	return nil
}

// UpdateCustomField applies updates scoped by id and company. Returns nil when no row matched.
func (r *FieldRepository) UpdateCustomField(ctx context.Context, id, companyID uuid.UUID, updates map[string]interface{}) (*models.CustomField, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var field models.CustomField
	result := db.Model(&field).
		Clauses(clause.Returning{}).
		Where("id = ? AND company_id = ?", id, companyID).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update custom field: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &field, nil
}

// DeleteCustomField hard-deletes a custom field scoped by id and company
func (r *FieldRepository) DeleteCustomField(ctx context.Context, id, companyID uuid.UUID) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Where("id = ? AND company_id = ?", id, companyID).Delete(&models.CustomField{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete custom field: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
