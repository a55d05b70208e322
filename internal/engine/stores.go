// Package engine holds the FoxOps business rules: field resolution,
// custom field mutation, public submissions and location ingestion.
package engine

import (
	"context"

	"github.com/aethra/foxops/internal/models"
	"github.com/aethra/foxops/internal/repository"
	"github.com/google/uuid"
)

// FieldStore is the data access the field engine needs
type FieldStore interface {
	ListActiveDefinitions(ctx context.Context) ([]models.FieldDefinition, error)
	GetActiveDefinition(ctx context.Context, id uuid.UUID) (*models.FieldDefinition, error)
	ListConfigs(ctx context.Context, companyID uuid.UUID) ([]models.FieldConfig, error)
	UpsertConfig(ctx context.Context, cfg *models.FieldConfig) error
	ListCustomFields(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]models.CustomField, error)
	CustomFieldKeyExists(ctx context.Context, companyID uuid.UUID, key string) (bool, error)
	CreateCustomField(ctx context.Context, field *models.CustomField) error
	UpdateCustomField(ctx context.Context, id, companyID uuid.UUID, updates map[string]interface{}) (*models.CustomField, error)
	DeleteCustomField(ctx context.Context, id, companyID uuid.UUID) (bool, error)
}

// FormStore is the data access for location forms
type FormStore interface {
	FindActiveBySlug(ctx context.Context, slug string) (*models.LocationForm, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.LocationForm, error)
	Create(ctx context.Context, form *models.LocationForm) error
	UpdateStatus(ctx context.Context, id, companyID uuid.UUID, status string) (*models.LocationForm, error)
	IncrementSubmissionCount(ctx context.Context, id uuid.UUID) error
}

// SubmissionStore persists pending submissions
type SubmissionStore interface {
	Create(ctx context.Context, sub *models.LocationSubmission) error
	ListByCompany(ctx context.Context, companyID uuid.UUID, status string) ([]models.LocationSubmission, error)
}

// LocationStore persists live locations
type LocationStore interface {
	Create(ctx context.Context, loc *models.Location) error
	List(ctx context.Context, companyID uuid.UUID, filter repository.LocationFilter) ([]models.Location, int64, error)
}

var (
	_ FieldStore      = (*repository.FieldRepository)(nil)
	_ FormStore       = (*repository.FormRepository)(nil)
	_ SubmissionStore = (*repository.SubmissionRepository)(nil)
	_ LocationStore   = (*repository.LocationRepository)(nil)
)
