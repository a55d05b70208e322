package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aethra/foxops/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FormRepository stores location forms
type FormRepository struct {
	base
}

// FindActiveBySlug returns nil when no active form carries slug
func (r *FormRepository) FindActiveBySlug(ctx context.Context, slug string) (*models.LocationForm, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var form models.LocationForm
	err := db.Where("slug = ? AND status = ?", slug, models.FormStatusActive).First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find form: %w", err)
	}
	return &form, nil
}

// ListByCompany returns the company's forms, newest first
func (r *FormRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.LocationForm, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var forms []models.LocationForm
	if err := db.Where("company_id = ?", companyID).Order("created_at DESC").Find(&forms).Error; err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	return forms, nil
}

// Create inserts a form; ErrDuplicate on slug collision
func (r *FormRepository) Create(ctx context.Context, form *models.LocationForm) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if form.ID == uuid.Nil {
		form.ID = uuid.New()
	}
	if err := db.Create(form).Error; err != nil {
		if err = translate(err); errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("failed to create form: %w", err)
	}
	return nil
}

// UpdateStatus changes a form's status. Returns nil when the form is not the company's.
func (r *FormRepository) UpdateStatus(ctx context.Context, id, companyID uuid.UUID, status string) (*models.LocationForm, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var form models.LocationForm
	result := db.Model(&form).
		Clauses(clause.Returning{}).
		Where("id = ? AND company_id = ?", id, companyID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update form status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &form, nil
}

// IncrementSubmissionCount bumps the counter in a single statement
func (r *FormRepository) IncrementSubmissionCount(ctx context.Context, id uuid.UUID) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Model(&models.LocationForm{}).
		Where("id = ?", id).
		UpdateColumn("submission_count", gorm.Expr("submission_count + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("failed to increment submission count: %w", err)
	}
	return nil
}

// SubmissionRepository stores pending location submissions
type SubmissionRepository struct {
	base
}

// Create inserts a submission
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.LocationSubmission) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if err := db.Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// ListByCompany returns a company's submissions filtered by status when set
func (r *SubmissionRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, status string) ([]models.LocationSubmission, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := db.Where("company_id = ?", companyID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var subs []models.LocationSubmission
	if err := query.Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}
