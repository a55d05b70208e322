package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestMeta describes the public submitter
type RequestMeta struct {
	IP        string
	UserAgent string
}

// SubmitResult identifies the record a submission produced
type SubmitResult struct {
	ID               uuid.UUID
	RequiresApproval bool
	SuccessMessage   string
}

// SubmissionEngine validates public form submissions and routes them
// to a pending submission or a live location.
type SubmissionEngine struct {
	forms       FormStore
	submissions SubmissionStore
	locations   LocationStore
	logger      *zap.Logger
	timeout     time.Duration

	// async runs best-effort side effects after the response is decided
	async func(func())
}

// NewSubmissionEngine creates a new submission engine. timeout bounds the
// detached submission counter update.
func NewSubmissionEngine(forms FormStore, submissions SubmissionStore, locations LocationStore, logger *zap.Logger, timeout time.Duration) *SubmissionEngine {
	return &SubmissionEngine{
		forms:       forms,
		submissions: submissions,
		locations:   locations,
		logger:      logger,
		timeout:     timeout,
		async:       func(fn func()) { go fn() },
	}
}

// GetPublicForm returns an active form by slug
func (e *SubmissionEngine) GetPublicForm(ctx context.Context, slug string) (*models.LocationForm, error) {
	form, err := e.forms.FindActiveBySlug(ctx, slug)
	if err != nil {
		e.logger.Error("failed to load form", zap.String("slug", slug), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if form == nil {
		return nil, apperrors.NewNotFoundError("form")
	}
	return form, nil
}

// Submit validates body against the form and stores it
func (e *SubmissionEngine) Submit(ctx context.Context, slug string, body map[string]interface{}, meta RequestMeta) (*SubmitResult, error) {
	form, err := e.GetPublicForm(ctx, slug)
	if err != nil {
		return nil, err
	}

	if details := ValidateSubmission(form.FieldsConfig, body); len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	attrs := addressContactFrom(body)
	result := &SubmitResult{RequiresApproval: form.RequiresApproval, SuccessMessage: form.SuccessMessage}

	if form.RequiresApproval {
		sub := &models.LocationSubmission{
			ID:                 uuid.New(),
			FormID:             form.ID,
			CompanyID:          form.CompanyID,
			Status:             models.SubmissionStatusPending,
			AddressContact:     attrs,
			SubmitterIP:        meta.IP,
			SubmitterUserAgent: meta.UserAgent,
		}
		if err := e.submissions.Create(ctx, sub); err != nil {
			e.logger.Error("failed to store submission", zap.String("form_id", form.ID.String()), zap.Error(err))
			return nil, apperrors.NewInternalError(err)
		}
		result.ID = sub.ID
	} else {
		ref := form.ID.String()
		loc := &models.Location{
			ID:              uuid.New(),
			CompanyID:       form.CompanyID,
			Type:            models.DefaultLocationType,
			Status:          models.LocationStatusActive,
			AddressContact:  attrs,
			Source:          models.LocationSourceForm,
			SourceReference: &ref,
		}
		if err := e.locations.Create(ctx, loc); err != nil {
			e.logger.Error("failed to store location", zap.String("form_id", form.ID.String()), zap.Error(err))
			return nil, apperrors.NewInternalError(err)
		}
		result.ID = loc.ID
	}

	e.countSubmission(form.ID)

	e.logger.Info("form submission accepted",
		zap.String("form_id", form.ID.String()),
		zap.Bool("requires_approval", form.RequiresApproval),
		zap.String("record_id", result.ID.String()))
	return result, nil
}

// ListSubmissions returns a company's submissions, newest first. An empty
// status lists every status.
func (e *SubmissionEngine) ListSubmissions(ctx context.Context, companyID uuid.UUID, status string) ([]models.LocationSubmission, error) {
	if companyID == uuid.Nil {
		return nil, apperrors.NewUnauthorizedError(apperrors.ReasonNoCompany, "no company associated with account")
	}
	subs, err := e.submissions.ListByCompany(ctx, companyID, status)
	if err != nil {
		e.logger.Error("failed to list submissions", zap.String("company_id", companyID.String()), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if subs == nil {
		subs = []models.LocationSubmission{}
	}
	return subs, nil
}

// countSubmission bumps the form counter without holding up the response
func (e *SubmissionEngine) countSubmission(formID uuid.UUID) {
	e.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		if err := e.forms.IncrementSubmissionCount(ctx, formID); err != nil {
			e.logger.Warn("failed to increment submission count",
				zap.String("form_id", formID.String()), zap.Error(err))
		}
	})
}

// ValidateSubmission lists every missing required value. name is always
// required and reported first; other keys follow in sorted order.
func ValidateSubmission(cfg models.FieldsConfig, body map[string]interface{}) []string {
	var details []string

	nameMissing := isBlank(body["name"])
	if nameMissing {
		details = append(details, "name is required")
	}

	keys := make([]string, 0, len(cfg))
	for key := range cfg {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rule := cfg[key]
		if !rule.Visible || !rule.Required {
			continue
		}
		if key == "name" && nameMissing {
			continue
		}
		if isBlank(body[key]) {
			details = append(details, fmt.Sprintf("%s is required", strings.ReplaceAll(key, "_", " ")))
		}
	}
	return details
}

func isBlank(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}

// addressContactFrom copies the known location keys out of a submission body.
// A metadata object is the base of Metadata; any other key is kept on top of it.
func addressContactFrom(body map[string]interface{}) models.AddressContact {
	attrs := models.AddressContact{
		Name:         stringValue(body["name"]),
		AddressLine1: optionalString(body["address_line1"]),
		AddressLine2: optionalString(body["address_line2"]),
		City:         optionalString(body["city"]),
		State:        optionalString(body["state"]),
		PostalCode:   optionalString(body["postal_code"]),
		Country:      optionalString(body["country"]),
		ContactName:  optionalString(body["contact_name"]),
		ContactEmail: optionalString(body["contact_email"]),
		ContactPhone: optionalString(body["contact_phone"]),
		Notes:        optionalString(body["notes"]),
		Metadata:     models.JSONB{},
	}
	if meta, ok := body["metadata"].(map[string]interface{}); ok {
		for key, val := range meta {
			attrs.Metadata[key] = val
		}
	}
	for key, val := range body {
		if key == "metadata" {
			continue
		}
		if !models.LocationFieldKeys[key] && val != nil {
			attrs.Metadata[key] = val
		}
	}
	return attrs
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func optionalString(v interface{}) *string {
	s := stringValue(v)
	if s == "" {
		return nil
	}
	return &s
}
