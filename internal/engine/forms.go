package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/models"
	"github.com/aethra/foxops/internal/repository"
	"github.com/aethra/foxops/internal/security"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const slugAttempts = 3

// FormEngine manages a company's location forms
type FormEngine struct {
	store  FormStore
	logger *zap.Logger
}

// NewFormEngine creates a new form engine
func NewFormEngine(store FormStore, logger *zap.Logger) *FormEngine {
	return &FormEngine{store: store, logger: logger}
}

// FormInput creates a location form
type FormInput struct {
	Name               string              `json:"name" validate:"required,max=255"`
	Description        string              `json:"description"`
	LogoURL            string              `json:"logo_url" validate:"omitempty,url"`
	PrimaryColor       string              `json:"primary_color" validate:"omitempty,hexcolor"`
	WelcomeMessage     string              `json:"welcome_message"`
	SuccessMessage     string              `json:"success_message"`
	FieldsConfig       models.FieldsConfig `json:"fields_config"`
	RequiresApproval   *bool               `json:"requires_approval"`
	Status             string              `json:"status" validate:"omitempty,oneof=draft active archived"`
	NotifyEmails       []string            `json:"notify_emails" validate:"omitempty,dive,email"`
	NotifyOnSubmission bool                `json:"notify_on_submission"`
}

// ValidateFieldsConfig checks every key is a location field or a custom field key
func ValidateFieldsConfig(cfg models.FieldsConfig) []string {
	keys := make([]string, 0, len(cfg))
	for key := range cfg {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var details []string
	for _, key := range keys {
		switch {
		case models.LocationFieldKeys[key]:
		case strings.HasPrefix(key, models.CustomFieldKeyPrefix) && security.ValidateFieldKey(key, models.MaxFieldKeyLength) == nil:
		default:
			details = append(details, fmt.Sprintf("fields_config: unknown field %q", key))
			continue
		}
		if rule := cfg[key]; rule.Required && !rule.Visible {
			details = append(details, fmt.Sprintf("fields_config: %s is required but hidden", key))
		}
	}
	return details
}

// CreateForm stores a new form under a generated public slug
func (e *FormEngine) CreateForm(ctx context.Context, companyID uuid.UUID, in FormInput) (*models.LocationForm, error) {
	if companyID == uuid.Nil {
		return nil, apperrors.NewUnauthorizedError(apperrors.ReasonNoCompany, "no company associated with account")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if details := ValidateFieldsConfig(in.FieldsConfig); len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	requiresApproval := true
	if in.RequiresApproval != nil {
		requiresApproval = *in.RequiresApproval
	}
	status := in.Status
	if status == "" {
		status = models.FormStatusActive
	}
	cfg := in.FieldsConfig
	if cfg == nil {
		cfg = models.FieldsConfig{}
	}

	form := &models.LocationForm{
		CompanyID:          companyID,
		Name:               strings.TrimSpace(in.Name),
		Description:        in.Description,
		LogoURL:            in.LogoURL,
		PrimaryColor:       in.PrimaryColor,
		WelcomeMessage:     in.WelcomeMessage,
		SuccessMessage:     in.SuccessMessage,
		FieldsConfig:       cfg,
		RequiresApproval:   requiresApproval,
		Status:             status,
		NotifyEmails:       in.NotifyEmails,
		NotifyOnSubmission: in.NotifyOnSubmission,
	}

	for attempt := 0; attempt < slugAttempts; attempt++ {
		form.ID = uuid.New()
		form.Slug = FormSlug(form.Name)

		err := e.store.Create(ctx, form)
		if err == nil {
			e.logger.Info("location form created",
				zap.String("company_id", companyID.String()), zap.String("slug", form.Slug))
			return form, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			e.logger.Error("failed to create form", zap.Error(err))
			return nil, apperrors.NewInternalError(err)
		}
	}
	return nil, apperrors.NewConflictError("form")
}

// FormSlug builds a public slug: the slugified name plus six random hex characters
func FormSlug(name string) string {
	base := security.Slugify(name, "-")
	if base == "" {
		base = "form"
	}
	if len(base) > 100 {
		base = strings.Trim(base[:100], "-")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return base + "-" + suffix
}

// ListForms returns the company's forms
func (e *FormEngine) ListForms(ctx context.Context, companyID uuid.UUID) ([]models.LocationForm, error) {
	forms, err := e.store.ListByCompany(ctx, companyID)
	if err != nil {
		e.logger.Error("failed to list forms", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return forms, nil
}

// UpdateFormStatus moves a form between draft, active and archived
func (e *FormEngine) UpdateFormStatus(ctx context.Context, id, companyID uuid.UUID, status string) (*models.LocationForm, error) {
	switch status {
	case models.FormStatusDraft, models.FormStatusActive, models.FormStatusArchived:
	default:
		return nil, apperrors.NewValidationError("validation failed", "status must be one of: draft, active, archived")
	}

	form, err := e.store.UpdateStatus(ctx, id, companyID, status)
	if err != nil {
		e.logger.Error("failed to update form status", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if form == nil {
		return nil, apperrors.NewNotFoundError("form")
	}
	return form, nil
}
