package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/models"
	"github.com/aethra/foxops/internal/repository"
	"github.com/aethra/foxops/internal/security"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultCustomFieldOrder places new custom fields after the platform fields
const DefaultCustomFieldOrder = 100

// FieldEngine resolves and mutates a company's field schema
type FieldEngine struct {
	store  FieldStore
	logger *zap.Logger
}

// NewFieldEngine creates a new field engine
func NewFieldEngine(store FieldStore, logger *zap.Logger) *FieldEngine {
	return &FieldEngine{store: store, logger: logger}
}

// =============================================================================
// RESOLUTION
// =============================================================================

// ResolveFields returns the merged, ordered field list of a company.
// The three reads are not taken from one snapshot.
func (e *FieldEngine) ResolveFields(ctx context.Context, companyID uuid.UUID) ([]models.ResolvedField, error) {
	if companyID == uuid.Nil {
		return nil, apperrors.NewUnauthorizedError(apperrors.ReasonNoCompany, "no company associated with account")
	}

	var (
		defs    []models.FieldDefinition
		configs []models.FieldConfig
		customs []models.CustomField
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		defs, err = e.store.ListActiveDefinitions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		if configs, err = e.store.ListConfigs(gctx, companyID); err != nil {
			e.logger.Warn("field configs unavailable, using definitions only",
				zap.String("company_id", companyID.String()), zap.Error(err))
			configs = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if customs, err = e.store.ListCustomFields(gctx, companyID, true); err != nil {
			e.logger.Warn("custom fields unavailable, skipping",
				zap.String("company_id", companyID.String()), zap.Error(err))
			customs = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		e.logger.Error("failed to load field definitions", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	return MergeFields(defs, configs, customs), nil
}

// MergeFields applies company configs to definitions, appends custom fields,
// drops duplicate keys (first wins) and sorts by display order.
func MergeFields(defs []models.FieldDefinition, configs []models.FieldConfig, customs []models.CustomField) []models.ResolvedField {
	byDef := make(map[uuid.UUID]*models.FieldConfig, len(configs))
	for i := range configs {
		byDef[configs[i].FieldDefinitionID] = &configs[i]
	}

	resolved := make([]models.ResolvedField, 0, len(defs)+len(customs))
	seen := make(map[string]bool, len(defs)+len(customs))

	for _, def := range defs {
		if seen[def.FieldKey] {
			continue
		}
		seen[def.FieldKey] = true

		defID := def.ID
		field := models.ResolvedField{
			ID:                   def.ID,
			FieldDefinitionID:    &defID,
			Key:                  def.FieldKey,
			Label:                def.Label,
			Type:                 def.FieldType,
			Category:             def.Category,
			DisplayOrder:         def.DisplayOrder,
			IsRequired:           def.IsPlatformRequired,
			IsVisible:            true,
			IsSystemField:        def.IsSystemField,
			IsPlatformRequired:   def.IsPlatformRequired,
			IsClientConfigurable: def.IsClientConfigurable,
			Options:              orEmpty(def.Options),
			ValidationRules:      orEmpty(def.ValidationRules),
			Placeholder:          def.Placeholder,
			HelpText:             def.HelpText,
			DefaultValue:         def.DefaultValue,
		}

		if cfg, ok := byDef[def.ID]; ok {
			field.Label = override(cfg.CustomLabel, field.Label)
			field.Placeholder = override(cfg.CustomPlaceholder, field.Placeholder)
			field.HelpText = override(cfg.CustomHelpText, field.HelpText)
			if cfg.DisplayOrder != nil {
				field.DisplayOrder = *cfg.DisplayOrder
			}
			field.IsRequired = def.IsPlatformRequired || cfg.IsRequired
			field.IsVisible = def.IsPlatformRequired || cfg.IsVisible
		}

		resolved = append(resolved, field)
	}

	for _, cf := range customs {
		if seen[cf.FieldKey] {
			continue
		}
		seen[cf.FieldKey] = true

		resolved = append(resolved, models.ResolvedField{
			ID:                   cf.ID,
			Key:                  cf.FieldKey,
			Label:                cf.Label,
			Type:                 cf.FieldType,
			Category:             models.CustomFieldCategory,
			DisplayOrder:         cf.DisplayOrder,
			IsRequired:           cf.IsRequired,
			IsVisible:            cf.IsVisible,
			IsClientConfigurable: true,
			IsCustomField:        true,
			Options:              orEmpty(cf.Options),
			ValidationRules:      orEmpty(cf.ValidationRules),
			Placeholder:          cf.Placeholder,
			HelpText:             cf.HelpText,
			DefaultValue:         cf.DefaultValue,
		})
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		a, b := resolved[i], resolved[j]
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		if a.IsCustomField != b.IsCustomField {
			return !a.IsCustomField
		}
		return a.Key < b.Key
	})
	return resolved
}

func override(custom *string, fallback string) string {
	if custom != nil && strings.TrimSpace(*custom) != "" {
		return *custom
	}
	return fallback
}

func orEmpty(j models.JSONB) models.JSONB {
	if j == nil {
		return models.JSONB{}
	}
	return j
}

// ListFieldDefinitions returns the active platform definitions
func (e *FieldEngine) ListFieldDefinitions(ctx context.Context) ([]models.FieldDefinition, error) {
	defs, err := e.store.ListActiveDefinitions(ctx)
	if err != nil {
		e.logger.Error("failed to list field definitions", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return defs, nil
}

// =============================================================================
// FIELD CONFIG
// =============================================================================

// FieldConfigInput is a company's override of one definition
type FieldConfigInput struct {
	FieldDefinitionID uuid.UUID `json:"field_definition_id" validate:"required"`
	IsRequired        bool      `json:"is_required"`
	IsVisible         *bool     `json:"is_visible"`
	CustomLabel       *string   `json:"custom_label" validate:"omitempty,max=255"`
	CustomPlaceholder *string   `json:"custom_placeholder"`
	CustomHelpText    *string   `json:"custom_help_text"`
	DisplayOrder      *int      `json:"display_order" validate:"omitempty,min=0"`
}

// UpsertFieldConfig creates or replaces the company's config for one definition
func (e *FieldEngine) UpsertFieldConfig(ctx context.Context, companyID uuid.UUID, in FieldConfigInput) (*models.FieldConfig, error) {
	if companyID == uuid.Nil {
		return nil, apperrors.NewUnauthorizedError(apperrors.ReasonNoCompany, "no company associated with account")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	def, err := e.store.GetActiveDefinition(ctx, in.FieldDefinitionID)
	if err != nil {
		e.logger.Error("failed to load field definition", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if def == nil {
		return nil, apperrors.NewNotFoundError("field definition")
	}

	visible := true
	if in.IsVisible != nil {
		visible = *in.IsVisible
	}

	cfg := &models.FieldConfig{
		ID:                uuid.New(),
		CompanyID:         companyID,
		FieldDefinitionID: def.ID,
		IsRequired:        in.IsRequired,
		IsVisible:         visible,
		CustomLabel:       in.CustomLabel,
		CustomPlaceholder: in.CustomPlaceholder,
		CustomHelpText:    in.CustomHelpText,
		DisplayOrder:      in.DisplayOrder,
		UpdatedAt:         time.Now(),
	}
	if err := e.store.UpsertConfig(ctx, cfg); err != nil {
		e.logger.Error("failed to upsert field config", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return cfg, nil
}

// =============================================================================
// CUSTOM FIELDS
// =============================================================================

// CustomFieldInput creates a custom field. Either FieldKey or Label is enough.
type CustomFieldInput struct {
	FieldKey        string           `json:"field_key" validate:"max=100"`
	Label           string           `json:"label" validate:"max=255"`
	FieldType       models.FieldType `json:"field_type"`
	DisplayOrder    *int             `json:"display_order" validate:"omitempty,min=0"`
	IsRequired      bool             `json:"is_required"`
	IsVisible       *bool            `json:"is_visible"`
	Options         models.JSONB     `json:"options"`
	ValidationRules models.JSONB     `json:"validation_rules"`
	Placeholder     string           `json:"placeholder"`
	HelpText        string           `json:"help_text"`
	DefaultValue    *string          `json:"default_value"`
}

// CustomFieldUpdate is a partial update; nil members are left unchanged
type CustomFieldUpdate struct {
	Label           *string           `json:"label" validate:"omitempty,max=255"`
	FieldType       *models.FieldType `json:"field_type"`
	DisplayOrder    *int              `json:"display_order" validate:"omitempty,min=0"`
	IsRequired      *bool             `json:"is_required"`
	IsVisible       *bool             `json:"is_visible"`
	IsActive        *bool             `json:"is_active"`
	Options         models.JSONB      `json:"options"`
	ValidationRules models.JSONB      `json:"validation_rules"`
	Placeholder     *string           `json:"placeholder"`
	HelpText        *string           `json:"help_text"`
	DefaultValue    *string           `json:"default_value"`
}

// CustomFieldKey derives the stored key from a requested key or label:
// "custom_" plus the slug, cut to the column width.
func CustomFieldKey(source string) string {
	slug := security.Slugify(source, "_")
	if slug == "" {
		return ""
	}
	key := models.CustomFieldKeyPrefix + slug
	if len(key) > models.MaxFieldKeyLength {
		key = strings.TrimRight(key[:models.MaxFieldKeyLength], "_")
	}
	return key
}

// CreateCustomField adds a company-private field
func (e *FieldEngine) CreateCustomField(ctx context.Context, companyID uuid.UUID, in CustomFieldInput) (*models.CustomField, error) {
	if companyID == uuid.Nil {
		return nil, apperrors.NewUnauthorizedError(apperrors.ReasonNoCompany, "no company associated with account")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = strings.TrimSpace(in.FieldKey)
	}
	if label == "" {
		return nil, apperrors.NewValidationError("label is required")
	}

	source := in.FieldKey
	if strings.TrimSpace(source) == "" {
		source = label
	}
	key := CustomFieldKey(source)
	if err := security.ValidateFieldKey(key, models.MaxFieldKeyLength); err != nil {
		return nil, apperrors.NewValidationError("invalid field key", err.Error())
	}

	fieldType := in.FieldType
	if fieldType == "" {
		fieldType = models.FieldTypeText
	}
	if err := checkFieldType(fieldType, in.Options); err != nil {
		return nil, err
	}

	exists, err := e.store.CustomFieldKeyExists(ctx, companyID, key)
	if err != nil {
		e.logger.Error("failed to check custom field key", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if exists {
		return nil, apperrors.NewConflictError("custom field")
	}

	order := DefaultCustomFieldOrder
	if in.DisplayOrder != nil {
		order = *in.DisplayOrder
	}
	visible := true
	if in.IsVisible != nil {
		visible = *in.IsVisible
	}

	field := &models.CustomField{
		ID:              uuid.New(),
		CompanyID:       companyID,
		FieldKey:        key,
		Label:           label,
		FieldType:       fieldType,
		Category:        models.CustomFieldCategory,
		DisplayOrder:    order,
		IsRequired:      in.IsRequired,
		IsVisible:       visible,
		Options:         orEmpty(in.Options),
		ValidationRules: orEmpty(in.ValidationRules),
		Placeholder:     in.Placeholder,
		HelpText:        in.HelpText,
		DefaultValue:    in.DefaultValue,
		IsActive:        true,
	}
	if err := e.store.CreateCustomField(ctx, field); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflictError("custom field")
		}
		e.logger.Error("failed to create custom field", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	e.logger.Info("custom field created",
		zap.String("company_id", companyID.String()), zap.String("field_key", key))
	return field, nil
}

// UpdateCustomField applies a partial update to one of the company's custom fields.
// The key is immutable.
func (e *FieldEngine) UpdateCustomField(ctx context.Context, id, companyID uuid.UUID, in CustomFieldUpdate) (*models.CustomField, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Label != nil {
		label := strings.TrimSpace(*in.Label)
		if label == "" {
			return nil, apperrors.NewValidationError("label cannot be empty")
		}
		updates["label"] = label
	}
	if in.FieldType != nil {
		if err := checkFieldType(*in.FieldType, in.Options); err != nil {
			return nil, err
		}
		updates["field_type"] = *in.FieldType
	}
	if in.DisplayOrder != nil {
		updates["display_order"] = *in.DisplayOrder
	}
	if in.IsRequired != nil {
		updates["is_required"] = *in.IsRequired
	}
	if in.IsVisible != nil {
		updates["is_visible"] = *in.IsVisible
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.Options != nil {
		updates["options"] = in.Options
	}
	if in.ValidationRules != nil {
		updates["validation_rules"] = in.ValidationRules
	}
	if in.Placeholder != nil {
		updates["placeholder"] = *in.Placeholder
	}
	if in.HelpText != nil {
		updates["help_text"] = *in.HelpText
	}
	if in.DefaultValue != nil {
		updates["default_value"] = *in.DefaultValue
	}
	if len(updates) == 0 {
		return nil, apperrors.NewValidationError("no fields to update")
	}
	updates["updated_at"] = time.Now()

	field, err := e.store.UpdateCustomField(ctx, id, companyID, updates)
	if err != nil {
		e.logger.Error("failed to update custom field", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if field == nil {
		return nil, apperrors.NewNotFoundError("custom field")
	}
	return field, nil
}

// DeleteCustomField removes one of the company's custom fields.
// Returns false when the id is unknown or belongs to another company.
func (e *FieldEngine) DeleteCustomField(ctx context.Context, id, companyID uuid.UUID) (bool, error) {
	deleted, err := e.store.DeleteCustomField(ctx, id, companyID)
	if err != nil {
		e.logger.Error("failed to delete custom field", zap.Error(err))
		return false, apperrors.NewInternalError(err)
	}
	return deleted, nil
}

func checkFieldType(t models.FieldType, options models.JSONB) error {
	if !t.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid field type %q", t))
	}
	if !t.HasChoices() {
		return nil
	}
	choices, _ := options["choices"].([]interface{})
	if len(choices) == 0 {
		return apperrors.NewValidationError(fmt.Sprintf("%s fields need at least one option in options.choices", t))
	}
	return nil
}
