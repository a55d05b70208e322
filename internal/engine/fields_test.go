package engine

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/models"
	"github.com/aethra/foxops/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func definition(key string, order int, platformRequired bool) models.FieldDefinition {
	return models.FieldDefinition{
		ID:                   uuid.New(),
		FieldKey:             key,
		Label:                key,
		FieldType:            models.FieldTypeText,
		Category:             "location",
		DisplayOrder:         order,
		IsSystemField:        true,
		IsPlatformRequired:   platformRequired,
		IsClientConfigurable: !platformRequired,
		IsActive:             true,
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestResolveFieldsRequiresCompany(t *testing.T) {
	e := NewFieldEngine(newFakeFieldStore(), zap.NewNop())

	_, err := e.ResolveFields(context.Background(), uuid.Nil)
	var ue *apperrors.UnauthorizedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, apperrors.ReasonNoCompany, ue.Reason)
}

func TestResolveFieldsSortedWithoutDuplicates(t *testing.T) {
	company := uuid.New()
	name := definition("location_name", 10, true)
	city := definition("city", 30, false)
	notes := definition("notes", 20, false)
	store := newFakeFieldStore(city, name, notes)
	e := NewFieldEngine(store, zap.NewNop())
	ctx := context.Background()

	_, err := e.UpsertFieldConfig(ctx, company, FieldConfigInput{FieldDefinitionID: city.ID, DisplayOrder: intPtr(5)})
	require.NoError(t, err)
	_, err = e.CreateCustomField(ctx, company, CustomFieldInput{Label: "Gate Code", DisplayOrder: intPtr(20)})
	require.NoError(t, err)
	// Same key as a platform field; platform wins
	store.customs[uuid.New()] = models.CustomField{ID: uuid.New(), CompanyID: company, FieldKey: "notes", Label: "dup", DisplayOrder: 1, IsActive: true}

	fields, err := e.ResolveFields(ctx, company)
	require.NoError(t, err)

	var keys []string
	seen := map[string]bool{}
	for i, f := range fields {
		assert.False(t, seen[f.Key], "duplicate key %s", f.Key)
		seen[f.Key] = true
		keys = append(keys, f.Key)
		if i > 0 {
			assert.LessOrEqual(t, fields[i-1].DisplayOrder, f.DisplayOrder)
		}
	}
	assert.Equal(t, []string{"city", "location_name", "notes", "custom_gate_code"}, keys)
	assert.False(t, fields[2].IsCustomField)
	assert.True(t, fields[3].IsCustomField)
}

func TestPlatformRequiredCannotBeRelaxed(t *testing.T) {
	company := uuid.New()
	addr := definition("address", 20, true)
	e := NewFieldEngine(newFakeFieldStore(addr), zap.NewNop())
	ctx := context.Background()

	_, err := e.UpsertFieldConfig(ctx, company, FieldConfigInput{
		FieldDefinitionID: addr.ID,
		IsRequired:        false,
		IsVisible:         boolPtr(false),
		CustomLabel:       strPtr("Street"),
	})
	require.NoError(t, err)

	fields, err := e.ResolveFields(ctx, company)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.True(t, fields[0].IsRequired)
	assert.True(t, fields[0].IsVisible)
	assert.Equal(t, "Street", fields[0].Label)
}

func TestMergeFieldsAppliesConfig(t *testing.T) {
	city := definition("city", 30, false)
	city.Placeholder = "City"
	cfg := models.FieldConfig{
		FieldDefinitionID: city.ID,
		IsRequired:        true,
		IsVisible:         false,
		CustomLabel:       strPtr("  "),
		CustomPlaceholder: strPtr("Town"),
	}

	fields := MergeFields([]models.FieldDefinition{city}, []models.FieldConfig{cfg}, nil)
	require.Len(t, fields, 1)
	assert.Equal(t, "city", fields[0].Label)
	assert.Equal(t, "Town", fields[0].Placeholder)
	assert.True(t, fields[0].IsRequired)
	assert.False(t, fields[0].IsVisible)
	assert.Equal(t, 30, fields[0].DisplayOrder)
	assert.NotNil(t, fields[0].Options)
}

func TestMergeFieldsTieBreak(t *testing.T) {
	b := definition("b_field", 10, false)
	a := definition("a_field", 10, false)
	custom := models.CustomField{ID: uuid.New(), FieldKey: "custom_aa", DisplayOrder: 10, IsVisible: true}

	fields := MergeFields([]models.FieldDefinition{b, a}, nil, []models.CustomField{custom})
	require.Len(t, fields, 3)
	assert.Equal(t, "a_field", fields[0].Key)
	assert.Equal(t, "b_field", fields[1].Key)
	assert.Equal(t, "custom_aa", fields[2].Key)
}

func TestResolveFieldsDegradesWithoutConfigs(t *testing.T) {
	company := uuid.New()
	store := newFakeFieldStore(definition("city", 30, false))
	store.configsErr = errStoreDown
	store.customsErr = errStoreDown
	e := NewFieldEngine(store, zap.NewNop())

	fields, err := e.ResolveFields(context.Background(), company)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.False(t, fields[0].IsRequired)
}

func TestResolveFieldsFailsWithoutDefinitions(t *testing.T) {
	store := newFakeFieldStore()
	store.defsErr = errStoreDown
	e := NewFieldEngine(store, zap.NewNop())

	_, err := e.ResolveFields(context.Background(), uuid.New())
	var ie *apperrors.InternalError
	assert.ErrorAs(t, err, &ie)
}

func TestUpsertFieldConfigIdempotent(t *testing.T) {
	company := uuid.New()
	city := definition("city", 30, false)
	store := newFakeFieldStore(city)
	e := NewFieldEngine(store, zap.NewNop())
	ctx := context.Background()
	in := FieldConfigInput{FieldDefinitionID: city.ID, IsRequired: true}

	first, err := e.UpsertFieldConfig(ctx, company, in)
	require.NoError(t, err)
	second, err := e.UpsertFieldConfig(ctx, company, in)
	require.NoError(t, err)

	assert.Len(t, store.configs, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsVisible)
}

func TestUpsertFieldConfigUnknownDefinition(t *testing.T) {
	retired := definition("fax", 90, false)
	retired.IsActive = false
	e := NewFieldEngine(newFakeFieldStore(retired), zap.NewNop())

	_, err := e.UpsertFieldConfig(context.Background(), uuid.New(), FieldConfigInput{FieldDefinitionID: retired.ID})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = e.UpsertFieldConfig(context.Background(), uuid.New(), FieldConfigInput{})
	var ve *apperrors.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestCreateCustomFieldSlugifiesKey(t *testing.T) {
	company := uuid.New()
	e := NewFieldEngine(newFakeFieldStore(), zap.NewNop())

	field, err := e.CreateCustomField(context.Background(), company, CustomFieldInput{FieldKey: "Site Manager!"})
	require.NoError(t, err)
	assert.Equal(t, "custom_site_manager", field.FieldKey)
	assert.Equal(t, "Site Manager!", field.Label)
	assert.Equal(t, models.FieldTypeText, field.FieldType)
	assert.Equal(t, DefaultCustomFieldOrder, field.DisplayOrder)
	assert.Equal(t, models.CustomFieldCategory, field.Category)
	assert.False(t, field.IsRequired)
	assert.True(t, field.IsVisible)
	assert.Equal(t, models.JSONB{}, field.Options)
}

func TestCustomFieldKey(t *testing.T) {
	assert.Equal(t, "custom_site_manager", CustomFieldKey("  Site   Manager!! "))
	assert.Equal(t, "custom_custom_color", CustomFieldKey("Custom Color"))
	assert.Equal(t, "", CustomFieldKey("!!!"))

	long := CustomFieldKey(strings.Repeat("abcd ", 30))
	assert.LessOrEqual(t, len(long), models.MaxFieldKeyLength)
	assert.False(t, strings.HasSuffix(long, "_"))
}

func TestCreateCustomFieldLongLabel(t *testing.T) {
	e := NewFieldEngine(newFakeFieldStore(), zap.NewNop())
	ctx := context.Background()
	company := uuid.New()

	label := "Primary On Site Facilities Manager Emergency Contact Phone Number"
	field, err := e.CreateCustomField(ctx, company, CustomFieldInput{Label: label})
	require.NoError(t, err)
	assert.Equal(t, "custom_primary_on_site_facilities_manager_emergency_contact_phone_number", field.FieldKey)
	assert.Equal(t, label, field.Label)

	field, err = e.CreateCustomField(ctx, company, CustomFieldInput{Label: strings.Repeat("Loading dock ", 12)})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(field.FieldKey), models.MaxFieldKeyLength)

	// Keys are row values, so SQL keywords are fine
	field, err = e.CreateCustomField(ctx, company, CustomFieldInput{Label: "Select"})
	require.NoError(t, err)
	assert.Equal(t, "custom_select", field.FieldKey)
}

func TestCreateCustomFieldValidation(t *testing.T) {
	e := NewFieldEngine(newFakeFieldStore(), zap.NewNop())
	ctx := context.Background()
	company := uuid.New()

	tests := []struct {
		name string
		in   CustomFieldInput
	}{
		{"no label or key", CustomFieldInput{}},
		{"punctuation only", CustomFieldInput{Label: "!!!"}},
		{"unknown type", CustomFieldInput{Label: "Size", FieldType: "slider"}},
		{"select without choices", CustomFieldInput{Label: "Size", FieldType: models.FieldTypeSelect}},
		{"select with empty choices", CustomFieldInput{Label: "Size", FieldType: models.FieldTypeRadio, Options: models.JSONB{"choices": []interface{}{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateCustomField(ctx, company, tt.in)
			var ve *apperrors.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}

	_, err := e.CreateCustomField(ctx, company, CustomFieldInput{
		Label:     "Size",
		FieldType: models.FieldTypeSelect,
		Options:   models.JSONB{"choices": []interface{}{"S", "M"}},
	})
	assert.NoError(t, err)
}

func TestCreateCustomFieldDuplicateKey(t *testing.T) {
	company := uuid.New()
	store := newFakeFieldStore()
	e := NewFieldEngine(store, zap.NewNop())
	ctx := context.Background()

	_, err := e.CreateCustomField(ctx, company, CustomFieldInput{Label: "Gate Code"})
	require.NoError(t, err)

	_, err = e.CreateCustomField(ctx, company, CustomFieldInput{Label: "gate-code"})
	var ce *apperrors.ConflictError
	assert.ErrorAs(t, err, &ce)

	// Another company may reuse the key
	_, err = e.CreateCustomField(ctx, uuid.New(), CustomFieldInput{Label: "Gate Code"})
	assert.NoError(t, err)

	// Race lost at the unique index
	store.createErr = repository.ErrDuplicate
	_, err = e.CreateCustomField(ctx, company, CustomFieldInput{Label: "Dock Door"})
	assert.ErrorAs(t, err, &ce)
}

func TestUpdateCustomFieldScopedByCompany(t *testing.T) {
	companyA, companyB := uuid.New(), uuid.New()
	e := NewFieldEngine(newFakeFieldStore(), zap.NewNop())
	ctx := context.Background()

	field, err := e.CreateCustomField(ctx, companyB, CustomFieldInput{Label: "Gate Code"})
	require.NoError(t, err)

	_, err = e.UpdateCustomField(ctx, field.ID, companyA, CustomFieldUpdate{Label: strPtr("Mine")})
	assert.True(t, apperrors.IsNotFound(err))

	updated, err := e.UpdateCustomField(ctx, field.ID, companyB, CustomFieldUpdate{Label: strPtr("Gate PIN"), IsRequired: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "Gate PIN", updated.Label)
	assert.True(t, updated.IsRequired)
	assert.Equal(t, "custom_gate_code", updated.FieldKey)

	_, err = e.UpdateCustomField(ctx, field.ID, companyB, CustomFieldUpdate{})
	var ve *apperrors.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = e.UpdateCustomField(ctx, field.ID, companyB, CustomFieldUpdate{Label: strPtr(" ")})
	assert.ErrorAs(t, err, &ve)
}

func TestDeleteCustomFieldCrossTenant(t *testing.T) {
	companyA, companyB := uuid.New(), uuid.New()
	store := newFakeFieldStore()
	e := NewFieldEngine(store, zap.NewNop())
	ctx := context.Background()

	field, err := e.CreateCustomField(ctx, companyB, CustomFieldInput{Label: "Gate Code"})
	require.NoError(t, err)

	deleted, err := e.DeleteCustomField(ctx, field.ID, companyA)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Len(t, store.customs, 1)

	deleted, err = e.DeleteCustomField(ctx, field.ID, companyB)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, store.customs)
}
