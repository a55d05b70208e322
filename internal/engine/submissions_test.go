package engine

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type submissionFixture struct {
	engine      *SubmissionEngine
	form        *models.LocationForm
	forms       *fakeFormStore
	submissions *fakeSubmissionStore
	locations   *fakeLocationStore
}

func newSubmissionFixture(requiresApproval bool) *submissionFixture {
	form := &models.LocationForm{
		ID:        uuid.New(),
		CompanyID: uuid.New(),
		Slug:      "acme-sites-1a2b3c",
		Name:      "Acme sites",
		FieldsConfig: models.FieldsConfig{
			"city":  {Visible: true, Required: true},
			"state": {Visible: true, Required: false},
		},
		RequiresApproval: requiresApproval,
		Status:           models.FormStatusActive,
		SuccessMessage:   "Thanks!",
	}
	f := &submissionFixture{
		form:        form,
		forms:       newFakeFormStore(form),
		submissions: &fakeSubmissionStore{},
		locations:   &fakeLocationStore{},
	}
	f.engine = NewSubmissionEngine(f.forms, f.submissions, f.locations, zap.NewNop(), time.Second)
	f.engine.async = func(fn func()) { fn() }
	return f
}

func TestSubmitReportsEveryMissingField(t *testing.T) {
	f := newSubmissionFixture(true)

	_, err := f.engine.Submit(context.Background(), f.form.Slug, map[string]interface{}{
		"name":  "   ",
		"state": "CA",
	}, RequestMeta{IP: "1.2.3.4"})

	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"name is required", "city is required"}, ve.Details)
	assert.Empty(t, f.submissions.rows)
	assert.Empty(t, f.locations.rows)
	assert.Zero(t, f.forms.increments)
}

func TestSubmitWithApprovalCreatesPendingSubmission(t *testing.T) {
	f := newSubmissionFixture(true)

	res, err := f.engine.Submit(context.Background(), f.form.Slug, map[string]interface{}{
		"name":             "North depot",
		"city":             "Fresno",
		"custom_gate_code": "4411",
		"metadata":         map[string]interface{}{"access": "rear door", "custom_gate_code": "0000"},
	}, RequestMeta{IP: "1.2.3.4", UserAgent: "curl/8"})
	require.NoError(t, err)

	require.Len(t, f.submissions.rows, 1)
	assert.Empty(t, f.locations.rows)

	sub := f.submissions.rows[0]
	assert.Equal(t, res.ID, sub.ID)
	assert.True(t, res.RequiresApproval)
	assert.Equal(t, "Thanks!", res.SuccessMessage)
	assert.Equal(t, models.SubmissionStatusPending, sub.Status)
	assert.Equal(t, f.form.ID, sub.FormID)
	assert.Equal(t, f.form.CompanyID, sub.CompanyID)
	assert.Equal(t, "North depot", sub.Name)
	assert.Equal(t, "Fresno", *sub.City)
	assert.Nil(t, sub.State)
	assert.Equal(t, "4411", sub.Metadata["custom_gate_code"])
	assert.Equal(t, "rear door", sub.Metadata["access"])
	assert.NotContains(t, sub.Metadata, "metadata")
	assert.Equal(t, "1.2.3.4", sub.SubmitterIP)
	assert.Equal(t, 1, f.forms.increments)
}

func TestSubmitWithoutApprovalCreatesLocation(t *testing.T) {
	f := newSubmissionFixture(false)

	res, err := f.engine.Submit(context.Background(), f.form.Slug, map[string]interface{}{
		"name": "North depot",
		"city": "Fresno",
	}, RequestMeta{})
	require.NoError(t, err)

	assert.Empty(t, f.submissions.rows)
	require.Len(t, f.locations.rows, 1)

	loc := f.locations.rows[0]
	assert.Equal(t, res.ID, loc.ID)
	assert.False(t, res.RequiresApproval)
	assert.Equal(t, models.LocationSourceForm, loc.Source)
	require.NotNil(t, loc.SourceReference)
	assert.Equal(t, f.form.ID.String(), *loc.SourceReference)
	assert.Equal(t, models.LocationStatusActive, loc.Status)
	assert.Equal(t, models.DefaultLocationType, loc.Type)
	assert.Equal(t, f.form.CompanyID, loc.CompanyID)
}

func TestSubmitUnknownOrInactiveForm(t *testing.T) {
	f := newSubmissionFixture(true)
	f.form.Status = models.FormStatusArchived

	_, err := f.engine.Submit(context.Background(), f.form.Slug, map[string]interface{}{"name": "x", "city": "y"}, RequestMeta{})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.engine.Submit(context.Background(), "nope", map[string]interface{}{"name": "x"}, RequestMeta{})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSubmitStoreFailureIsInternal(t *testing.T) {
	f := newSubmissionFixture(true)
	f.submissions.err = errStoreDown

	_, err := f.engine.Submit(context.Background(), f.form.Slug, map[string]interface{}{"name": "x", "city": "y"}, RequestMeta{})
	var ie *apperrors.InternalError
	assert.ErrorAs(t, err, &ie)
	assert.Zero(t, f.forms.increments)
}

func TestValidateSubmission(t *testing.T) {
	cfg := models.FieldsConfig{
		"name":          {Visible: true, Required: true},
		"postal_code":   {Visible: true, Required: true},
		"contact_email": {Visible: false, Required: true},
		"city":          {Visible: true, Required: true},
	}

	details := ValidateSubmission(cfg, map[string]interface{}{"city": nil})
	assert.Equal(t, []string{"name is required", "city is required", "postal code is required"}, details)

	details = ValidateSubmission(cfg, map[string]interface{}{"name": "Depot", "city": "Fresno", "postal_code": 93650})
	assert.Empty(t, details)

	details = ValidateSubmission(nil, map[string]interface{}{"name": "Depot"})
	assert.Empty(t, details)
}

func TestListSubmissionsIsScopedToCompany(t *testing.T) {
	f := newSubmissionFixture(true)
	_, err := f.engine.Submit(context.Background(), f.form.Slug, map[string]interface{}{"name": "a", "city": "b"}, RequestMeta{})
	require.NoError(t, err)

	subs, err := f.engine.ListSubmissions(context.Background(), f.form.CompanyID, models.SubmissionStatusPending)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	subs, err = f.engine.ListSubmissions(context.Background(), uuid.New(), "")
	require.NoError(t, err)
	assert.NotNil(t, subs)
	assert.Empty(t, subs)
}
