package api

import (
	"errors"
	"net/http"

	"github.com/aethra/foxops/internal/engine"
	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/metrics"
	"github.com/aethra/foxops/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultSuccessMessage = "Thank you! Your location has been submitted."

// PublicForm is what an unauthenticated visitor sees of a form
type PublicForm struct {
	ID             uuid.UUID           `json:"id"`
	Slug           string              `json:"slug"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	LogoURL        string              `json:"logo_url"`
	PrimaryColor   string              `json:"primary_color"`
	WelcomeMessage string              `json:"welcome_message"`
	SuccessMessage string              `json:"success_message"`
	FieldsConfig   models.FieldsConfig `json:"fields_config"`
	Status         string              `json:"status"`
}

func newPublicForm(f *models.LocationForm) PublicForm {
	cfg := f.FieldsConfig
	if cfg == nil {
		cfg = models.FieldsConfig{}
	}
	return PublicForm{
		ID:             f.ID,
		Slug:           f.Slug,
		Name:           f.Name,
		Description:    f.Description,
		LogoURL:        f.LogoURL,
		PrimaryColor:   f.PrimaryColor,
		WelcomeMessage: f.WelcomeMessage,
		SuccessMessage: f.SuccessMessage,
		FieldsConfig:   cfg,
		Status:         f.Status,
	}
}

// =============================================================================
// PUBLIC FORMS
// =============================================================================

// GetPublicForm returns an active form by slug
// GET /api/forms/:slug
func (h *Handler) GetPublicForm(c *gin.Context) {
	form, err := h.submissions.GetPublicForm(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPublicForm(form))
}

// SubmitForm accepts a public location submission
// POST /api/forms/:slug/submit
func (h *Handler) SubmitForm(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		metrics.FormSubmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		badRequest(c, "invalid request body")
		return
	}

	meta := engine.RequestMeta{IP: ClientIP(c.Request), UserAgent: c.Request.UserAgent()}
	res, err := h.submissions.Submit(c.Request.Context(), c.Param("slug"), body, meta)
	if err != nil {
		var ve *apperrors.ValidationError
		if errors.As(err, &ve) {
			metrics.FormSubmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		} else if !apperrors.IsNotFound(err) {
			metrics.FormSubmissionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		respondError(c, err)
		return
	}

	message := res.SuccessMessage
	if message == "" {
		message = defaultSuccessMessage
	}
	resp := gin.H{
		"success":           true,
		"message":           message,
		"requires_approval": res.RequiresApproval,
	}
	if res.RequiresApproval {
		resp["submission_id"] = res.ID
		metrics.FormSubmissionsTotal.WithLabelValues(metrics.OutcomeSubmission).Inc()
	} else {
		resp["location_id"] = res.ID
		metrics.FormSubmissionsTotal.WithLabelValues(metrics.OutcomeLocation).Inc()
	}
	c.JSON(http.StatusCreated, resp)
}

// =============================================================================
// FORM ADMINISTRATION
// =============================================================================

// ListForms returns the company's forms
// GET /api/location-forms
func (h *Handler) ListForms(c *gin.Context) {
	forms, err := h.forms.ListForms(c.Request.Context(), sessionClaims(c).CompanyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms, "total": len(forms)})
}

// CreateForm creates a location form
// POST /api/location-forms
func (h *Handler) CreateForm(c *gin.Context) {
	var in engine.FormInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	form, err := h.forms.CreateForm(c.Request.Context(), sessionClaims(c).CompanyID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, form)
}

// UpdateFormStatusRequest changes a form's status
type UpdateFormStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateFormStatus publishes, drafts or archives a form
// PATCH /api/location-forms/:id/status
func (h *Handler) UpdateFormStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateFormStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("validation failed", "status is required"))
		return
	}

	form, err := h.forms.UpdateFormStatus(c.Request.Context(), id, sessionClaims(c).CompanyID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// ListSubmissions returns the company's public submissions
// GET /api/location-submissions?status=pending
func (h *Handler) ListSubmissions(c *gin.Context) {
	subs, err := h.submissions.ListSubmissions(c.Request.Context(), sessionClaims(c).CompanyID, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs, "total": len(subs)})
}
