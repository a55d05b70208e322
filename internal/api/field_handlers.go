package api

import (
	"net/http"

	"github.com/aethra/foxops/internal/engine"
	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/gin-gonic/gin"
)

// =============================================================================
// FIELDS
// =============================================================================

// ListFields returns the company's resolved field schema
// GET /api/fields
func (h *Handler) ListFields(c *gin.Context) {
	claims := sessionClaims(c)
	fields, err := h.fields.ResolveFields(c.Request.Context(), claims.CompanyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields, "total": len(fields)})
}

// ListFieldDefinitions returns the active platform definitions
// GET /api/fields/definitions
func (h *Handler) ListFieldDefinitions(c *gin.Context) {
	defs, err := h.fields.ListFieldDefinitions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"definitions": defs})
}

// UpsertFieldConfig sets the company's override for a definition
// PUT /api/fields/config
func (h *Handler) UpsertFieldConfig(c *gin.Context) {
	var in engine.FieldConfigInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	cfg, err := h.fields.UpsertFieldConfig(c.Request.Context(), sessionClaims(c).CompanyID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// CreateCustomField adds a company-private field
// POST /api/fields/custom
func (h *Handler) CreateCustomField(c *gin.Context) {
	var in engine.CustomFieldInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	field, err := h.fields.CreateCustomField(c.Request.Context(), sessionClaims(c).CompanyID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, field)
}

// UpdateCustomField applies a partial update
// PUT /api/fields/custom/:id
func (h *Handler) UpdateCustomField(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var in engine.CustomFieldUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	field, err := h.fields.UpdateCustomField(c.Request.Context(), id, sessionClaims(c).CompanyID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, field)
}

// DeleteCustomField removes a custom field
// DELETE /api/fields/custom/:id
func (h *Handler) DeleteCustomField(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.fields.DeleteCustomField(c.Request.Context(), id, sessionClaims(c).CompanyID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !deleted {
		respondError(c, apperrors.NewNotFoundError("custom field"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
