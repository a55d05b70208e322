package api

import (
	"net/http"

	"github.com/aethra/foxops/internal/engine"
	"github.com/aethra/foxops/internal/metrics"
	"github.com/gin-gonic/gin"
)

// =============================================================================
// PUBLIC LOCATIONS API (API key)
// =============================================================================

// CreateLocation ingests a location from an integration
// POST /api/v1/locations
func (h *Handler) CreateLocation(c *gin.Context) {
	key := apiKeyResult(c)

	var in engine.LocationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	loc, err := h.locations.CreateFromAPI(c.Request.Context(), key.CompanyID, key.APIKeyID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.LocationsIngestedTotal.Inc()
	c.JSON(http.StatusCreated, engine.NewLocationView(*loc))
}

// ListLocations pages through the key's company locations
// GET /api/v1/locations
func (h *Handler) ListLocations(c *gin.Context) {
	key := apiKeyResult(c)

	var params engine.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	page, err := h.locations.List(c.Request.Context(), key.CompanyID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": page.Data,
		"pagination": gin.H{
			"total":  page.Total,
			"limit":  page.Limit,
			"offset": page.Offset,
		},
	})
}
