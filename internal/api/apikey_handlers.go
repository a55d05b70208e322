package api

import (
	"net/http"
	"time"

	"github.com/aethra/foxops/internal/auth"
	"github.com/aethra/foxops/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIKeyResponse never includes the hash
type APIKeyResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	KeyPrefix          string     `json:"key_prefix"`
	Status             string     `json:"status"`
	Permissions        []string   `json:"permissions"`
	ExpiresAt          *time.Time `json:"expires_at"`
	RateLimitPerMinute int        `json:"rate_limit_per_minute"`
	RateLimitPerDay    int        `json:"rate_limit_per_day"`
	TotalRequests      int64      `json:"total_requests"`
	LastUsedAt         *time.Time `json:"last_used_at"`
	CreatedAt          time.Time  `json:"created_at"`
}

func newAPIKeyResponse(k models.APIKey) APIKeyResponse {
	perms := []string(k.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return APIKeyResponse{
		ID:                 k.ID,
		Name:               k.Name,
		KeyPrefix:          k.KeyPrefix,
		Status:             k.Status,
		Permissions:        perms,
		ExpiresAt:          k.ExpiresAt,
		RateLimitPerMinute: k.RateLimitPerMinute,
		RateLimitPerDay:    k.RateLimitPerDay,
		TotalRequests:      k.TotalRequests,
		LastUsedAt:         k.LastUsedAt,
		CreatedAt:          k.CreatedAt,
	}
}

// ListAPIKeys returns the company's keys
// GET /api/api-keys
func (h *Handler) ListAPIKeys(c *gin.Context) {
	keys, err := h.keys.List(c.Request.Context(), sessionClaims(c).CompanyID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, newAPIKeyResponse(k))
	}
	c.JSON(http.StatusOK, gin.H{"api_keys": out})
}

// CreateAPIKey issues a key; the raw value is only ever shown here
// POST /api/api-keys
func (h *Handler) CreateAPIKey(c *gin.Context) {
	var in auth.CreateAPIKeyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	claims := sessionClaims(c)
	createdBy := claims.UserID
	key, raw, err := h.keys.Create(c.Request.Context(), claims.CompanyID, &createdBy, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"api_key": newAPIKeyResponse(*key),
		"key":     raw,
	})
}

// RevokeAPIKey revokes a key of the caller's company
// DELETE /api/api-keys/:id
func (h *Handler) RevokeAPIKey(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.keys.Revoke(c.Request.Context(), id, sessionClaims(c).CompanyID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": true})
}
