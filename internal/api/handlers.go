// Package api contains the HTTP API handlers for FoxOps
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aethra/foxops/internal/auth"
	"github.com/aethra/foxops/internal/engine"
	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/models"
	"github.com/aethra/foxops/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Version is reported by the health endpoint
var Version = "1.0.0"

// UserStore is the user data access the auth endpoints need
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Deps are the services behind the handlers
type Deps struct {
	Fields       *engine.FieldEngine
	Forms        *engine.FormEngine
	Submissions  *engine.SubmissionEngine
	Locations    *engine.LocationEngine
	Verifier     *auth.APIKeyVerifier
	Keys         *auth.APIKeyManager
	JWT          *auth.JWTService
	Users        UserStore
	Limiter      ratelimit.Limiter
	LoginLimiter *ratelimit.LoginRateLimiter
	Logger       *zap.Logger
}

// Handler contains all API handlers
type Handler struct {
	fields       *engine.FieldEngine
	forms        *engine.FormEngine
	submissions  *engine.SubmissionEngine
	locations    *engine.LocationEngine
	verifier     *auth.APIKeyVerifier
	keys         *auth.APIKeyManager
	jwt          *auth.JWTService
	users        UserStore
	limiter      ratelimit.Limiter
	loginLimiter *ratelimit.LoginRateLimiter
	logger       *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(d Deps) *Handler {
	limiter := d.Limiter
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	loginLimiter := d.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = ratelimit.NewLoginRateLimiter()
	}
	return &Handler{
		fields:       d.Fields,
		forms:        d.Forms,
		submissions:  d.Submissions,
		locations:    d.Locations,
		verifier:     d.Verifier,
		keys:         d.Keys,
		jwt:          d.JWT,
		users:        d.Users,
		limiter:      limiter,
		loginLimiter: loginLimiter,
		logger:       d.Logger,
	}
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health returns the health status
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "foxops",
		"version": Version,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// respondError writes err as JSON using its application status
func respondError(c *gin.Context, err error) {
	status, body := apperrors.ToHTTPError(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	respondError(c, apperrors.NewBadRequestError(message))
}

// ClientIP returns the first X-Forwarded-For hop, else X-Real-IP, else "unknown"
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return "unknown"
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
