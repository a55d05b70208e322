package api

import (
	"strconv"
	"time"

	"github.com/aethra/foxops/internal/auth"
	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys
const (
	ctxRequestID = "request_id"
	ctxClaims    = "claims"
	ctxAPIKey    = "api_key"
)

// RequestLogger writes one structured line per request
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", ClientIP(c.Request)),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		if claims := sessionClaims(c); claims != nil {
			fields = append(fields, zap.String("user_id", claims.UserID.String()))
		}

		switch {
		case status >= 500:
			logger.Error("server error", fields...)
		case status >= 400:
			logger.Warn("client error", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// RequestID propagates or assigns X-Request-ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ctxRequestID, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// SessionMiddleware requires a valid dashboard access token
func (h *Handler) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, apperrors.NewUnauthorizedError(apperrors.ReasonMissing, "authorization is required"))
			return
		}
		claims, err := h.jwt.ValidateToken(token, auth.TokenUseAccess)
		if err != nil {
			respondError(c, apperrors.NewUnauthorizedError(apperrors.ReasonInvalidToken, "invalid or expired token"))
			return
		}
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequireCompany rejects sessions of users without a company
func (h *Handler) RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := sessionClaims(c); claims == nil || claims.CompanyID == uuid.Nil {
			respondError(c, apperrors.NewUnauthorizedError(apperrors.ReasonNoCompany, "no company associated with account"))
			return
		}
		c.Next()
	}
}

// RequireAction rejects sessions whose role does not allow action
func (h *Handler) RequireAction(action auth.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := sessionClaims(c)
		if claims == nil || !auth.RoleAllows(claims.Role, action) {
			respondError(c, apperrors.NewPermissionDeniedError(string(action), c.FullPath()))
			return
		}
		c.Next()
	}
}

// APIKeyMiddleware authenticates "Authorization: Bearer fox_..." callers,
// checks the key's scope and applies its rate limits.
func (h *Handler) APIKeyMiddleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.verifier.Verify(c.Request.Context(), bearerToken(c))
		if err != nil {
			metrics.APIKeyVerificationsTotal.WithLabelValues("error").Inc()
			respondError(c, err)
			return
		}
		if !res.Valid {
			metrics.APIKeyVerificationsTotal.WithLabelValues(res.Reason).Inc()
			respondError(c, res.Err())
			return
		}
		metrics.APIKeyVerificationsTotal.WithLabelValues("valid").Inc()

		if !auth.KeyAllows(res.Permissions, scope) {
			respondError(c, apperrors.NewPermissionDeniedError(scope, c.FullPath()))
			return
		}

		decision := h.limiter.Allow(c.Request.Context(), res.APIKeyID.String(), res.RateLimitPerMinute, res.RateLimitPerDay)
		if !decision.Allowed {
			metrics.RateLimitedTotal.WithLabelValues(decision.Window).Inc()
			c.Header("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds()+0.5)))
			respondError(c, apperrors.NewRateLimitedError(decision.Window))
			return
		}

		c.Set(ctxAPIKey, res)
		c.Next()
	}
}

func sessionClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func apiKeyResult(c *gin.Context) *auth.VerifyResult {
	v, _ := c.Get(ctxAPIKey)
	res, _ := v.(*auth.VerifyResult)
	return res
}
