// Package api - Authentication handlers
package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aethra/foxops/internal/auth"
	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserResponse represents user data in responses (without password)
type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	CompanyID *uuid.UUID `json:"company_id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, CompanyID: u.CompanyID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

// Login authenticates a user and returns tokens
// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("invalid request", err.Error()))
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	rateLimitKey := c.ClientIP() + ":" + email
	allowed, remaining, retryAfter := h.loginLimiter.Allow(rateLimitKey)
	if !allowed {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "RATE_LIMITED",
			"message":     "too many login attempts, please wait before trying again",
			"retry_after": retryAfter.Seconds(),
		})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), email)
	if err != nil {
		h.logger.Error("failed to load user", zap.Error(err))
		respondError(c, apperrors.NewInternalError(err))
		return
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":              "UNAUTHORIZED",
			"message":            "invalid credentials",
			"attempts_remaining": remaining,
		})
		return
	}

	h.loginLimiter.Reset(rateLimitKey)

	tokens, err := h.jwt.GenerateTokenPair(user)
	if err != nil {
		respondError(c, apperrors.NewInternalError(err))
		return
	}

	if err := h.users.TouchLastLogin(c.Request.Context(), user.ID, time.Now()); err != nil {
		h.logger.Warn("failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   newUserResponse(user),
		"tokens": tokens,
	})
}

// RefreshToken issues a new token pair from a refresh token
// POST /auth/refresh
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("invalid request", err.Error()))
		return
	}

	claims, err := h.jwt.ValidateToken(req.RefreshToken, auth.TokenUseRefresh)
	if err != nil {
		respondError(c, apperrors.NewUnauthorizedError(apperrors.ReasonInvalidToken, "invalid or expired refresh token"))
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, apperrors.NewInternalError(err))
		return
	}
	if user == nil {
		respondError(c, apperrors.NewUnauthorizedError(apperrors.ReasonInvalidToken, "account is disabled"))
		return
	}

	tokens, err := h.jwt.GenerateTokenPair(user)
	if err != nil {
		respondError(c, apperrors.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// GetMe returns the current user
// GET /auth/me
func (h *Handler) GetMe(c *gin.Context) {
	claims := sessionClaims(c)

	user, err := h.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, apperrors.NewInternalError(err))
		return
	}
	if user == nil {
		respondError(c, apperrors.NewNotFoundError("user"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}
