package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default per-key limits
const (
	DefaultRateLimitPerMinute = 60
	DefaultRateLimitPerDay    = 10000
)

// APIKeyStore is the data access for key administration
type APIKeyStore interface {
	Create(ctx context.Context, key *models.APIKey) error
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.APIKey, error)
	Revoke(ctx context.Context, id, companyID uuid.UUID) (bool, error)
}

// CreateAPIKeyInput describes a new key
type CreateAPIKeyInput struct {
	Name               string     `json:"name" binding:"required,max=255"`
	Permissions        []string   `json:"permissions"`
	ExpiresAt          *time.Time `json:"expires_at"`
	RateLimitPerMinute int        `json:"rate_limit_per_minute" binding:"omitempty,min=1"`
	RateLimitPerDay    int        `json:"rate_limit_per_day" binding:"omitempty,min=1"`
}

// APIKeyManager issues, lists and revokes a company's keys
type APIKeyManager struct {
	store  APIKeyStore
	logger *zap.Logger
}

// NewAPIKeyManager creates a new manager
func NewAPIKeyManager(store APIKeyStore, logger *zap.Logger) *APIKeyManager {
	return &APIKeyManager{store: store, logger: logger}
}

// Create issues a key. The raw secret is returned once and never stored.
func (m *APIKeyManager) Create(ctx context.Context, companyID uuid.UUID, createdBy *uuid.UUID, in CreateAPIKeyInput) (*models.APIKey, string, error) {
	if companyID == uuid.Nil {
		return nil, "", apperrors.NewUnauthorizedError(apperrors.ReasonNoCompany, "no company associated with account")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, "", apperrors.NewValidationError("validation failed", "name is required")
	}

	perms := in.Permissions
	if len(perms) == 0 {
		perms = DefaultScopes
	}
	var details []string
	for _, p := range perms {
		if !KnownScope(p) {
			details = append(details, fmt.Sprintf("unknown permission %q", p))
		}
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(time.Now()) {
		details = append(details, "expires_at must be in the future")
	}
	if len(details) > 0 {
		return nil, "", apperrors.NewValidationError("validation failed", details...)
	}

	raw, prefix, hash, err := GenerateAPIKey()
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}

	key := &models.APIKey{
		ID:                 uuid.New(),
		CompanyID:          companyID,
		Name:               name,
		KeyPrefix:          prefix,
		KeyHash:            hash,
		Status:             models.APIKeyStatusActive,
		ExpiresAt:          in.ExpiresAt,
		Permissions:        perms,
		RateLimitPerMinute: orDefault(in.RateLimitPerMinute, DefaultRateLimitPerMinute),
		RateLimitPerDay:    orDefault(in.RateLimitPerDay, DefaultRateLimitPerDay),
		CreatedBy:          createdBy,
	}
	if err := m.store.Create(ctx, key); err != nil {
		m.logger.Error("failed to create api key", zap.Error(err))
		return nil, "", apperrors.NewInternalError(err)
	}

	m.logger.Info("api key created",
		zap.String("company_id", companyID.String()),
		zap.String("api_key_id", key.ID.String()),
		zap.String("prefix", prefix))
	return key, raw, nil
}

// List returns the company's keys without secrets
func (m *APIKeyManager) List(ctx context.Context, companyID uuid.UUID) ([]models.APIKey, error) {
	keys, err := m.store.ListByCompany(ctx, companyID)
	if err != nil {
		m.logger.Error("failed to list api keys", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return keys, nil
}

// Revoke disables one of the company's keys
func (m *APIKeyManager) Revoke(ctx context.Context, id, companyID uuid.UUID) error {
	ok, err := m.store.Revoke(ctx, id, companyID)
	if err != nil {
		m.logger.Error("failed to revoke api key", zap.Error(err))
		return apperrors.NewInternalError(err)
	}
	if !ok {
		return apperrors.NewNotFoundError("api key")
	}
	m.logger.Info("api key revoked", zap.String("api_key_id", id.String()))
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
