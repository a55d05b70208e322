package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Key format
const (
	APIKeyPrefix       = "fox_"
	apiKeySecretBytes  = 32
	apiKeyDisplayChars = 8
)

// APIKeyLookup is the data access needed to verify keys
type APIKeyLookup interface {
	FindByHash(ctx context.Context, hash string) (*models.APIKey, error)
	RecordUsage(ctx context.Context, id uuid.UUID, at time.Time) error
}

// VerifyResult is the outcome of a key check. Reason is set when Valid is false.
type VerifyResult struct {
	Valid              bool
	Reason             string
	CompanyID          uuid.UUID
	APIKeyID           uuid.UUID
	Permissions        []string
	RateLimitPerMinute int
	RateLimitPerDay    int
}

// APIKeyVerifier authenticates public API callers
type APIKeyVerifier struct {
	store  APIKeyLookup
	logger *zap.Logger
	now    func() time.Time
}

// NewAPIKeyVerifier creates a new verifier
func NewAPIKeyVerifier(store APIKeyLookup, logger *zap.Logger) *APIKeyVerifier {
	return &APIKeyVerifier{store: store, logger: logger, now: time.Now}
}

// HashKey returns the hex SHA-256 of a raw key
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Verify checks raw in order: presence and format, existence, revocation, expiry.
// The error is set only when the store itself fails.
func (v *APIKeyVerifier) Verify(ctx context.Context, raw string) (*VerifyResult, error) {
	if raw == "" {
		return &VerifyResult{Reason: apperrors.ReasonMissing}, nil
	}
	if !strings.HasPrefix(raw, APIKeyPrefix) {
		return &VerifyResult{Reason: apperrors.ReasonInvalidFormat}, nil
	}

	key, err := v.store.FindByHash(ctx, HashKey(raw))
	if err != nil {
		v.logger.Error("failed to look up api key", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if key == nil {
		return &VerifyResult{Reason: apperrors.ReasonInvalidKey}, nil
	}
	if key.Status != models.APIKeyStatusActive {
		return &VerifyResult{Reason: apperrors.ReasonRevoked}, nil
	}

	now := v.now()
	if key.ExpiresAt != nil && !key.ExpiresAt.After(now) {
		return &VerifyResult{Reason: apperrors.ReasonExpired}, nil
	}

	if err := v.store.RecordUsage(ctx, key.ID, now); err != nil {
		v.logger.Warn("failed to record api key usage", zap.String("api_key_id", key.ID.String()), zap.Error(err))
	}

	return &VerifyResult{
		Valid:              true,
		CompanyID:          key.CompanyID,
		APIKeyID:           key.ID,
		Permissions:        key.Permissions,
		RateLimitPerMinute: key.RateLimitPerMinute,
		RateLimitPerDay:    key.RateLimitPerDay,
	}, nil
}

// reasonMessages are the client-facing texts of each rejection
var reasonMessages = map[string]string{
	apperrors.ReasonMissing:       "API key required",
	apperrors.ReasonInvalidFormat: "invalid API key format",
	apperrors.ReasonInvalidKey:    "invalid API key",
	apperrors.ReasonRevoked:       "API key has been revoked",
	apperrors.ReasonExpired:       "API key has expired",
}

// Err converts a rejected result into an UnauthorizedError
func (r *VerifyResult) Err() error {
	if r.Valid {
		return nil
	}
	return apperrors.NewUnauthorizedError(r.Reason, reasonMessages[r.Reason])
}

// GenerateAPIKey returns a new raw key, its display prefix and its hash
func GenerateAPIKey() (raw, prefix, hash string, err error) {
	secret := make([]byte, apiKeySecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", "", "", fmt.Errorf("failed to generate api key: %w", err)
	}
	raw = APIKeyPrefix + base64.RawURLEncoding.EncodeToString(secret)
	return raw, raw[:apiKeyDisplayChars], HashKey(raw), nil
}
