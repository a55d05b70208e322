// Package models contains the FoxOps data structures
// Tables are created by the embedded SQL migrations; gorm tags only describe columns.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// =============================================================================
// TENANCY
// =============================================================================

// Company is the unit of data isolation
type Company struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;size:100"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User roles
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is a dashboard account
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	CompanyID    *uuid.UUID `json:"company_id" gorm:"type:uuid;index"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string     `json:"-" gorm:"size:255"`
	FullName     string     `json:"full_name" gorm:"size:255"`
	Role         string     `json:"role" gorm:"size:20"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CanManageSettings reports whether the user may change fields, forms and api keys
func (u *User) CanManageSettings() bool {
	return u.Role == RoleOwner || u.Role == RoleAdmin
}

// =============================================================================
// FIELD SCHEMA
// =============================================================================

// FieldDefinition is a platform-owned field available to every company
type FieldDefinition struct {
	ID                   uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	FieldKey             string    `json:"field_key" gorm:"uniqueIndex;not null;size:100"`
	Label                string    `json:"label" gorm:"not null;size:255"`
	FieldType            FieldType `json:"field_type" gorm:"size:30"`
	Category             string    `json:"category" gorm:"size:50"`
	DisplayOrder         int       `json:"display_order"`
	IsSystemField        bool      `json:"is_system_field"`
	IsPlatformRequired   bool      `json:"is_platform_required"`
	IsClientConfigurable bool      `json:"is_client_configurable"`
	Options              JSONB     `json:"options" gorm:"type:jsonb"`
	ValidationRules      JSONB     `json:"validation_rules" gorm:"type:jsonb"`
	Placeholder          string    `json:"placeholder"`
	HelpText             string    `json:"help_text"`
	DefaultValue         *string   `json:"default_value"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// FieldConfig is a company's override of a FieldDefinition
type FieldConfig struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CompanyID         uuid.UUID `json:"company_id" gorm:"type:uuid;uniqueIndex:idx_company_field_config"`
	FieldDefinitionID uuid.UUID `json:"field_definition_id" gorm:"type:uuid;uniqueIndex:idx_company_field_config"`
	IsRequired        bool      `json:"is_required"`
	IsVisible         bool      `json:"is_visible"`
	CustomLabel       *string   `json:"custom_label"`
	CustomPlaceholder *string   `json:"custom_placeholder"`
	CustomHelpText    *string   `json:"custom_help_text"`
	DisplayOrder      *int      `json:"display_order"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	FieldDefinition *FieldDefinition `json:"field_definition,omitempty" gorm:"foreignKey:FieldDefinitionID"`
}

// TableName returns the table name for FieldConfig
func (FieldConfig) TableName() string {
	return "company_field_configs"
}

// CustomField is a company-private field not backed by a definition
type CustomField struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CompanyID       uuid.UUID `json:"company_id" gorm:"type:uuid;uniqueIndex:idx_company_custom_field"`
	FieldKey        string    `json:"field_key" gorm:"size:100;uniqueIndex:idx_company_custom_field"`
	Label           string    `json:"label" gorm:"not null;size:255"`
	FieldType       FieldType `json:"field_type" gorm:"size:30"`
	Category        string    `json:"category" gorm:"size:50"`
	DisplayOrder    int       `json:"display_order"`
	IsRequired      bool      `json:"is_required"`
	IsVisible       bool      `json:"is_visible"`
	Options         JSONB     `json:"options" gorm:"type:jsonb"`
	ValidationRules JSONB     `json:"validation_rules" gorm:"type:jsonb"`
	Placeholder     string    `json:"placeholder"`
	HelpText        string    `json:"help_text"`
	DefaultValue    *string   `json:"default_value"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// =============================================================================
// LOCATIONS
// =============================================================================

// Form statuses
const (
	FormStatusDraft    = "draft"
	FormStatusActive   = "active"
	FormStatusArchived = "archived"
)

// LocationForm is a tenant-branded public form for proposing locations
type LocationForm struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CompanyID          uuid.UUID      `json:"company_id" gorm:"type:uuid;index"`
	Slug               string         `json:"slug" gorm:"uniqueIndex;size:120"`
	Name               string         `json:"name" gorm:"not null;size:255"`
	Description        string         `json:"description"`
	LogoURL            string         `json:"logo_url"`
	PrimaryColor       string         `json:"primary_color" gorm:"size:20"`
	WelcomeMessage     string         `json:"welcome_message"`
	SuccessMessage     string         `json:"success_message"`
	FieldsConfig       FieldsConfig   `json:"fields_config" gorm:"type:jsonb"`
	RequiresApproval   bool           `json:"requires_approval"`
	Status             string         `json:"status" gorm:"size:20"`
	NotifyEmails       pq.StringArray `json:"notify_emails" gorm:"type:text[]"`
	NotifyOnSubmission bool           `json:"notify_on_submission"`
	SubmissionCount    int64          `json:"submission_count"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// AddressContact is the attribute set shared by submissions and locations
type AddressContact struct {
	Name         string  `json:"name" gorm:"not null;size:255"`
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	PostalCode   *string `json:"postal_code"`
	Country      *string `json:"country"`
	ContactName  *string `json:"contact_name"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	Notes        *string `json:"notes"`
	Metadata     JSONB   `json:"metadata" gorm:"type:jsonb"`
}

// Submission statuses
const (
	SubmissionStatusPending = "pending"
)

// LocationSubmission is a location proposal awaiting approval
type LocationSubmission struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	FormID             uuid.UUID `json:"form_id" gorm:"type:uuid;index"`
	CompanyID          uuid.UUID `json:"company_id" gorm:"type:uuid;index"`
	Status             string    `json:"status" gorm:"size:20"`
	AddressContact     `gorm:"embedded"`
	SubmitterIP        string    `json:"submitter_ip" gorm:"size:64"`
	SubmitterUserAgent string    `json:"submitter_user_agent"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Location statuses and sources
const (
	LocationStatusActive  = "active"
	LocationStatusPending = "pending"

	LocationSourceManual = "manual"
	LocationSourceForm   = "form"
	LocationSourceAPI    = "api"
)

// LocationTypes is the closed set of location types
var LocationTypes = map[string]bool{
	"site":      true,
	"warehouse": true,
	"office":    true,
	"store":     true,
	"other":     true,
}

// DefaultLocationType applies when none is supplied
const DefaultLocationType = "site"

// Location is a live location record
type Location struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CompanyID       uuid.UUID `json:"company_id" gorm:"type:uuid;index"`
	Type            string    `json:"type" gorm:"size:20"`
	Status          string    `json:"status" gorm:"size:20"`
	AddressContact  `gorm:"embedded"`
	Latitude        *float64  `json:"latitude"`
	Longitude       *float64  `json:"longitude"`
	ExternalID      *string   `json:"external_id" gorm:"size:255"`
	Source          string    `json:"source" gorm:"size:20"`
	SourceReference *string   `json:"source_reference"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// =============================================================================
// API KEYS
// =============================================================================

// API key statuses
const (
	APIKeyStatusActive  = "active"
	APIKeyStatusRevoked = "revoked"
)

// APIKey is a company credential for the public API. Only the hash of the secret is stored.
type APIKey struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CompanyID          uuid.UUID      `json:"company_id" gorm:"type:uuid;index"`
	Name               string         `json:"name" gorm:"size:255"`
	KeyPrefix          string         `json:"key_prefix" gorm:"size:20"`
	KeyHash            string         `json:"-" gorm:"uniqueIndex;size:64"`
	Status             string         `json:"status" gorm:"size:20"`
	ExpiresAt          *time.Time     `json:"expires_at"`
	Permissions        pq.StringArray `json:"permissions" gorm:"type:text[]"`
	RateLimitPerMinute int            `json:"rate_limit_per_minute"`
	RateLimitPerDay    int            `json:"rate_limit_per_day"`
	TotalRequests      int64          `json:"total_requests"`
	LastUsedAt         *time.Time     `json:"last_used_at"`
	CreatedBy          *uuid.UUID     `json:"created_by" gorm:"type:uuid"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// TableName returns the table name for APIKey
func (APIKey) TableName() string {
	return "api_keys"
}
