package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	apperrors "github.com/aethra/foxops/internal/errors"
	"github.com/aethra/foxops/internal/models"
	"github.com/aethra/foxops/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Listing bounds
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// LocationEngine ingests and lists locations for API key callers
type LocationEngine struct {
	store  LocationStore
	logger *zap.Logger
}

// NewLocationEngine creates a new location engine
func NewLocationEngine(store LocationStore, logger *zap.Logger) *LocationEngine {
	return &LocationEngine{store: store, logger: logger}
}

// LocationInput is the body of POST /api/v1/locations
type LocationInput struct {
	Name         string       `json:"name" validate:"max=255"`
	Type         string       `json:"type"`
	AddressLine1 string       `json:"address_line1"`
	AddressLine2 string       `json:"address_line2"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	PostalCode   string       `json:"postal_code"`
	Country      string       `json:"country"`
	ContactName  string       `json:"contact_name"`
	ContactEmail string       `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string       `json:"contact_phone"`
	Notes        string       `json:"notes"`
	Latitude     *float64     `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude    *float64     `json:"longitude" validate:"omitempty,min=-180,max=180"`
	ExternalID   string       `json:"external_id" validate:"max=255"`
	Metadata     models.JSONB `json:"metadata"`
}

// CreateFromAPI stores a location pushed by an API key. It stays pending
// until reviewed in the dashboard.
func (e *LocationEngine) CreateFromAPI(ctx context.Context, companyID, apiKeyID uuid.UUID, in LocationInput) (*models.Location, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.NewValidationError("validation failed", "name is required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	locType := strings.TrimSpace(in.Type)
	if locType == "" {
		locType = models.DefaultLocationType
	}
	if !models.LocationTypes[locType] {
		return nil, apperrors.NewValidationError("validation failed", "type must be one of: "+locationTypeList())
	}

	ref := apiKeyID.String()
	loc := &models.Location{
		ID:        uuid.New(),
		CompanyID: companyID,
		Type:      locType,
		Status:    models.LocationStatusPending,
		AddressContact: models.AddressContact{
			Name:         strings.TrimSpace(in.Name),
			AddressLine1: optionalString(in.AddressLine1),
			AddressLine2: optionalString(in.AddressLine2),
			City:         optionalString(in.City),
			State:        optionalString(in.State),
			PostalCode:   optionalString(in.PostalCode),
			Country:      optionalString(in.Country),
			ContactName:  optionalString(in.ContactName),
			ContactEmail: optionalString(in.ContactEmail),
			ContactPhone: optionalString(in.ContactPhone),
			Notes:        optionalString(in.Notes),
			Metadata:     orEmpty(in.Metadata),
		},
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		ExternalID:      optionalString(in.ExternalID),
		Source:          models.LocationSourceAPI,
		SourceReference: &ref,
	}
	if err := e.store.Create(ctx, loc); err != nil {
		e.logger.Error("failed to create location", zap.String("company_id", companyID.String()), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return loc, nil
}

// ListParams filters and pages a location listing
type ListParams struct {
	Status string `form:"status"`
	Type   string `form:"type"`
	Search string `form:"q"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

func (p *ListParams) normalize() {
	if p.Limit <= 0 {
		p.Limit = DefaultListLimit
	}
	if p.Limit > MaxListLimit {
		p.Limit = MaxListLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// LocationPage is one page of locations
type LocationPage struct {
	Data   []LocationView `json:"data"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// List returns a company's locations, newest first
func (e *LocationEngine) List(ctx context.Context, companyID uuid.UUID, params ListParams) (*LocationPage, error) {
	params.normalize()

	locs, total, err := e.store.List(ctx, companyID, repository.LocationFilter{
		Status: params.Status,
		Type:   params.Type,
		Search: strings.TrimSpace(params.Search),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		e.logger.Error("failed to list locations", zap.String("company_id", companyID.String()), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	page := &LocationPage{Data: make([]LocationView, 0, len(locs)), Total: total, Limit: params.Limit, Offset: params.Offset}
	for _, loc := range locs {
		page.Data = append(page.Data, NewLocationView(loc))
	}
	return page, nil
}

// =============================================================================
// RESPONSE SHAPE
// =============================================================================

// LocationView is the nested API representation of a location
type LocationView struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	Type            string       `json:"type"`
	Status          string       `json:"status"`
	Address         AddressView  `json:"address"`
	Contact         ContactView  `json:"contact"`
	Coordinates     *Coordinates `json:"coordinates"`
	ExternalID      *string      `json:"external_id"`
	Notes           *string      `json:"notes"`
	Metadata        models.JSONB `json:"metadata"`
	Source          string       `json:"source"`
	SourceReference *string      `json:"source_reference"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// AddressView is the postal part of a location
type AddressView struct {
	Line1      *string `json:"line1"`
	Line2      *string `json:"line2"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
}

// ContactView is the on-site contact of a location
type ContactView struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Coordinates is set only when both latitude and longitude are known
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewLocationView nests the flat location columns
func NewLocationView(loc models.Location) LocationView {
	view := LocationView{
		ID:     loc.ID,
		Name:   loc.Name,
		Type:   loc.Type,
		Status: loc.Status,
		Address: AddressView{
			Line1:      loc.AddressLine1,
			Line2:      loc.AddressLine2,
			City:       loc.City,
			State:      loc.State,
			PostalCode: loc.PostalCode,
			Country:    loc.Country,
		},
		Contact: ContactView{
			Name:  loc.ContactName,
			Email: loc.ContactEmail,
			Phone: loc.ContactPhone,
		},
		ExternalID:      loc.ExternalID,
		Notes:           loc.Notes,
		Metadata:        orEmpty(loc.Metadata),
		Source:          loc.Source,
		SourceReference: loc.SourceReference,
		CreatedAt:       loc.CreatedAt,
		UpdatedAt:       loc.UpdatedAt,
	}
	if loc.Latitude != nil && loc.Longitude != nil {
		view.Coordinates = &Coordinates{Latitude: *loc.Latitude, Longitude: *loc.Longitude}
	}
	return view
}

func locationTypeList() string {
	types := make([]string, 0, len(models.LocationTypes))
	for t := range models.LocationTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return strings.Join(types, ", ")
}
