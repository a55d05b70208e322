package engine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aethra/foxops/internal/models"
	"github.com/aethra/foxops/internal/repository"
	"github.com/google/uuid"
)

var errStoreDown = errors.New("connection refused")

type fakeFieldStore struct {
	mu sync.Mutex

	defs    []models.FieldDefinition
	configs map[[2]uuid.UUID]models.FieldConfig
	customs map[uuid.UUID]models.CustomField

	defsErr    error
	configsErr error
	customsErr error
	createErr  error
}

func newFakeFieldStore(defs ...models.FieldDefinition) *fakeFieldStore {
	return &fakeFieldStore{
		defs:    defs,
		configs: map[[2]uuid.UUID]models.FieldConfig{},
		customs: map[uuid.UUID]models.CustomField{},
	}
}

func (s *fakeFieldStore) ListActiveDefinitions(ctx context.Context) ([]models.FieldDefinition, error) {
	if s.defsErr != nil {
		return nil, s.defsErr
	}
	var out []models.FieldDefinition
	for _, d := range s.defs {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeFieldStore) GetActiveDefinition(ctx context.Context, id uuid.UUID) (*models.FieldDefinition, error) {
	for _, d := range s.defs {
		if d.ID == id && d.IsActive {
			def := d
			return &def, nil
		}
	}
	return nil, nil
}

func (s *fakeFieldStore) ListConfigs(ctx context.Context, companyID uuid.UUID) ([]models.FieldConfig, error) {
	if s.configsErr != nil {
		return nil, s.configsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FieldConfig
	for key, cfg := range s.configs {
		if key[0] == companyID {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *fakeFieldStore) UpsertConfig(ctx context.Context, cfg *models.FieldConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]uuid.UUID{cfg.CompanyID, cfg.FieldDefinitionID}
	if existing, ok := s.configs[key]; ok {
		cfg.ID = existing.ID
	}
	s.configs[key] = *cfg
	return nil
}

func (s *fakeFieldStore) ListCustomFields(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]models.CustomField, error) {
	if s.customsErr != nil {
		return nil, s.customsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CustomField
	for _, f := range s.customs {
		if f.CompanyID == companyID && (!activeOnly || f.IsActive) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (s *fakeFieldStore) CustomFieldKeyExists(ctx context.Context, companyID uuid.UUID, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.customs {
		if f.CompanyID == companyID && f.FieldKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeFieldStore) CreateCustomField(ctx context.Context, field *models.CustomField) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customs[field.ID] = *field
	return nil
}

func (s *fakeFieldStore) UpdateCustomField(ctx context.Context, id, companyID uuid.UUID, updates map[string]interface{}) (*models.CustomField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.customs[id]
	if !ok || f.CompanyID != companyID {
		return nil, nil
	}
	if v, ok := updates["label"].(string); ok {
		f.Label = v
	}
	if v, ok := updates["is_required"].(bool); ok {
		f.IsRequired = v
	}
	if v, ok := updates["display_order"].(int); ok {
		f.DisplayOrder = v
	}
	s.customs[id] = f
	return &f, nil
}

func (s *fakeFieldStore) DeleteCustomField(ctx context.Context, id, companyID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.customs[id]
	if !ok || f.CompanyID != companyID {
		return false, nil
	}
	delete(s.customs, id)
	return true, nil
}

type fakeFormStore struct {
	mu sync.Mutex

	forms      map[uuid.UUID]*models.LocationForm
	increments int
	createErrs []error
}

func newFakeFormStore(forms ...*models.LocationForm) *fakeFormStore {
	s := &fakeFormStore{forms: map[uuid.UUID]*models.LocationForm{}}
	for _, f := range forms {
		s.forms[f.ID] = f
	}
	return s
}

func (s *fakeFormStore) FindActiveBySlug(ctx context.Context, slug string) (*models.LocationForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if f.Slug == slug && f.Status == models.FormStatusActive {
			form := *f
			return &form, nil
		}
	}
	return nil, nil
}

func (s *fakeFormStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.LocationForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LocationForm
	for _, f := range s.forms {
		if f.CompanyID == companyID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *fakeFormStore) Create(ctx context.Context, form *models.LocationForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		return err
	}
	f := *form
	s.forms[form.ID] = &f
	return nil
}

func (s *fakeFormStore) UpdateStatus(ctx context.Context, id, companyID uuid.UUID, status string) (*models.LocationForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[id]
	if !ok || f.CompanyID != companyID {
		return nil, nil
	}
	f.Status = status
	form := *f
	return &form, nil
}

func (s *fakeFormStore) IncrementSubmissionCount(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.increments++
	if f, ok := s.forms[id]; ok {
		f.SubmissionCount++
	}
	return nil
}

type fakeSubmissionStore struct {
	rows []models.LocationSubmission
	err  error
}

func (s *fakeSubmissionStore) Create(ctx context.Context, sub *models.LocationSubmission) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, *sub)
	return nil
}

func (s *fakeSubmissionStore) ListByCompany(ctx context.Context, companyID uuid.UUID, status string) ([]models.LocationSubmission, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.LocationSubmission
	for _, sub := range s.rows {
		if sub.CompanyID == companyID && (status == "" || sub.Status == status) {
			out = append(out, sub)
		}
	}
	return out, nil
}

type fakeLocationStore struct {
	rows       []models.Location
	lastFilter repository.LocationFilter
	err        error
}

func (s *fakeLocationStore) Create(ctx context.Context, loc *models.Location) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, *loc)
	return nil
}

func (s *fakeLocationStore) List(ctx context.Context, companyID uuid.UUID, filter repository.LocationFilter) ([]models.Location, int64, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	s.lastFilter = filter
	var out []models.Location
	for _, l := range s.rows {
		if l.CompanyID == companyID {
			out = append(out, l)
		}
	}
	total := int64(len(out))
	if filter.Offset < len(out) {
		out = out[filter.Offset:]
	} else {
		out = nil
	}
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}
