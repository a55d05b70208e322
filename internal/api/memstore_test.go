package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aethra/foxops/internal/models"
	"github.com/aethra/foxops/internal/repository"
	"github.com/google/uuid"
)

// memoryStore backs every engine in handler tests
type memoryStore struct {
	mu sync.Mutex

	users       map[string]*models.User
	defs        []models.FieldDefinition
	configs     []models.FieldConfig
	customs     []models.CustomField
	forms       []*models.LocationForm
	submissions []models.LocationSubmission
	locations   []models.Location
	keys        []*models.APIKey
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[string]*models.User{}}
}

// users

func (s *memoryStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok || !u.IsActive {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id && u.IsActive {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			u.LastLoginAt = &at
		}
	}
	return nil
}

// fields

type memoryFieldStore struct{ *memoryStore }

func (s memoryFieldStore) ListActiveDefinitions(ctx context.Context) ([]models.FieldDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.FieldDefinition(nil), s.defs...), nil
}

func (s memoryFieldStore) GetActiveDefinition(ctx context.Context, id uuid.UUID) (*models.FieldDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.defs {
		if s.defs[i].ID == id {
			def := s.defs[i]
			return &def, nil
		}
	}
	return nil, nil
}

func (s memoryFieldStore) ListConfigs(ctx context.Context, companyID uuid.UUID) ([]models.FieldConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FieldConfig
	for _, c := range s.configs {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s memoryFieldStore) UpsertConfig(ctx context.Context, cfg *models.FieldConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.configs {
		if c.CompanyID == cfg.CompanyID && c.FieldDefinitionID == cfg.FieldDefinitionID {
			cfg.ID = c.ID
			s.configs[i] = *cfg
			return nil
		}
	}
	s.configs = append(s.configs, *cfg)
	return nil
}

func (s memoryFieldStore) ListCustomFields(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]models.CustomField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CustomField
	for _, f := range s.customs {
		if f.CompanyID == companyID && (!activeOnly || f.IsActive) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s memoryFieldStore) CustomFieldKeyExists(ctx context.Context, companyID uuid.UUID, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.customs {
		if f.CompanyID == companyID && f.FieldKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (s memoryFieldStore) CreateCustomField(ctx context.Context, field *models.CustomField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.customs {
		if f.CompanyID == field.CompanyID && f.FieldKey == field.FieldKey {
			return repository.ErrDuplicate
		}
	}
	s.customs = append(s.customs, *field)
	return nil
}

func (s memoryFieldStore) UpdateCustomField(ctx context.Context, id, companyID uuid.UUID, updates map[string]interface{}) (*models.CustomField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customs {
		if s.customs[i].ID == id && s.customs[i].CompanyID == companyID {
			if label, ok := updates["label"].(string); ok {
				s.customs[i].Label = label
			}
			f := s.customs[i]
			return &f, nil
		}
	}
	return nil, nil
}

func (s memoryFieldStore) DeleteCustomField(ctx context.Context, id, companyID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.customs {
		if f.ID == id && f.CompanyID == companyID {
			s.customs = append(s.customs[:i], s.customs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// forms and submissions

type memoryFormStore struct{ *memoryStore }

func (s memoryFormStore) FindActiveBySlug(ctx context.Context, slug string) (*models.LocationForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if f.Slug == slug && f.Status == models.FormStatusActive {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memoryFormStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.LocationForm, error) {
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

func (s memoryFormStore) Create(ctx context.Context, form *models.LocationForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if f.Slug == form.Slug {
			return repository.ErrDuplicate
		}
	}
	cp := *form
	s.forms = append(s.forms, &cp)
	return nil
}

func (s memoryFormStore) UpdateStatus(ctx context.Context, id, companyID uuid.UUID, status string) (*models.LocationForm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if f.ID == id && f.CompanyID == companyID {
			f.Status = status
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memoryFormStore) IncrementSubmissionCount(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if f.ID == id {
			f.SubmissionCount++
		}
	}
	return nil
}

type memorySubmissionStore struct{ *memoryStore }

func (s memorySubmissionStore) Create(ctx context.Context, sub *models.LocationSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, *sub)
	return nil
}

func (s memorySubmissionStore) ListByCompany(ctx context.Context, companyID uuid.UUID, status string) ([]models.LocationSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LocationSubmission
	for _, sub := range s.submissions {
		if sub.CompanyID == companyID && (status == "" || sub.Status == status) {
			out = append(out, sub)
		}
	}
	return out, nil
}

// locations

type memoryLocationStore struct{ *memoryStore }

func (s memoryLocationStore) Create(ctx context.Context, loc *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc.CreatedAt = time.Now()
	loc.UpdatedAt = loc.CreatedAt
	s.locations = append(s.locations, *loc)
	return nil
}

func (s memoryLocationStore) List(ctx context.Context, companyID uuid.UUID, filter repository.LocationFilter) ([]models.Location, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Location
	for _, loc := range s.locations {
		if loc.CompanyID != companyID {
			continue
		}
		if filter.Status != "" && loc.Status != filter.Status {
			continue
		}
		if filter.Type != "" && loc.Type != filter.Type {
			continue
		}
		matched = append(matched, loc)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	end := min(filter.Offset+filter.Limit, len(matched))
	return matched[filter.Offset:end], total, nil
}

// api keys

type memoryKeyStore struct{ *memoryStore }

func (s memoryKeyStore) FindByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k.KeyHash == hash {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (s memoryKeyStore) RecordUsage(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k.ID == id {
			k.TotalRequests++
			k.LastUsedAt = &at
		}
	}
	return nil
}

func (s memoryKeyStore) Create(ctx context.Context, key *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	cp := *key
	s.keys = append(s.keys, &cp)
	return nil
}

func (s memoryKeyStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.APIKey
	for _, k := range s.keys {
		if k.CompanyID == companyID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (s memoryKeyStore) Revoke(ctx context.Context, id, companyID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k.ID == id && k.CompanyID == companyID {
			k.Status = models.APIKeyStatusRevoked
			return true, nil
		}
	}
	return false, nil
}
