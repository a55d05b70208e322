// Package models - JSONB types for PostgreSQL
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB is a custom type for PostgreSQL JSONB object columns
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}

	if len(bytes) == 0 {
		*j = make(JSONB)
		return nil
	}

	result := make(JSONB)
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

// FieldRule is the per-field rule of a location form
type FieldRule struct {
	Visible     bool    `json:"visible"`
	Required    bool    `json:"required"`
	Label       *string `json:"label,omitempty"`
	Placeholder *string `json:"placeholder,omitempty"`
}

// FieldsConfig maps a field key to its rule on a location form
type FieldsConfig map[string]FieldRule

// Value implements the driver.Valuer interface
func (f FieldsConfig) Value() (driver.Value, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f)
}

// Scan implements the sql.Scanner interface
func (f *FieldsConfig) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}

	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}

	result := make(FieldsConfig)
	if len(bytes) == 0 {
		*f = result
		return nil
	}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*f = result
	return nil
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("type assertion to []byte failed")
	}
}
