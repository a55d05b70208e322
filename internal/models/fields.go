package models

import "github.com/google/uuid"

// FieldType enumerates the data-entry field kinds
type FieldType string

const (
	FieldTypeText          FieldType = "text"
	FieldTypeTextarea      FieldType = "textarea"
	FieldTypeNumber        FieldType = "number"
	FieldTypeDate          FieldType = "date"
	FieldTypeTime          FieldType = "time"
	FieldTypeDatetime      FieldType = "datetime"
	FieldTypePhoto         FieldType = "photo"
	FieldTypeSignature     FieldType = "signature"
	FieldTypeCheckbox      FieldType = "checkbox"
	FieldTypeSelect        FieldType = "select"
	FieldTypeRadio         FieldType = "radio"
	FieldTypeCheckboxGroup FieldType = "checkbox_group"
	FieldTypeRating        FieldType = "rating"
	FieldTypeLocation      FieldType = "location"
	FieldTypeBarcode       FieldType = "barcode"
)

var fieldTypes = map[FieldType]bool{
	FieldTypeText: true, FieldTypeTextarea: true, FieldTypeNumber: true,
	FieldTypeDate: true, FieldTypeTime: true, FieldTypeDatetime: true,
	FieldTypePhoto: true, FieldTypeSignature: true, FieldTypeCheckbox: true,
	FieldTypeSelect: true, FieldTypeRadio: true, FieldTypeCheckboxGroup: true,
	FieldTypeRating: true, FieldTypeLocation: true, FieldTypeBarcode: true,
}

// Valid reports whether t is a known field type
func (t FieldType) Valid() bool {
	return fieldTypes[t]
}

// HasChoices reports whether the type needs an options list
func (t FieldType) HasChoices() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio || t == FieldTypeCheckboxGroup
}

// CustomFieldCategory is the category of every company custom field
const CustomFieldCategory = "custom"

// CustomFieldKeyPrefix prefixes every generated custom field key
const CustomFieldKeyPrefix = "custom_"

// MaxFieldKeyLength is the width of the field_key columns
const MaxFieldKeyLength = 100

// LocationFieldKeys is the closed set of system keys a location form may configure
var LocationFieldKeys = map[string]bool{
	"name":          true,
	"address_line1": true,
	"address_line2": true,
	"city":          true,
	"state":         true,
	"postal_code":   true,
	"country":       true,
	"contact_name":  true,
	"contact_email": true,
	"contact_phone": true,
	"notes":         true,
}

// ResolvedField is the merged view of a field, ready for rendering and validation
type ResolvedField struct {
	ID                   uuid.UUID  `json:"id"`
	FieldDefinitionID    *uuid.UUID `json:"fieldDefinitionId,omitempty"`
	Key                  string     `json:"key"`
	Label                string     `json:"label"`
	Type                 FieldType  `json:"type"`
	Category             string     `json:"category"`
	DisplayOrder         int        `json:"displayOrder"`
	IsRequired           bool       `json:"isRequired"`
	IsVisible            bool       `json:"isVisible"`
	IsSystemField        bool       `json:"isSystemField"`
	IsPlatformRequired   bool       `json:"isPlatformRequired"`
	IsClientConfigurable bool       `json:"isClientConfigurable"`
	IsCustomField        bool       `json:"isCustomField"`
	Options              JSONB      `json:"options"`
	ValidationRules      JSONB      `json:"validationRules"`
	Placeholder          string     `json:"placeholder"`
	HelpText             string     `json:"helpText"`
	DefaultValue         *string    `json:"defaultValue,omitempty"`
}
