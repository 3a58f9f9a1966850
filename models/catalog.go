// ABOUTME: Catalog item and catalog template models
// ABOUTME: Templates decode tolerantly since the backend does not always send an array
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type Availability string

const (
	AvailabilityInStock      Availability = "in_stock"
	AvailabilityOutOfStock   Availability = "out_of_stock"
	AvailabilityPreorder     Availability = "preorder"
	AvailabilityDiscontinued Availability = "discontinued"
)

// Availabilities lists the accepted availability values in display order.
var Availabilities = []Availability{
	AvailabilityInStock,
	AvailabilityOutOfStock,
	AvailabilityPreorder,
	AvailabilityDiscontinued,
}

// Valid reports whether a is one of the known availability values.
func (a Availability) Valid() bool {
	for _, v := range Availabilities {
		if a == v {
			return true
		}
	}
	return false
}

type CatalogItem struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	SKU          string          `json:"sku,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency,omitempty"`
	Availability Availability    `json:"availability,omitempty"`
	Images       []string        `json:"images,omitempty"`
	TemplateID   string          `json:"template_id,omitempty"`
	ExtraFields  map[string]any  `json:"extra_fields,omitempty"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty"`
}

func (c CatalogItem) GetID() string { return c.ID }

// CatalogItemInput is the create/update payload for a catalog item.
type CatalogItemInput struct {
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	SKU          string          `json:"sku,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency,omitempty"`
	Availability Availability    `json:"availability,omitempty"`
	Images       []string        `json:"images,omitempty"`
	TemplateID   string          `json:"template_id,omitempty"`
	ExtraFields  map[string]any  `json:"extra_fields,omitempty"`
}

// MarshalJSON writes price as a JSON number. Decoding still accepts a number
// or a quoted string.
func (in CatalogItemInput) MarshalJSON() ([]byte, error) {
	type plain CatalogItemInput
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain: plain(in), Price: json.Number(in.Price.String())})
}

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldDropdown FieldType = "dropdown"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
)

// FieldTypes lists the supported template field types.
var FieldTypes = []FieldType{FieldText, FieldNumber, FieldTextarea, FieldDropdown, FieldBoolean, FieldDate}

func (t FieldType) Valid() bool {
	for _, v := range FieldTypes {
		if t == v {
			return true
		}
	}
	return false
}

type TemplateField struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// TemplateFields accepts an array, an object keyed by field key, a JSON-encoded
// string of either, or null.
type TemplateFields []TemplateField

func (f *TemplateFields) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}

	switch data[0] {
	case '[':
		var list []TemplateField
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode template fields: %w", err)
		}
		*f = list
		return nil
	case '{':
		var byKey map[string]TemplateField
		if err := json.Unmarshal(data, &byKey); err != nil {
			return fmt.Errorf("decode template fields: %w", err)
		}
		keys := make([]string, 0, len(byKey))
		for k := range byKey {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		list := make([]TemplateField, 0, len(keys))
		for _, k := range keys {
			field := byKey[k]
			if field.Key == "" {
				field.Key = k
			}
			list = append(list, field)
		}
		*f = list
		return nil
	case '"':
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return fmt.Errorf("decode template fields: %w", err)
		}
		if encoded == "" {
			*f = nil
			return nil
		}
		return f.UnmarshalJSON([]byte(encoded))
	}

	return fmt.Errorf("decode template fields: unexpected JSON %q", string(data[:1]))
}

type CatalogTemplate struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Fields      TemplateFields `json:"fields"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
}

func (t CatalogTemplate) GetID() string { return t.ID }

// Field returns the field with the given key.
func (t CatalogTemplate) Field(key string) (TemplateField, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return TemplateField{}, false
}

type CatalogTemplateInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Fields      []TemplateField `json:"fields"`
}

// BulkUploadRequest carries a CSV file and the header mapping chosen in the import wizard.
type BulkUploadRequest struct {
	FileName   string
	Content    []byte
	Mapping    map[string]string
	TemplateID string
}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type BulkUploadResult struct {
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	Errors       []RowError `json:"errors,omitempty"`
}

type UploadedImage struct {
	URL string `json:"url"`
}
