// ABOUTME: CSV parsing and header-to-field mapping for bulk catalog import
// ABOUTME: Auto-maps a header when it contains a field key or equals its label
package bulkimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harperreed/agentdash/models"
)

// ErrNoRows means the file has a header but no data rows.
var ErrNoRows = errors.New("csv has no data rows")

// Field is an import target.
type Field struct {
	Key      string
	Label    string
	Required bool
}

// BaseFields are the catalog columns every import can fill.
var BaseFields = []Field{
	{Key: "name", Label: "Name", Required: true},
	{Key: "description", Label: "Description"},
	{Key: "category", Label: "Category"},
	{Key: "price", Label: "Price", Required: true},
	{Key: "currency", Label: "Currency"},
	{Key: "availability", Label: "Availability"},
	{Key: "sku", Label: "SKU"},
	{Key: "image_url", Label: "Image URL"},
}

// FieldsFor returns the base fields followed by the template's custom fields.
func FieldsFor(tmpl *models.CatalogTemplate) []Field {
	fields := append([]Field(nil), BaseFields...)
	if tmpl == nil {
		return fields
	}
	for _, f := range tmpl.Fields {
		fields = append(fields, Field{Key: f.Key, Label: f.Label, Required: f.Required})
	}
	return fields
}

// Sheet is a parsed CSV file.
type Sheet struct {
	FileName string
	Headers  []string
	Rows     [][]string
	Raw      []byte
}

// ParseCSV reads a header row plus data rows. Blank rows are skipped and
// short rows are padded to the header width.
func ParseCSV(name string, data []byte) (*Sheet, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: file is empty", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	sheet := &Sheet{FileName: name, Headers: headers, Raw: data}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if blank(record) {
			continue
		}
		row := make([]string, len(headers))
		copy(row, record)
		sheet.Rows = append(sheet.Rows, row)
	}

	if len(sheet.Rows) == 0 {
		return sheet, fmt.Errorf("%s: %w", name, ErrNoRows)
	}
	return sheet, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Mapping maps a field key to the CSV header that feeds it.
type Mapping map[string]string

// AutoMap pre-maps every field it can. Label matches win over key-substring
// matches, and each header feeds at most one field.
func AutoMap(headers []string, fields []Field) Mapping {
	m := Mapping{}
	used := make(map[string]bool)

	for _, f := range fields {
		for _, h := range headers {
			if !used[h] && strings.EqualFold(strings.TrimSpace(h), f.Label) {
				m[f.Key] = h
				used[h] = true
				break
			}
		}
	}
	for _, f := range fields {
		if _, done := m[f.Key]; done {
			continue
		}
		for _, h := range headers {
			if !used[h] && strings.Contains(strings.ToLower(strings.TrimSpace(h)), f.Key) {
				m[f.Key] = h
				used[h] = true
				break
			}
		}
	}
	return m
}

// Missing lists required fields that have no usable mapping.
func (m Mapping) Missing(fields []Field, headers []string) []Field {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	var missing []Field
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if h := m[f.Key]; h == "" || !known[h] {
			missing = append(missing, f)
		}
	}
	return missing
}

// Compact drops unmapped entries, leaving what the backend receives.
func (m Mapping) Compact() map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Apply projects a row onto field keys using the mapping.
func (m Mapping) Apply(headers []string, row []string) map[string]string {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	out := make(map[string]string, len(m))
	for key, h := range m {
		if i, ok := index[h]; ok && h != "" && i < len(row) {
			out[key] = row[i]
		}
	}
	return out
}
