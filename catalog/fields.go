// ABOUTME: Validation and coercion of template-defined custom field values
// ABOUTME: Converts raw form strings into typed extra_fields and back
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/wizard"
)

// DateLayout is the accepted format for date fields.
const DateLayout = "2006-01-02"

// ExtraFieldKey is the error key used for a custom field.
func ExtraFieldKey(key string) string {
	return "extra." + key
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(raw))
}

// ValidateValues checks raw values against the template's field definitions.
func ValidateValues(fields []models.TemplateField, values map[string]string) wizard.Errors {
	errs := wizard.Errors{}
	for _, f := range fields {
		raw := strings.TrimSpace(values[f.Key])
		errKey := ExtraFieldKey(f.Key)

		if raw == "" {
			if f.Required {
				errs.Add(errKey, fmt.Sprintf("%s is required", f.Label))
			}
			continue
		}

		switch f.Type {
		case models.FieldNumber:
			if _, err := decimal.NewFromString(raw); err != nil {
				errs.Add(errKey, fmt.Sprintf("%s must be a number", f.Label))
			}
		case models.FieldBoolean:
			if _, err := parseBool(raw); err != nil {
				errs.Add(errKey, fmt.Sprintf("%s must be yes or no", f.Label))
			}
		case models.FieldDate:
			if _, err := time.Parse(DateLayout, raw); err != nil {
				errs.Add(errKey, fmt.Sprintf("%s must be a date (YYYY-MM-DD)", f.Label))
			}
		case models.FieldDropdown:
			if !models.OneOf(raw, f.Options) {
				errs.Add(errKey, fmt.Sprintf("%s must be one of: %s", f.Label, strings.Join(f.Options, ", ")))
			}
		}
	}
	return errs
}

// CoerceValues converts validated raw values into typed extra_fields.
// Empty values are omitted. Keys not defined by the template pass through as strings.
func CoerceValues(fields []models.TemplateField, values map[string]string) (map[string]any, error) {
	if errs := ValidateValues(fields, values); len(errs) > 0 {
		return nil, errs
	}

	out := make(map[string]any)
	defined := make(map[string]bool, len(fields))
	for _, f := range fields {
		defined[f.Key] = true
		raw := strings.TrimSpace(values[f.Key])
		if raw == "" {
			continue
		}
		switch f.Type {
		case models.FieldNumber:
			d, _ := decimal.NewFromString(raw)
			out[f.Key] = json.Number(d.String())
		case models.FieldBoolean:
			b, _ := parseBool(raw)
			out[f.Key] = b
		default:
			out[f.Key] = raw
		}
	}
	for k, v := range values {
		if !defined[k] && strings.TrimSpace(v) != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// FormValues renders extra_fields back into raw form strings.
func FormValues(extra map[string]any) map[string]string {
	out := make(map[string]string, len(extra))
	for k, v := range extra {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case json.Number:
			out[k] = val.String()
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
