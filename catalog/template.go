// ABOUTME: Catalog template builder: editable field list, wizard and DTO mappers
// ABOUTME: Field keys are derived from labels and must be unique within a template
package catalog

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/wizard"
)

// FieldForm is one editable field. ID identifies the row while editing and
// never reaches the backend.
type FieldForm struct {
	ID          string
	Label       string
	Key         string
	Type        models.FieldType
	Required    bool
	Options     []string
	Placeholder string
}

type TemplateForm struct {
	Name        string
	Description string
	Fields      []FieldForm
}

// KeyFromLabel derives a snake_case key, e.g. "Screen Size (in)" -> "screen_size_in".
func KeyFromLabel(label string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

func NewFieldForm(label string, typ models.FieldType) FieldForm {
	return FieldForm{
		ID:    uuid.NewString(),
		Label: label,
		Key:   KeyFromLabel(label),
		Type:  typ,
	}
}

func (f *TemplateForm) AddField(field FieldForm) {
	if field.ID == "" {
		field.ID = uuid.NewString()
	}
	if field.Key == "" {
		field.Key = KeyFromLabel(field.Label)
	}
	f.Fields = append(f.Fields, field)
}

func (f *TemplateForm) RemoveField(id string) {
	kept := f.Fields[:0]
	for _, field := range f.Fields {
		if field.ID != id {
			kept = append(kept, field)
		}
	}
	f.Fields = kept
}

// MoveField shifts a field by delta positions, clamped to the list bounds.
func (f *TemplateForm) MoveField(id string, delta int) {
	from := -1
	for i, field := range f.Fields {
		if field.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return
	}
	to := from + delta
	if to < 0 {
		to = 0
	}
	if to >= len(f.Fields) {
		to = len(f.Fields) - 1
	}
	field := f.Fields[from]
	f.Fields = append(f.Fields[:from], f.Fields[from+1:]...)
	f.Fields = append(f.Fields[:to], append([]FieldForm{field}, f.Fields[to:]...)...)
}

func fieldErrKey(i int, attr string) string {
	return fmt.Sprintf("fields.%d.%s", i, attr)
}

func validateTemplateDetails(f TemplateForm) wizard.Errors {
	errs := wizard.Errors{}
	if strings.TrimSpace(f.Name) == "" {
		errs.Add("name", "Template name is required")
	}
	return errs
}

func validateTemplateFields(f TemplateForm) wizard.Errors {
	errs := wizard.Errors{}
	if len(f.Fields) == 0 {
		errs.Add("fields", "Add at least one field")
		return errs
	}

	seen := make(map[string]int)
	for i, field := range f.Fields {
		if strings.TrimSpace(field.Label) == "" {
			errs.Add(fieldErrKey(i, "label"), "Label is required")
		}
		key := field.Key
		if key == "" {
			key = KeyFromLabel(field.Label)
		}
		if key != "" {
			if first, dup := seen[key]; dup {
				errs.Add(fieldErrKey(i, "key"), fmt.Sprintf("Key %q is already used by field %d", key, first+1))
			} else {
				seen[key] = i
			}
		}
		if !field.Type.Valid() {
			errs.Add(fieldErrKey(i, "type"), "Choose a field type")
		}
		if field.Type == models.FieldDropdown && len(nonEmpty(field.Options)) == 0 {
			errs.Add(fieldErrKey(i, "options"), "Dropdown fields need at least one option")
		}
	}
	return errs
}

// NewTemplateWizard builds the Details -> Fields -> Review builder over form.
func NewTemplateWizard(form *TemplateForm) *wizard.Wizard[TemplateForm] {
	return wizard.New(form,
		wizard.Step[TemplateForm]{Name: "Details", Validate: validateTemplateDetails},
		wizard.Step[TemplateForm]{Name: "Fields", Validate: validateTemplateFields},
		wizard.Step[TemplateForm]{Name: "Review"},
	)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// TemplateFormFrom prepares an existing template for editing.
func TemplateFormFrom(t models.CatalogTemplate) TemplateForm {
	form := TemplateForm{Name: t.Name, Description: t.Description}
	for _, f := range t.Fields {
		form.Fields = append(form.Fields, FieldForm{
			ID:          uuid.NewString(),
			Label:       f.Label,
			Key:         f.Key,
			Type:        f.Type,
			Required:    f.Required,
			Options:     append([]string(nil), f.Options...),
			Placeholder: f.Placeholder,
		})
	}
	return form
}

// Input converts the form into the API payload. Options are only kept on dropdowns.
func (f TemplateForm) Input() models.CatalogTemplateInput {
	in := models.CatalogTemplateInput{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Fields:      make([]models.TemplateField, 0, len(f.Fields)),
	}
	for _, field := range f.Fields {
		key := field.Key
		if key == "" {
			key = KeyFromLabel(field.Label)
		}
		tf := models.TemplateField{
			Key:         key,
			Label:       strings.TrimSpace(field.Label),
			Type:        field.Type,
			Required:    field.Required,
			Placeholder: field.Placeholder,
		}
		if field.Type == models.FieldDropdown {
			tf.Options = nonEmpty(field.Options)
		}
		in.Fields = append(in.Fields, tf)
	}
	return in
}
