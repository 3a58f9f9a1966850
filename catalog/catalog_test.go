// ABOUTME: Tests for the item and template builders and field coercion
// ABOUTME: Exercises each wizard step's validator and the DTO mappers
package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/agentdash/models"
)

func shoeTemplate() *models.CatalogTemplate {
	return &models.CatalogTemplate{
		ID:   "tmpl-shoes",
		Name: "Shoes",
		Fields: models.TemplateFields{
			{Key: "size", Label: "Size", Type: models.FieldDropdown, Required: true, Options: []string{"40", "41", "42"}},
			{Key: "waterproof", Label: "Waterproof", Type: models.FieldBoolean},
			{Key: "weight", Label: "Weight", Type: models.FieldNumber},
			{Key: "released", Label: "Released", Type: models.FieldDate},
		},
	}
}

func TestItemWizardSteps(t *testing.T) {
	form := NewItemForm(shoeTemplate())
	w := NewItemWizard(&form)

	assert.False(t, w.Next())
	assert.True(t, w.Errors().Has("name"))

	form.Name = "Trail Runner"
	require.True(t, w.Next())
	assert.Equal(t, 2, w.Step())

	form.Price = "-1"
	form.Currency = "dollars"
	form.Availability = "sold"
	assert.False(t, w.Next())
	assert.Equal(t, "Price cannot be negative", w.Errors()["price"])
	assert.True(t, w.Errors().Has("currency"))
	assert.True(t, w.Errors().Has("availability"))

	form.Price = "89.90"
	form.Currency = "eur"
	form.Availability = string(models.AvailabilityPreorder)
	require.True(t, w.Next())
	assert.Equal(t, 3, w.Step())

	form.Extra["size"] = "39"
	form.Extra["weight"] = "heavy"
	assert.False(t, w.Next())
	assert.True(t, w.Errors().Has(ExtraFieldKey("size")))
	assert.True(t, w.Errors().Has(ExtraFieldKey("weight")))

	form.Extra["size"] = "41"
	form.Extra["weight"] = "0.35"
	form.Extra["waterproof"] = "yes"
	assert.True(t, w.Next())

	in, err := form.Input()
	require.NoError(t, err)
	assert.Equal(t, "EUR", in.Currency)
	assert.True(t, in.Price.Equal(decimal.RequireFromString("89.9")))
	assert.Equal(t, "tmpl-shoes", in.TemplateID)
	assert.Equal(t, "41", in.ExtraFields["size"])
	assert.Equal(t, true, in.ExtraFields["waterproof"])
	assert.Equal(t, json.Number("0.35"), in.ExtraFields["weight"])
	assert.NotContains(t, in.ExtraFields, "released")
}

func TestItemInputRejectsInvalidForm(t *testing.T) {
	form := NewItemForm(nil)
	form.Price = "abc"
	_, err := form.Input()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name: Name is required")
	assert.Contains(t, err.Error(), "price: Price must be a number")
}

func TestItemInputEncodesPriceAsNumber(t *testing.T) {
	form := NewItemForm(nil)
	form.Name = "Widget"
	form.Price = "9.99"

	in, err := form.Input()
	require.NoError(t, err)
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":9.99`)
	assert.Contains(t, string(data), `"name":"Widget"`)

	for _, raw := range []string{`{"name":"Widget","price":9.99}`, `{"name":"Widget","price":"9.99"}`} {
		var decoded models.CatalogItemInput
		require.NoError(t, json.Unmarshal([]byte(raw), &decoded), raw)
		if !decoded.Price.Equal(decimal.RequireFromString("9.99")) {
			t.Errorf("price from %s = %s, want 9.99", raw, decoded.Price)
		}
	}
}

func TestItemNameLengthCountsCharacters(t *testing.T) {
	form := NewItemForm(nil)
	form.Name = strings.Repeat("é", 200)
	assert.False(t, validateBasic(form).Has("name"))

	form.Name = strings.Repeat("é", 201)
	assert.True(t, validateBasic(form).Has("name"))
}

func TestFormFromItemRoundTrip(t *testing.T) {
	tmpl := shoeTemplate()
	item := models.CatalogItem{
		ID:           "c1",
		Name:         "Trail Runner",
		Price:        decimal.RequireFromString("120"),
		Currency:     "USD",
		Availability: models.AvailabilityInStock,
		TemplateID:   tmpl.ID,
		ExtraFields:  map[string]any{"size": "42", "waterproof": false, "weight": 0.4},
	}

	form := FormFromItem(item, tmpl)
	assert.Equal(t, "120", form.Price)
	assert.Equal(t, "false", form.Extra["waterproof"])
	assert.Equal(t, "0.4", form.Extra["weight"])

	in, err := form.Input()
	require.NoError(t, err)
	assert.Equal(t, item.Name, in.Name)
	assert.True(t, in.Price.Equal(item.Price))
	assert.Equal(t, false, in.ExtraFields["waterproof"])
}

func TestValidateValuesDates(t *testing.T) {
	fields := shoeTemplate().Fields
	errs := ValidateValues(fields, map[string]string{"size": "40", "released": "03/01/2024"})
	assert.True(t, errs.Has(ExtraFieldKey("released")))

	errs = ValidateValues(fields, map[string]string{"size": "40", "released": "2024-03-01"})
	assert.Empty(t, errs)
}

func TestKeyFromLabel(t *testing.T) {
	assert.Equal(t, "screen_size_in", KeyFromLabel("Screen Size (in)"))
	assert.Equal(t, "color", KeyFromLabel("  Color  "))
	assert.Equal(t, "", KeyFromLabel("!!"))
}

func TestTemplateWizard(t *testing.T) {
	form := &TemplateForm{}
	w := NewTemplateWizard(form)

	assert.False(t, w.Next())
	form.Name = "Electronics"
	require.True(t, w.Next())

	assert.False(t, w.Next())
	assert.Equal(t, "Add at least one field", w.Errors()["fields"])

	form.AddField(NewFieldForm("Brand", models.FieldText))
	form.AddField(NewFieldForm("brand", models.FieldText))
	form.AddField(FieldForm{Label: "Warranty", Type: models.FieldDropdown})
	form.AddField(FieldForm{Label: "", Key: "blank", Type: models.FieldText})
	assert.False(t, w.Next())
	assert.True(t, w.Errors().Has("fields.1.key"))
	assert.True(t, w.Errors().Has("fields.2.options"))
	assert.True(t, w.Errors().Has("fields.3.label"))

	form.RemoveField(form.Fields[3].ID)
	form.Fields[1].Label = "Model"
	form.Fields[1].Key = KeyFromLabel("Model")
	form.Fields[2].Options = []string{"1 year", " ", "2 years"}
	require.True(t, w.Next())
	assert.True(t, w.IsLast())

	form.MoveField(form.Fields[2].ID, -5)
	in := form.Input()
	assert.Equal(t, "Electronics", in.Name)
	require.Len(t, in.Fields, 3)
	assert.Equal(t, "warranty", in.Fields[0].Key)
	assert.Equal(t, []string{"1 year", "2 years"}, in.Fields[0].Options)
	assert.Equal(t, []string{"brand", "model"}, []string{in.Fields[1].Key, in.Fields[2].Key})
	assert.Nil(t, in.Fields[1].Options)
}

func TestTemplateFormFromTemplate(t *testing.T) {
	form := TemplateFormFrom(*shoeTemplate())
	require.Len(t, form.Fields, 4)
	assert.NotEmpty(t, form.Fields[0].ID)

	in := form.Input()
	assert.Equal(t, []models.TemplateField(shoeTemplate().Fields), in.Fields)
}
