// ABOUTME: Catalog item builder: form state, three-step wizard and DTO mappers
// ABOUTME: Basic info, then pricing, then template-driven details
package catalog

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/wizard"
)

// DefaultCurrency is used when a new item has no currency set.
const DefaultCurrency = "USD"

var currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

// ItemForm is the editable shape of a catalog item. Price and custom fields
// are kept as raw strings until submit.
type ItemForm struct {
	Name         string
	Description  string
	Category     string
	SKU          string
	Price        string
	Currency     string
	Availability string
	Images       []string
	Extra        map[string]string

	Template *models.CatalogTemplate
}

func NewItemForm(tmpl *models.CatalogTemplate) ItemForm {
	return ItemForm{
		Currency:     DefaultCurrency,
		Availability: string(models.AvailabilityInStock),
		Extra:        map[string]string{},
		Template:     tmpl,
	}
}

// FormFromItem prepares an existing item for editing.
func FormFromItem(item models.CatalogItem, tmpl *models.CatalogTemplate) ItemForm {
	form := ItemForm{
		Name:         item.Name,
		Description:  item.Description,
		Category:     item.Category,
		SKU:          item.SKU,
		Price:        item.Price.String(),
		Currency:     item.Currency,
		Availability: string(item.Availability),
		Images:       append([]string(nil), item.Images...),
		Extra:        FormValues(item.ExtraFields),
		Template:     tmpl,
	}
	if form.Currency == "" {
		form.Currency = DefaultCurrency
	}
	if form.Availability == "" {
		form.Availability = string(models.AvailabilityInStock)
	}
	return form
}

func validateBasic(f ItemForm) wizard.Errors {
	errs := wizard.Errors{}
	if strings.TrimSpace(f.Name) == "" {
		errs.Add("name", "Name is required")
	} else if utf8.RuneCountInString(f.Name) > 200 {
		errs.Add("name", "Name must be 200 characters or fewer")
	}
	return errs
}

func validatePricing(f ItemForm) wizard.Errors {
	errs := wizard.Errors{}
	price := strings.TrimSpace(f.Price)
	if price == "" {
		errs.Add("price", "Price is required")
	} else if d, err := decimal.NewFromString(price); err != nil {
		errs.Add("price", "Price must be a number")
	} else if d.IsNegative() {
		errs.Add("price", "Price cannot be negative")
	}

	if !currencyPattern.MatchString(strings.TrimSpace(f.Currency)) {
		errs.Add("currency", "Currency must be a 3-letter code")
	}
	if !models.Availability(f.Availability).Valid() {
		errs.Add("availability", "Choose a valid availability")
	}
	return errs
}

func validateDetails(f ItemForm) wizard.Errors {
	if f.Template == nil {
		return nil
	}
	return ValidateValues(f.Template.Fields, f.Extra)
}

// NewItemWizard builds the three-step item builder over form.
func NewItemWizard(form *ItemForm) *wizard.Wizard[ItemForm] {
	return wizard.New(form,
		wizard.Step[ItemForm]{Name: "Basic info", Validate: validateBasic},
		wizard.Step[ItemForm]{Name: "Pricing", Validate: validatePricing},
		wizard.Step[ItemForm]{Name: "Details", Validate: validateDetails},
	)
}

// Input converts a valid form into the API payload.
func (f ItemForm) Input() (models.CatalogItemInput, error) {
	errs := wizard.Errors{}
	for field, msg := range validateBasic(f) {
		errs.Add(field, msg)
	}
	for field, msg := range validatePricing(f) {
		errs.Add(field, msg)
	}
	if err := errs.Err(); err != nil {
		return models.CatalogItemInput{}, err
	}

	var fields []models.TemplateField
	templateID := ""
	if f.Template != nil {
		fields = f.Template.Fields
		templateID = f.Template.ID
	}
	extra, err := CoerceValues(fields, f.Extra)
	if err != nil {
		return models.CatalogItemInput{}, err
	}

	return models.CatalogItemInput{
		Name:         strings.TrimSpace(f.Name),
		Description:  strings.TrimSpace(f.Description),
		Category:     strings.TrimSpace(f.Category),
		SKU:          strings.TrimSpace(f.SKU),
		Price:        decimal.RequireFromString(strings.TrimSpace(f.Price)),
		Currency:     strings.ToUpper(strings.TrimSpace(f.Currency)),
		Availability: models.Availability(f.Availability),
		Images:       f.Images,
		TemplateID:   templateID,
		ExtraFields:  extra,
	}, nil
}
