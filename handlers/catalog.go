// ABOUTME: Catalog MCP tool handlers
// ABOUTME: Implements list_catalog_items, add_catalog_item, set_item_availability and delete_catalog_item
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/catalog"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/syncer"
)

type CatalogHandlers struct {
	syncer *syncer.Syncer
}

func NewCatalogHandlers(s *syncer.Syncer) *CatalogHandlers {
	return &CatalogHandlers{syncer: s}
}

type CatalogItemOutput struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Category     string         `json:"category,omitempty"`
	SKU          string         `json:"sku,omitempty"`
	Price        string         `json:"price"`
	Currency     string         `json:"currency,omitempty"`
	Availability string         `json:"availability,omitempty"`
	TemplateID   string         `json:"template_id,omitempty"`
	ExtraFields  map[string]any `json:"extra_fields,omitempty"`
	UpdatedAt    string         `json:"updated_at,omitempty"`
}

type ListCatalogItemsInput struct {
	Query        string `json:"query,omitempty" jsonschema:"Search text matched against name, SKU and description"`
	Category     string `json:"category,omitempty" jsonschema:"Filter by category"`
	Availability string `json:"availability,omitempty" jsonschema:"Filter by availability (in_stock, out_of_stock, preorder, discontinued)"`
	Page         int    `json:"page,omitempty" jsonschema:"Page number (default 1)"`
	PerPage      int    `json:"per_page,omitempty" jsonschema:"Items per page (default 20)"`
}

type ListCatalogItemsOutput struct {
	Items      []CatalogItemOutput `json:"items"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"total_pages"`
	Total      int                 `json:"total"`
}

func (h *CatalogHandlers) ListCatalogItems(ctx context.Context, request *mcp.CallToolRequest, input ListCatalogItemsInput) (*mcp.CallToolResult, ListCatalogItemsOutput, error) {
	perPage := input.PerPage
	if perPage == 0 {
		perPage = 20
	}
	filter := api.CatalogFilter{Category: input.Category, Availability: models.Availability(input.Availability)}
	err := h.syncer.Catalog.Load(ctx, filter.Params(input.Page, perPage, input.Query))
	if err != nil && !errors.Is(err, syncer.ErrStale) {
		return nil, ListCatalogItemsOutput{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	ls := h.syncer.Catalog.Store()
	out := ListCatalogItemsOutput{Items: make([]CatalogItemOutput, 0, ls.Len())}
	for _, item := range ls.Items() {
		out.Items = append(out.Items, catalogItemToOutput(item))
	}
	if p := ls.Pagination(); p != nil {
		out.Page, out.TotalPages, out.Total = p.Page, p.TotalPages, p.Total
	} else {
		out.Page, out.TotalPages, out.Total = 1, 1, len(out.Items)
	}
	return nil, out, nil
}

type AddCatalogItemInput struct {
	Name         string            `json:"name" jsonschema:"Item name (required)"`
	Description  string            `json:"description,omitempty" jsonschema:"Item description"`
	Category     string            `json:"category,omitempty" jsonschema:"Category"`
	SKU          string            `json:"sku,omitempty" jsonschema:"Stock keeping unit"`
	Price        string            `json:"price" jsonschema:"Decimal price such as 12.50 (required)"`
	Currency     string            `json:"currency,omitempty" jsonschema:"3-letter currency code (default USD)"`
	Availability string            `json:"availability,omitempty" jsonschema:"Availability (default in_stock)"`
	TemplateID   string            `json:"template_id,omitempty" jsonschema:"Catalog template whose custom fields apply"`
	Fields       map[string]string `json:"fields,omitempty" jsonschema:"Custom field values keyed by template field key"`
}

func (h *CatalogHandlers) AddCatalogItem(ctx context.Context, request *mcp.CallToolRequest, input AddCatalogItemInput) (*mcp.CallToolResult, CatalogItemOutput, error) {
	var tmpl *models.CatalogTemplate
	if input.TemplateID != "" {
		t, err := h.syncer.Templates.Get(ctx, input.TemplateID)
		if err != nil {
			return nil, CatalogItemOutput{}, fmt.Errorf("failed to load template: %w", err)
		}
		tmpl = t
	}

	form := catalog.NewItemForm(tmpl)
	form.Name = input.Name
	form.Description = input.Description
	form.Category = input.Category
	form.SKU = input.SKU
	form.Price = input.Price
	if input.Currency != "" {
		form.Currency = input.Currency
	}
	if input.Availability != "" {
		form.Availability = input.Availability
	}
	for k, v := range input.Fields {
		form.Extra[k] = v
	}

	wiz := catalog.NewItemWizard(&form)
	if !wiz.ValidateAll() {
		return nil, CatalogItemOutput{}, wiz.Errors().Err()
	}
	in, err := form.Input()
	if err != nil {
		return nil, CatalogItemOutput{}, err
	}

	item, err := h.syncer.Catalog.Create(ctx, in)
	if err != nil {
		return nil, CatalogItemOutput{}, fmt.Errorf("failed to create catalog item: %w", err)
	}
	return nil, catalogItemToOutput(*item), nil
}

type SetItemAvailabilityInput struct {
	ID           string `json:"id" jsonschema:"Catalog item ID (required)"`
	Availability string `json:"availability" jsonschema:"New availability (required)"`
}

func (h *CatalogHandlers) SetItemAvailability(ctx context.Context, request *mcp.CallToolRequest, input SetItemAvailabilityInput) (*mcp.CallToolResult, CatalogItemOutput, error) {
	if input.ID == "" {
		return nil, CatalogItemOutput{}, fmt.Errorf("id is required")
	}
	availability := models.Availability(input.Availability)
	if !availability.Valid() {
		return nil, CatalogItemOutput{}, fmt.Errorf("invalid availability %q", input.Availability)
	}

	item, ok := h.syncer.Catalog.Store().Get(input.ID)
	if !ok {
		fetched, err := h.syncer.Catalog.Get(ctx, input.ID)
		if err != nil {
			return nil, CatalogItemOutput{}, fmt.Errorf("failed to get catalog item: %w", err)
		}
		item = *fetched
	}

	optimistic := item
	optimistic.Availability = availability
	in := models.CatalogItemInput{
		Name:         item.Name,
		Description:  item.Description,
		Category:     item.Category,
		SKU:          item.SKU,
		Price:        item.Price,
		Currency:     item.Currency,
		Availability: availability,
		Images:       item.Images,
		TemplateID:   item.TemplateID,
		ExtraFields:  item.ExtraFields,
	}
	updated, err := h.syncer.Catalog.Update(ctx, input.ID, in, &optimistic)
	if err != nil {
		return nil, CatalogItemOutput{}, fmt.Errorf("failed to update catalog item: %w", err)
	}
	return nil, catalogItemToOutput(*updated), nil
}

type DeleteCatalogItemInput struct {
	ID      string `json:"id" jsonschema:"Catalog item ID (required)"`
	Confirm bool   `json:"confirm" jsonschema:"Must be true; deletion cannot be undone"`
}

type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (h *CatalogHandlers) DeleteCatalogItem(ctx context.Context, request *mcp.CallToolRequest, input DeleteCatalogItemInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if input.ID == "" {
		return nil, DeleteOutput{}, fmt.Errorf("id is required")
	}
	if !input.Confirm {
		return nil, DeleteOutput{ID: input.ID}, fmt.Errorf("set confirm to true to delete catalog item %s", input.ID)
	}
	if err := h.syncer.Catalog.Remove(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete catalog item: %w", err)
	}
	return nil, DeleteOutput{ID: input.ID, Deleted: true}, nil
}

func catalogItemToOutput(item models.CatalogItem) CatalogItemOutput {
	return CatalogItemOutput{
		ID:           item.ID,
		Name:         item.Name,
		Description:  item.Description,
		Category:     item.Category,
		SKU:          item.SKU,
		Price:        item.Price.StringFixed(2),
		Currency:     item.Currency,
		Availability: string(item.Availability),
		TemplateID:   item.TemplateID,
		ExtraFields:  item.ExtraFields,
		UpdatedAt:    formatTime(item.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
