// ABOUTME: Catalog façade: items, templates, bulk CSV upload and image upload
// ABOUTME: Bulk upload sends the file plus the header mapping as multipart form data
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/harperreed/agentdash/models"
)

type CatalogAPI struct {
	Resource[models.CatalogItem, models.CatalogItemInput]
	templates Resource[models.CatalogTemplate, models.CatalogTemplateInput]
}

// Templates exposes the template endpoint as a plain CRUD resource.
func (c *CatalogAPI) Templates() Resource[models.CatalogTemplate, models.CatalogTemplateInput] {
	return c.templates
}

func (c *CatalogAPI) ListTemplates(ctx context.Context) ([]models.CatalogTemplate, error) {
	items, _, err := c.templates.List(ctx, ListParams{})
	return items, err
}

func (c *CatalogAPI) GetTemplate(ctx context.Context, id string) (*models.CatalogTemplate, error) {
	return c.templates.Get(ctx, id)
}

func (c *CatalogAPI) CreateTemplate(ctx context.Context, in models.CatalogTemplateInput) (*models.CatalogTemplate, error) {
	return c.templates.Create(ctx, in)
}

func (c *CatalogAPI) UpdateTemplate(ctx context.Context, id string, in models.CatalogTemplateInput) (*models.CatalogTemplate, error) {
	return c.templates.Update(ctx, id, in)
}

func (c *CatalogAPI) DeleteTemplate(ctx context.Context, id string) error {
	return c.templates.Delete(ctx, id)
}

// BulkUpload sends a CSV file with its header mapping. Rows that fail are
// reported in the result; rows that succeeded stay committed.
func (c *CatalogAPI) BulkUpload(ctx context.Context, req models.BulkUploadRequest) (*models.BulkUploadResult, error) {
	mapping, err := json.Marshal(req.Mapping)
	if err != nil {
		return nil, fmt.Errorf("encode field mapping: %w", err)
	}

	body := &Multipart{
		Fields: map[string]string{"field_mapping": string(mapping)},
		Files: []File{{
			Field:       "file",
			Name:        req.FileName,
			ContentType: "text/csv",
			Content:     req.Content,
		}},
	}
	if req.TemplateID != "" {
		body.Fields["template_id"] = req.TemplateID
	}

	var out models.BulkUploadResult
	if _, err := c.client.Do(ctx, http.MethodPost, "catalog/bulk-upload", body, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadImage stores an image and returns its public URL.
func (c *CatalogAPI) UploadImage(ctx context.Context, name string, content []byte) (string, error) {
	body := &Multipart{Files: []File{{Field: "image", Name: name, Content: content}}}

	var out models.UploadedImage
	if _, err := c.client.Do(ctx, http.MethodPost, "catalog/upload-image", body, &out, nil); err != nil {
		return "", err
	}
	return out.URL, nil
}

// SetImages replaces the image list of an item. Used after UploadImage.
func (c *CatalogAPI) SetImages(ctx context.Context, item models.CatalogItem, images []string) (*models.CatalogItem, error) {
	in := models.CatalogItemInput{
		Name:         item.Name,
		Description:  item.Description,
		Category:     item.Category,
		SKU:          item.SKU,
		Price:        item.Price,
		Currency:     item.Currency,
		Availability: item.Availability,
		Images:       images,
		TemplateID:   item.TemplateID,
		ExtraFields:  item.ExtraFields,
	}
	return c.Update(ctx, item.ID, in)
}

// CatalogFilter narrows a catalog listing.
type CatalogFilter struct {
	Category     string
	Availability models.Availability
}

func (f CatalogFilter) Params(page, perPage int, search string) ListParams {
	return ListParams{
		Page:    page,
		PerPage: perPage,
		Search:  search,
		Filters: map[string]string{
			"category":     f.Category,
			"availability": string(f.Availability),
		},
	}
}
