// ABOUTME: Generic CRUD passthrough shared by the resource façades
// ABOUTME: List/Get/Create/Update/Delete map 1:1 onto REST verbs under one path
package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/harperreed/agentdash/models"
)

// ListParams are the query parameters every list endpoint understands.
type ListParams struct {
	Page    int
	PerPage int
	Search  string
	// Filters holds resource-specific filters such as status or category.
	Filters map[string]string
}

// Values encodes the params, omitting zero values.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	for k, val := range p.Filters {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// Resource is a typed CRUD endpoint. T is the entity, In its write payload.
type Resource[T any, In any] struct {
	client *Client
	path   string
}

func newResource[T any, In any](c *Client, path string) Resource[T, In] {
	return Resource[T, In]{client: c, path: path}
}

func (r Resource[T, In]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// List fetches one page. A newer List on the same resource supersedes an older one.
func (r Resource[T, In]) List(ctx context.Context, params ListParams) ([]T, *models.Pagination, error) {
	var items []T
	meta, err := r.client.Do(ctx, http.MethodGet, r.path, nil, &items, &RequestOptions{
		Query:     params.Values(),
		Supersede: true,
	})
	if err != nil {
		return nil, nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, meta.Pagination, nil
}

func (r Resource[T, In]) Get(ctx context.Context, id string) (*T, error) {
	var item T
	if _, err := r.client.Do(ctx, http.MethodGet, r.itemPath(id), nil, &item, nil); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r Resource[T, In]) Create(ctx context.Context, in In) (*T, error) {
	var item T
	if _, err := r.client.Do(ctx, http.MethodPost, r.path, in, &item, nil); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r Resource[T, In]) Update(ctx context.Context, id string, in In) (*T, error) {
	var item T
	if _, err := r.client.Do(ctx, http.MethodPut, r.itemPath(id), in, &item, nil); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r Resource[T, In]) Delete(ctx context.Context, id string) error {
	_, err := r.client.Do(ctx, http.MethodDelete, r.itemPath(id), nil, nil, nil)
	return err
}
