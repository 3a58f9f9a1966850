// ABOUTME: MCP resource handlers exposing locally loaded dashboard state
// ABOUTME: Serves leads, contacts, catalog, agents and the text dashboard under agentdash:// URIs
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/agentdash/store"
	"github.com/harperreed/agentdash/viz"
)

const resourceScheme = "agentdash://"

// ResourceURIs lists every resource the server registers.
var ResourceURIs = []string{
	resourceScheme + "leads",
	resourceScheme + "contacts",
	resourceScheme + "catalog",
	resourceScheme + "agents",
	resourceScheme + "dashboard",
}

type ResourceHandlers struct {
	stores *store.Stores
	db     *sql.DB
}

func NewResourceHandlers(stores *store.Stores, database *sql.DB) *ResourceHandlers {
	return &ResourceHandlers{stores: stores, db: database}
}

// ReadResource handles resource read requests. Contents reflect the stores as
// last synced; nothing is fetched from the backend.
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	switch strings.TrimPrefix(uri, resourceScheme) {
	case "leads":
		return jsonResource(uri, h.stores.Leads.Items())
	case "contacts":
		return jsonResource(uri, h.stores.Contacts.Items())
	case "catalog":
		items := h.stores.Catalog.Items()
		out := make([]CatalogItemOutput, 0, len(items))
		for _, item := range items {
			out = append(out, catalogItemToOutput(item))
		}
		return jsonResource(uri, out)
	case "agents":
		return jsonResource(uri, h.stores.ChatAgents.Items())
	case "dashboard":
		stats, err := viz.GenerateDashboardStats(h.stores, h.db, time.Now())
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "text/plain", Text: viz.RenderDashboard(stats)},
		}}, nil
	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{URI: uri, MIMEType: "application/json", Text: string(data)},
	}}, nil
}
