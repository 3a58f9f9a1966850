// ABOUTME: Assembles the MCP server from the tool, resource and prompt handlers
// ABOUTME: Every tool mutates state through the syncer so the local stores stay current
package handlers

import (
	"database/sql"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/agentdash/syncer"
)

// NewServer registers every tool, resource and prompt. database may be nil,
// in which case the history tools are left out.
func NewServer(s *syncer.Syncer, database *sql.DB, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "agentdash",
		Version: version,
	}, nil)

	catalogHandlers := NewCatalogHandlers(s)
	crmHandlers := NewCRMHandlers(s)
	agentHandlers := NewAgentHandlers(s)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_catalog_items",
		Description: "List catalog items with optional search, category and availability filters",
	}, catalogHandlers.ListCatalogItems)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_catalog_item",
		Description: "Create a catalog item, validating price, currency and template fields",
	}, catalogHandlers.AddCatalogItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_item_availability",
		Description: "Change a catalog item's availability",
	}, catalogHandlers.SetItemAvailability)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_catalog_item",
		Description: "Delete a catalog item; requires confirm=true",
	}, catalogHandlers.DeleteCatalogItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_leads",
		Description: "Search leads by text and status",
	}, crmHandlers.FindLeads)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_lead",
		Description: "Create a new lead with status new",
	}, crmHandlers.AddLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_lead_status",
		Description: "Move a lead to another funnel status",
	}, crmHandlers.UpdateLeadStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search contacts by name or email",
	}, crmHandlers.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Create a new contact",
	}, crmHandlers.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_agents",
		Description: "List chat agents and the ids of their linked resources",
	}, agentHandlers.ListAgents)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_agent_workspace",
		Description: "Show a chat agent with every channel, knowledge base and tool marked linked or not",
	}, agentHandlers.GetAgentWorkspace)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "toggle_agent_link",
		Description: "Link or unlink a channel, knowledge base or tool on a chat agent",
	}, agentHandlers.ToggleAgentLink)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "test_agent",
		Description: "Send a test message to a chat agent and return its reply",
	}, agentHandlers.TestAgent)

	if database != nil {
		historyHandlers := NewHistoryHandlers(database)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "list_import_runs",
			Description: "List recent bulk catalog imports from the local history",
		}, historyHandlers.ListImportRuns)

		mcp.AddTool(server, &mcp.Tool{
			Name:        "get_sync_status",
			Description: "Show when each resource was last synced and any sync errors",
		}, historyHandlers.SyncStatus)
	}

	resourceHandlers := NewResourceHandlers(s.Stores(), database)
	for _, uri := range ResourceURIs {
		mimeType := "application/json"
		if uri == resourceScheme+"dashboard" {
			mimeType = "text/plain"
		}
		server.AddResource(&mcp.Resource{
			URI:      uri,
			Name:     uri[len(resourceScheme):],
			MIMEType: mimeType,
		}, resourceHandlers.ReadResource)
	}

	promptHandlers := NewPromptHandlers(s.Stores())
	for _, p := range Prompts {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}

	return server
}
