// ABOUTME: Tests for the MCP tool, resource and prompt handlers
// ABOUTME: Handlers run against a syncer pointed at an httptest backend
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/db"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/store"
	"github.com/harperreed/agentdash/syncer"
)

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "data": data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

func setupTestSyncer(t *testing.T, mux *http.ServeMux) *syncer.Syncer {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	stores := store.New()
	return syncer.New(api.NewServices(api.NewClient(srv.URL, api.WithTokenStore(stores.Auth))), stores)
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestListCatalogItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/catalog", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "coffee", r.URL.Query().Get("search"))
		assert.Equal(t, "drinks", r.URL.Query().Get("category"))
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		writeData(w, 200, []map[string]any{
			{"id": "i1", "name": "Flat white", "price": "4.5", "currency": "USD", "availability": "in_stock"},
		})
	})
	h := NewCatalogHandlers(setupTestSyncer(t, mux))

	_, out, err := h.ListCatalogItems(context.Background(), nil, ListCatalogItemsInput{Query: "coffee", Category: "drinks"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "4.50", out.Items[0].Price)
	assert.Equal(t, 1, out.Total)
}

func TestAddCatalogItemValidates(t *testing.T) {
	var (
		mu      sync.Mutex
		created []models.CatalogItemInput
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/catalog", func(w http.ResponseWriter, r *http.Request) {
		var in models.CatalogItemInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		mu.Lock()
		created = append(created, in)
		mu.Unlock()
		writeData(w, 201, models.CatalogItem{ID: "i9", Name: in.Name, Price: in.Price, Currency: in.Currency, Availability: in.Availability})
	})
	s := setupTestSyncer(t, mux)
	h := NewCatalogHandlers(s)
	ctx := context.Background()

	_, _, err := h.AddCatalogItem(ctx, nil, AddCatalogItemInput{Name: "Mocha", Price: "-1"})
	assert.ErrorContains(t, err, "Price cannot be negative")

	_, _, err = h.AddCatalogItem(ctx, nil, AddCatalogItemInput{Price: "3"})
	assert.ErrorContains(t, err, "Name is required")

	_, out, err := h.AddCatalogItem(ctx, nil, AddCatalogItemInput{Name: "Mocha", Price: "5.25"})
	require.NoError(t, err)
	assert.Equal(t, "i9", out.ID)
	assert.Equal(t, "5.25", out.Price)
	assert.Equal(t, "USD", out.Currency)
	assert.Equal(t, "in_stock", out.Availability)

	mu.Lock()
	assert.Len(t, created, 1)
	mu.Unlock()
	assert.Equal(t, 1, s.Stores().Catalog.Len())
}

func TestDeleteCatalogItemNeedsConfirm(t *testing.T) {
	deleted := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/catalog/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted <- r.PathValue("id")
		writeData(w, 200, nil)
	})
	s := setupTestSyncer(t, mux)
	s.Stores().Catalog.Set([]models.CatalogItem{{ID: "i1"}})
	h := NewCatalogHandlers(s)

	_, _, err := h.DeleteCatalogItem(context.Background(), nil, DeleteCatalogItemInput{ID: "i1"})
	assert.ErrorContains(t, err, "confirm")
	assert.Equal(t, 1, s.Stores().Catalog.Len())

	_, out, err := h.DeleteCatalogItem(context.Background(), nil, DeleteCatalogItemInput{ID: "i1", Confirm: true})
	require.NoError(t, err)
	assert.True(t, out.Deleted)
	assert.Equal(t, "i1", <-deleted)
	assert.Zero(t, s.Stores().Catalog.Len())
}

func TestSetItemAvailabilityRollsBack(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/v1/catalog/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnprocessableEntity, "cannot change availability")
	})
	s := setupTestSyncer(t, mux)
	s.Stores().Catalog.Set([]models.CatalogItem{{ID: "i1", Name: "Latte", Availability: models.AvailabilityInStock}})
	h := NewCatalogHandlers(s)

	_, _, err := h.SetItemAvailability(context.Background(), nil, SetItemAvailabilityInput{ID: "i1", Availability: "bogus"})
	assert.ErrorContains(t, err, "invalid availability")

	_, _, err = h.SetItemAvailability(context.Background(), nil, SetItemAvailabilityInput{ID: "i1", Availability: "out_of_stock"})
	assert.Error(t, err)
	item, _ := s.Stores().Catalog.Get("i1")
	assert.Equal(t, models.AvailabilityInStock, item.Availability)
}

func TestLeadTools(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/leads", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "qualified", r.URL.Query().Get("status"))
		writeData(w, 200, []models.Lead{{ID: "l1", Name: "Ada", Status: models.LeadStatusQualified}})
	})
	mux.HandleFunc("POST /api/v1/leads", func(w http.ResponseWriter, r *http.Request) {
		var in models.LeadInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeData(w, 201, models.Lead{ID: "l2", Name: in.Name, Status: in.Status, Source: in.Source})
	})
	mux.HandleFunc("PUT /api/v1/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in models.LeadInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Ada", in.Name)
		writeData(w, 200, models.Lead{ID: r.PathValue("id"), Name: in.Name, Status: in.Status})
	})
	h := NewCRMHandlers(setupTestSyncer(t, mux))
	ctx := context.Background()

	_, found, err := h.FindLeads(ctx, nil, FindLeadsInput{Status: "qualified"})
	require.NoError(t, err)
	require.Len(t, found.Leads, 1)

	_, added, err := h.AddLead(ctx, nil, AddLeadInput{Name: "Grace"})
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusNew, added.Status)
	assert.Equal(t, models.SourceManual, added.Source)

	_, _, err = h.AddLead(ctx, nil, AddLeadInput{Name: "Bad", Source: "carrier pigeon"})
	assert.Error(t, err)

	_, updated, err := h.UpdateLeadStatus(ctx, nil, UpdateLeadStatusInput{ID: "l1", Status: models.LeadStatusWon})
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusWon, updated.Status)

	_, _, err = h.UpdateLeadStatus(ctx, nil, UpdateLeadStatusInput{ID: "l1", Status: "archived"})
	assert.Error(t, err)
}

func TestContactTools(t *testing.T) {
	contacted := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/contacts", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, 200, []models.Contact{{ID: "c1", Name: "Ada", LastContactedAt: &contacted}})
	})
	mux.HandleFunc("POST /api/v1/contacts", func(w http.ResponseWriter, r *http.Request) {
		var in models.ContactInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, models.ContactStatusActive, in.Status)
		writeData(w, 201, models.Contact{ID: "c2", Name: in.Name, Status: in.Status})
	})
	h := NewCRMHandlers(setupTestSyncer(t, mux))

	_, found, err := h.FindContacts(context.Background(), nil, FindContactsInput{Query: "ada"})
	require.NoError(t, err)
	require.Len(t, found.Contacts, 1)
	assert.Equal(t, "2026-01-02T03:04:05Z", found.Contacts[0].LastContactedAt)

	_, _, err = h.AddContact(context.Background(), nil, AddContactInput{})
	assert.Error(t, err)
	_, added, err := h.AddContact(context.Background(), nil, AddContactInput{Name: "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "c2", added.ID)
}

func TestAgentWorkspaceTool(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/chat_agents/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, 200, models.ChatAgent{ID: r.PathValue("id"), Name: "Support", Tools: []models.Tool{{ID: "t2"}}})
	})
	mux.HandleFunc("GET /api/v1/channels", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, 200, []models.Channel{{ID: "ch1", Name: "Web"}})
	})
	mux.HandleFunc("GET /api/v1/knowledge_base", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, 200, []models.KnowledgeBase{})
	})
	mux.HandleFunc("GET /api/v1/tools", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, 200, []models.Tool{{ID: "t1", Name: "Lookup"}, {ID: "t2", Name: "Booking"}})
	})
	mux.HandleFunc("PUT /api/v1/chat_agents/{id}/channels", func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"ch1"}, body["channel_ids"])
		writeData(w, 200, models.ChatAgent{ID: r.PathValue("id"), Name: "Support", Channels: []models.Channel{{ID: "ch1"}}})
	})
	h := NewAgentHandlers(setupTestSyncer(t, mux))
	ctx := context.Background()

	_, ws, err := h.GetAgentWorkspace(ctx, nil, AgentIDInput{AgentID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, "Support", ws.Agent.Name)
	assert.Equal(t, []LinkOutput{{ID: "t1", Name: "Lookup"}, {ID: "t2", Name: "Booking", Linked: true}}, ws.Tools)
	assert.Empty(t, ws.KnowledgeBases)

	_, agent, err := h.ToggleAgentLink(ctx, nil, ToggleAgentLinkInput{AgentID: "a1", Kind: "channels", ResourceID: "ch1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ch1"}, agent.ChannelIDs)
	assert.Equal(t, []string{}, agent.ToolIDs)

	_, _, err = h.ToggleAgentLink(ctx, nil, ToggleAgentLinkInput{AgentID: "a1", Kind: "widgets", ResourceID: "x"})
	assert.Error(t, err)
}

func TestTestAgentTool(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat_agents/{id}/test", func(w http.ResponseWriter, r *http.Request) {
		var req models.AgentTestRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeData(w, 200, models.AgentTestResult{Response: "echo: " + req.Message, ConversationID: "conv1"})
	})
	h := NewAgentHandlers(setupTestSyncer(t, mux))

	_, _, err := h.TestAgent(context.Background(), nil, TestAgentInput{AgentID: "a1"})
	assert.Error(t, err)

	_, out, err := h.TestAgent(context.Background(), nil, TestAgentInput{AgentID: "a1", Message: "hours?"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hours?", out.Response)
}

func TestHistoryTools(t *testing.T) {
	database := setupTestDB(t)
	require.NoError(t, db.RecordImport(database, models.ImportRun{
		ID: "run1", FileName: "menu.csv", TotalRows: 3, SuccessCount: 2, ErrorCount: 1,
		Errors:    []models.RowError{{Row: 3, Message: "price is required"}},
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, db.MarkSynced(database, "leads"))
	h := NewHistoryHandlers(database)

	_, runs, err := h.ListImportRuns(context.Background(), nil, ListImportRunsInput{IncludeErrors: true})
	require.NoError(t, err)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, []string{"row 3: price is required"}, runs.Runs[0].Errors)

	_, status, err := h.SyncStatus(context.Background(), nil, SyncStatusInput{})
	require.NoError(t, err)
	require.Len(t, status.Resources, 1)
	assert.Equal(t, "leads", status.Resources[0].Resource)
	assert.Equal(t, models.SyncStatusIdle, status.Resources[0].Status)
	assert.NotEmpty(t, status.Resources[0].LastSyncTime)
}

func TestReadResource(t *testing.T) {
	stores := store.New()
	stores.Leads.Set([]models.Lead{{ID: "l1", Name: "Ada", Status: models.LeadStatusNew}})
	h := NewResourceHandlers(stores, nil)
	ctx := context.Background()

	res, err := h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "agentdash://leads"}})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)
	assert.Contains(t, res.Contents[0].Text, `"Ada"`)

	res, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "agentdash://dashboard"}})
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "LEAD FUNNEL")

	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://leads"}})
	assert.Error(t, err)
	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "agentdash://deals"}})
	assert.Error(t, err)
}

func TestGetPrompt(t *testing.T) {
	stores := store.New()
	stores.Business.Set(models.Business{ID: "b1", Name: "Corner Cafe"})
	stores.Leads.Set([]models.Lead{{ID: "l1", Name: "Ada", Company: "Analytical", Status: models.LeadStatusContacted}})
	stores.Catalog.Set([]models.CatalogItem{{ID: "i1", Name: "Scone", Availability: models.AvailabilityOutOfStock}})
	h := NewPromptHandlers(stores)
	ctx := context.Background()

	res, err := h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "lead-followup", Arguments: map[string]string{"lead_id": "l1"}}})
	require.NoError(t, err)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Ada from Analytical")
	assert.Contains(t, text, "Corner Cafe")

	res, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "catalog-cleanup"}})
	require.NoError(t, err)
	assert.Contains(t, res.Messages[0].Content.(*mcp.TextContent).Text, "Scone (i1): no description, no SKU, out_of_stock")

	_, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "agent-review", Arguments: map[string]string{"agent_id": "nope"}}})
	assert.Error(t, err)
}

func TestServerRegistersTools(t *testing.T) {
	s := setupTestSyncer(t, http.NewServeMux())
	server := NewServer(s, setupTestDB(t), "test")

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "add_catalog_item")
	assert.Contains(t, names, "get_sync_status")
	assert.Len(t, names, 15)

	prompts, err := session.ListPrompts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, prompts.Prompts, len(Prompts))
}
