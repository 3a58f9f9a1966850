// ABOUTME: Tests for the TUI model: tabs, search, two-press delete, forms and import
// ABOUTME: The model drives a real syncer pointed at an httptest backend
package tui

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/bulkimport"
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

func setupTestModel(t *testing.T, mux *http.ServeMux, database *sql.DB) Model {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	stores := store.New()
	s := syncer.New(api.NewServices(api.NewClient(srv.URL, api.WithTokenStore(stores.Auth))), stores)
	return NewModel(s, database)
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func seedCatalog(m Model) {
	m.syncer.Stores().Catalog.Set([]models.CatalogItem{
		{ID: "i1", Name: "Flat white", Category: "coffee", Price: decimal.RequireFromString("4.5"), Currency: "USD", Availability: models.AvailabilityInStock},
		{ID: "i2", Name: "Latte", Category: "coffee", Price: decimal.RequireFromString("5"), Currency: "USD", Availability: models.AvailabilityOutOfStock},
	})
}

func TestTabSwitchLoadsLeads(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/leads", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, 200, []models.Lead{{ID: "l1", Name: "Ada", Status: models.LeadStatusNew}})
	})
	m := setupTestModel(t, mux, nil)

	m, cmd := press(t, m, "tab")
	assert.Equal(t, EntityLeads, m.entityType)
	assert.True(t, m.loading)
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.False(t, m.loading)
	assert.NoError(t, m.err)
	assert.Equal(t, 1, m.syncer.Stores().Leads.Len())
	assert.Contains(t, m.View(), "Ada")
}

func TestSearchFiltersRows(t *testing.T) {
	m := setupTestModel(t, http.NewServeMux(), nil)
	seedCatalog(m)

	m, _ = press(t, m, "/")
	assert.True(t, m.searching)
	m = typeText(t, m, "latte")
	m, _ = press(t, m, "enter")

	assert.False(t, m.searching)
	assert.Equal(t, "latte", m.searchQuery)
	ids, _, _ := m.listing()
	assert.Equal(t, []string{"i2"}, ids)
}

func TestTwoPressDelete(t *testing.T) {
	var deletes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/catalog/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "i1", r.PathValue("id"))
		deletes.Add(1)
		writeData(w, 200, nil)
	})
	m := setupTestModel(t, mux, nil)
	seedCatalog(m)

	m, cmd := press(t, m, "d")
	require.NotNil(t, cmd, "first press schedules the disarm tick")
	id, armed := m.deletes.Armed()
	assert.True(t, armed)
	assert.Equal(t, "i1", id)
	assert.Equal(t, 2, m.syncer.Stores().Catalog.Len())
	assert.Contains(t, m.View(), "Press d again")
	assert.Contains(t, m.View(), "✗ Flat white")

	m, cmd = press(t, m, "d")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, int32(1), deletes.Load())
	assert.Equal(t, "Deleted", m.message)
	assert.Equal(t, []string{"i2"}, models.IDs(m.syncer.Stores().Catalog.Items()))
}

func TestDeleteDisarmsAfterTick(t *testing.T) {
	m := setupTestModel(t, http.NewServeMux(), nil)
	seedCatalog(m)

	m, _ = press(t, m, "d")
	next, _ := m.Update(disarmMsg{id: "i1"})
	m = next.(Model)
	_, armed := m.deletes.Armed()
	assert.False(t, armed)

	// a new first press arms again rather than deleting
	m, _ = press(t, m, "d")
	_, armed = m.deletes.Armed()
	assert.True(t, armed)
	assert.Equal(t, 2, m.syncer.Stores().Catalog.Len())
}

func TestDeleteFailureRestoresRow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/catalog/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})
	m := setupTestModel(t, mux, nil)
	seedCatalog(m)

	m, cmd := press(t, m, "d", "d")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Error(t, m.err)
	assert.Equal(t, "Delete failed, item restored", m.message)
	assert.Equal(t, 2, m.syncer.Stores().Catalog.Len())
}

func TestNewLeadForm(t *testing.T) {
	var got atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/leads", func(w http.ResponseWriter, r *http.Request) {
		var in models.LeadInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		got.Store(in)
		writeData(w, 201, models.Lead{ID: "l9", Name: in.Name, Status: in.Status, Source: in.Source})
	})
	m := setupTestModel(t, mux, nil)
	m.entityType = EntityLeads

	m, _ = press(t, m, "n")
	require.Equal(t, ViewEdit, m.viewMode)
	require.Len(t, m.formInputs, 7)
	assert.Equal(t, models.LeadStatusNew, m.formInputs[4].Value())

	// q is text while editing
	m = typeText(t, m, "Quinn")
	assert.Equal(t, ViewEdit, m.viewMode)
	m, _ = press(t, m, "tab")
	m = typeText(t, m, "quinn@example.com")

	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, ViewList, m.viewMode)
	assert.Equal(t, "Saved Quinn", m.message)
	in := got.Load().(models.LeadInput)
	assert.Equal(t, "quinn@example.com", in.Email)
	assert.Equal(t, models.SourceManual, in.Source)
	assert.Equal(t, 1, m.syncer.Stores().Leads.Len())
}

func TestLeadFormRejectsBadStatus(t *testing.T) {
	m := setupTestModel(t, http.NewServeMux(), nil)
	m.entityType = EntityLeads
	m, _ = press(t, m, "n")
	m.formInputs[0].SetValue("Ada")
	m.formInputs[4].SetValue("maybe")

	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, ViewEdit, m.viewMode)
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "status must be one of")
}

func TestCatalogWizardBlocksInvalidStep(t *testing.T) {
	m := setupTestModel(t, http.NewServeMux(), nil)

	m, _ = press(t, m, "n")
	require.NotNil(t, m.itemWizard)
	assert.Equal(t, 1, m.itemWizard.Step())

	m, _ = press(t, m, "enter")
	assert.Equal(t, 1, m.itemWizard.Step())
	assert.NotEmpty(t, m.itemWizard.Errors())

	m.formInputs[0].SetValue("Cortado")
	m, _ = press(t, m, "enter")
	assert.Equal(t, 2, m.itemWizard.Step())
	assert.Contains(t, m.View(), "step 2/3: Pricing")

	m, _ = press(t, m, "esc")
	assert.Equal(t, 1, m.itemWizard.Step())
	assert.Equal(t, "Cortado", m.formInputs[0].Value())
}

func TestCatalogImportFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/catalog/bulk-upload", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, 200, models.BulkUploadResult{SuccessCount: 1, ErrorCount: 1, Errors: []models.RowError{{Row: 3, Message: "price is required"}}})
	})
	database := setupTestDB(t)
	m := setupTestModel(t, mux, database)

	path := filepath.Join(t.TempDir(), "widgets.csv")
	require.NoError(t, os.WriteFile(path, []byte("Item Name,Description,Category,Price\nWidget,A widget,Tools,9.99\nGadget,,Tools,\n"), 0600))

	m, _ = press(t, m, "i")
	require.Equal(t, ViewImport, m.viewMode)
	m = typeText(t, m, path)
	m, _ = press(t, m, "enter")
	require.NoError(t, m.err)
	assert.Equal(t, bulkimport.StepMap, m.importSession.Step())
	assert.Contains(t, m.View(), "Item Name")

	m, _ = press(t, m, "enter")
	assert.Equal(t, bulkimport.StepPreview, m.importSession.Step())
	assert.Contains(t, m.View(), "Showing 2 of 2 rows")

	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)
	require.NoError(t, m.err)
	assert.Equal(t, bulkimport.StepResult, m.importSession.Step())
	view := m.View()
	assert.Contains(t, view, "✓ 1 imported")
	assert.Contains(t, view, "row 3: price is required")

	runs, err := db.ListImportRuns(database, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "widgets.csv", runs[0].FileName)
	assert.Equal(t, 2, runs[0].TotalRows)
}

func TestCycleHeader(t *testing.T) {
	headers := []string{"A", "B"}
	assert.Equal(t, "A", cycleHeader(headers, "", 1))
	assert.Equal(t, "", cycleHeader(headers, "B", 1))
	assert.Equal(t, "B", cycleHeader(headers, "", -1))
}

func TestSyncTabRendering(t *testing.T) {
	database := setupTestDB(t)
	errMsg := "token expired"
	require.NoError(t, db.UpdateSyncStatus(database, "leads", "error", &errMsg))
	require.NoError(t, db.MarkSynced(database, "catalog"))

	m := setupTestModel(t, http.NewServeMux(), database)
	m.entityType = EntitySync
	output := m.View()

	if !strings.Contains(output, "leads") {
		t.Error("sync tab should list the leads resource")
	}
	if !strings.Contains(output, "token expired") {
		t.Error("sync tab should show the last error")
	}

	m.db = nil
	assert.Contains(t, m.View(), "unavailable")
}
