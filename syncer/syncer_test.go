// ABOUTME: Tests for fenced loads, optimistic mutations and session flows
// ABOUTME: Runs the syncer against an httptest backend speaking the envelope format
package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/store"
)

type syncRecord struct {
	resource string
	err      error
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []syncRecord
}

func (f *fakeRecorder) RecordSync(resource string, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, syncRecord{resource, err})
	return nil
}

func (f *fakeRecorder) last() syncRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[len(f.records)-1]
}

func writeData(w http.ResponseWriter, status int, data any, extra map[string]any) {
	body := map[string]any{"success": status < 300, "data": data}
	for k, v := range extra {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

func newTestSyncer(t *testing.T, mux *http.ServeMux) (*Syncer, *fakeRecorder) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	stores := store.New()
	client := api.NewClient(srv.URL, api.WithTokenStore(stores.Auth))
	rec := &fakeRecorder{}
	return New(api.NewServices(client), stores, WithRecorder(rec)), rec
}

func TestFence(t *testing.T) {
	f := NewFence()
	a := f.Next("catalog")
	assert.True(t, f.IsCurrent("catalog", a))

	b := f.Next("catalog")
	assert.False(t, f.IsCurrent("catalog", a))
	assert.True(t, f.IsCurrent("catalog", b))

	assert.True(t, f.IsCurrent("leads", 0))
	assert.Equal(t, uint64(1), f.Next("leads"))
}

func TestLoadReplacesStore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/leads", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "won", r.URL.Query().Get("status"))
		writeData(w, 200, []models.Lead{{ID: "l1", Name: "Ada"}, {ID: "l2", Name: "Grace"}},
			map[string]any{"pagination": map[string]int{"page": 2, "per_page": 2, "total": 5, "total_pages": 3}})
	})
	s, rec := newTestSyncer(t, mux)
	s.stores.Leads.Set([]models.Lead{{ID: "old"}})

	err := s.Leads.Load(context.Background(), api.ListParams{Page: 2, PerPage: 2, Filters: map[string]string{"status": "won"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"l1", "l2"}, models.IDs(s.stores.Leads.Items()))
	assert.Equal(t, 5, s.stores.Leads.Pagination().Total)
	assert.False(t, s.stores.Leads.Loading())
	assert.NoError(t, s.stores.Leads.Err())
	assert.Equal(t, syncRecord{KeyLeads, nil}, rec.last())
}

func TestLoadFailureKeepsItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/contacts", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusInternalServerError, "database unavailable")
	})
	s, rec := newTestSyncer(t, mux)
	s.stores.Contacts.Set([]models.Contact{{ID: "c1"}})

	err := s.Contacts.Load(context.Background(), api.ListParams{})
	require.Error(t, err)
	assert.Equal(t, 500, api.StatusOf(err))

	assert.Equal(t, []string{"c1"}, models.IDs(s.stores.Contacts.Items()))
	assert.Error(t, s.stores.Contacts.Err())
	assert.Equal(t, KeyContacts, rec.last().resource)
	assert.Error(t, rec.last().err)
}

func TestStaleLoadIsDropped(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/catalog", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			close(started)
			<-release
			writeData(w, 200, []models.CatalogItem{{ID: "old"}}, nil)
			return
		}
		writeData(w, 200, []models.CatalogItem{{ID: "new"}}, nil)
	})
	s, _ := newTestSyncer(t, mux)
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() { errc <- s.Catalog.Load(ctx, api.ListParams{Page: 1}) }()
	<-started

	require.NoError(t, s.Catalog.Load(ctx, api.ListParams{Page: 2}))
	assert.True(t, s.stores.Catalog.Loading())

	close(release)
	assert.ErrorIs(t, <-errc, ErrStale)
	assert.Equal(t, []string{"new"}, models.IDs(s.stores.Catalog.Items()))
	assert.False(t, s.stores.Catalog.Loading())
}

func TestMutationFencesInflightLoad(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/tools", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		writeData(w, 200, []models.Tool{{ID: "t1"}, {ID: "t2"}}, nil)
	})
	mux.HandleFunc("DELETE /api/v1/tools/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s, _ := newTestSyncer(t, mux)
	s.stores.Tools.Set([]models.Tool{{ID: "t1"}, {ID: "t2"}})
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() { errc <- s.Tools.Load(ctx, api.ListParams{}) }()
	<-started

	require.NoError(t, s.Tools.Remove(ctx, "t2"))
	close(release)

	assert.ErrorIs(t, <-errc, ErrStale)
	assert.Equal(t, []string{"t1"}, models.IDs(s.stores.Tools.Items()))
}

func TestCreateAddsServerCopy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/channels", func(w http.ResponseWriter, r *http.Request) {
		var in models.ChannelInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeData(w, http.StatusCreated, models.Channel{ID: "ch9", Name: in.Name}, nil)
	})
	s, _ := newTestSyncer(t, mux)

	ch, err := s.Channels.Create(context.Background(), models.ChannelInput{Name: "WhatsApp"})
	require.NoError(t, err)
	assert.Equal(t, "ch9", ch.ID)

	got, ok := s.stores.Channels.Get("ch9")
	require.True(t, ok)
	assert.Equal(t, "WhatsApp", got.Name)
}

func TestUpdateRollsBackOnFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/v1/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeError(w, http.StatusUnprocessableEntity, "invalid status")
			return
		}
		writeData(w, 200, models.Lead{ID: r.PathValue("id"), Name: "Ada", Status: models.LeadStatusWon, Notes: "server"}, nil)
	})
	s, _ := newTestSyncer(t, mux)
	original := models.Lead{ID: "l1", Name: "Ada", Status: models.LeadStatusNew}
	other := models.Lead{ID: "l2", Name: "Grace", Status: models.LeadStatusNew}
	s.stores.Leads.Set([]models.Lead{original, other})
	ctx := context.Background()

	optimistic := original
	optimistic.Status = models.LeadStatusWon
	_, err := s.Leads.Update(ctx, "l1", models.LeadInput{Name: "Ada", Status: models.LeadStatusWon}, &optimistic)
	require.Error(t, err)
	got, _ := s.stores.Leads.Get("l1")
	assert.Equal(t, original, got)

	fail.Store(false)
	_, err = s.Leads.Update(ctx, "l1", models.LeadInput{Name: "Ada", Status: models.LeadStatusWon}, &optimistic)
	require.NoError(t, err)
	got, _ = s.stores.Leads.Get("l1")
	assert.Equal(t, "server", got.Notes)
	untouched, _ := s.stores.Leads.Get("l2")
	assert.Equal(t, other, untouched)
}

func TestRemoveRestoresOnFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/catalog/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusForbidden, "not allowed")
	})
	s, _ := newTestSyncer(t, mux)
	s.stores.Catalog.Set([]models.CatalogItem{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	s.stores.Catalog.Select("b")

	err := s.Catalog.Remove(context.Background(), "b")
	assert.ErrorIs(t, err, api.ErrForbidden)
	assert.Equal(t, []string{"a", "b", "c"}, models.IDs(s.stores.Catalog.Items()))
	assert.Equal(t, "b", s.stores.Catalog.SelectedID())
}

func TestLoginPopulatesStores(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeData(w, 200, models.AuthResponse{
			AccessToken: "tok",
			User:        &models.User{ID: "u1", Email: "ada@example.com"},
			Business:    &models.Business{ID: "b1", Name: "Acme"},
		}, nil)
	})
	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	s, _ := newTestSyncer(t, mux)
	ctx := context.Background()

	user, err := s.Login(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "tok", s.stores.Auth.Token())
	assert.Equal(t, "Bearer", s.stores.Auth.Get().TokenType)
	assert.Equal(t, "Acme", s.stores.Business.Get().Name)

	s.stores.Leads.Set([]models.Lead{{ID: "l1"}})
	s.stores.Theme.Set(store.Theme{Mode: store.ThemeLight})

	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.stores.Auth.IsAuthenticated())
	assert.Empty(t, s.stores.User.Get().ID)
	assert.Empty(t, s.stores.Business.Get().ID)
	assert.Zero(t, s.stores.Leads.Len())
	assert.Equal(t, store.ThemeLight, s.stores.Theme.Get().Mode)
}

func TestLoadSessionWithoutBusiness(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, 200, models.User{ID: "u1"}, nil)
	})
	mux.HandleFunc("GET /api/v1/business/me", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "business not found")
	})
	s, _ := newTestSyncer(t, mux)
	s.stores.Business.Set(models.Business{ID: "stale"})

	user, business, err := s.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Nil(t, business)
	b := s.stores.Business.Get()
	assert.Empty(t, b.ID)
	assert.True(t, b.NeedsOnboarding())
}

func TestSaveBusinessCreatesThenUpdates(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/business", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, "create")
		mu.Unlock()
		writeData(w, 201, models.Business{ID: "b1", Name: "Acme"}, nil)
	})
	mux.HandleFunc("PUT /api/v1/business/me", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, "update")
		mu.Unlock()
		writeData(w, 200, models.Business{ID: "b1", Name: "Acme Ltd"}, nil)
	})
	s, _ := newTestSyncer(t, mux)
	ctx := context.Background()

	_, err := s.SaveBusiness(ctx, models.BusinessInput{Name: "Acme"})
	require.NoError(t, err)
	_, err = s.SaveBusiness(ctx, models.BusinessInput{Name: "Acme Ltd"})
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{"create", "update"}, calls)
	mu.Unlock()
	assert.Equal(t, "Acme Ltd", s.stores.Business.Get().Name)
}
