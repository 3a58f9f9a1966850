// ABOUTME: Tests for the REST client against httptest backends
// ABOUTME: Covers envelopes, error normalization, 401 handling, network failures and supersede
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/agentdash/models"
)

type memTokens struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (m *memTokens) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *memTokens) ClearToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.cleared++
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *memTokens) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := &memTokens{token: "secret-token"}
	opts = append([]Option{WithTokenStore(tokens)}, opts...)
	return NewClient(srv.URL, opts...), tokens
}

func TestDoUnwrapsEnvelopeWithPagination(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/leads", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "qualified", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"l1","name":"Ada","status":"qualified"}],
			"pagination":{"page":2,"per_page":10,"total":11,"total_pages":2}}`))
	})

	leads := NewServices(client).Leads
	items, page, err := leads.List(context.Background(), ListParams{Page: 2, Filters: map[string]string{"status": "qualified"}})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "Ada", items[0].Name)
	require.NotNil(t, page)
	assert.Equal(t, 11, page.Total)
	assert.False(t, page.HasNext())
}

func TestDoDecodesBareBodyAndTopLevelPagination(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"b1","name":"Acme","onboarding_completed":true,"total":1,"total_pages":1,"page":1}`))
	})

	var biz models.Business
	meta, err := client.Do(context.Background(), http.MethodGet, "business/me", nil, &biz, nil)
	require.NoError(t, err)

	assert.Equal(t, "Acme", biz.Name)
	assert.True(t, biz.OnboardingCompleted)
	require.NotNil(t, meta.Pagination)
	assert.Equal(t, 1, meta.Pagination.TotalPages)
}

func TestDoSendsAuthAndRequestID(t *testing.T) {
	var gotAuth, gotID string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{}`))
	})

	meta, err := client.Do(context.Background(), http.MethodGet, "auth/me", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Len(t, gotID, 26)
	assert.Equal(t, meta.RequestID, gotID)

	_, err = client.Do(context.Background(), http.MethodPost, "auth/login", nil, nil, &RequestOptions{NoAuth: true})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestDoNormalizesErrorShapes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
		kind    error
	}{
		{"envelope", 422, `{"success":false,"error":{"code":"VALIDATION","message":"name is required","details":{"field":"name"}}}`, "VALIDATION", "name is required", nil},
		{"error string", 400, `{"error":"Invalid request body"}`, "", "Invalid request body", nil},
		{"detail string", 404, `{"detail":"Lead not found"}`, "", "Lead not found", ErrNotFound},
		{"detail list", 422, `{"detail":[{"loc":["body","email"],"msg":"invalid email"},{"loc":["body","name"],"msg":"required"}]}`, "", "invalid email; required", nil},
		{"message", 403, `{"message":"no access"}`, "", "no access", ErrForbidden},
		{"status text", 500, `<html>oops</html>`, "", "Internal Server Error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Do(context.Background(), http.MethodGet, "leads/x", nil, nil, nil)
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, "leads/x", apiErr.Path)
			if tt.kind != nil {
				assert.ErrorIs(t, err, tt.kind)
			}
		})
	}
}

func TestDoUnauthorizedClearsTokenWithoutData(t *testing.T) {
	handled := 0
	client, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"data":{"id":"leak"},"error":{"code":"TOKEN_EXPIRED","message":"token expired"}}`))
	}, WithUnauthorizedHandler(func() { handled++ }))

	out := models.User{ID: "untouched"}
	meta, err := client.Do(context.Background(), http.MethodGet, "auth/me", nil, &out, nil)

	require.Error(t, err)
	assert.Nil(t, meta)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 401, StatusOf(err))
	assert.Equal(t, "untouched", out.ID)
	assert.Empty(t, tokens.Token())
	assert.Equal(t, 1, tokens.cleared)
	assert.Equal(t, 1, handled)
}

func TestDoNetworkErrorHasZeroStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url)
	_, err := client.Do(context.Background(), http.MethodGet, "leads", nil, nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, 0, StatusOf(err))
}

func TestDoSupersedesInflightRequest(t *testing.T) {
	arrived := make(chan struct{}, 2)
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()

		arrived <- struct{}{}
		if first {
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL)
	opts := &RequestOptions{Supersede: true}

	firstErr := make(chan error, 1)
	go func() {
		_, err := client.Do(context.Background(), http.MethodGet, "catalog", nil, nil, opts)
		firstErr <- err
	}()
	<-arrived

	_, err := client.Do(context.Background(), http.MethodGet, "catalog", nil, nil, opts)
	require.NoError(t, err)

	err = <-firstErr
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSuperseded)
}

func TestBulkUploadSendsMultipart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/catalog/bulk-upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var mapping map[string]string
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("field_mapping")), &mapping))
		assert.Equal(t, "Item Name", mapping["name"])
		assert.Equal(t, "tmpl-1", r.FormValue("template_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "items.csv", header.Filename)
		assert.Equal(t, "text/csv", header.Header.Get("Content-Type"))

		_, _ = w.Write([]byte(`{"success":true,"data":{"success_count":3,"error_count":1,"errors":[{"row":4,"message":"price is required"}]}}`))
	})

	result, err := NewServices(client).Catalog.BulkUpload(context.Background(), models.BulkUploadRequest{
		FileName:   "items.csv",
		Content:    []byte("Item Name,Price\nWidget,9.99\n"),
		Mapping:    map[string]string{"name": "Item Name", "price": "Price"},
		TemplateID: "tmpl-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, []models.RowError{{Row: 4, Message: "price is required"}}, result.Errors)
}

func TestSetChannelsReplacesWholeList(t *testing.T) {
	var bodies []map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/chat_agents/a1/channels", r.URL.Path)
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"a1","name":"Helper"}}`))
	})

	agents := NewServices(client).ChatAgents
	agent, err := agents.SetChannels(context.Background(), "a1", []string{"c1", "c2"})
	require.NoError(t, err)
	assert.Equal(t, "Helper", agent.Name)

	_, err = agents.SetChannels(context.Background(), "a1", nil)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, []string{"c1", "c2"}, bodies[0]["channel_ids"])
	assert.Equal(t, []string{}, bodies[1]["channel_ids"])
}

func TestGoogleLoginSendsIDToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "id-token", body["google_id_token"])
		_, _ = w.Write([]byte(`{"access_token":"jwt","refresh_token":"r","user":{"id":"u1","email":"a@b.c"}}`))
	})

	resp, err := NewServices(client).Auth.LoginWithGoogle(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.AccessToken)
	assert.Equal(t, "u1", resp.User.ID)
}

func TestDoSupersededWhileReadingBody(t *testing.T) {
	arrived := make(chan struct{}, 2)
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()

		if first {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"success":true,`))
			w.(http.Flusher).Flush()
			arrived <- struct{}{}
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL)
	opts := &RequestOptions{Supersede: true}

	firstErr := make(chan error, 1)
	go func() {
		_, err := client.Do(context.Background(), http.MethodGet, "leads", nil, nil, opts)
		firstErr <- err
	}()
	<-arrived

	_, err := client.Do(context.Background(), http.MethodGet, "leads", nil, nil, opts)
	require.NoError(t, err)

	err = <-firstErr
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.False(t, errors.Is(err, ErrNetwork))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDoDeadlineOnlyWithPerCallTimeout(t *testing.T) {
	var hasDeadline bool
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		_, hasDeadline = r.Context().Deadline()
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(`{"success":true,"data":null}`)),
			Request:    r,
		}, nil
	})
	client := NewClient("http://backend.test", WithHTTPClient(&http.Client{Transport: transport}))

	_, err := client.Do(context.Background(), http.MethodPost, "catalog/bulk-upload", nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, hasDeadline, "no deadline without a per-call timeout")

	_, err = client.Do(context.Background(), http.MethodGet, "catalog", nil, nil, &RequestOptions{Timeout: time.Minute})
	require.NoError(t, err)
	assert.True(t, hasDeadline)
}

func TestCatalogCreateSendsNumericPrice(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"price":9.99`)

		var wire struct {
			Price float64 `json:"price"`
		}
		require.NoError(t, json.Unmarshal(body, &wire))
		assert.Equal(t, 9.99, wire.Price)

		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"c1","name":"Widget","price":9.99,"currency":"USD"}}`))
	})

	item, err := NewServices(client).Catalog.Create(context.Background(), models.CatalogItemInput{
		Name:     "Widget",
		Price:    decimal.RequireFromString("9.99"),
		Currency: "USD",
	})
	require.NoError(t, err)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("9.99")))
}
