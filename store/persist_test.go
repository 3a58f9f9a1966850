// ABOUTME: Tests for the versioned persistence boundary and store registry
// ABOUTME: Round-trips, legacy blobs, future versions and badger-backed rehydration
package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/agentdash/models"
)

type mapKV map[string][]byte

func (m mapKV) Get(key string) ([]byte, error) {
	v, ok := m[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m mapKV) Set(key string, value []byte) error {
	m[key] = value
	return nil
}

func (m mapKV) Delete(key string) error {
	delete(m, key)
	return nil
}

func newBadger(t *testing.T) *BadgerKV {
	t.Helper()
	kv, err := OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestSchemaRoundTrip(t *testing.T) {
	kv := mapKV{}
	schema := listSchema[models.CatalogItem](KeyCatalog)
	state := ListSlice[models.CatalogItem]{
		Items: []models.CatalogItem{{
			ID:           "c1",
			Name:         "Widget",
			Price:        decimal.RequireFromString("9.99"),
			Currency:     "USD",
			Availability: models.AvailabilityInStock,
			ExtraFields:  map[string]any{"color": "red"},
		}},
		SelectedID: "c1",
	}

	require.NoError(t, schema.Save(kv, state))

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(kv[KeyCatalog], &env))
	assert.JSONEq(t, "1", string(env["version"]))
	assert.Contains(t, env, "saved_at")

	got, err := schema.Load(kv)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Price.Equal(state.Items[0].Price))
	got.Items[0].Price = state.Items[0].Price
	assert.Equal(t, state, got)
}

func TestSchemaLoadsLegacyBlobs(t *testing.T) {
	schema := listSchema[models.Lead](KeyLead)

	tests := map[string]string{
		"bare array":        `[{"id":"l1","name":"Ada","status":"new"}]`,
		"zustand envelope":  `{"state":{"leads":[{"id":"l1","name":"Ada","status":"new"}],"selectedLead":null},"version":0}`,
		"single collection": `{"leads":[{"id":"l1","name":"Ada","status":"new"}]}`,
	}
	for name, blob := range tests {
		t.Run(name, func(t *testing.T) {
			kv := mapKV{KeyLead: []byte(blob)}
			got, err := schema.Load(kv)
			require.NoError(t, err)
			require.Len(t, got.Items, 1)
			assert.Equal(t, "Ada", got.Items[0].Name)
		})
	}
}

func TestSchemaRejectsFutureVersion(t *testing.T) {
	kv := mapKV{KeyTheme: []byte(`{"version":7,"state":{"mode":"neon"}}`)}
	_, err := valueSchema[Theme](KeyTheme).Load(kv)
	assert.ErrorIs(t, err, ErrFutureVersion)
}

func TestSchemaRunsMigrationChain(t *testing.T) {
	schema := Schema[Theme]{
		Key:     KeyTheme,
		Version: 2,
		Migrations: map[int]Migration{
			1: func(raw json.RawMessage) (json.RawMessage, error) {
				var old struct {
					Dark bool `json:"dark"`
				}
				if err := json.Unmarshal(raw, &old); err != nil {
					return nil, err
				}
				mode := ThemeLight
				if old.Dark {
					mode = ThemeDark
				}
				return json.Marshal(Theme{Mode: mode})
			},
		},
	}

	got, from, err := schema.Decode([]byte(`{"version":1,"state":{"dark":true}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, from)
	assert.Equal(t, Theme{Mode: ThemeDark}, got)
}

func TestOpenRehydratesFromBadger(t *testing.T) {
	kv := newBadger(t)

	first, err := Open(kv, nil)
	require.NoError(t, err)
	first.Leads.Set([]models.Lead{{ID: "l1", Name: "Ada", Status: models.LeadStatusNew}})
	first.Leads.Select("l1")
	first.Theme.Set(Theme{Mode: ThemeLight})
	first.Auth.SetSession(&models.AuthResponse{AccessToken: "tok", User: &models.User{ID: "u1"}})
	// not persisted
	first.Channels.Set([]models.Channel{{ID: "ch1"}})
	first.Close()

	second, err := Open(kv, nil)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, first.Leads.Items(), second.Leads.Items())
	assert.Equal(t, "l1", second.Leads.SelectedID())
	assert.Equal(t, ThemeLight, second.Theme.Get().Mode)
	assert.Equal(t, "tok", second.Auth.Token())
	assert.Equal(t, "Bearer", second.Auth.Get().TokenType)
	assert.Zero(t, second.Channels.Len())
}

func TestOpenKeepsGoingOnBadBlob(t *testing.T) {
	kv := mapKV{
		KeyContact: []byte(`{"version":99,"state":{}}`),
		KeyLead:    []byte(`[{"id":"l1","name":"Ada"}]`),
	}

	s, err := Open(kv, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFutureVersion)
	assert.Zero(t, s.Contacts.Len())
	assert.Equal(t, 1, s.Leads.Len())
}

func TestMigrateAllRewritesLegacyBlobs(t *testing.T) {
	kv := mapKV{
		KeyLead:  []byte(`[{"id":"l1","name":"Ada"}]`),
		KeyTheme: []byte(`{"version":1,"state":{"mode":"dark"}}`),
	}

	migrated, err := MigrateAll(kv)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{KeyLead: 0}, migrated)

	var env struct {
		Version int                    `json:"version"`
		State   ListSlice[models.Lead] `json:"state"`
	}
	require.NoError(t, json.Unmarshal(kv[KeyLead], &env))
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, "Ada", env.State.Items[0].Name)
}

func TestAuthStoreExpiry(t *testing.T) {
	auth := NewAuthStore()
	_, ok := auth.ExpiresAt()
	assert.False(t, ok)

	exp := time.Now().Add(-time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	auth.SetSession(&models.AuthResponse{AccessToken: token})
	got, ok := auth.ExpiresAt()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
	assert.True(t, auth.Expired(time.Now()))

	auth.ClearToken()
	assert.False(t, auth.IsAuthenticated())
}
