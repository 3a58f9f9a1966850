// ABOUTME: Registry of every client-side store and its persistence key
// ABOUTME: Open rehydrates persisted stores and keeps them saved on change
package store

import (
	"errors"
	"fmt"

	"github.com/harperreed/agentdash/models"
)

// Storage keys, one per persisted store.
const (
	KeyAuth          = "auth-storage"
	KeyBusiness      = "business-storage"
	KeyCatalog       = "catalog-storage"
	KeyChatAgent     = "chatagent-storage"
	KeyContact       = "contact-storage"
	KeyLead          = "lead-storage"
	KeyIntegration   = "integration-storage"
	KeyKnowledgeBase = "knowledgebase-storage"
	KeyUser          = "user-storage"
	KeyTheme         = "theme-storage"
	KeySidebar       = "sidebar-storage"
)

// Current schema versions. Bump and add a migration when a persisted shape changes.
const (
	listSchemaVersion  = 1
	valueSchemaVersion = 1
)

// Keys lists every persisted key.
var Keys = []string{
	KeyAuth, KeyBusiness, KeyCatalog, KeyChatAgent, KeyContact, KeyLead,
	KeyIntegration, KeyKnowledgeBase, KeyUser, KeyTheme, KeySidebar,
}

type Theme struct {
	Mode string `json:"mode"`
}

type Sidebar struct {
	Collapsed bool   `json:"collapsed"`
	ActiveTab string `json:"active_tab,omitempty"`
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Stores is the full set of client-side state.
type Stores struct {
	Auth     *AuthStore
	Business *Value[models.Business]
	User     *Value[models.User]
	Theme    *Value[Theme]
	Sidebar  *Value[Sidebar]

	Catalog        *ListStore[models.CatalogItem]
	Templates      *ListStore[models.CatalogTemplate]
	ChatAgents     *ListStore[models.ChatAgent]
	Contacts       *ListStore[models.Contact]
	Leads          *ListStore[models.Lead]
	Integrations   *ListStore[models.Integration]
	KnowledgeBases *ListStore[models.KnowledgeBase]
	Channels       *ListStore[models.Channel]
	Tools          *ListStore[models.Tool]
	Conversations  *ListStore[models.Conversation]

	unbind []func()
}

// New returns empty, unpersisted stores.
func New() *Stores {
	return &Stores{
		Auth:           NewAuthStore(),
		Business:       NewValue(models.Business{}),
		User:           NewValue(models.User{}),
		Theme:          NewValue(Theme{Mode: ThemeDark}),
		Sidebar:        NewValue(Sidebar{}),
		Catalog:        NewListStore[models.CatalogItem](),
		Templates:      NewListStore[models.CatalogTemplate](),
		ChatAgents:     NewListStore[models.ChatAgent](),
		Contacts:       NewListStore[models.Contact](),
		Leads:          NewListStore[models.Lead](),
		Integrations:   NewListStore[models.Integration](),
		KnowledgeBases: NewListStore[models.KnowledgeBase](),
		Channels:       NewListStore[models.Channel](),
		Tools:          NewListStore[models.Tool](),
		Conversations:  NewListStore[models.Conversation](),
	}
}

func listSchema[T models.Identifiable](key string) Schema[ListSlice[T]] {
	return Schema[ListSlice[T]]{Key: key, Version: listSchemaVersion, Migrations: map[int]Migration{0: wrapLegacyList}}
}

func valueSchema[S any](key string) Schema[S] {
	return Schema[S]{Key: key, Version: valueSchemaVersion}
}

// Open returns stores rehydrated from kv that save back on every change.
// Blobs that cannot be decoded leave their store empty; the combined error
// names each of them and the stores are still usable.
func Open(kv KV, onSaveErr func(error)) (*Stores, error) {
	s := New()

	var errs []error
	track := func(unbind func(), err error) {
		s.unbind = append(s.unbind, unbind)
		if err != nil {
			errs = append(errs, err)
		}
	}

	track(PersistValue(kv, valueSchema[Session](KeyAuth), s.Auth.Value, onSaveErr))
	track(PersistValue(kv, valueSchema[models.Business](KeyBusiness), s.Business, onSaveErr))
	track(PersistValue(kv, valueSchema[models.User](KeyUser), s.User, onSaveErr))
	track(PersistValue(kv, valueSchema[Theme](KeyTheme), s.Theme, onSaveErr))
	track(PersistValue(kv, valueSchema[Sidebar](KeySidebar), s.Sidebar, onSaveErr))
	track(PersistList(kv, listSchema[models.CatalogItem](KeyCatalog), s.Catalog, onSaveErr))
	track(PersistList(kv, listSchema[models.ChatAgent](KeyChatAgent), s.ChatAgents, onSaveErr))
	track(PersistList(kv, listSchema[models.Contact](KeyContact), s.Contacts, onSaveErr))
	track(PersistList(kv, listSchema[models.Lead](KeyLead), s.Leads, onSaveErr))
	track(PersistList(kv, listSchema[models.Integration](KeyIntegration), s.Integrations, onSaveErr))
	track(PersistList(kv, listSchema[models.KnowledgeBase](KeyKnowledgeBase), s.KnowledgeBases, onSaveErr))

	if len(errs) > 0 {
		return s, fmt.Errorf("rehydrate stores: %w", errors.Join(errs...))
	}
	return s, nil
}

// Close stops persisting changes.
func (s *Stores) Close() {
	for _, unbind := range s.unbind {
		unbind()
	}
	s.unbind = nil
}

// MigrateAll rewrites every persisted blob at its current schema version.
// Missing keys are skipped.
func MigrateAll(kv KV) (map[string]int, error) {
	migrated := make(map[string]int)
	run := func(key string, migrate func(KV) (int, bool, error)) error {
		from, rewrote, err := migrate(kv)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if rewrote {
			migrated[key] = from
		}
		return nil
	}

	steps := []struct {
		key     string
		migrate func(KV) (int, bool, error)
	}{
		{KeyAuth, valueSchema[Session](KeyAuth).Migrate},
		{KeyBusiness, valueSchema[models.Business](KeyBusiness).Migrate},
		{KeyUser, valueSchema[models.User](KeyUser).Migrate},
		{KeyTheme, valueSchema[Theme](KeyTheme).Migrate},
		{KeySidebar, valueSchema[Sidebar](KeySidebar).Migrate},
		{KeyCatalog, listSchema[models.CatalogItem](KeyCatalog).Migrate},
		{KeyChatAgent, listSchema[models.ChatAgent](KeyChatAgent).Migrate},
		{KeyContact, listSchema[models.Contact](KeyContact).Migrate},
		{KeyLead, listSchema[models.Lead](KeyLead).Migrate},
		{KeyIntegration, listSchema[models.Integration](KeyIntegration).Migrate},
		{KeyKnowledgeBase, listSchema[models.KnowledgeBase](KeyKnowledgeBase).Migrate},
	}

	var errs []error
	for _, step := range steps {
		if err := run(step.key, step.migrate); err != nil {
			errs = append(errs, err)
		}
	}
	return migrated, errors.Join(errs...)
}
