// ABOUTME: Syncer wires every backend resource to its client-side store
// ABOUTME: Commands, the TUI and MCP handlers mutate state only through it
package syncer

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/store"
)

// Resource keys used for fencing and the local sync history.
const (
	KeyCatalog        = "catalog"
	KeyTemplates      = "catalog_templates"
	KeyLeads          = "leads"
	KeyContacts       = "contacts"
	KeyChatAgents     = "chat_agents"
	KeyKnowledgeBases = "knowledge_bases"
	KeyChannels       = "channels"
	KeyIntegrations   = "integrations"
	KeyTools          = "tools"
	KeyConversations  = "conversations"
	KeyGoogleContacts = "google_contacts"
)

// Recorder stores the outcome of each sync for later inspection.
type Recorder interface {
	RecordSync(resource string, err error) error
}

type Syncer struct {
	services *api.Services
	stores   *store.Stores
	fence    *Fence
	recorder Recorder
	logger   *log.Logger

	Catalog        *Binding[models.CatalogItem, models.CatalogItemInput]
	Templates      *Binding[models.CatalogTemplate, models.CatalogTemplateInput]
	Leads          *Binding[models.Lead, models.LeadInput]
	Contacts       *Binding[models.Contact, models.ContactInput]
	ChatAgents     *Binding[models.ChatAgent, models.ChatAgentInput]
	KnowledgeBases *Binding[models.KnowledgeBase, models.KnowledgeBaseInput]
	Channels       *Binding[models.Channel, models.ChannelInput]
	Integrations   *Binding[models.Integration, models.IntegrationInput]
	Tools          *Binding[models.Tool, models.ToolInput]
	Conversations  *Binding[models.Conversation, struct{}]
}

type Option func(*Syncer)

func WithRecorder(r Recorder) Option {
	return func(s *Syncer) { s.recorder = r }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Syncer) { s.logger = l }
}

func New(services *api.Services, stores *store.Stores, opts ...Option) *Syncer {
	s := &Syncer{
		services: services,
		stores:   stores,
		fence:    NewFence(),
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Catalog = newBinding(s, KeyCatalog, stores.Catalog, services.Catalog.Resource)
	s.Templates = newBinding(s, KeyTemplates, stores.Templates, services.Catalog.Templates())
	s.Leads = newBinding(s, KeyLeads, stores.Leads, services.Leads.Resource)
	s.Contacts = newBinding(s, KeyContacts, stores.Contacts, services.Contacts.Resource)
	s.ChatAgents = newBinding(s, KeyChatAgents, stores.ChatAgents, services.ChatAgents.Resource)
	s.KnowledgeBases = newBinding(s, KeyKnowledgeBases, stores.KnowledgeBases, services.KnowledgeBases.Resource)
	s.Channels = newBinding(s, KeyChannels, stores.Channels, services.Channels.Resource)
	s.Integrations = newBinding(s, KeyIntegrations, stores.Integrations, services.Integrations.Resource)
	s.Tools = newBinding(s, KeyTools, stores.Tools, services.Tools.Resource)
	s.Conversations = newBinding(s, KeyConversations, stores.Conversations, services.Convo.Conversations())
	return s
}

func (s *Syncer) Services() *api.Services {
	return s.services
}

func (s *Syncer) Stores() *store.Stores {
	return s.stores
}

func (s *Syncer) record(resource string, err error) {
	if err != nil {
		s.logger.Debug("sync failed", "resource", resource, "err", err)
	}
	if s.recorder == nil {
		return
	}
	if rerr := s.recorder.RecordSync(resource, err); rerr != nil {
		s.logger.Warn("could not record sync state", "resource", resource, "err", rerr)
	}
}
