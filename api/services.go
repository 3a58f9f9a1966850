// ABOUTME: Bundles every domain façade around one REST client
// ABOUTME: Callers construct Services once and pass it to syncers, handlers and commands
package api

import (
	"github.com/harperreed/agentdash/models"
)

// Services exposes one façade per backend resource.
type Services struct {
	Client         *Client
	Auth           *AuthAPI
	Business       *BusinessAPI
	Catalog        *CatalogAPI
	Contacts       *ContactsAPI
	Leads          *LeadsAPI
	ChatAgents     *ChatAgentsAPI
	KnowledgeBases *KnowledgeBasesAPI
	Channels       *ChannelsAPI
	Integrations   *IntegrationsAPI
	Tools          *ToolsAPI
	Convo          *ConvoAPI
}

func NewServices(c *Client) *Services {
	return &Services{
		Client:   c,
		Auth:     &AuthAPI{client: c},
		Business: &BusinessAPI{client: c},
		Catalog: &CatalogAPI{
			Resource:  newResource[models.CatalogItem, models.CatalogItemInput](c, "catalog"),
			templates: newResource[models.CatalogTemplate, models.CatalogTemplateInput](c, "catalog/templates"),
		},
		Contacts:       &ContactsAPI{newResource[models.Contact, models.ContactInput](c, "contacts")},
		Leads:          &LeadsAPI{newResource[models.Lead, models.LeadInput](c, "leads")},
		ChatAgents:     &ChatAgentsAPI{newResource[models.ChatAgent, models.ChatAgentInput](c, "chat_agents")},
		KnowledgeBases: &KnowledgeBasesAPI{newResource[models.KnowledgeBase, models.KnowledgeBaseInput](c, "knowledge_base")},
		Channels:       &ChannelsAPI{newResource[models.Channel, models.ChannelInput](c, "channels")},
		Integrations:   &IntegrationsAPI{newResource[models.Integration, models.IntegrationInput](c, "business_integrations")},
		Tools:          &ToolsAPI{newResource[models.Tool, models.ToolInput](c, "tools")},
		Convo:          &ConvoAPI{convos: newResource[models.Conversation, struct{}](c, "convo")},
	}
}
