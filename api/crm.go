// ABOUTME: CRM façades for leads and contacts, plus the conversation inbox
// ABOUTME: Leads and contacts are plain paginated CRUD resources
package api

import (
	"context"
	"net/http"

	"github.com/harperreed/agentdash/models"
)

type LeadsAPI struct {
	Resource[models.Lead, models.LeadInput]
}

type ContactsAPI struct {
	Resource[models.Contact, models.ContactInput]
}

type ConvoAPI struct {
	convos Resource[models.Conversation, struct{}]
}

func (c *ConvoAPI) Conversations() Resource[models.Conversation, struct{}] {
	return c.convos
}

func (c *ConvoAPI) List(ctx context.Context, params ListParams) ([]models.Conversation, *models.Pagination, error) {
	return c.convos.List(ctx, params)
}

func (c *ConvoAPI) Get(ctx context.Context, id string) (*models.Conversation, error) {
	return c.convos.Get(ctx, id)
}

func (c *ConvoAPI) Messages(ctx context.Context, id string) ([]models.Message, error) {
	out := []models.Message{}
	if _, err := c.convos.client.Do(ctx, http.MethodGet, c.convos.itemPath(id)+"/messages", nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

// Reply posts an operator message into the conversation.
func (c *ConvoAPI) Reply(ctx context.Context, id, content string) (*models.Message, error) {
	var out models.Message
	body := map[string]string{"message": content}
	if _, err := c.convos.client.Do(ctx, http.MethodPost, c.convos.itemPath(id)+"/reply", body, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}
