// ABOUTME: Chat agent façade plus the linkable resources attached to agents
// ABOUTME: Links are replaced wholesale by PUTting the full id list
package api

import (
	"context"
	"net/http"

	"github.com/harperreed/agentdash/models"
)

type ChatAgentsAPI struct {
	Resource[models.ChatAgent, models.ChatAgentInput]
}

func (a *ChatAgentsAPI) setLinks(ctx context.Context, id, link, key string, ids []string) (*models.ChatAgent, error) {
	if ids == nil {
		ids = []string{}
	}
	var out models.ChatAgent
	body := map[string][]string{key: ids}
	if _, err := a.client.Do(ctx, http.MethodPut, a.itemPath(id)+"/"+link, body, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetChannels replaces the agent's channel links with ids.
func (a *ChatAgentsAPI) SetChannels(ctx context.Context, id string, ids []string) (*models.ChatAgent, error) {
	return a.setLinks(ctx, id, "channels", "channel_ids", ids)
}

// SetKnowledgeBases replaces the agent's knowledge base links with ids.
func (a *ChatAgentsAPI) SetKnowledgeBases(ctx context.Context, id string, ids []string) (*models.ChatAgent, error) {
	return a.setLinks(ctx, id, "knowledge_bases", "knowledge_base_ids", ids)
}

// SetTools replaces the agent's tool links with ids.
func (a *ChatAgentsAPI) SetTools(ctx context.Context, id string, ids []string) (*models.ChatAgent, error) {
	return a.setLinks(ctx, id, "tools", "tool_ids", ids)
}

// Test sends a sample message to the agent without a live channel.
func (a *ChatAgentsAPI) Test(ctx context.Context, id string, req models.AgentTestRequest) (*models.AgentTestResult, error) {
	var out models.AgentTestResult
	if _, err := a.client.Do(ctx, http.MethodPost, a.itemPath(id)+"/test", req, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *ChatAgentsAPI) Deploy(ctx context.Context, id string) (*models.Deployment, error) {
	var out models.Deployment
	if _, err := a.client.Do(ctx, http.MethodPost, a.itemPath(id)+"/deploy", nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

type KnowledgeBasesAPI struct {
	Resource[models.KnowledgeBase, models.KnowledgeBaseInput]
}

// UploadDocument attaches a document file to a knowledge base.
func (k *KnowledgeBasesAPI) UploadDocument(ctx context.Context, id, name string, content []byte) (*models.KnowledgeBase, error) {
	body := &Multipart{Files: []File{{Field: "file", Name: name, Content: content}}}

	var out models.KnowledgeBase
	if _, err := k.client.Do(ctx, http.MethodPost, k.itemPath(id)+"/documents", body, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

type ChannelsAPI struct {
	Resource[models.Channel, models.ChannelInput]
}

type IntegrationsAPI struct {
	Resource[models.Integration, models.IntegrationInput]
}

type ToolsAPI struct {
	Resource[models.Tool, models.ToolInput]
}
