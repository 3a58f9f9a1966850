// ABOUTME: Chat agent MCP tool handlers
// ABOUTME: Implements list_agents, get_agent_workspace, toggle_agent_link and test_agent tools
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/syncer"
)

type AgentHandlers struct {
	syncer *syncer.Syncer
}

func NewAgentHandlers(s *syncer.Syncer) *AgentHandlers {
	return &AgentHandlers{syncer: s}
}

type LinkOutput struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Linked bool   `json:"linked"`
}

type AgentOutput struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Status           string   `json:"status,omitempty"`
	Tone             string   `json:"tone,omitempty"`
	Language         string   `json:"language,omitempty"`
	ChannelIDs       []string `json:"channel_ids"`
	KnowledgeBaseIDs []string `json:"knowledge_base_ids"`
	ToolIDs          []string `json:"tool_ids"`
}

type ListAgentsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search query matched against agent names"`
}

type ListAgentsOutput struct {
	Agents []AgentOutput `json:"agents"`
}

func (h *AgentHandlers) ListAgents(ctx context.Context, request *mcp.CallToolRequest, input ListAgentsInput) (*mcp.CallToolResult, ListAgentsOutput, error) {
	if err := h.syncer.ChatAgents.Load(ctx, api.ListParams{Search: input.Query}); err != nil && !errors.Is(err, syncer.ErrStale) {
		return nil, ListAgentsOutput{}, fmt.Errorf("failed to list agents: %w", err)
	}
	agents := h.syncer.ChatAgents.Store().Items()
	out := ListAgentsOutput{Agents: make([]AgentOutput, 0, len(agents))}
	for _, a := range agents {
		out.Agents = append(out.Agents, agentToOutput(a))
	}
	return nil, out, nil
}

type AgentIDInput struct {
	AgentID string `json:"agent_id" jsonschema:"Chat agent ID (required)"`
}

type WorkspaceOutput struct {
	Agent          AgentOutput  `json:"agent"`
	Channels       []LinkOutput `json:"channels"`
	KnowledgeBases []LinkOutput `json:"knowledge_bases"`
	Tools          []LinkOutput `json:"tools"`
}

// GetAgentWorkspace returns the agent plus every channel, knowledge base and
// tool of the business, each marked linked or not.
func (h *AgentHandlers) GetAgentWorkspace(ctx context.Context, request *mcp.CallToolRequest, input AgentIDInput) (*mcp.CallToolResult, WorkspaceOutput, error) {
	if input.AgentID == "" {
		return nil, WorkspaceOutput{}, fmt.Errorf("agent_id is required")
	}
	ws, err := h.syncer.LoadWorkspace(ctx, input.AgentID)
	if err != nil {
		return nil, WorkspaceOutput{}, fmt.Errorf("failed to load agent workspace: %w", err)
	}

	agent := ws.Agent
	out := WorkspaceOutput{
		Agent:          agentToOutput(agent),
		Channels:       linkOutputs(ws.Channels, syncer.LinkedIDs(agent, syncer.LinkChannels), func(c models.Channel) string { return c.Name }),
		KnowledgeBases: linkOutputs(ws.KnowledgeBases, syncer.LinkedIDs(agent, syncer.LinkKnowledgeBases), func(k models.KnowledgeBase) string { return k.Name }),
		Tools:          linkOutputs(ws.Tools, syncer.LinkedIDs(agent, syncer.LinkTools), func(t models.Tool) string { return t.Name }),
	}
	return nil, out, nil
}

type ToggleAgentLinkInput struct {
	AgentID    string `json:"agent_id" jsonschema:"Chat agent ID (required)"`
	Kind       string `json:"kind" jsonschema:"Link kind: channels, knowledge_bases or tools"`
	ResourceID string `json:"resource_id" jsonschema:"ID of the channel, knowledge base or tool to link or unlink"`
}

func (h *AgentHandlers) ToggleAgentLink(ctx context.Context, request *mcp.CallToolRequest, input ToggleAgentLinkInput) (*mcp.CallToolResult, AgentOutput, error) {
	if input.AgentID == "" || input.ResourceID == "" {
		return nil, AgentOutput{}, fmt.Errorf("agent_id and resource_id are required")
	}
	agent, err := h.syncer.ToggleLink(ctx, input.AgentID, syncer.LinkKind(input.Kind), input.ResourceID)
	if err != nil {
		return nil, AgentOutput{}, err
	}
	return nil, agentToOutput(*agent), nil
}

type TestAgentInput struct {
	AgentID        string `json:"agent_id" jsonschema:"Chat agent ID (required)"`
	Message        string `json:"message" jsonschema:"Customer message to send to the agent (required)"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"Continue an earlier test conversation"`
}

func (h *AgentHandlers) TestAgent(ctx context.Context, request *mcp.CallToolRequest, input TestAgentInput) (*mcp.CallToolResult, models.AgentTestResult, error) {
	if input.AgentID == "" || input.Message == "" {
		return nil, models.AgentTestResult{}, fmt.Errorf("agent_id and message are required")
	}
	result, err := h.syncer.Services().ChatAgents.Test(ctx, input.AgentID, models.AgentTestRequest{
		Message:        input.Message,
		ConversationID: input.ConversationID,
	})
	if err != nil {
		return nil, models.AgentTestResult{}, fmt.Errorf("failed to test agent: %w", err)
	}
	return nil, *result, nil
}

func agentToOutput(a models.ChatAgent) AgentOutput {
	return AgentOutput{
		ID:               a.ID,
		Name:             a.Name,
		Description:      a.Description,
		Status:           a.Status,
		Tone:             a.AIConfig.Tone,
		Language:         a.AIConfig.Language,
		ChannelIDs:       nonNil(syncer.LinkedIDs(a, syncer.LinkChannels)),
		KnowledgeBaseIDs: nonNil(syncer.LinkedIDs(a, syncer.LinkKnowledgeBases)),
		ToolIDs:          nonNil(syncer.LinkedIDs(a, syncer.LinkTools)),
	}
}

func linkOutputs[T models.Identifiable](all []T, linked []string, name func(T) string) []LinkOutput {
	set := make(map[string]bool, len(linked))
	for _, id := range linked {
		set[id] = true
	}
	out := make([]LinkOutput, 0, len(all))
	for _, item := range all {
		out = append(out, LinkOutput{ID: item.GetID(), Name: name(item), Linked: set[item.GetID()]})
	}
	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
