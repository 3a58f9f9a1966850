// ABOUTME: MCP prompt handlers for recurring dashboard workflows
// ABOUTME: Builds lead follow-up, agent review and catalog cleanup prompts from local state
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/store"
)

type PromptHandlers struct {
	stores *store.Stores
}

func NewPromptHandlers(stores *store.Stores) *PromptHandlers {
	return &PromptHandlers{stores: stores}
}

// Prompts describes every prompt GetPrompt understands.
var Prompts = []*mcp.Prompt{
	{
		Name:        "lead-followup",
		Description: "Draft a follow-up message for a lead",
		Arguments:   []*mcp.PromptArgument{{Name: "lead_id", Description: "Lead ID", Required: true}},
	},
	{
		Name:        "agent-review",
		Description: "Review a chat agent's configuration and linked resources",
		Arguments:   []*mcp.PromptArgument{{Name: "agent_id", Description: "Chat agent ID", Required: true}},
	},
	{
		Name:        "catalog-cleanup",
		Description: "Suggest fixes for incomplete or unavailable catalog items",
	},
}

func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	switch request.Params.Name {
	case "lead-followup":
		return h.leadFollowup(args)
	case "agent-review":
		return h.agentReview(args)
	case "catalog-cleanup":
		return h.catalogCleanup()
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) leadFollowup(args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["lead_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("lead_id is required")
	}
	lead, ok := h.stores.Leads.Get(id)
	if !ok {
		return nil, fmt.Errorf("lead %s is not loaded; run find_leads first", id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Draft a short follow-up message for %s", lead.Name)
	if lead.Company != "" {
		fmt.Fprintf(&b, " from %s", lead.Company)
	}
	fmt.Fprintf(&b, ".\n\nCurrent status: %s\n", lead.Status)
	if lead.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", lead.Source)
	}
	if lead.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", lead.Notes)
	}
	if business := h.stores.Business.Get(); business.Name != "" {
		fmt.Fprintf(&b, "\nWrite on behalf of %s.", business.Name)
	}
	return textPrompt("Lead follow-up for "+lead.Name, b.String()), nil
}

func (h *PromptHandlers) agentReview(args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["agent_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("agent_id is required")
	}
	agent, ok := h.stores.ChatAgents.Get(id)
	if !ok {
		return nil, fmt.Errorf("agent %s is not loaded; run list_agents first", id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Review the chat agent %q and suggest improvements.\n\n", agent.Name)
	cfg := agent.AIConfig
	fmt.Fprintf(&b, "Tone: %s\nPersonality: %s\nResponse style: %s\n", cfg.Tone, cfg.Personality, cfg.ResponseStyle)
	if cfg.GreetingMessage != "" {
		fmt.Fprintf(&b, "Greeting: %s\n", cfg.GreetingMessage)
	}
	if cfg.FallbackMessage != "" {
		fmt.Fprintf(&b, "Fallback: %s\n", cfg.FallbackMessage)
	}
	if len(cfg.HandoverKeywords) > 0 {
		fmt.Fprintf(&b, "Handover keywords: %s\n", strings.Join(cfg.HandoverKeywords, ", "))
	}
	fmt.Fprintf(&b, "\nChannels: %s\n", names(agent.Channels, func(c models.Channel) string { return c.Name }))
	fmt.Fprintf(&b, "Knowledge bases: %s\n", names(agent.KnowledgeBases, func(k models.KnowledgeBase) string { return k.Name }))
	fmt.Fprintf(&b, "Tools: %s\n", names(agent.Tools, func(t models.Tool) string { return t.Name }))
	return textPrompt("Agent review for "+agent.Name, b.String()), nil
}

func (h *PromptHandlers) catalogCleanup() (*mcp.GetPromptResult, error) {
	var b strings.Builder
	b.WriteString("Suggest fixes for these catalog items. Flag missing descriptions, missing SKUs and unavailable stock.\n\n")
	count := 0
	for _, item := range h.stores.Catalog.Items() {
		var issues []string
		if item.Description == "" {
			issues = append(issues, "no description")
		}
		if item.SKU == "" {
			issues = append(issues, "no SKU")
		}
		if item.Availability == models.AvailabilityOutOfStock || item.Availability == models.AvailabilityDiscontinued {
			issues = append(issues, string(item.Availability))
		}
		if len(issues) == 0 {
			continue
		}
		count++
		fmt.Fprintf(&b, "- %s (%s): %s\n", item.Name, item.ID, strings.Join(issues, ", "))
	}
	if count == 0 {
		b.WriteString("No loaded items have obvious issues.\n")
	}
	return textPrompt("Catalog cleanup", b.String()), nil
}

func textPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}

func names[T any](items []T, name func(T) string) string {
	if len(items) == 0 {
		return "none"
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = name(item)
	}
	return strings.Join(out, ", ")
}
