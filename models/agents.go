// ABOUTME: Chat agent aggregate and the resources linked to it
// ABOUTME: Channels, knowledge bases, tools, integrations and conversations
package models

import (
	"time"
)

// Chat agent types and statuses.
const (
	AgentTypeSupport = "support"
	AgentTypeSales   = "sales"

	AgentStatusDraft  = "draft"
	AgentStatusActive = "active"
	AgentStatusPaused = "paused"
)

type DayHours struct {
	Day    string `json:"day"`
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

type BusinessHours struct {
	Enabled  bool       `json:"enabled"`
	Timezone string     `json:"timezone,omitempty"`
	Schedule []DayHours `json:"schedule,omitempty"`
}

// AIConfig is the behavior configuration embedded in a chat agent.
type AIConfig struct {
	Tone             string         `json:"tone,omitempty"`
	Personality      string         `json:"personality,omitempty"`
	ResponseStyle    string         `json:"response_style,omitempty"`
	GreetingMessage  string         `json:"greeting_message,omitempty"`
	FallbackMessage  string         `json:"fallback_message,omitempty"`
	HandoverKeywords []string       `json:"handover_keywords,omitempty"`
	Language         string         `json:"language,omitempty"`
	BusinessHours    *BusinessHours `json:"business_hours,omitempty"`
}

type ChatAgent struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Type           string          `json:"type,omitempty"`
	Status         string          `json:"status,omitempty"`
	AIConfig       AIConfig        `json:"ai_config"`
	Channels       []Channel       `json:"channels,omitempty"`
	KnowledgeBases []KnowledgeBase `json:"knowledge_bases,omitempty"`
	Tools          []Tool          `json:"tools,omitempty"`
	CreatedAt      time.Time       `json:"created_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at,omitempty"`
}

func (a ChatAgent) GetID() string { return a.ID }

type ChatAgentInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Status      string   `json:"status,omitempty"`
	AIConfig    AIConfig `json:"ai_config"`
}

type Channel struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Identifier string         `json:"identifier,omitempty"`
	Status     string         `json:"status,omitempty"`
	Config     map[string]any `json:"config,omitempty"`
	CreatedAt  time.Time      `json:"created_at,omitempty"`
}

func (c Channel) GetID() string { return c.ID }

type ChannelInput struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Identifier string         `json:"identifier,omitempty"`
	Config     map[string]any `json:"config,omitempty"`
}

type Tool struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        string         `json:"type,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

func (t Tool) GetID() string { return t.ID }

type ToolInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        string         `json:"type,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

type KnowledgeBase struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Type          string    `json:"type,omitempty"`
	Content       string    `json:"content,omitempty"`
	Status        string    `json:"status,omitempty"`
	DocumentCount int       `json:"document_count,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

func (k KnowledgeBase) GetID() string { return k.ID }

type KnowledgeBaseInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Content     string `json:"content,omitempty"`
}

type Integration struct {
	ID          string         `json:"id"`
	Provider    string         `json:"provider"`
	Name        string         `json:"name,omitempty"`
	Status      string         `json:"status,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	ConnectedAt *time.Time     `json:"connected_at,omitempty"`
}

func (i Integration) GetID() string { return i.ID }

type IntegrationInput struct {
	Provider string         `json:"provider"`
	Name     string         `json:"name,omitempty"`
	Config   map[string]any `json:"config,omitempty"`
}

type AgentTestRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type AgentTestResult struct {
	Response       string   `json:"response"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Sources        []string `json:"sources,omitempty"`
	HandedOver     bool     `json:"handed_over,omitempty"`
}

type Deployment struct {
	Status     string     `json:"status"`
	URL        string     `json:"url,omitempty"`
	EmbedCode  string     `json:"embed_code,omitempty"`
	DeployedAt *time.Time `json:"deployed_at,omitempty"`
}

type Conversation struct {
	ID           string    `json:"id"`
	AgentID      string    `json:"agent_id,omitempty"`
	ChannelID    string    `json:"channel_id,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
	CustomerID   string    `json:"customer_id,omitempty"`
	Status       string    `json:"status,omitempty"`
	LastMessage  string    `json:"last_message,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

func (c Conversation) GetID() string { return c.ID }

type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// IDs returns the ids of the given entities in order.
func IDs[T Identifiable](items []T) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.GetID()
	}
	return ids
}
