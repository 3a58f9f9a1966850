// ABOUTME: Loads a chat agent with every linkable resource in parallel
// ABOUTME: Channel, knowledge base and tool links are replaced wholesale by id list
package syncer

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/models"
)

// linkPageSize is large enough to list every linkable resource of a tenant on one page.
const linkPageSize = 100

// Workspace is an agent together with everything it can be linked to.
type Workspace struct {
	Agent          models.ChatAgent
	Channels       []models.Channel
	KnowledgeBases []models.KnowledgeBase
	Tools          []models.Tool
}

// LoadWorkspace fetches the agent and the channel, knowledge base and tool
// lists concurrently. The first failure cancels the rest.
func (s *Syncer) LoadWorkspace(ctx context.Context, agentID string) (*Workspace, error) {
	g, gctx := errgroup.WithContext(ctx)
	params := api.ListParams{PerPage: linkPageSize}

	var agent *models.ChatAgent
	g.Go(func() error {
		a, err := s.services.ChatAgents.Get(gctx, agentID)
		if err != nil {
			return fmt.Errorf("load agent %s: %w", agentID, err)
		}
		agent = a
		return nil
	})
	g.Go(func() error { return ignoreStale(s.Channels.Load(gctx, params)) })
	g.Go(func() error { return ignoreStale(s.KnowledgeBases.Load(gctx, params)) })
	g.Go(func() error { return ignoreStale(s.Tools.Load(gctx, params)) })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !s.stores.ChatAgents.Update(agent.ID, *agent) {
		s.stores.ChatAgents.Add(*agent)
	}
	s.stores.ChatAgents.Select(agent.ID)

	return &Workspace{
		Agent:          *agent,
		Channels:       s.stores.Channels.Items(),
		KnowledgeBases: s.stores.KnowledgeBases.Items(),
		Tools:          s.stores.Tools.Items(),
	}, nil
}

func ignoreStale(err error) error {
	if errors.Is(err, ErrStale) {
		return nil
	}
	return err
}

// LinkKind names one of the agent's link collections.
type LinkKind string

const (
	LinkChannels       LinkKind = "channels"
	LinkKnowledgeBases LinkKind = "knowledge_bases"
	LinkTools          LinkKind = "tools"
)

var LinkKinds = []LinkKind{LinkChannels, LinkKnowledgeBases, LinkTools}

// LinkedIDs returns the ids the agent is currently linked to for kind.
func LinkedIDs(agent models.ChatAgent, kind LinkKind) []string {
	switch kind {
	case LinkChannels:
		return models.IDs(agent.Channels)
	case LinkKnowledgeBases:
		return models.IDs(agent.KnowledgeBases)
	case LinkTools:
		return models.IDs(agent.Tools)
	}
	return nil
}

// SetLinks replaces the agent's links of kind with ids and stores the result.
func (s *Syncer) SetLinks(ctx context.Context, agentID string, kind LinkKind, ids []string) (*models.ChatAgent, error) {
	var (
		agent *models.ChatAgent
		err   error
	)
	switch kind {
	case LinkChannels:
		agent, err = s.services.ChatAgents.SetChannels(ctx, agentID, ids)
	case LinkKnowledgeBases:
		agent, err = s.services.ChatAgents.SetKnowledgeBases(ctx, agentID, ids)
	case LinkTools:
		agent, err = s.services.ChatAgents.SetTools(ctx, agentID, ids)
	default:
		return nil, fmt.Errorf("unknown link kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("set %s for agent %s: %w", kind, agentID, err)
	}

	s.fence.Next(KeyChatAgents)
	if !s.stores.ChatAgents.Update(agentID, *agent) {
		s.stores.ChatAgents.Add(*agent)
	}
	return agent, nil
}

// ToggleLink links id when it is not linked yet and unlinks it otherwise.
func (s *Syncer) ToggleLink(ctx context.Context, agentID string, kind LinkKind, id string) (*models.ChatAgent, error) {
	agent, ok := s.stores.ChatAgents.Get(agentID)
	if !ok {
		fetched, err := s.services.ChatAgents.Get(ctx, agentID)
		if err != nil {
			return nil, fmt.Errorf("load agent %s: %w", agentID, err)
		}
		agent = *fetched
	}

	current := LinkedIDs(agent, kind)
	next := make([]string, 0, len(current)+1)
	found := false
	for _, existing := range current {
		if existing == id {
			found = true
			continue
		}
		next = append(next, existing)
	}
	if !found {
		next = append(next, id)
	}
	return s.SetLinks(ctx, agentID, kind, next)
}
