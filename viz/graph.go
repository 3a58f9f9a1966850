// ABOUTME: GraphViz rendering of chat agents and the resources linked to them
// ABOUTME: Channels, knowledge bases and tools shared by several agents become one node
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/store"
)

type GraphGenerator struct {
	stores *store.Stores
}

func NewGraphGenerator(stores *store.Stores) *GraphGenerator {
	return &GraphGenerator{stores: stores}
}

// GenerateAgentGraph renders one agent from the agent store.
func (g *GraphGenerator) GenerateAgentGraph(ctx context.Context, agentID string) (string, error) {
	agent, ok := g.stores.ChatAgents.Get(agentID)
	if !ok {
		return "", fmt.Errorf("agent %s not loaded", agentID)
	}
	return RenderAgents(ctx, agent.Name, []models.ChatAgent{agent})
}

// GenerateWorkspaceGraph renders every loaded agent.
func (g *GraphGenerator) GenerateWorkspaceGraph(ctx context.Context) (string, error) {
	return RenderAgents(ctx, "Agent Workspace", g.stores.ChatAgents.Items())
}

// RenderAgents returns XDOT source for agents and their links.
func RenderAgents(ctx context.Context, label string, agents []models.ChatAgent) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			fmt.Printf("Error closing graphviz: %v\n", err)
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			fmt.Printf("Error closing graph: %v\n", err)
		}
	}()

	graph.SetLabel(label)
	graph.SetRankDir(cgraph.LRRank)

	linked := make(map[string]*cgraph.Node)
	link := func(fromName string, from *cgraph.Node, name, nodeLabel, edgeLabel string, style func(*cgraph.Node)) error {
		node, ok := linked[name]
		if !ok {
			node, err = graph.CreateNodeByName(name)
			if err != nil {
				return fmt.Errorf("failed to create node %s: %w", name, err)
			}
			node.SetLabel(nodeLabel)
			style(node)
			linked[name] = node
		}
		edge, err := graph.CreateEdgeByName(fromName+"->"+name, from, node)
		if err != nil {
			return fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(edgeLabel)
		return nil
	}

	for _, agent := range agents {
		agentName := "agent_" + agent.ID
		node, err := graph.CreateNodeByName(agentName)
		if err != nil {
			return "", fmt.Errorf("failed to create agent node: %w", err)
		}
		status := agent.Status
		if status == "" {
			status = models.AgentStatusDraft
		}
		node.SetLabel(fmt.Sprintf("%s\n(%s)", agent.Name, status))
		node.SetShape("doubleoctagon")
		node.SetStyle("filled")
		node.SetFillColor("lightblue")

		for _, ch := range agent.Channels {
			err := link(agentName, node, "channel_"+ch.ID, fmt.Sprintf("%s\n%s", ch.Name, ch.Type), "channel", func(n *cgraph.Node) {
				n.SetShape("box")
				n.SetStyle("filled")
				n.SetFillColor("lightgreen")
			})
			if err != nil {
				return "", err
			}
		}
		for _, kb := range agent.KnowledgeBases {
			err := link(agentName, node, "kb_"+kb.ID, fmt.Sprintf("%s\n%d docs", kb.Name, kb.DocumentCount), "knows", func(n *cgraph.Node) {
				n.SetShape("folder")
				n.SetStyle("filled")
				n.SetFillColor("lightyellow")
			})
			if err != nil {
				return "", err
			}
		}
		for _, tool := range agent.Tools {
			err := link(agentName, node, "tool_"+tool.ID, tool.Name, "uses", func(n *cgraph.Node) {
				n.SetShape("component")
			})
			if err != nil {
				return "", err
			}
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
