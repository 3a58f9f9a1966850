package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/agentdash/viz"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	title := "AGENT GRAPH"
	if a, ok := m.syncer.Stores().ChatAgents.Get(m.selectedID); ok {
		title += " · " + a.Name
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	case m.graphDOT == "":
		s.WriteString(helpStyle.Render("Rendering..."))
	default:
		s.WriteString(m.graphDOT)
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Esc: Back • q: Quit"))
	return s.String()
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.viewMode = ViewList
		m.graphDOT = ""
		m.err = nil
	}
	return m, nil
}

func (m Model) graphCmd(id string) tea.Cmd {
	gen := viz.NewGraphGenerator(m.syncer.Stores())
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		dot, err := gen.GenerateAgentGraph(ctx, id)
		return graphMsg{dot: dot, err: err}
	}
}
