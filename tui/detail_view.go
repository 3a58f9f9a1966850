package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/agentdash/models"
)

func (m Model) renderDetailView() string {
	var s strings.Builder
	st := m.syncer.Stores()

	field := func(label, value string) {
		if value == "" {
			return
		}
		s.WriteString(labelStyle.Render(label))
		s.WriteString(value)
		s.WriteString("\n")
	}

	switch m.entityType {
	case EntityCatalog:
		item, ok := st.Catalog.Get(m.selectedID)
		if !ok {
			return m.renderMissing()
		}
		s.WriteString(titleStyle.Render(item.Name))
		s.WriteString("\n")
		field("Description", item.Description)
		field("Category", item.Category)
		field("SKU", item.SKU)
		field("Price", item.Price.StringFixed(2)+" "+item.Currency)
		field("Availability", string(item.Availability))
		field("Images", strings.Join(item.Images, ", "))
		for k, v := range item.ExtraFields {
			field(k, fmt.Sprint(v))
		}

	case EntityLeads:
		lead, ok := st.Leads.Get(m.selectedID)
		if !ok {
			return m.renderMissing()
		}
		s.WriteString(titleStyle.Render(lead.Name))
		s.WriteString("\n")
		field("Email", lead.Email)
		field("Phone", lead.Phone)
		field("Company", lead.Company)
		field("Status", lead.Status)
		field("Priority", lead.Priority)
		field("Source", lead.Source)
		field("Notes", lead.Notes)

	case EntityContacts:
		c, ok := st.Contacts.Get(m.selectedID)
		if !ok {
			return m.renderMissing()
		}
		s.WriteString(titleStyle.Render(c.Name))
		s.WriteString("\n")
		field("Email", c.Email)
		field("Phone", c.Phone)
		field("Company", c.Company)
		field("Position", c.Position)
		field("Status", c.Status)
		field("Tags", strings.Join(c.Tags, ", "))
		if c.LastContactedAt != nil {
			field("Last contacted", c.LastContactedAt.Format("2006-01-02"))
		}

	case EntityAgents:
		a, ok := st.ChatAgents.Get(m.selectedID)
		if !ok {
			return m.renderMissing()
		}
		s.WriteString(titleStyle.Render(a.Name))
		s.WriteString("\n")
		field("Description", a.Description)
		field("Status", a.Status)
		field("Tone", a.AIConfig.Tone)
		field("Language", a.AIConfig.Language)
		field("Greeting", a.AIConfig.GreetingMessage)
		field("Channels", joinNames(a.Channels, func(c models.Channel) string { return c.Name }))
		field("Knowledge", joinNames(a.KnowledgeBases, func(k models.KnowledgeBase) string { return k.Name }))
		field("Tools", joinNames(a.Tools, func(t models.Tool) string { return t.Name }))
	}

	s.WriteString("\n")
	help := []string{"Esc: Back"}
	switch m.entityType {
	case EntityAgents:
		help = append(help, "g: Graph")
	default:
		help = append(help, "e: Edit")
	}
	s.WriteString(helpStyle.Render(strings.Join(append(help, "q: Quit"), " • ")))
	return s.String()
}

func (m Model) renderMissing() string {
	return errorStyle.Render("This record is no longer loaded.") + "\n" + helpStyle.Render("Esc: Back")
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.viewMode = ViewList
	case "e":
		if m.entityType != EntityAgents {
			m.initForm()
			m.viewMode = ViewEdit
		}
	case "g":
		if m.entityType == EntityAgents {
			m.graphDOT = ""
			m.viewMode = ViewGraph
			return m, m.graphCmd(m.selectedID)
		}
	}
	return m, nil
}

func joinNames[T any](items []T, name func(T) string) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = name(item)
	}
	return strings.Join(names, ", ")
}
