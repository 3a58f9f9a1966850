package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/db"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/store"
	"github.com/harperreed/agentdash/syncer"
)

const listPageSize = 100

func (m Model) renderListView() string {
	var s strings.Builder

	title := "AGENTDASH"
	if name := m.syncer.Stores().Business.Get().Name; name != "" {
		title += " · " + name
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.searching {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n\n")
	} else if m.searchQuery != "" {
		s.WriteString(helpStyle.Render(fmt.Sprintf("Filter: %q (/ to change)", m.searchQuery)))
		s.WriteString("\n\n")
	}

	if m.entityType == EntitySync {
		s.WriteString(m.renderSyncTable())
	} else {
		s.WriteString(m.renderTable())
	}
	s.WriteString("\n")

	s.WriteString(m.renderStatusLine())
	s.WriteString(m.renderListHelp())
	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, tab := range tabNames {
		if EntityType(i) == m.entityType {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderStatusLine() string {
	switch {
	case m.loading:
		return helpStyle.Render("Loading...") + "\n"
	case m.err != nil:
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if id, ok := m.deletes.Armed(); ok {
		return errorStyle.Render(fmt.Sprintf("Press d again within %s to delete %s", m.deletes.Remaining().Round(100*time.Millisecond), m.nameOf(id))) + "\n"
	}
	if m.message != "" {
		return messageStyle.Render(m.message) + "\n"
	}
	return ""
}

// listing returns the visible ids, table columns and rows for the current tab.
func (m Model) listing() ([]string, []table.Column, []table.Row) {
	st := m.syncer.Stores()
	q := m.searchQuery

	switch m.entityType {
	case EntityCatalog:
		items := store.Filter(st.Catalog.Items(), func(i models.CatalogItem) bool {
			return store.MatchesQuery(q, i.Name, i.SKU, i.Category)
		})
		rows := make([]table.Row, 0, len(items))
		for _, i := range items {
			rows = append(rows, table.Row{i.Name, i.Category, i.Price.StringFixed(2) + " " + i.Currency, string(i.Availability)})
		}
		return models.IDs(items), []table.Column{
			{Title: "Name", Width: 30}, {Title: "Category", Width: 16}, {Title: "Price", Width: 14}, {Title: "Availability", Width: 14},
		}, rows

	case EntityLeads:
		leads := store.Filter(st.Leads.Items(), func(l models.Lead) bool {
			return store.MatchesQuery(q, l.Name, l.Email, l.Company)
		})
		rows := make([]table.Row, 0, len(leads))
		for _, l := range leads {
			rows = append(rows, table.Row{l.Name, l.Company, l.Status, l.Source})
		}
		return models.IDs(leads), []table.Column{
			{Title: "Name", Width: 26}, {Title: "Company", Width: 20}, {Title: "Status", Width: 12}, {Title: "Source", Width: 12},
		}, rows

	case EntityContacts:
		contacts := store.Filter(st.Contacts.Items(), func(c models.Contact) bool {
			return store.MatchesQuery(q, c.Name, c.Email, c.Company)
		})
		rows := make([]table.Row, 0, len(contacts))
		for _, c := range contacts {
			rows = append(rows, table.Row{c.Name, c.Email, c.Company})
		}
		return models.IDs(contacts), []table.Column{
			{Title: "Name", Width: 26}, {Title: "Email", Width: 30}, {Title: "Company", Width: 20},
		}, rows

	case EntityAgents:
		agents := store.Filter(st.ChatAgents.Items(), func(a models.ChatAgent) bool {
			return store.MatchesQuery(q, a.Name, a.Description)
		})
		rows := make([]table.Row, 0, len(agents))
		for _, a := range agents {
			rows = append(rows, table.Row{a.Name, a.Status, fmt.Sprint(len(a.Channels)), fmt.Sprint(len(a.KnowledgeBases)), fmt.Sprint(len(a.Tools))})
		}
		return models.IDs(agents), []table.Column{
			{Title: "Name", Width: 28}, {Title: "Status", Width: 10}, {Title: "Channels", Width: 9}, {Title: "KBs", Width: 5}, {Title: "Tools", Width: 6},
		}, rows
	}
	return nil, nil, nil
}

func (m Model) renderTable() string {
	ids, columns, rows := m.listing()
	if len(rows) == 0 {
		return helpStyle.Render("Nothing here yet. Press r to refresh or n to add one.")
	}

	// Mark the row waiting for a second delete press.
	if armed, ok := m.deletes.Armed(); ok {
		for i, id := range ids {
			if id == armed {
				rows[i] = append(table.Row{"✗ " + rows[i][0]}, rows[i][1:]...)
			}
		}
	}

	height := m.height - 12
	if height < 5 {
		height = 5
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderSyncTable() string {
	if m.db == nil {
		return helpStyle.Render("Sync history is unavailable without the local database.")
	}
	states, err := db.GetAllSyncStates(m.db)
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", err))
	}
	if len(states) == 0 {
		return helpStyle.Render("No syncs recorded yet.")
	}

	rows := make([]table.Row, 0, len(states))
	for _, st := range states {
		last := "never"
		if st.LastSyncTime != nil {
			last = st.LastSyncTime.Local().Format("2006-01-02 15:04")
		}
		status := st.Status
		if st.ErrorMessage != "" {
			status += ": " + st.ErrorMessage
		}
		rows = append(rows, table.Row{st.Resource, last, status})
	}
	t := table.New(
		table.WithColumns([]table.Column{{Title: "Resource", Width: 20}, {Title: "Last sync", Width: 18}, {Title: "Status", Width: 40}}),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)
	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{"↑/↓: Navigate", "Tab: Switch tabs", "r: Refresh"}
	switch m.entityType {
	case EntitySync:
	case EntityAgents:
		help = append(help, "Enter: Details", "g: Graph", "d d: Delete")
	case EntityCatalog:
		help = append(help, "Enter: Details", "/: Search", "n: New", "e: Edit", "i: Import CSV", "d d: Delete")
	default:
		help = append(help, "Enter: Details", "/: Search", "n: New", "e: Edit", "d d: Delete")
	}
	help = append(help, "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		m.selectedRow++
		m.clampSelection()
	case "tab", "shift+tab":
		delta := 1
		if msg.String() == "shift+tab" {
			delta = len(tabNames) - 1
		}
		m.entityType = EntityType((int(m.entityType) + delta) % len(tabNames))
		m.selectedRow = 0
		m.searchQuery = ""
		m.message = ""
		m.err = nil
		m.deletes.Disarm()
		m.loading = true
		return m, m.loadCmd(m.entityType)
	case "r":
		m.loading = true
		m.err = nil
		return m, m.loadCmd(m.entityType)
	case "/":
		if m.entityType != EntitySync {
			m.searching = true
			m.searchInput.SetValue(m.searchQuery)
			m.searchInput.Focus()
		}
	case "enter":
		if id := m.getSelectedID(); id != "" {
			m.selectedID = id
			m.viewMode = ViewDetail
		}
	case "n":
		if m.entityType == EntityCatalog || m.entityType == EntityLeads || m.entityType == EntityContacts {
			m.selectedID = ""
			m.initForm()
			m.viewMode = ViewEdit
		}
	case "e":
		if id := m.getSelectedID(); id != "" && m.entityType != EntityAgents {
			m.selectedID = id
			m.initForm()
			m.viewMode = ViewEdit
		}
	case "d":
		return m.clickDelete()
	case "i":
		if m.entityType == EntityCatalog {
			m.startImport()
			m.viewMode = ViewImport
		}
	case "g":
		if id := m.getSelectedID(); id != "" && m.entityType == EntityAgents {
			m.selectedID = id
			m.graphDOT = ""
			m.viewMode = ViewGraph
			return m, m.graphCmd(id)
		}
	case "esc":
		m.message = ""
		m.err = nil
		m.deletes.Disarm()
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchQuery = strings.TrimSpace(m.searchInput.Value())
		m.searching = false
		m.searchInput.Blur()
		m.selectedRow = 0
		return m, nil
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) clampSelection() {
	ids, _, _ := m.listing()
	if m.selectedRow >= len(ids) {
		m.selectedRow = len(ids) - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

func (m Model) getSelectedID() string {
	ids, _, _ := m.listing()
	if m.selectedRow >= 0 && m.selectedRow < len(ids) {
		return ids[m.selectedRow]
	}
	return ""
}

func (m Model) nameOf(id string) string {
	st := m.syncer.Stores()
	switch m.entityType {
	case EntityCatalog:
		if i, ok := st.Catalog.Get(id); ok {
			return i.Name
		}
	case EntityLeads:
		if l, ok := st.Leads.Get(id); ok {
			return l.Name
		}
	case EntityContacts:
		if c, ok := st.Contacts.Get(id); ok {
			return c.Name
		}
	case EntityAgents:
		if a, ok := st.ChatAgents.Get(id); ok {
			return a.Name
		}
	}
	return id
}

func (m Model) loadCmd(entity EntityType) tea.Cmd {
	s := m.syncer
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()

		params := api.ListParams{Page: 1, PerPage: listPageSize}
		var err error
		switch entity {
		case EntityCatalog:
			err = s.Catalog.Load(ctx, params)
		case EntityLeads:
			err = s.Leads.Load(ctx, params)
		case EntityContacts:
			err = s.Contacts.Load(ctx, params)
		case EntityAgents:
			err = s.ChatAgents.Load(ctx, params)
		}
		if errors.Is(err, syncer.ErrStale) {
			err = nil
		}
		return loadedMsg{entity: entity, err: err}
	}
}
