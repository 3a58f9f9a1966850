// ABOUTME: Two-press delete for list rows
// ABOUTME: The first d arms the row for a few seconds; a second d on the same row deletes it
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) clickDelete() (tea.Model, tea.Cmd) {
	if m.entityType == EntitySync {
		return m, nil
	}
	id := m.getSelectedID()
	if id == "" {
		return m, nil
	}

	if !m.deletes.Click(id) {
		m.message = ""
		m.err = nil
		return m, tea.Tick(m.deletes.Window(), func(_ time.Time) tea.Msg {
			return disarmMsg{id: id}
		})
	}

	m.message = fmt.Sprintf("Deleting %s...", m.nameOf(id))
	return m, m.deleteCmd(m.entityType, id)
}

// deleteCmd removes the row right away; the binding restores it if the
// backend refuses.
func (m Model) deleteCmd(entity EntityType, id string) tea.Cmd {
	s := m.syncer
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()

		var err error
		switch entity {
		case EntityCatalog:
			err = s.Catalog.Remove(ctx, id)
		case EntityLeads:
			err = s.Leads.Remove(ctx, id)
		case EntityContacts:
			err = s.Contacts.Remove(ctx, id)
		case EntityAgents:
			err = s.ChatAgents.Remove(ctx, id)
		default:
			err = fmt.Errorf("nothing to delete on this tab")
		}
		return deletedMsg{id: id, err: err}
	}
}
