package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/agentdash/catalog"
	"github.com/harperreed/agentdash/models"
)

func (m Model) renderEditView() string {
	var s strings.Builder

	verb := "NEW "
	if m.selectedID != "" {
		verb = "EDIT "
	}
	title := verb + m.entityTypeName()
	if m.itemWizard != nil {
		title += fmt.Sprintf(" · step %d/%d: %s", m.itemWizard.Step(), m.itemWizard.Total(), m.itemWizard.Current().Name)
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	if len(m.formInputs) == 0 {
		s.WriteString(helpStyle.Render("No fields on this step. Press Enter to continue."))
		s.WriteString("\n")
	}
	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	if m.itemWizard != nil {
		for _, field := range sortedKeys(m.itemWizard.Errors()) {
			s.WriteString(errorStyle.Render("  " + m.itemWizard.Errors()[field]))
			s.WriteString("\n")
		}
	}
	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}

	s.WriteString(m.renderEditHelp())
	return s.String()
}

func (m Model) entityTypeName() string {
	switch m.entityType {
	case EntityCatalog:
		return "CATALOG ITEM"
	case EntityLeads:
		return "LEAD"
	case EntityContacts:
		return "CONTACT"
	}
	return ""
}

func (m Model) renderEditHelp() string {
	help := []string{"Tab: Next field", "Enter: Save", "Esc: Cancel"}
	if m.itemWizard != nil {
		help = []string{"Tab: Next field", "Enter: Next step", "Esc: Previous step"}
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.itemWizard != nil && !m.itemWizard.IsFirst() {
			m.applyItemStep()
			m.itemWizard.Back()
			m.initItemStep()
			return m, nil
		}
		m.viewMode = ViewList
		m.formInputs = nil
		m.itemForm, m.itemWizard = nil, nil
		m.err = nil
		return m, nil
	case "tab", "shift+tab":
		if len(m.formInputs) == 0 {
			return m, nil
		}
		delta := 1
		if msg.String() == "shift+tab" {
			delta = len(m.formInputs) - 1
		}
		m.focusIndex = (m.focusIndex + delta) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		if m.itemWizard != nil {
			return m.advanceItemWizard()
		}
		return m, m.saveCmd()
	}

	if len(m.formInputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) initForm() {
	m.err = nil
	m.itemForm, m.itemWizard = nil, nil
	switch m.entityType {
	case EntityCatalog:
		m.initItemForm()
	case EntityLeads:
		m.initLeadForm()
	case EntityContacts:
		m.initContactForm()
	}
	m.focusIndex = 0
	m.updateFormFocus()
}

func newInput(placeholder string, limit int, value string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.SetValue(value)
	return in
}

func (m *Model) initItemForm() {
	st := m.syncer.Stores()
	form := catalog.NewItemForm(nil)
	if m.selectedID != "" {
		if item, ok := st.Catalog.Get(m.selectedID); ok {
			var tmpl *models.CatalogTemplate
			if t, ok := st.Templates.Get(item.TemplateID); ok {
				tmpl = &t
			}
			form = catalog.FormFromItem(item, tmpl)
		}
	}
	m.itemForm = &form
	m.itemWizard = catalog.NewItemWizard(m.itemForm)
	m.initItemStep()
}

// initItemStep builds the inputs for the wizard's current step from the form.
func (m *Model) initItemStep() {
	f := m.itemForm
	switch m.itemWizard.Step() {
	case 1:
		m.formInputs = []textinput.Model{
			newInput("Name", 200, f.Name),
			newInput("Description", 1000, f.Description),
			newInput("Category", 100, f.Category),
			newInput("SKU", 64, f.SKU),
		}
	case 2:
		var opts []string
		for _, a := range models.Availabilities {
			opts = append(opts, string(a))
		}
		m.formInputs = []textinput.Model{
			newInput("Price (e.g. 12.50)", 20, f.Price),
			newInput("Currency (e.g. USD)", 3, f.Currency),
			newInput("Availability ("+strings.Join(opts, "/")+")", 20, f.Availability),
		}
	case 3:
		m.formInputs = nil
		if f.Template != nil {
			for _, field := range f.Template.Fields {
				label := field.Label
				if field.Required {
					label += " *"
				}
				m.formInputs = append(m.formInputs, newInput(label, 500, f.Extra[field.Key]))
			}
		}
	}
	m.focusIndex = 0
	m.updateFormFocus()
}

// applyItemStep copies the current inputs back into the form.
func (m *Model) applyItemStep() {
	f := m.itemForm
	val := func(i int) string { return strings.TrimSpace(m.formInputs[i].Value()) }
	switch m.itemWizard.Step() {
	case 1:
		f.Name, f.Description, f.Category, f.SKU = val(0), val(1), val(2), val(3)
	case 2:
		f.Price, f.Currency, f.Availability = val(0), strings.ToUpper(val(1)), val(2)
	case 3:
		if f.Template != nil {
			for i, field := range f.Template.Fields {
				f.Extra[field.Key] = val(i)
			}
		}
	}
}

func (m Model) advanceItemWizard() (tea.Model, tea.Cmd) {
	m.applyItemStep()
	last := m.itemWizard.IsLast()
	if !m.itemWizard.Next() {
		return m, nil
	}
	if !last {
		m.initItemStep()
		return m, nil
	}
	return m, m.saveCmd()
}

func (m *Model) initLeadForm() {
	var lead models.Lead
	if m.selectedID != "" {
		lead, _ = m.syncer.Stores().Leads.Get(m.selectedID)
	}
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	if lead.Source == "" {
		lead.Source = models.SourceManual
	}
	m.formInputs = []textinput.Model{
		newInput("Name", 100, lead.Name),
		newInput("Email", 100, lead.Email),
		newInput("Phone", 30, lead.Phone),
		newInput("Company", 100, lead.Company),
		newInput("Status ("+strings.Join(models.LeadStatuses, "/")+")", 20, lead.Status),
		newInput("Source ("+strings.Join(models.Sources, "/")+")", 20, lead.Source),
		newInput("Notes", 500, lead.Notes),
	}
}

func (m *Model) initContactForm() {
	var c models.Contact
	if m.selectedID != "" {
		c, _ = m.syncer.Stores().Contacts.Get(m.selectedID)
	}
	m.formInputs = []textinput.Model{
		newInput("Name", 100, c.Name),
		newInput("Email", 100, c.Email),
		newInput("Phone", 30, c.Phone),
		newInput("Company", 100, c.Company),
		newInput("Position", 100, c.Position),
	}
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

// saveCmd validates the form and creates or updates the record in the background.
func (m Model) saveCmd() tea.Cmd {
	s := m.syncer
	id := m.selectedID
	val := func(i int) string { return strings.TrimSpace(m.formInputs[i].Value()) }

	switch m.entityType {
	case EntityCatalog:
		in, err := m.itemForm.Input()
		if err != nil {
			return func() tea.Msg { return savedMsg{err: err} }
		}
		return func() tea.Msg {
			ctx, cancel := m.ctx()
			defer cancel()
			var err error
			if id == "" {
				_, err = s.Catalog.Create(ctx, in)
			} else {
				_, err = s.Catalog.Update(ctx, id, in, nil)
			}
			return savedMsg{what: in.Name, err: err}
		}

	case EntityLeads:
		in := models.LeadInput{
			Name: val(0), Email: val(1), Phone: val(2), Company: val(3),
			Status: val(4), Source: val(5), Notes: val(6),
		}
		if err := validateLead(in); err != nil {
			return func() tea.Msg { return savedMsg{err: err} }
		}
		return func() tea.Msg {
			ctx, cancel := m.ctx()
			defer cancel()
			var err error
			if id == "" {
				_, err = s.Leads.Create(ctx, in)
			} else {
				_, err = s.Leads.Update(ctx, id, in, nil)
			}
			return savedMsg{what: in.Name, err: err}
		}

	case EntityContacts:
		in := models.ContactInput{Name: val(0), Email: val(1), Phone: val(2), Company: val(3), Position: val(4)}
		if in.Name == "" {
			return func() tea.Msg { return savedMsg{err: fmt.Errorf("name is required")} }
		}
		return func() tea.Msg {
			ctx, cancel := m.ctx()
			defer cancel()
			var err error
			if id == "" {
				in.Status = models.ContactStatusActive
				in.Source = models.SourceManual
				_, err = s.Contacts.Create(ctx, in)
			} else {
				_, err = s.Contacts.Update(ctx, id, in, nil)
			}
			return savedMsg{what: in.Name, err: err}
		}
	}
	return nil
}

func validateLead(in models.LeadInput) error {
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !models.OneOf(in.Status, models.LeadStatuses) {
		return fmt.Errorf("status must be one of %s", strings.Join(models.LeadStatuses, ", "))
	}
	if !models.OneOf(in.Source, models.Sources) {
		return fmt.Errorf("source must be one of %s", strings.Join(models.Sources, ", "))
	}
	return nil
}

func sortedKeys(errs map[string]string) []string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
