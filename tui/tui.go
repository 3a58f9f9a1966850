// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Tabs over the catalog, leads, contacts, agents and sync history, all driven through the syncer
package tui

import (
	"context"
	"database/sql"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/agentdash/bulkimport"
	"github.com/harperreed/agentdash/catalog"
	"github.com/harperreed/agentdash/confirm"
	"github.com/harperreed/agentdash/syncer"
	"github.com/harperreed/agentdash/wizard"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
	ViewImport
)

// EntityType represents the tab being viewed
type EntityType int

const (
	EntityCatalog EntityType = iota
	EntityLeads
	EntityContacts
	EntityAgents
	EntitySync
)

var tabNames = []string{"Catalog", "Leads", "Contacts", "Agents", "Sync"}

const requestTimeout = 30 * time.Second

// Model is the main bubbletea model
type Model struct {
	syncer *syncer.Syncer
	db     *sql.DB

	viewMode   ViewMode
	entityType EntityType

	// List view state
	selectedRow int
	searching   bool
	searchInput textinput.Model
	searchQuery string
	loading     bool

	// Detail view state
	selectedID string

	// Edit view state
	formInputs []textinput.Model
	focusIndex int
	itemForm   *catalog.ItemForm
	itemWizard *wizard.Wizard[catalog.ItemForm]

	// Import view state
	importSession *bulkimport.Session
	importPath    textinput.Model
	importField   int

	// Graph view state
	graphDOT string

	deletes *confirm.Confirmer
	message string

	width  int
	height int
	err    error
}

// NewModel creates a new TUI model. database may be nil; sync history and
// import recording are then unavailable.
func NewModel(s *syncer.Syncer, database *sql.DB) Model {
	search := textinput.New()
	search.Placeholder = "Search"
	search.CharLimit = 100

	path := textinput.New()
	path.Placeholder = "Path to CSV file"
	path.CharLimit = 500

	return Model{
		syncer:      s,
		db:          database,
		viewMode:    ViewList,
		entityType:  EntityCatalog,
		searchInput: search,
		importPath:  path,
		deletes:     confirm.New(confirm.DefaultWindow),
		width:       80,
		height:      24,
	}
}

// Run starts the full-screen program.
func Run(s *syncer.Syncer, database *sql.DB) error {
	_, err := tea.NewProgram(NewModel(s, database), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadCmd(m.entityType)
}

// Messages produced by background commands.
type (
	loadedMsg struct {
		entity EntityType
		err    error
	}
	deletedMsg struct {
		id  string
		err error
	}
	disarmMsg struct{ id string }
	savedMsg  struct {
		what string
		err  error
	}
	importedMsg struct{ err error }
	graphMsg    struct {
		dot string
		err error
	}
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		if msg.entity == m.entityType {
			m.loading = false
			m.err = msg.err
		}
		return m, nil
	case deletedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.message = "Delete failed, item restored"
		} else {
			m.message = "Deleted"
			m.clampSelection()
		}
		return m, nil
	case disarmMsg:
		m.deletes.Expire(msg.id)
		return m, nil
	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.message = "Saved " + msg.what
		m.viewMode = ViewList
		m.formInputs = nil
		m.itemForm, m.itemWizard = nil, nil
		return m, nil
	case importedMsg:
		m.err = msg.err
		return m, nil
	case graphMsg:
		m.err = msg.err
		m.graphDOT = msg.dot
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewImport:
		return m.renderImportView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	textEntry := m.viewMode == ViewEdit || (m.viewMode == ViewImport && m.importSession.Step() == bulkimport.StepUpload) || m.searching
	if msg.String() == "q" && !textEntry {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewImport:
		return m.handleImportKeys(msg)
	}
	return m, nil
}

func (m Model) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(16)
)
