// ABOUTME: Bulk CSV import flow for the catalog tab
// ABOUTME: Upload, map columns, preview and submit, then record the run locally
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/bulkimport"
	"github.com/harperreed/agentdash/db"
)

const previewRows = 5

func (m *Model) startImport() {
	m.importSession = bulkimport.NewSession(nil)
	m.importField = 0
	m.importPath.SetValue("")
	m.importPath.Focus()
	m.err = nil
	m.viewMode = ViewImport
}

func (m Model) renderImportView() string {
	var s strings.Builder
	sess := m.importSession

	s.WriteString(titleStyle.Render(fmt.Sprintf("IMPORT CATALOG · %s", sess.Step())))
	s.WriteString("\n\n")

	var help string
	switch sess.Step() {
	case bulkimport.StepUpload:
		s.WriteString(m.importPath.View())
		s.WriteString("\n")
		help = "Enter: Load file • Esc: Cancel"

	case bulkimport.StepMap:
		sheet := sess.Sheet()
		s.WriteString(helpStyle.Render(fmt.Sprintf("%s · %d rows", sheet.FileName, len(sheet.Rows))))
		s.WriteString("\n\n")
		mapping := sess.Mapping()
		for i, f := range sess.Fields() {
			cursor := "  "
			if i == m.importField {
				cursor = "> "
			}
			label := f.Label
			if f.Required {
				label += " *"
			}
			col := mapping[f.Key]
			if col == "" {
				col = "(not mapped)"
			}
			s.WriteString(cursor + labelStyle.Render(label) + col + "\n")
		}
		help = "↑/↓: Field • ←/→: Column • Enter: Preview • Esc: Back"

	case bulkimport.StepPreview:
		s.WriteString(m.renderImportPreview())
		help = "Enter: Import • Esc: Back"

	case bulkimport.StepResult:
		if r := sess.Result(); r != nil {
			s.WriteString(messageStyle.Render(fmt.Sprintf("✓ %d imported", r.SuccessCount)))
			s.WriteString("\n")
			if r.ErrorCount > 0 {
				s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %d failed", r.ErrorCount)))
				s.WriteString("\n")
				for _, e := range r.Errors {
					s.WriteString(fmt.Sprintf("  row %d: %s\n", e.Row, e.Message))
				}
			}
		}
		help = "Enter: Done"
	}

	for _, key := range sortedKeys(sess.Errors()) {
		s.WriteString(errorStyle.Render("  " + sess.Errors()[key]))
		s.WriteString("\n")
	}
	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	}
	s.WriteString(helpStyle.Render(help))
	return s.String()
}

func (m Model) renderImportPreview() string {
	fields := m.importSession.Fields()
	columns := make([]table.Column, len(fields))
	for i, f := range fields {
		columns[i] = table.Column{Title: f.Label, Width: 14}
	}
	preview := m.importSession.Preview(previewRows)
	rows := make([]table.Row, 0, len(preview))
	for _, values := range preview {
		row := make(table.Row, len(fields))
		for i, f := range fields {
			row[i] = values[f.Key]
		}
		rows = append(rows, row)
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)
	total := len(m.importSession.Sheet().Rows)
	return t.View() + "\n" + helpStyle.Render(fmt.Sprintf("Showing %d of %d rows", len(rows), total)) + "\n"
}

func (m Model) handleImportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sess := m.importSession

	switch sess.Step() {
	case bulkimport.StepUpload:
		switch msg.String() {
		case "esc":
			m.viewMode = ViewList
			m.importPath.Blur()
			return m, nil
		case "enter":
			path := strings.TrimSpace(m.importPath.Value())
			data, err := os.ReadFile(path)
			if err != nil {
				m.err = err
				return m, nil
			}
			if err := sess.Load(filepath.Base(path), data); err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.importPath.Blur()
			sess.Next()
			return m, nil
		}
		var cmd tea.Cmd
		m.importPath, cmd = m.importPath.Update(msg)
		return m, cmd

	case bulkimport.StepMap:
		fields := sess.Fields()
		switch msg.String() {
		case "up", "k":
			if m.importField > 0 {
				m.importField--
			}
		case "down", "j":
			if m.importField < len(fields)-1 {
				m.importField++
			}
		case "left", "h", "right", "l":
			delta := 1
			if msg.String() == "left" || msg.String() == "h" {
				delta = -1
			}
			key := fields[m.importField].Key
			m.err = sess.SetMapping(key, cycleHeader(sess.Sheet().Headers, sess.Mapping()[key], delta))
		case "enter":
			sess.Next()
		case "esc":
			sess.Back()
			m.importPath.Focus()
		}
		return m, nil

	case bulkimport.StepPreview:
		switch msg.String() {
		case "enter":
			return m, m.submitImportCmd()
		case "esc":
			sess.Back()
		}
		return m, nil

	case bulkimport.StepResult:
		switch msg.String() {
		case "enter", "esc":
			sess.Reset()
			m.viewMode = ViewList
			return m, m.loadCmd(EntityCatalog)
		}
	}
	return m, nil
}

// cycleHeader steps through "" followed by every header.
func cycleHeader(headers []string, current string, delta int) string {
	options := append([]string{""}, headers...)
	idx := 0
	for i, h := range options {
		if h == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(options)) % len(options)
	return options[idx]
}

func (m Model) submitImportCmd() tea.Cmd {
	sess := m.importSession
	uploader := m.syncer.Services().Catalog
	database := m.db
	return func() tea.Msg {
		ctx, cancel := m.ctx()
		defer cancel()
		if _, err := sess.Submit(ctx, uploader); err != nil {
			return importedMsg{err: err}
		}
		if run, ok := sess.Run(); ok && database != nil {
			if err := db.RecordImport(database, run); err != nil {
				return importedMsg{err: fmt.Errorf("record import: %w", err)}
			}
		}
		return importedMsg{}
	}
}

var _ bulkimport.Uploader = (*api.CatalogAPI)(nil)
