// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes the lead funnel, catalog, agents and recent imports from local state
package viz

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/agentdash/db"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/store"
)

const staleLeadDays = 14

type DashboardStats struct {
	BusinessName string

	LeadsByStatus map[string]int

	TotalLeads        int
	TotalContacts     int
	TotalCatalogItems int
	TotalAgents       int
	TotalIntegrations int

	OutOfStock      int
	AgentsNoChannel []string
	StaleLeads      []StaleLead

	RecentImports []models.ImportRun
}

type StaleLead struct {
	Name      string
	DaysSince int
}

// GenerateDashboardStats reads the stores as last loaded. database may be nil,
// in which case import history is left out.
func GenerateDashboardStats(stores *store.Stores, database *sql.DB, now time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{
		BusinessName:  stores.Business.Get().Name,
		LeadsByStatus: make(map[string]int),
	}

	leads := stores.Leads.Items()
	stats.TotalLeads = len(leads)
	for _, lead := range leads {
		status := lead.Status
		if status == "" {
			status = models.LeadStatusNew
		}
		stats.LeadsByStatus[status]++

		if status == models.LeadStatusWon || status == models.LeadStatusLost || lead.UpdatedAt.IsZero() {
			continue
		}
		if days := int(now.Sub(lead.UpdatedAt).Hours() / 24); days > staleLeadDays {
			stats.StaleLeads = append(stats.StaleLeads, StaleLead{Name: lead.Name, DaysSince: days})
		}
	}

	stats.TotalContacts = stores.Contacts.Len()
	stats.TotalIntegrations = stores.Integrations.Len()

	items := stores.Catalog.Items()
	stats.TotalCatalogItems = len(items)
	for _, item := range items {
		if item.Availability == models.AvailabilityOutOfStock {
			stats.OutOfStock++
		}
	}

	agents := stores.ChatAgents.Items()
	stats.TotalAgents = len(agents)
	for _, agent := range agents {
		if len(agent.Channels) == 0 {
			stats.AgentsNoChannel = append(stats.AgentsNoChannel, agent.Name)
		}
	}

	if database != nil {
		runs, err := db.ListImportRuns(database, 5)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch import history: %w", err)
		}
		stats.RecentImports = runs
	}

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	title := "AGENTDASH"
	if stats.BusinessName != "" {
		title = strings.ToUpper(stats.BusinessName)
	}
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  " + title + " DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("LEAD FUNNEL\n")
	renderFunnel(&out, stats.LeadsByStatus)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  🎯 %d leads  📇 %d contacts  📦 %d catalog items\n",
		stats.TotalLeads, stats.TotalContacts, stats.TotalCatalogItems))
	out.WriteString(fmt.Sprintf("  🤖 %d agents  🔌 %d integrations\n\n",
		stats.TotalAgents, stats.TotalIntegrations))

	if len(stats.RecentImports) > 0 {
		out.WriteString("RECENT IMPORTS\n")
		for _, run := range stats.RecentImports {
			out.WriteString(fmt.Sprintf("  %s  %-24s %d/%d rows\n",
				run.CreatedAt.Format("2006-01-02"), run.FileName, run.SuccessCount, run.TotalRows))
		}
		out.WriteString("\n")
	}

	if len(stats.StaleLeads) > 0 || len(stats.AgentsNoChannel) > 0 || stats.OutOfStock > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		if len(stats.StaleLeads) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d leads - no update in %d+ days\n", len(stats.StaleLeads), staleLeadDays))
		}
		if len(stats.AgentsNoChannel) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d agents - no channel linked\n", len(stats.AgentsNoChannel)))
		}
		if stats.OutOfStock > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d catalog items - out of stock\n", stats.OutOfStock))
		}
	}

	return out.String()
}

func renderFunnel(out *strings.Builder, byStatus map[string]int) {
	maxCount := 0
	for _, count := range byStatus {
		if count > maxCount {
			maxCount = count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, status := range models.LeadStatuses {
		count, exists := byStatus[status]
		if !exists {
			continue
		}
		barLength := (count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-10s %s  %2d\n", status, bar, count))
	}
}
