// ABOUTME: Web UI server with embedded templates
// ABOUTME: Read-only local dashboard over the cached stores and the import history database
package web

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/agentdash/db"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/store"
	"github.com/harperreed/agentdash/viz"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

type Server struct {
	stores    *store.Stores
	db        *sql.DB
	templates *template.Template
	generator *viz.GraphGenerator
	log       *log.Logger
	now       func() time.Time
}

// NewServer parses the embedded templates. database may be nil, in which case
// the history pages say so instead of failing.
func NewServer(stores *store.Stores, database *sql.DB, logger *log.Logger) (*Server, error) {
	funcMap := template.FuncMap{
		"money": func(m models.CatalogItem) string {
			return m.Price.StringFixed(2) + " " + m.Currency
		},
		"when": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Local().Format("2006-01-02 15:04")
		},
		"dash": func(s string) string {
			if s == "" {
				return "-"
			}
			return s
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Server{
		stores:    stores,
		db:        database,
		templates: tmpl,
		generator: viz.NewGraphGenerator(stores),
		log:       logger,
		now:       time.Now,
	}, nil
}

// Handler routes every page. It is separate from Start so tests can mount it.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /catalog", s.handleCatalog)
	mux.HandleFunc("GET /leads", s.handleLeads)
	mux.HandleFunc("GET /agents", s.handleAgents)
	mux.HandleFunc("GET /imports", s.handleImports)

	// Partials for HTMX
	mux.HandleFunc("GET /partials/import-errors", s.handleImportErrors)
	mux.HandleFunc("GET /partials/graph", s.handleGraphPartial)
	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("starting web server", "url", "http://"+srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := viz.GenerateDashboardStats(s.stores, s.db, s.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	statuses := make([]statusCount, 0, len(stats.LeadsByStatus))
	for _, status := range models.LeadStatuses {
		if n := stats.LeadsByStatus[status]; n > 0 {
			statuses = append(statuses, statusCount{Status: status, Count: n})
		}
	}

	s.renderTemplate(w, "dashboard.html", map[string]any{
		"Title":    "Dashboard",
		"Stats":    stats,
		"Statuses": statuses,
	})
}

type statusCount struct {
	Status string
	Count  int
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	items := store.Filter(s.stores.Catalog.Items(), func(i models.CatalogItem) bool {
		return store.MatchesQuery(query, i.Name, i.SKU, i.Category)
	})

	s.renderTemplate(w, "catalog.html", map[string]any{
		"Title": "Catalog",
		"Query": query,
		"Items": items,
	})
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	leads := store.Filter(s.stores.Leads.Items(), func(l models.Lead) bool {
		return status == "" || l.Status == status
	})
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].UpdatedAt.After(leads[j].UpdatedAt)
	})

	s.renderTemplate(w, "leads.html", map[string]any{
		"Title":    "Leads",
		"Status":   status,
		"Statuses": models.LeadStatuses,
		"Leads":    leads,
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, "agents.html", map[string]any{
		"Title":  "Agents",
		"Agents": s.stores.ChatAgents.Items(),
	})
}

func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Title": "Imports"}
	if s.db != nil {
		limit := 50
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		runs, err := db.ListImportRuns(s.db, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data["Runs"] = runs
		data["HasHistory"] = true
	}
	s.renderTemplate(w, "imports.html", data)
}

func (s *Server) handleImportErrors(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "History database unavailable", http.StatusNotFound)
		return
	}
	runID := r.URL.Query().Get("run")
	if runID == "" {
		http.Error(w, "Run ID required", http.StatusBadRequest)
		return
	}
	run, err := db.GetImportRun(s.db, runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "Import run not found", http.StatusNotFound)
		return
	}
	s.renderTemplate(w, "import-errors", run)
}

func (s *Server) handleGraphPartial(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent")

	var (
		dot string
		err error
	)
	if agentID == "" {
		dot, err = s.generator.GenerateWorkspaceGraph(r.Context())
	} else {
		if _, ok := s.stores.ChatAgents.Get(agentID); !ok {
			http.Error(w, "Agent not found", http.StatusNotFound)
			return
		}
		dot, err = s.generator.GenerateAgentGraph(r.Context(), agentID)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "graph", map[string]any{"DOT": dot})
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("template error", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
