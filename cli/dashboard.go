// ABOUTME: Dashboard CLI command
// ABOUTME: Refreshes the dashboard stores in parallel, then prints the text summary
package cli

import (
	"flag"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/viz"
)

func DashboardCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	offline := fs.Bool("offline", false, "Use cached data without calling the backend")
	_ = fs.Parse(args)

	if !*offline {
		if err := app.requireAuth(); err != nil {
			return err
		}
		ctx, cancel := app.ctx()
		defer cancel()

		params := api.ListParams{PerPage: 100}
		s := app.Syncer
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return s.Leads.Load(gctx, params) })
		g.Go(func() error { return s.Contacts.Load(gctx, params) })
		g.Go(func() error { return s.Catalog.Load(gctx, params) })
		g.Go(func() error { return s.ChatAgents.Load(gctx, params) })
		g.Go(func() error { return s.Integrations.Load(gctx, params) })
		if err := g.Wait(); err != nil {
			app.Log.Warn("dashboard refresh incomplete, showing cached data", "err", err)
		}
	}

	stats, err := viz.GenerateDashboardStats(app.stores(), app.DB, time.Now())
	if err != nil {
		return err
	}
	app.printf("%s", viz.RenderDashboard(stats))
	return nil
}
