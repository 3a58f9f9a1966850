// ABOUTME: Web command serving the read-only local dashboard
// ABOUTME: Shows cached stores and import history; stops on interrupt
package cli

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/harperreed/agentdash/web"
)

func WebCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	port := fs.Int("port", 8080, "Port to listen on (localhost only)")
	_ = fs.Parse(args)

	srv, err := web.NewServer(app.stores(), app.DB, app.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return srv.Start(ctx, *port)
}
