// ABOUTME: MCP server subcommand
// ABOUTME: Serves the agentdash tools, resources and prompts on stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/agentdash/handlers"
)

// MCPCommand starts the MCP server on stdio. Logs must not go to stdout here.
func MCPCommand(app *App) error {
	app.Log.Info("starting agentdash MCP server", "version", app.Version)
	server := handlers.NewServer(app.Syncer, app.DB, app.Version)
	return server.Run(context.Background(), &mcp.StdioTransport{})
}
