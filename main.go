// ABOUTME: Entry point for the agentdash CLI, TUI and MCP server
// ABOUTME: Wires config, persisted stores, the API client and syncer, then routes commands
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/charm"
	"github.com/harperreed/agentdash/cli"
	"github.com/harperreed/agentdash/config"
	"github.com/harperreed/agentdash/db"
	"github.com/harperreed/agentdash/store"
	"github.com/harperreed/agentdash/syncer"
	"github.com/harperreed/agentdash/tui"
)

const version = "0.2.0"

type command func(*cli.App, []string) error

var groups = map[string]map[string]command{
	"auth": {
		"login":        cli.AuthLoginCommand,
		"google-login": cli.AuthGoogleLoginCommand,
		"register":     cli.AuthRegisterCommand,
		"verify":       cli.AuthVerifyCommand,
		"logout":       cli.AuthLogoutCommand,
		"status":       cli.AuthStatusCommand,
	},
	"business": {
		"show":    cli.BusinessShowCommand,
		"set":     cli.BusinessSetCommand,
		"onboard": cli.BusinessOnboardCommand,
	},
	"catalog": {
		"list":            cli.CatalogListCommand,
		"get":             cli.CatalogGetCommand,
		"create":          cli.CatalogCreateCommand,
		"update":          cli.CatalogUpdateCommand,
		"delete":          cli.CatalogDeleteCommand,
		"templates":       cli.CatalogTemplatesCommand,
		"template-create": cli.CatalogTemplateCreateCommand,
		"import":          cli.CatalogImportCommand,
		"upload-image":    cli.CatalogUploadImageCommand,
	},
	"leads": {
		"list":   cli.LeadsListCommand,
		"add":    cli.LeadsAddCommand,
		"update": cli.LeadsUpdateCommand,
		"delete": cli.LeadsDeleteCommand,
	},
	"contacts": {
		"list":          cli.ContactsListCommand,
		"add":           cli.ContactsAddCommand,
		"delete":        cli.ContactsDeleteCommand,
		"import-google": cli.ContactsImportGoogleCommand,
	},
	"agents": {
		"list":   cli.AgentsListCommand,
		"get":    cli.AgentsGetCommand,
		"create": cli.AgentsCreateCommand,
		"delete": cli.AgentsDeleteCommand,
		"link":   cli.AgentsLinkCommand,
		"unlink": cli.AgentsUnlinkCommand,
		"test":   cli.AgentsTestCommand,
		"deploy": cli.AgentsDeployCommand,
		"graph":  cli.AgentsGraphCommand,
	},
	"kb": {
		"list":   cli.KBListCommand,
		"create": cli.KBCreateCommand,
		"upload": cli.KBUploadCommand,
	},
	"channels": {
		"list": cli.ChannelsListCommand,
		"add":  cli.ChannelsAddCommand,
	},
	"integrations": {
		"list":       cli.IntegrationsListCommand,
		"connect":    cli.IntegrationsConnectCommand,
		"disconnect": cli.IntegrationsDisconnectCommand,
	},
	"tools": {
		"list": cli.ToolsListCommand,
	},
	"convo": {
		"list":     cli.ConvoListCommand,
		"messages": cli.ConvoMessagesCommand,
		"reply":    cli.ConvoReplyCommand,
	},
	"history": {
		"imports": cli.HistoryImportsCommand,
		"errors":  cli.HistoryErrorsCommand,
		"sync":    cli.HistorySyncCommand,
	},
	"config": {
		"show": cli.ConfigShowCommand,
		"set":  cli.ConfigSetCommand,
	},
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/agentdash/config.json)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("agentdash version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	command := args[0]
	commandArgs := args[1:]

	// sync manages the charm backend itself and does not need a session.
	if command == "sync" {
		if err := runSync(cfg, commandArgs); err != nil {
			logger.Fatal("sync failed", "err", err)
		}
		return
	}

	if _, ok := groups[command]; !ok {
		switch command {
		case "tui", "mcp", "dashboard", "web":
		default:
			fmt.Printf("Unknown command: %s\n\n", command)
			printUsage()
			os.Exit(1)
		}
	}

	app, cleanup, err := openApp(cfg, *configPath, logger)
	if err != nil {
		logger.Fatal("startup failed", "err", err)
	}
	defer cleanup()

	if err := route(app, command, commandArgs); err != nil {
		cleanup()
		logger.Fatal("Error", "err", err)
	}
}

func route(app *cli.App, command string, args []string) error {
	switch command {
	case "tui":
		return tui.Run(app.Syncer, app.DB)
	case "mcp":
		return cli.MCPCommand(app)
	case "dashboard":
		return cli.DashboardCommand(app, args)
	case "web":
		return cli.WebCommand(app, args)
	}

	subcommands := groups[command]
	if len(args) == 0 {
		fmt.Printf("Error: %s requires a subcommand\n\n", command)
		printUsage()
		os.Exit(1)
	}
	run, ok := subcommands[args[0]]
	if !ok {
		fmt.Printf("Unknown %s command: %s\n\n", command, args[0])
		printUsage()
		os.Exit(1)
	}
	return run(app, args[1:])
}

// openApp opens persisted state and the history database and builds the
// API client and syncer on top of them.
func openApp(cfg *config.Config, configPath string, logger *log.Logger) (*cli.App, func(), error) {
	kv, closeKV, err := openKV(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s state: %w", cfg.StateBackend, err)
	}

	stores, err := store.Open(kv, func(err error) {
		logger.Warn("failed to persist state", "err", err)
	})
	if err != nil {
		// Unreadable blobs leave those stores empty; the app still starts.
		logger.Warn("some persisted state could not be restored", "err", err)
	}

	var database *sql.DB
	if cfg.DBPath != "" {
		database, err = db.OpenDatabase(cfg.DBPath)
		if err != nil {
			logger.Warn("history database unavailable", "path", cfg.DBPath, "err", err)
			database = nil
		}
	}

	client := api.NewClient(cfg.APIURL,
		api.WithTokenStore(stores.Auth),
		api.WithUnauthorizedHandler(func() {
			logger.Warn("session rejected by the backend; run `agentdash auth login`")
		}),
		api.WithLogger(logger),
	)

	opts := []syncer.Option{syncer.WithLogger(logger)}
	if database != nil {
		opts = append(opts, syncer.WithRecorder(db.SyncRecorder{DB: database}))
	}
	s := syncer.New(api.NewServices(client), stores, opts...)

	app := &cli.App{
		Config:     cfg,
		ConfigPath: configPath,
		Syncer:     s,
		DB:         database,
		KV:         kv,
		Log:        logger,
		Out:        os.Stdout,
		In:         os.Stdin,
		Version:    version,
	}

	closed := false
	cleanup := func() {
		if closed {
			return
		}
		closed = true
		stores.Close()
		if database != nil {
			_ = database.Close()
		}
		_ = closeKV()
	}
	return app, cleanup, nil
}

func openKV(cfg *config.Config) (store.KV, func() error, error) {
	if cfg.StateBackend == config.BackendCharm {
		charmCfg, err := charm.LoadConfig()
		if err != nil {
			return nil, nil, err
		}
		c, err := charm.Open(charmCfg)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
	b, err := store.OpenBadger(cfg.StateDir)
	if err != nil {
		return nil, nil, err
	}
	return b, b.Close, nil
}

func runSync(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		fmt.Println("Error: sync requires a subcommand")
		printUsage()
		os.Exit(1)
	}
	sub, subArgs := args[0], args[1:]

	if sub == "auto" {
		return charm.SyncAutoCommand(os.Stdout, subArgs)
	}

	charmCfg, err := charm.LoadConfig()
	if err != nil {
		return err
	}
	c, err := charm.Open(charmCfg)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	switch sub {
	case "link":
		return charm.SyncLinkCommand(c, os.Stdout, subArgs)
	case "status":
		return charm.SyncStatusCommand(c, os.Stdout, subArgs)
	case "now":
		return charm.SyncNowCommand(c, os.Stdout, subArgs)
	case "wipe":
		return charm.SyncWipeCommand(c, os.Stdout, subArgs)
	case "push":
		local, err := store.OpenBadger(cfg.StateDir)
		if err != nil {
			return fmt.Errorf("failed to open local state: %w", err)
		}
		defer func() { _ = local.Close() }()
		return charm.SyncPushCommand(c, local, os.Stdout, subArgs)
	default:
		fmt.Printf("Unknown sync command: %s\n\n", sub)
		printUsage()
		os.Exit(1)
	}
	return nil
}

func printUsage() {
	fmt.Printf(`agentdash v%s - AI agent, catalog and CRM dashboard

USAGE:
  agentdash [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/agentdash/config.json)
  --debug                Enable debug logging

COMMANDS:
  auth                   Sign in, register and manage the session
  business               Business profile and onboarding
  catalog                Catalog items, templates, CSV import and images
  leads                  Lead management
  contacts               Contact management and Google import
  agents                 Chat agents and their channels, knowledge and tools
  kb                     Knowledge bases
  channels               Channels
  integrations           Third-party integrations
  tools                  Agent tools
  convo                  Conversations
  history                Local import and sync history
  sync                   Charm state backend
  config                 Show or change settings
  dashboard              Overview of the workspace
  tui                    Interactive terminal UI
  web                    Read-only local dashboard in the browser
  mcp                    Start MCP server for Claude Desktop

AUTH COMMANDS:
  agentdash auth login          Sign in with email and password
    --email <email>               Account email (prompted when omitted)
    --password <password>         Password (prompted when omitted)
  agentdash auth google-login   Sign in with Google
  agentdash auth register       Create an account
  agentdash auth verify         Verify the email address with a code
  agentdash auth logout         Sign out and clear local state
  agentdash auth status         Show the current session

BUSINESS COMMANDS:
  agentdash business show       Show the business profile
  agentdash business set        Create or update the business profile
    --name <name>                 Business name
    --type <type>                 Business type
  agentdash business onboard    Mark onboarding complete

CATALOG COMMANDS:
  agentdash catalog list        List items
    --query <text>                Search by name or SKU
    --category <category>         Filter by category
    --availability <value>        Filter by availability
  agentdash catalog get <id>    Show one item
  agentdash catalog create      Create an item
    --name <name>                 Item name (required)
    --price <price>               Price, e.g. 12.50 (required)
    --currency <code>             3-letter code (default: USD)
    --template <id>               Template for custom fields
    --field <key=value>           Custom field (repeatable)
  agentdash catalog update [flags] <id>  Update an item
    Note: flags must come before the item ID
  agentdash catalog delete [--yes] <id>  Delete an item (press Enter again to confirm)
  agentdash catalog templates   List templates
  agentdash catalog template-create  Create a template
    --name <name>                 Template name (required)
    --field <spec>                Label:type[:required][:opt1|opt2] (repeatable)
  agentdash catalog import      Bulk import from CSV
    --file <path>                 CSV file (required)
    --map <field=Header>          Override a column mapping (repeatable)
    --dry-run                     Preview without uploading
  agentdash catalog upload-image [--item <id>] <file>  Upload an image

CRM COMMANDS:
  agentdash leads list|add|update|delete
  agentdash contacts list|add|delete
  agentdash contacts import-google  Import contacts from Google

AGENT COMMANDS:
  agentdash agents list|get|create|delete
  agentdash agents link <agent-id> <channels|knowledge_bases|tools> <id>...
  agentdash agents unlink <agent-id> <channels|knowledge_bases|tools> <id>...
  agentdash agents test --message <text> <id>  Send a test message
  agentdash agents deploy <id>  Deploy an agent
  agentdash agents graph [--all] [id]  Graphviz of agent wiring
    --output <file>               Output file (default: stdout)

WORKSPACE COMMANDS:
  agentdash kb list|create|upload
  agentdash channels list|add
  agentdash integrations list|connect|disconnect
  agentdash tools list
  agentdash convo list|messages|reply

WEB:
  agentdash web                 Serve the dashboard on localhost
    --port <n>                    Port (default: 8080)

HISTORY COMMANDS:
  agentdash history imports     Recent CSV imports
  agentdash history errors <id> Row errors of one import
  agentdash history sync        Last sync per resource

SYNC COMMANDS:
  agentdash sync link           Link this device to Charm Cloud
  agentdash sync status         Show sync status
  agentdash sync now            Sync immediately
  agentdash sync auto --enable|--disable
  agentdash sync push           Copy local state into charm
  agentdash sync wipe --confirm Delete all synced state

EXAMPLES:
  # Sign in and check onboarding
  agentdash auth login --email owner@example.com

  # Import a menu
  agentdash catalog import --file menu.csv --dry-run

  # Give an agent a knowledge base
  agentdash agents link a1 knowledge_bases kb1

  # Start MCP server for Claude Desktop
  agentdash mcp

`, version)
}
