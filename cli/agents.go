// ABOUTME: Chat agent CLI commands: CRUD, resource links, test chat, deploy and graph
// ABOUTME: Links are edited as whole id lists, the way the backend stores them
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/syncer"
	"github.com/harperreed/agentdash/viz"
)

func AgentsListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agents list", flag.ExitOnError)
	query := fs.String("query", "", "Search by name")
	_ = fs.Parse(args)

	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	if err := app.Syncer.ChatAgents.Load(ctx, api.ListParams{Search: *query, PerPage: 100}); err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}
	agents := app.stores().ChatAgents.Items()
	if len(agents) == 0 {
		app.printf("No chat agents found\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "NAME\tSTATUS\tCHANNELS\tKBS\tTOOLS\tID")
	_, _ = fmt.Fprintln(w, "----\t------\t--------\t---\t-----\t--")
	for _, a := range agents {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			a.Name, orDash(a.Status), len(a.Channels), len(a.KnowledgeBases), len(a.Tools), a.ID)
	}
	return w.Flush()
}

// AgentsGetCommand shows an agent with every linkable resource, marking the linked ones.
func AgentsGetCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agents get", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: agents get <id>")
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	ws, err := app.Syncer.LoadWorkspace(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	a := ws.Agent

	w := app.table()
	_, _ = fmt.Fprintf(w, "Name:\t%s\n", a.Name)
	_, _ = fmt.Fprintf(w, "Description:\t%s\n", orDash(a.Description))
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", orDash(a.Status))
	_, _ = fmt.Fprintf(w, "Tone:\t%s\n", orDash(a.AIConfig.Tone))
	_, _ = fmt.Fprintf(w, "Language:\t%s\n", orDash(a.AIConfig.Language))
	_, _ = fmt.Fprintf(w, "Greeting:\t%s\n", orDash(a.AIConfig.GreetingMessage))
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", a.ID)
	if err := w.Flush(); err != nil {
		return err
	}

	printLinks(app, "Channels", syncer.LinkedIDs(a, syncer.LinkChannels), ws.Channels, func(c models.Channel) string { return c.Name + " (" + c.Type + ")" })
	printLinks(app, "Knowledge bases", syncer.LinkedIDs(a, syncer.LinkKnowledgeBases), ws.KnowledgeBases, func(k models.KnowledgeBase) string { return k.Name })
	printLinks(app, "Tools", syncer.LinkedIDs(a, syncer.LinkTools), ws.Tools, func(t models.Tool) string { return t.Name })
	return nil
}

func printLinks[T models.Identifiable](app *App, title string, linked []string, all []T, label func(T) string) {
	app.printf("\n%s:\n", title)
	if len(all) == 0 {
		app.printf("  (none available)\n")
		return
	}
	on := make(map[string]bool, len(linked))
	for _, id := range linked {
		on[id] = true
	}
	for _, item := range all {
		mark := " "
		if on[item.GetID()] {
			mark = "✓"
		}
		app.printf("  [%s] %s  %s\n", mark, label(item), item.GetID())
	}
}

func AgentsCreateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agents create", flag.ExitOnError)
	name := fs.String("name", "", "Agent name (required)")
	description := fs.String("description", "", "Description")
	tone := fs.String("tone", "friendly", "Tone of voice")
	language := fs.String("language", "en", "Reply language")
	greeting := fs.String("greeting", "", "Greeting message")
	fallback := fs.String("fallback", "", "Message when the agent cannot answer")
	var handover multiFlag
	fs.Var(&handover, "handover-keyword", "Keyword that hands the chat to a human (repeatable)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*name) == "" {
		return fmt.Errorf("--name is required")
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	agent, err := app.Syncer.ChatAgents.Create(ctx, models.ChatAgentInput{
		Name:        *name,
		Description: *description,
		AIConfig: models.AIConfig{
			Tone:             *tone,
			Language:         *language,
			GreetingMessage:  *greeting,
			FallbackMessage:  *fallback,
			HandoverKeywords: handover,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	app.printf("✓ Chat agent created: %s (ID: %s)\n", agent.Name, agent.ID)
	app.printf("→ Link a channel: agentdash agents link %s channels <channel-id>\n", agent.ID)
	return nil
}

func AgentsDeleteCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agents delete", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: agents delete [--yes] <id>")
	}
	id := fs.Arg(0)
	if err := app.requireAuth(); err != nil {
		return err
	}

	ctx, cancel := app.ctx()
	agent, err := app.Syncer.ChatAgents.Get(ctx, id)
	cancel()
	if err != nil {
		return err
	}
	ok, err := app.confirmDelete("agent "+agent.Name, id, *yes)
	if err != nil || !ok {
		return err
	}

	ctx, cancel = app.ctx()
	defer cancel()
	if err := app.Syncer.ChatAgents.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	app.printf("✓ Deleted agent %s\n", agent.Name)
	return nil
}

func parseLinkArgs(args []string, verb string) (string, syncer.LinkKind, []string, error) {
	if len(args) < 3 {
		return "", "", nil, fmt.Errorf("usage: agents %s <agent-id> <channels|knowledge_bases|tools> <id>...", verb)
	}
	kind := syncer.LinkKind(args[1])
	switch kind {
	case syncer.LinkChannels, syncer.LinkKnowledgeBases, syncer.LinkTools:
	default:
		return "", "", nil, fmt.Errorf("unknown link kind %q", args[1])
	}
	return args[0], kind, args[2:], nil
}

// AgentsLinkCommand adds resources to an agent, keeping existing links.
func AgentsLinkCommand(app *App, args []string) error {
	return editLinks(app, args, "link", func(current []string, ids []string) []string {
		seen := make(map[string]bool, len(current))
		for _, id := range current {
			seen[id] = true
		}
		for _, id := range ids {
			if !seen[id] {
				current = append(current, id)
				seen[id] = true
			}
		}
		return current
	})
}

// AgentsUnlinkCommand removes resources from an agent.
func AgentsUnlinkCommand(app *App, args []string) error {
	return editLinks(app, args, "unlink", func(current []string, ids []string) []string {
		drop := make(map[string]bool, len(ids))
		for _, id := range ids {
			drop[id] = true
		}
		kept := make([]string, 0, len(current))
		for _, id := range current {
			if !drop[id] {
				kept = append(kept, id)
			}
		}
		return kept
	})
}

func editLinks(app *App, args []string, verb string, edit func(current, ids []string) []string) error {
	agentID, kind, ids, err := parseLinkArgs(args, verb)
	if err != nil {
		return err
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	agent, err := app.Syncer.ChatAgents.Get(ctx, agentID)
	if err != nil {
		return err
	}
	next := edit(syncer.LinkedIDs(*agent, kind), ids)
	updated, err := app.Syncer.SetLinks(ctx, agentID, kind, next)
	if err != nil {
		return err
	}
	app.printf("✓ %s now has %d %s linked\n", updated.Name, len(syncer.LinkedIDs(*updated, kind)), strings.ReplaceAll(string(kind), "_", " "))
	return nil
}

// AgentsTestCommand sends one message to the agent's test chat.
func AgentsTestCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agents test", flag.ExitOnError)
	message := fs.String("message", "", "Message to send (required)")
	conversation := fs.String("conversation", "", "Continue an earlier test conversation")
	_ = fs.Parse(args)
	if fs.NArg() != 1 || *message == "" {
		return fmt.Errorf("usage: agents test --message <text> [--conversation <id>] <agent-id>")
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	result, err := app.Syncer.Services().ChatAgents.Test(ctx, fs.Arg(0), models.AgentTestRequest{
		Message:        *message,
		ConversationID: *conversation,
	})
	if err != nil {
		return fmt.Errorf("test chat failed: %w", err)
	}
	app.printf("you:   %s\nagent: %s\n", *message, result.Response)
	if len(result.Sources) > 0 {
		app.printf("sources: %s\n", strings.Join(result.Sources, ", "))
	}
	if result.HandedOver {
		app.printf("→ Conversation handed over to a human\n")
	}
	if result.ConversationID != "" {
		app.printf("\nContinue with --conversation %s\n", result.ConversationID)
	}
	return nil
}

func AgentsDeployCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agents deploy", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: agents deploy <agent-id>")
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	d, err := app.Syncer.Services().ChatAgents.Deploy(ctx, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("deploy failed: %w", err)
	}
	app.printf("✓ Deployment %s\n", d.Status)
	if d.URL != "" {
		app.printf("  URL: %s\n", d.URL)
	}
	if d.EmbedCode != "" {
		app.printf("  Embed code:\n%s\n", d.EmbedCode)
	}
	return nil
}

// AgentsGraphCommand prints DOT for one agent, or for every agent with --all.
func AgentsGraphCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agents graph", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	all := fs.Bool("all", false, "Graph every agent in the workspace")
	_ = fs.Parse(args)
	if !*all && fs.NArg() != 1 {
		return fmt.Errorf("usage: agents graph [--output <file>] (--all | <agent-id>)")
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	var (
		dot string
		err error
	)
	if *all {
		if err := app.Syncer.ChatAgents.Load(ctx, api.ListParams{PerPage: 100}); err != nil {
			return err
		}
		dot, err = viz.NewGraphGenerator(app.stores()).GenerateWorkspaceGraph(ctx)
	} else {
		agent, getErr := app.Syncer.ChatAgents.Get(ctx, fs.Arg(0))
		if getErr != nil {
			return getErr
		}
		dot, err = viz.RenderAgents(ctx, agent.Name, []models.ChatAgent{*agent})
	}
	if err != nil {
		return fmt.Errorf("failed to generate graph: %w", err)
	}

	if *output == "" {
		app.printf("%s\n", dot)
		return nil
	}
	if err := os.WriteFile(*output, []byte(dot), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *output, err)
	}
	app.printf("✓ Graph written to %s\n", *output)
	return nil
}
