// ABOUTME: CLI commands for the resources agents link to and for the conversation inbox
// ABOUTME: Knowledge bases, channels, integrations, tools and conversations
package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/models"
)

func KBListCommand(app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	if err := app.Syncer.KnowledgeBases.Load(ctx, api.ListParams{PerPage: 100}); err != nil {
		return fmt.Errorf("failed to list knowledge bases: %w", err)
	}
	kbs := app.stores().KnowledgeBases.Items()
	if len(kbs) == 0 {
		app.printf("No knowledge bases found\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tSTATUS\tDOCS\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t------\t----\t--")
	for _, k := range kbs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", k.Name, orDash(k.Type), orDash(k.Status), k.DocumentCount, k.ID)
	}
	return w.Flush()
}

func KBCreateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("kb create", flag.ExitOnError)
	name := fs.String("name", "", "Knowledge base name (required)")
	description := fs.String("description", "", "Description")
	typ := fs.String("type", "text", "Type: text, faq or document")
	content := fs.String("content", "", "Inline text content")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	kb, err := app.Syncer.KnowledgeBases.Create(ctx, models.KnowledgeBaseInput{
		Name: *name, Description: *description, Type: *typ, Content: *content,
	})
	if err != nil {
		return fmt.Errorf("failed to create knowledge base: %w", err)
	}
	app.printf("✓ Knowledge base created: %s (ID: %s)\n", kb.Name, kb.ID)
	return nil
}

// KBUploadCommand attaches a document file to a knowledge base.
func KBUploadCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("kb upload", flag.ExitOnError)
	kbID := fs.String("kb", "", "Knowledge base ID (required)")
	_ = fs.Parse(args)
	if *kbID == "" || fs.NArg() != 1 {
		return fmt.Errorf("usage: kb upload --kb <id> <file>")
	}
	path := fs.Arg(0)

	if err := app.requireAuth(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	ctx, cancel := app.ctx()
	defer cancel()
	kb, err := app.Syncer.Services().KnowledgeBases.UploadDocument(ctx, *kbID, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	if !app.stores().KnowledgeBases.Update(kb.ID, *kb) {
		app.stores().KnowledgeBases.Add(*kb)
	}
	app.printf("✓ Uploaded %s to %s (%d documents)\n", filepath.Base(path), kb.Name, kb.DocumentCount)
	return nil
}

func ChannelsListCommand(app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	if err := app.Syncer.Channels.Load(ctx, api.ListParams{PerPage: 100}); err != nil {
		return fmt.Errorf("failed to list channels: %w", err)
	}
	channels := app.stores().Channels.Items()
	if len(channels) == 0 {
		app.printf("No channels found\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tIDENTIFIER\tSTATUS\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t----------\t------\t--")
	for _, c := range channels {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Type, orDash(c.Identifier), orDash(c.Status), c.ID)
	}
	return w.Flush()
}

func ChannelsAddCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("channels add", flag.ExitOnError)
	name := fs.String("name", "", "Channel name (required)")
	typ := fs.String("type", "", "Channel type, e.g. whatsapp or web (required)")
	identifier := fs.String("identifier", "", "Phone number, page id or domain")
	var config multiFlag
	fs.Var(&config, "config", "Provider setting as key=value (repeatable)")
	_ = fs.Parse(args)

	if *name == "" || *typ == "" {
		return fmt.Errorf("--name and --type are required")
	}
	settings, err := config.pairs()
	if err != nil {
		return err
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	in := models.ChannelInput{Name: *name, Type: *typ, Identifier: *identifier}
	if len(settings) > 0 {
		in.Config = make(map[string]any, len(settings))
		for k, v := range settings {
			in.Config[k] = v
		}
	}
	c, err := app.Syncer.Channels.Create(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	app.printf("✓ Channel created: %s (ID: %s)\n", c.Name, c.ID)
	return nil
}

func IntegrationsListCommand(app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	if err := app.Syncer.Integrations.Load(ctx, api.ListParams{PerPage: 100}); err != nil {
		return fmt.Errorf("failed to list integrations: %w", err)
	}
	integrations := app.stores().Integrations.Items()
	if len(integrations) == 0 {
		app.printf("No integrations connected\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "PROVIDER\tNAME\tSTATUS\tCONNECTED\tID")
	_, _ = fmt.Fprintln(w, "--------\t----\t------\t---------\t--")
	for _, i := range integrations {
		connected := "-"
		if i.ConnectedAt != nil {
			connected = i.ConnectedAt.Local().Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", i.Provider, orDash(i.Name), orDash(i.Status), connected, i.ID)
	}
	return w.Flush()
}

func IntegrationsConnectCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("integrations connect", flag.ExitOnError)
	provider := fs.String("provider", "", "Provider, e.g. shopify (required)")
	name := fs.String("name", "", "Display name")
	var config multiFlag
	fs.Var(&config, "config", "Provider setting as key=value (repeatable)")
	_ = fs.Parse(args)

	if *provider == "" {
		return fmt.Errorf("--provider is required")
	}
	settings, err := config.pairs()
	if err != nil {
		return err
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	in := models.IntegrationInput{Provider: *provider, Name: *name, Config: map[string]any{}}
	for k, v := range settings {
		in.Config[k] = v
	}
	i, err := app.Syncer.Integrations.Create(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to connect %s: %w", *provider, err)
	}
	app.printf("✓ Connected %s (ID: %s)\n", i.Provider, i.ID)
	return nil
}

func IntegrationsDisconnectCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("integrations disconnect", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: integrations disconnect [--yes] <id>")
	}
	id := fs.Arg(0)
	if err := app.requireAuth(); err != nil {
		return err
	}

	ok, err := app.confirmDelete("integration "+id, id, *yes)
	if err != nil || !ok {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()
	if err := app.Syncer.Integrations.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}
	app.printf("✓ Disconnected %s\n", id)
	return nil
}

func ToolsListCommand(app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	if err := app.Syncer.Tools.Load(ctx, api.ListParams{PerPage: 100}); err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}
	tools := app.stores().Tools.Items()
	if len(tools) == 0 {
		app.printf("No tools found\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tDESCRIPTION\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t-----------\t--")
	for _, t := range tools {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, orDash(t.Type), truncate(orDash(t.Description), 50), t.ID)
	}
	return w.Flush()
}

func ConvoListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("convo list", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status")
	agent := fs.String("agent", "", "Filter by agent ID")
	page := fs.Int("page", 1, "Page number")
	_ = fs.Parse(args)

	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	params := api.ListParams{Page: *page, PerPage: 20, Filters: map[string]string{"status": *status, "agent_id": *agent}}
	if err := app.Syncer.Conversations.Load(ctx, params); err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	convos := app.stores().Conversations.Items()
	if len(convos) == 0 {
		app.printf("No conversations found\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "CUSTOMER\tSTATUS\tLAST MESSAGE\tUPDATED\tID")
	_, _ = fmt.Fprintln(w, "--------\t------\t------------\t-------\t--")
	for _, c := range convos {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			orDash(c.CustomerName), orDash(c.Status), truncate(orDash(c.LastMessage), 40), c.UpdatedAt.Local().Format("01-02 15:04"), c.ID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printPagination(app, app.stores().Conversations.Pagination(), len(convos))
	return nil
}

func ConvoMessagesCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("convo messages", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: convo messages <conversation-id>")
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	messages, err := app.Syncer.Services().Convo.Messages(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		app.printf("No messages yet\n")
		return nil
	}
	for _, m := range messages {
		app.printf("[%s] %-9s %s\n", m.CreatedAt.Local().Format("15:04"), m.Role+":", m.Content)
	}
	return nil
}

// ConvoReplyCommand sends an operator reply into a conversation.
func ConvoReplyCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("convo reply", flag.ExitOnError)
	message := fs.String("message", "", "Reply text (required)")
	_ = fs.Parse(args)
	if fs.NArg() != 1 || *message == "" {
		return fmt.Errorf("usage: convo reply --message <text> <conversation-id>")
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	if _, err := app.Syncer.Services().Convo.Reply(ctx, fs.Arg(0), *message); err != nil {
		return fmt.Errorf("reply failed: %w", err)
	}
	app.printf("✓ Reply sent\n")
	return nil
}
