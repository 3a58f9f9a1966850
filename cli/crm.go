// ABOUTME: CRM CLI commands for leads and contacts
// ABOUTME: Includes the Google contacts import with email de-duplication
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/syncer"
)

func LeadsListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("leads list", flag.ExitOnError)
	query := fs.String("query", "", "Search by name, email or company")
	status := fs.String("status", "", "Filter by status")
	source := fs.String("source", "", "Filter by source")
	page := fs.Int("page", 1, "Page number")
	perPage := fs.Int("per-page", 20, "Leads per page")
	_ = fs.Parse(args)

	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	params := api.ListParams{Page: *page, PerPage: *perPage, Search: *query, Filters: map[string]string{
		"status": *status,
		"source": *source,
	}}
	if err := app.Syncer.Leads.Load(ctx, params); err != nil {
		return fmt.Errorf("failed to list leads: %w", err)
	}

	leads := app.stores().Leads.Items()
	if len(leads) == 0 {
		app.printf("No leads found\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "NAME\tCOMPANY\tSTATUS\tPRIORITY\tSOURCE\tID")
	_, _ = fmt.Fprintln(w, "----\t-------\t------\t--------\t------\t--")
	for _, l := range leads {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.Name, orDash(l.Company), l.Status, orDash(l.Priority), orDash(l.Source), l.ID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printPagination(app, app.stores().Leads.Pagination(), len(leads))
	return nil
}

func validateLeadInput(in models.LeadInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("--name is required")
	}
	if in.Status != "" && !models.OneOf(in.Status, models.LeadStatuses) {
		return fmt.Errorf("--status must be one of %s", strings.Join(models.LeadStatuses, ", "))
	}
	if in.Priority != "" && !models.OneOf(in.Priority, models.Priorities) {
		return fmt.Errorf("--priority must be one of %s", strings.Join(models.Priorities, ", "))
	}
	if in.Source != "" && !models.OneOf(in.Source, models.Sources) {
		return fmt.Errorf("--source must be one of %s", strings.Join(models.Sources, ", "))
	}
	return nil
}

func LeadsAddCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("leads add", flag.ExitOnError)
	name := fs.String("name", "", "Lead name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	company := fs.String("company", "", "Company name")
	status := fs.String("status", models.LeadStatusNew, "Status")
	priority := fs.String("priority", "", "Priority")
	source := fs.String("source", models.SourceManual, "Source")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	in := models.LeadInput{
		Name: *name, Email: *email, Phone: *phone, Company: *company,
		Status: *status, Priority: *priority, Source: *source, Notes: *notes,
	}
	if err := validateLeadInput(in); err != nil {
		return err
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	lead, err := app.Syncer.Leads.Create(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	app.printf("✓ Lead created: %s (ID: %s)\n", lead.Name, lead.ID)
	if lead.Company != "" {
		app.printf("  Company: %s\n", lead.Company)
	}
	app.printf("  Status: %s\n", lead.Status)
	return nil
}

// LeadsUpdateCommand edits a lead. Flags must come before the lead ID.
func LeadsUpdateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("leads update", flag.ExitOnError)
	name := fs.String("name", "", "Lead name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	company := fs.String("company", "", "Company name")
	status := fs.String("status", "", "Status")
	priority := fs.String("priority", "", "Priority")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: leads update [flags] <id>")
	}
	id := fs.Arg(0)

	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	current, err := app.Syncer.Leads.Get(ctx, id)
	if err != nil {
		return err
	}
	in := models.LeadInput{
		Name: current.Name, Email: current.Email, Phone: current.Phone, Company: current.Company,
		Status: current.Status, Priority: current.Priority, Source: current.Source, Notes: current.Notes,
		Metadata: current.Metadata,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			in.Name = *name
		case "email":
			in.Email = *email
		case "phone":
			in.Phone = *phone
		case "company":
			in.Company = *company
		case "status":
			in.Status = *status
		case "priority":
			in.Priority = *priority
		case "notes":
			in.Notes = *notes
		}
	})
	if err := validateLeadInput(in); err != nil {
		return err
	}

	optimistic := *current
	optimistic.Name, optimistic.Status, optimistic.Priority = in.Name, in.Status, in.Priority
	lead, err := app.Syncer.Leads.Update(ctx, id, in, &optimistic)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	app.printf("✓ Lead updated: %s (%s)\n", lead.Name, lead.Status)
	return nil
}

func LeadsDeleteCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("leads delete", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: leads delete [--yes] <id>")
	}
	id := fs.Arg(0)
	if err := app.requireAuth(); err != nil {
		return err
	}

	ctx, cancel := app.ctx()
	lead, err := app.Syncer.Leads.Get(ctx, id)
	cancel()
	if err != nil {
		return err
	}
	ok, err := app.confirmDelete("lead "+lead.Name, id, *yes)
	if err != nil || !ok {
		return err
	}

	ctx, cancel = app.ctx()
	defer cancel()
	if err := app.Syncer.Leads.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	app.printf("✓ Deleted lead %s\n", lead.Name)
	return nil
}

func ContactsListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("contacts list", flag.ExitOnError)
	query := fs.String("query", "", "Search by name, email or company")
	status := fs.String("status", "", "Filter by status")
	page := fs.Int("page", 1, "Page number")
	perPage := fs.Int("per-page", 20, "Contacts per page")
	_ = fs.Parse(args)

	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	params := api.ListParams{Page: *page, PerPage: *perPage, Search: *query, Filters: map[string]string{"status": *status}}
	if err := app.Syncer.Contacts.Load(ctx, params); err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	contacts := app.stores().Contacts.Items()
	if len(contacts) == 0 {
		app.printf("No contacts found\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tPHONE\tCOMPANY\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t-----\t-------\t--")
	for _, c := range contacts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, orDash(c.Email), orDash(c.Phone), orDash(c.Company), c.ID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printPagination(app, app.stores().Contacts.Pagination(), len(contacts))
	return nil
}

func ContactsAddCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("contacts add", flag.ExitOnError)
	name := fs.String("name", "", "Contact name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	company := fs.String("company", "", "Company name")
	position := fs.String("position", "", "Job title")
	var tags multiFlag
	fs.Var(&tags, "tag", "Tag (repeatable)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*name) == "" {
		return fmt.Errorf("--name is required")
	}
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	c, err := app.Syncer.Contacts.Create(ctx, models.ContactInput{
		Name: *name, Email: *email, Phone: *phone, Company: *company, Position: *position,
		Status: models.ContactStatusActive, Source: models.SourceManual, Tags: tags,
	})
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	app.printf("✓ Contact created: %s (ID: %s)\n", c.Name, c.ID)
	if c.Email != "" {
		app.printf("  Email: %s\n", c.Email)
	}
	return nil
}

func ContactsDeleteCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("contacts delete", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: contacts delete [--yes] <id>")
	}
	id := fs.Arg(0)
	if err := app.requireAuth(); err != nil {
		return err
	}

	ctx, cancel := app.ctx()
	c, err := app.Syncer.Contacts.Get(ctx, id)
	cancel()
	if err != nil {
		return err
	}
	ok, err := app.confirmDelete("contact "+c.Name, id, *yes)
	if err != nil || !ok {
		return err
	}

	ctx, cancel = app.ctx()
	defer cancel()
	if err := app.Syncer.Contacts.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	app.printf("✓ Deleted contact %s\n", c.Name)
	return nil
}

// ContactsImportGoogleCommand imports Google contacts, reusing the token from
// `auth google-login` when one is saved.
func ContactsImportGoogleCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("contacts import-google", flag.ExitOnError)
	_ = fs.Parse(args)

	if err := app.requireAuth(); err != nil {
		return err
	}
	cfg := syncer.NewOAuthConfig(app.Config.GoogleClientID, app.Config.GoogleClientSecret, app.Config.GoogleRedirectURL)

	token, err := syncer.LoadToken()
	if errors.Is(err, os.ErrNotExist) {
		authCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		token, err = syncer.Authorize(authCtx, cfg, func(url string) {
			app.printf("Open this URL in your browser to allow contact access:\n\n  %s\n\n", url)
		})
		if err != nil {
			return err
		}
		if err := syncer.SaveToken(token); err != nil {
			app.Log.Warn("could not save Google token", "err", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to load Google token: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	svc, err := syncer.NewPeopleService(ctx, cfg, token)
	if err != nil {
		return err
	}

	app.printf("→ Importing Google contacts...\n")
	summary, err := app.Syncer.ImportGoogleContacts(ctx, svc, func(msg string) {
		app.printf("%s\n", msg)
	})
	if err != nil {
		return err
	}
	app.printf("✓ Fetched %d, created %d, updated %d, skipped %d", summary.Fetched, summary.Created, summary.Updated, summary.Skipped)
	if summary.Failed > 0 {
		app.printf(", failed %d", summary.Failed)
	}
	app.printf("\n")
	return nil
}
