// ABOUTME: Business profile CLI commands
// ABOUTME: Shows the tenant, creates or edits it, and completes onboarding
package cli

import (
	"flag"
	"fmt"
	"strings"

	"github.com/harperreed/agentdash/models"
)

func BusinessShowCommand(app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	_, b, err := app.Syncer.LoadSession(ctx)
	if err != nil {
		return err
	}
	if b == nil {
		app.printf("No business yet. Create one: agentdash business set --name <name>\n")
		return nil
	}

	w := app.table()
	_, _ = fmt.Fprintf(w, "Name:\t%s\n", b.Name)
	_, _ = fmt.Fprintf(w, "Type:\t%s\n", orDash(b.BusinessType))
	_, _ = fmt.Fprintf(w, "Email:\t%s\n", orDash(b.Email))
	_, _ = fmt.Fprintf(w, "Phone:\t%s\n", orDash(b.Phone))
	_, _ = fmt.Fprintf(w, "Address:\t%s\n", orDash(b.Address))
	_, _ = fmt.Fprintf(w, "Website:\t%s\n", orDash(b.Website))
	_, _ = fmt.Fprintf(w, "Description:\t%s\n", orDash(b.Description))
	onboarded := "no"
	if b.OnboardingCompleted {
		onboarded = "yes"
	}
	_, _ = fmt.Fprintf(w, "Onboarded:\t%s\n", onboarded)
	_, _ = fmt.Fprintf(w, "ID:\t%s\n", b.ID)
	return w.Flush()
}

// BusinessSetCommand creates the business on first use and edits it after.
// Only the flags given change; the rest keep their current values.
func BusinessSetCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("business set", flag.ExitOnError)
	name := fs.String("name", "", "Business name")
	typ := fs.String("type", "", "Business type ("+strings.Join(models.BusinessTypes, ", ")+")")
	email := fs.String("email", "", "Contact email")
	phone := fs.String("phone", "", "Phone number")
	address := fs.String("address", "", "Street address")
	website := fs.String("website", "", "Website URL")
	description := fs.String("description", "", "Short description")
	_ = fs.Parse(args)

	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	in := models.BusinessInput{}
	if _, current, err := app.Syncer.LoadSession(ctx); err != nil {
		return err
	} else if current != nil {
		in = models.BusinessInput{
			Name:         current.Name,
			BusinessType: current.BusinessType,
			Email:        current.Email,
			Phone:        current.Phone,
			Address:      current.Address,
			Website:      current.Website,
			Description:  current.Description,
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			in.Name = strings.TrimSpace(*name)
		case "type":
			in.BusinessType = *typ
		case "email":
			in.Email = *email
		case "phone":
			in.Phone = *phone
		case "address":
			in.Address = *address
		case "website":
			in.Website = *website
		case "description":
			in.Description = *description
		}
	})

	if in.Name == "" {
		return fmt.Errorf("--name is required")
	}
	if in.BusinessType != "" && !models.OneOf(in.BusinessType, models.BusinessTypes) {
		return fmt.Errorf("--type must be one of %s", strings.Join(models.BusinessTypes, ", "))
	}

	b, err := app.Syncer.SaveBusiness(ctx, in)
	if err != nil {
		return err
	}
	app.printf("✓ Business saved: %s (ID: %s)\n", b.Name, b.ID)
	if !b.OnboardingCompleted {
		app.printf("→ Finish onboarding: agentdash business onboard\n")
	}
	return nil
}

func BusinessOnboardCommand(app *App, args []string) error {
	if err := app.requireAuth(); err != nil {
		return err
	}
	ctx, cancel := app.ctx()
	defer cancel()

	b, err := app.Syncer.CompleteOnboarding(ctx)
	if err != nil {
		return err
	}
	app.printf("✓ Onboarding complete for %s\n", b.Name)
	return nil
}
