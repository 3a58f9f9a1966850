// ABOUTME: Account CLI commands: login, Google sign-in, registration, verification and status
// ABOUTME: The session token lands in the persisted auth store
package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/syncer"
)

// AuthLoginCommand signs in with email and password.
func AuthLoginCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Password (prompted when omitted)")
	_ = fs.Parse(args)

	var err error
	if *email == "" {
		if *email, err = app.prompt("Email"); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = app.promptPassword("Password"); err != nil {
			return err
		}
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("email and password are required")
	}

	ctx, cancel := app.ctx()
	defer cancel()

	user, err := app.Syncer.Login(ctx, *email, *password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	app.printf("✓ Signed in as %s (%s)\n", user.Name, user.Email)
	return app.reportBusiness(ctx)
}

// AuthGoogleLoginCommand runs the OAuth flow on a local callback and signs in
// with the returned ID token. The Google token is kept for contact imports.
func AuthGoogleLoginCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("google-login", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg := syncer.NewOAuthConfig(app.Config.GoogleClientID, app.Config.GoogleClientSecret, app.Config.GoogleRedirectURL)

	authCtx, cancelAuth := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancelAuth()
	token, err := syncer.Authorize(authCtx, cfg, func(url string) {
		app.printf("Open this URL in your browser to sign in:\n\n  %s\n\n→ Waiting for authorization...\n", url)
	})
	if err != nil {
		return err
	}
	if err := syncer.SaveToken(token); err != nil {
		app.Log.Warn("could not save Google token", "err", err)
	}
	idToken, err := syncer.IDToken(token)
	if err != nil {
		return err
	}

	ctx, cancel := app.ctx()
	defer cancel()
	user, err := app.Syncer.LoginWithGoogle(ctx, idToken)
	if err != nil {
		return fmt.Errorf("google login failed: %w", err)
	}
	app.printf("✓ Signed in with Google as %s (%s)\n", user.Name, user.Email)
	return app.reportBusiness(ctx)
}

// AuthRegisterCommand creates an account. The backend emails a verification code.
func AuthRegisterCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	name := fs.String("name", "", "Your name (required)")
	phone := fs.String("phone", "", "Phone number")
	password := fs.String("password", "", "Password (prompted when omitted)")
	_ = fs.Parse(args)

	if *email == "" || *name == "" {
		return fmt.Errorf("--email and --name are required")
	}
	if *password == "" {
		pw, err := app.promptPassword("Password")
		if err != nil {
			return err
		}
		again, err := app.promptPassword("Repeat password")
		if err != nil {
			return err
		}
		if pw != again {
			return fmt.Errorf("passwords do not match")
		}
		*password = pw
	}
	if len(*password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	ctx, cancel := app.ctx()
	defer cancel()
	user, err := app.Syncer.Register(ctx, models.RegisterRequest{
		Email:       *email,
		Password:    *password,
		Name:        *name,
		PhoneNumber: *phone,
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	app.printf("✓ Account created for %s\n", user.Email)
	if !user.EmailVerified {
		app.printf("→ Check your inbox, then run: agentdash auth verify --email %s --code <code>\n", user.Email)
	}
	return nil
}

// AuthVerifyCommand confirms an email address with the emailed code.
func AuthVerifyCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	email := fs.String("email", "", "Account email (required)")
	code := fs.String("code", "", "Verification code (required)")
	_ = fs.Parse(args)

	if *email == "" || *code == "" {
		return fmt.Errorf("--email and --code are required")
	}

	ctx, cancel := app.ctx()
	defer cancel()
	user, err := app.Syncer.VerifyEmail(ctx, models.VerifyEmailRequest{Email: *email, Code: *code})
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	app.printf("✓ Email verified, signed in as %s\n", user.Email)
	return app.reportBusiness(ctx)
}

func AuthLogoutCommand(app *App, args []string) error {
	ctx, cancel := app.ctx()
	defer cancel()
	if err := app.Syncer.Logout(ctx); err != nil {
		app.Log.Warn("backend logout failed; local session cleared anyway", "err", err)
	}
	app.printf("✓ Signed out\n")
	return nil
}

// AuthStatusCommand reports the cached session without calling the backend.
func AuthStatusCommand(app *App, args []string) error {
	st := app.stores()
	if !st.Auth.IsAuthenticated() {
		app.printf("Not signed in\n")
		return nil
	}

	session := st.Auth.Get()
	user := st.User.Get()
	if user.Email == "" && session.User != nil {
		user = *session.User
	}
	app.printf("Signed in as %s (%s)\n", orDash(user.Name), orDash(user.Email))

	if exp, ok := st.Auth.ExpiresAt(); ok {
		if st.Auth.Expired(time.Now()) {
			app.printf("✗ Session expired at %s\n", exp.Local().Format("2006-01-02 15:04"))
		} else {
			app.printf("Session valid until %s (%s left)\n", exp.Local().Format("2006-01-02 15:04"), time.Until(exp).Round(time.Minute))
		}
	}

	if b := st.Business.Get(); b.ID != "" {
		app.printf("Business: %s\n", b.Name)
		if !b.OnboardingCompleted {
			app.printf("→ Onboarding not finished: agentdash business onboard\n")
		}
	}
	return nil
}

// reportBusiness loads the session's business and points at the next setup step.
func (a *App) reportBusiness(ctx context.Context) error {
	_, business, err := a.Syncer.LoadSession(ctx)
	if err != nil {
		return err
	}
	switch {
	case business == nil:
		a.printf("→ No business yet. Create one: agentdash business set --name <name>\n")
	case !business.OnboardingCompleted:
		a.printf("Business: %s\n→ Finish onboarding: agentdash business onboard\n", business.Name)
	default:
		a.printf("Business: %s\n", business.Name)
	}
	return nil
}
