// ABOUTME: Google OAuth configuration, local callback flow and token storage
// ABOUTME: The ID token feeds Google sign-in; the access token feeds the contacts import
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/people/v1"
)

// DefaultRedirectURL is where the local callback server listens.
const DefaultRedirectURL = "http://localhost:8080/oauth/callback"

// GoogleScopes cover sign-in plus read access to the user's contacts.
var GoogleScopes = []string{
	"openid",
	"email",
	"profile",
	people.ContactsReadonlyScope,
}

// ErrNoIDToken means the token response did not include an OpenID ID token.
var ErrNoIDToken = errors.New("google token response has no id_token")

// NewOAuthConfig creates the OAuth2 config for Google sign-in and contacts.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if redirectURL == "" {
		redirectURL = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       GoogleScopes,
		Endpoint:     google.Endpoint,
	}
}

// TokenPath returns the XDG path of the stored Google token.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "agentdash", "google-credentials.json")
}

// SaveToken writes the token with owner-only permissions.
func SaveToken(token *oauth2.Token) error {
	path := TokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

func LoadToken() (*oauth2.Token, error) {
	f, err := os.Open(TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// IDToken extracts the OpenID ID token from a token response.
func IDToken(token *oauth2.Token) (string, error) {
	if token == nil {
		return "", ErrNoIDToken
	}
	id, _ := token.Extra("id_token").(string)
	if id == "" {
		return "", ErrNoIDToken
	}
	return id, nil
}

// Authorize runs the authorization code flow. It serves the redirect URL
// locally, hands the consent URL to open and waits for the callback. A
// redirect port of 0 picks a free port.
func Authorize(ctx context.Context, cfg *oauth2.Config, open func(authURL string)) (*oauth2.Token, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("google OAuth credentials not configured. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}

	redirect, err := url.Parse(cfg.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL: %w", err)
	}
	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OAuth callback: %w", err)
	}

	conf := *cfg
	if redirect.Port() == "0" {
		redirect.Host = ln.Addr().String()
	}
	conf.RedirectURL = redirect.String()

	state := uuid.NewString()
	tokens := make(chan *oauth2.Token, 1)
	errs := make(chan error, 1)
	fail := func(err error) {
		select {
		case errs <- err:
		default:
		}
	}

	path := redirect.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			fail(fmt.Errorf("OAuth state mismatch"))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			fail(fmt.Errorf("no authorization code received"))
			return
		}
		token, err := conf.Exchange(r.Context(), code)
		if err != nil {
			http.Error(w, "exchange failed", http.StatusBadGateway)
			fail(fmt.Errorf("failed to exchange code: %w", err))
			return
		}
		select {
		case tokens <- token:
		default:
		}
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fail(err)
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	open(conf.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case token := <-tokens:
		return token, nil
	case err := <-errs:
		return nil, fmt.Errorf("OAuth flow failed: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
