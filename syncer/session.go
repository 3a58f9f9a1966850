// ABOUTME: Sign-in, sign-out and session restore against the auth and business endpoints
// ABOUTME: Successful auth responses populate the auth, user and business stores
package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/models"
)

func (s *Syncer) applyAuth(resp *models.AuthResponse) *models.User {
	s.stores.Auth.SetSession(resp)
	if resp.User != nil {
		s.stores.User.Set(*resp.User)
	}
	if resp.Business != nil {
		s.stores.Business.Set(*resp.Business)
	}
	return resp.User
}

func (s *Syncer) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.services.Auth.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.applyAuth(resp), nil
}

// LoginWithGoogle exchanges a Google ID token for a backend session.
func (s *Syncer) LoginWithGoogle(ctx context.Context, idToken string) (*models.User, error) {
	resp, err := s.services.Auth.LoginWithGoogle(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("google login: %w", err)
	}
	return s.applyAuth(resp), nil
}

// Register creates an account. The backend may return a session right away
// or require email verification first; the latter leaves the stores untouched.
func (s *Syncer) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	resp, err := s.services.Auth.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if resp.AccessToken == "" {
		return resp.User, nil
	}
	return s.applyAuth(resp), nil
}

func (s *Syncer) VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) (*models.User, error) {
	resp, err := s.services.Auth.VerifyEmail(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}
	return s.applyAuth(resp), nil
}

// LoadSession refreshes the signed-in user and their business. A user
// without a business yet gets an empty business store.
func (s *Syncer) LoadSession(ctx context.Context) (*models.User, *models.Business, error) {
	user, err := s.services.Auth.Me(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	s.stores.User.Set(*user)

	business, err := s.services.Business.Get(ctx)
	if errors.Is(err, api.ErrNotFound) {
		s.stores.Business.Reset()
		return user, nil, nil
	}
	if err != nil {
		return user, nil, fmt.Errorf("load business: %w", err)
	}
	s.stores.Business.Set(*business)
	return user, business, nil
}

// SaveBusiness creates the business on first use and updates it afterwards.
func (s *Syncer) SaveBusiness(ctx context.Context, in models.BusinessInput) (*models.Business, error) {
	var (
		business *models.Business
		err      error
	)
	if current := s.stores.Business.Get(); current.ID == "" {
		business, err = s.services.Business.Create(ctx, in)
	} else {
		business, err = s.services.Business.Update(ctx, in)
	}
	if err != nil {
		return nil, fmt.Errorf("save business: %w", err)
	}
	s.stores.Business.Set(*business)
	return business, nil
}

func (s *Syncer) CompleteOnboarding(ctx context.Context) (*models.Business, error) {
	business, err := s.services.Business.CompleteOnboarding(ctx)
	if err != nil {
		return nil, fmt.Errorf("complete onboarding: %w", err)
	}
	s.stores.Business.Set(*business)
	return business, nil
}

// Logout ends the backend session and clears every tenant-scoped store. The
// local state is cleared even when the backend call fails.
func (s *Syncer) Logout(ctx context.Context) error {
	var err error
	if s.stores.Auth.IsAuthenticated() {
		err = s.services.Auth.Logout(ctx)
	}
	s.ClearSession()
	if err != nil && !errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ClearSession wipes auth and every tenant-scoped store. Theme and sidebar
// preferences survive.
func (s *Syncer) ClearSession() {
	st := s.stores
	st.Auth.ClearToken()
	st.User.Reset()
	st.Business.Reset()
	st.Catalog.Set(nil)
	st.Templates.Set(nil)
	st.ChatAgents.Set(nil)
	st.Contacts.Set(nil)
	st.Leads.Set(nil)
	st.Integrations.Set(nil)
	st.KnowledgeBases.Set(nil)
	st.Channels.Set(nil)
	st.Tools.Set(nil)
	st.Conversations.Set(nil)
}
