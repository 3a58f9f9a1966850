// ABOUTME: Auth and business façades
// ABOUTME: Login, registration, Google sign-in, session refresh and tenant onboarding
package api

import (
	"context"
	"net/http"

	"github.com/harperreed/agentdash/models"
)

type AuthAPI struct {
	client *Client
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	req := models.LoginRequest{Email: email, Password: password}
	if _, err := a.client.Do(ctx, http.MethodPost, "auth/login", req, &out, &RequestOptions{NoAuth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if _, err := a.client.Do(ctx, http.MethodPost, "auth/register", req, &out, &RequestOptions{NoAuth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginWithGoogle exchanges a Google ID token for a backend session.
func (a *AuthAPI) LoginWithGoogle(ctx context.Context, idToken string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	body := map[string]string{"google_id_token": idToken}
	if _, err := a.client.Do(ctx, http.MethodPost, "auth/google", body, &out, &RequestOptions{NoAuth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if _, err := a.client.Do(ctx, http.MethodPost, "auth/verify-email", req, &out, &RequestOptions{NoAuth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	body := map[string]string{"refresh_token": refreshToken}
	if _, err := a.client.Do(ctx, http.MethodPost, "auth/refresh", body, &out, &RequestOptions{NoAuth: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) Logout(ctx context.Context) error {
	_, err := a.client.Do(ctx, http.MethodPost, "auth/logout", nil, nil, nil)
	return err
}

func (a *AuthAPI) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if _, err := a.client.Do(ctx, http.MethodGet, "auth/me", nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

type BusinessAPI struct {
	client *Client
}

// Get returns the business owned by the current user.
func (b *BusinessAPI) Get(ctx context.Context) (*models.Business, error) {
	var out models.Business
	if _, err := b.client.Do(ctx, http.MethodGet, "business/me", nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *BusinessAPI) Create(ctx context.Context, in models.BusinessInput) (*models.Business, error) {
	var out models.Business
	if _, err := b.client.Do(ctx, http.MethodPost, "business", in, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *BusinessAPI) Update(ctx context.Context, in models.BusinessInput) (*models.Business, error) {
	var out models.Business
	if _, err := b.client.Do(ctx, http.MethodPut, "business/me", in, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *BusinessAPI) CompleteOnboarding(ctx context.Context) (*models.Business, error) {
	var out models.Business
	if _, err := b.client.Do(ctx, http.MethodPost, "business/complete-onboarding", nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}
