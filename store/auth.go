// ABOUTME: Session store holding the bearer token and signed-in user
// ABOUTME: Satisfies api.TokenStore and reads token expiry from the JWT exp claim
package store

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/harperreed/agentdash/models"
)

// Session is the persisted auth state.
type Session struct {
	AccessToken  string       `json:"access_token,omitempty"`
	TokenType    string       `json:"token_type,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         *models.User `json:"user,omitempty"`
}

type AuthStore struct {
	*Value[Session]
}

func NewAuthStore() *AuthStore {
	return &AuthStore{Value: NewValue(Session{})}
}

func (a *AuthStore) Token() string {
	return a.Get().AccessToken
}

// ClearToken drops the whole session.
func (a *AuthStore) ClearToken() {
	a.Reset()
}

// SetSession stores the result of a login, registration or verification.
func (a *AuthStore) SetSession(resp *models.AuthResponse) {
	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	a.Set(Session{
		AccessToken:  resp.AccessToken,
		TokenType:    tokenType,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	})
}

func (a *AuthStore) IsAuthenticated() bool {
	return a.Token() != ""
}

// ExpiresAt returns the exp claim of the access token. The signature is not
// checked; the backend remains the authority.
func (a *AuthStore) ExpiresAt() (time.Time, bool) {
	token := a.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the token carries an exp claim that is before now.
func (a *AuthStore) Expired(now time.Time) bool {
	exp, ok := a.ExpiresAt()
	return ok && now.After(exp)
}
