// ABOUTME: Shared data models mirrored from the backend REST API
// ABOUTME: Defines auth, business, pagination and local history records
package models

import (
	"time"
)

// Identifiable is implemented by every entity that lives in a list store.
type Identifiable interface {
	GetID() string
}

// Pagination follows the backend's page/per_page convention.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// HasNext reports whether another page exists after the current one.
func (p *Pagination) HasNext() bool {
	if p == nil {
		return false
	}
	return p.Page < p.TotalPages
}

type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	OAuthProvider string `json:"oauth_provider,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

func (u User) GetID() string { return u.ID }

// AuthResponse is returned by login, registration, Google login and email verification.
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	User         *User     `json:"user,omitempty"`
	Business     *Business `json:"business,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Business is the tenant root entity.
type Business struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	BusinessType        string    `json:"business_type,omitempty"`
	Email               string    `json:"email,omitempty"`
	Phone               string    `json:"phone,omitempty"`
	Address             string    `json:"address,omitempty"`
	Website             string    `json:"website,omitempty"`
	Description         string    `json:"description,omitempty"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at,omitempty"`
	UpdatedAt           time.Time `json:"updated_at,omitempty"`
}

func (b Business) GetID() string { return b.ID }

// NeedsOnboarding reports whether the tenant still has to complete onboarding.
// A missing business always needs it.
func (b *Business) NeedsOnboarding() bool {
	return b == nil || b.ID == "" || !b.OnboardingCompleted
}

// BusinessInput is the onboarding/edit form payload.
type BusinessInput struct {
	Name         string `json:"name"`
	BusinessType string `json:"business_type,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	Website      string `json:"website,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Business types offered by the onboarding form.
const (
	BusinessTypeRetail     = "retail"
	BusinessTypeService    = "service"
	BusinessTypeRestaurant = "restaurant"
	BusinessTypeEcommerce  = "ecommerce"
	BusinessTypeOther      = "other"
)

var BusinessTypes = []string{BusinessTypeRetail, BusinessTypeService, BusinessTypeRestaurant, BusinessTypeEcommerce, BusinessTypeOther}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// SyncState records the outcome of the last fetch of a resource.
type SyncState struct {
	Resource     string     `json:"resource"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ImportRun is one bulk catalog upload recorded in the local history.
type ImportRun struct {
	ID           string     `json:"id"`
	FileName     string     `json:"file_name"`
	TemplateID   string     `json:"template_id,omitempty"`
	TotalRows    int        `json:"total_rows"`
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	Errors       []RowError `json:"errors,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
