// ABOUTME: CRM lead and contact models
// ABOUTME: Status, priority and source enums plus an open-ended metadata bag
package models

import (
	"time"
)

// Lead statuses.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusProposal  = "proposal"
	LeadStatusWon       = "won"
	LeadStatusLost      = "lost"
)

// Lead priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Lead and contact sources.
const (
	SourceWebsite  = "website"
	SourceWhatsApp = "whatsapp"
	SourceReferral = "referral"
	SourceSocial   = "social"
	SourceManual   = "manual"
	SourceImport   = "import"
)

// Contact statuses.
const (
	ContactStatusActive   = "active"
	ContactStatusInactive = "inactive"
	ContactStatusBlocked  = "blocked"
)

var (
	LeadStatuses    = []string{LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusProposal, LeadStatusWon, LeadStatusLost}
	Priorities      = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	Sources         = []string{SourceWebsite, SourceWhatsApp, SourceReferral, SourceSocial, SourceManual, SourceImport}
	ContactStatuses = []string{ContactStatusActive, ContactStatusInactive, ContactStatusBlocked}
)

// OneOf reports whether v is in allowed.
func OneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

type Lead struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Company   string         `json:"company,omitempty"`
	Status    string         `json:"status"`
	Priority  string         `json:"priority,omitempty"`
	Source    string         `json:"source,omitempty"`
	Notes     string         `json:"notes,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
}

func (l Lead) GetID() string { return l.ID }

type LeadInput struct {
	Name     string         `json:"name"`
	Email    string         `json:"email,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Company  string         `json:"company,omitempty"`
	Status   string         `json:"status,omitempty"`
	Priority string         `json:"priority,omitempty"`
	Source   string         `json:"source,omitempty"`
	Notes    string         `json:"notes,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Contact struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Email           string         `json:"email,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	Company         string         `json:"company,omitempty"`
	Position        string         `json:"position,omitempty"`
	Status          string         `json:"status,omitempty"`
	Source          string         `json:"source,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	LastContactedAt *time.Time     `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at,omitempty"`
	UpdatedAt       time.Time      `json:"updated_at,omitempty"`
}

func (c Contact) GetID() string { return c.ID }

type ContactInput struct {
	Name     string         `json:"name"`
	Email    string         `json:"email,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Company  string         `json:"company,omitempty"`
	Position string         `json:"position,omitempty"`
	Status   string         `json:"status,omitempty"`
	Source   string         `json:"source,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
