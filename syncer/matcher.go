// ABOUTME: Contact deduplication for the Google contacts import
// ABOUTME: Finds existing CRM contacts by normalized email
package syncer

import (
	"strings"

	"github.com/harperreed/agentdash/models"
)

type ContactMatcher struct {
	byEmail map[string]models.Contact
}

// NewContactMatcher indexes existing contacts by email.
func NewContactMatcher(contacts []models.Contact) *ContactMatcher {
	m := &ContactMatcher{byEmail: make(map[string]models.Contact)}
	for _, c := range contacts {
		m.AddContact(c)
	}
	return m
}

func (m *ContactMatcher) FindMatch(email string) (models.Contact, bool) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return models.Contact{}, false
	}
	c, found := m.byEmail[normalized]
	return c, found
}

// AddContact records a contact so later rows in the same import match it.
func (m *ContactMatcher) AddContact(c models.Contact) {
	if email := normalizeEmail(c.Email); email != "" {
		m.byEmail[email] = c
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
