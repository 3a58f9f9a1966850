// ABOUTME: Lead and contact MCP tool handlers
// ABOUTME: Implements find_leads, add_lead, update_lead_status, find_contacts and add_contact tools
package handlers

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/agentdash/api"
	"github.com/harperreed/agentdash/models"
	"github.com/harperreed/agentdash/syncer"
)

type CRMHandlers struct {
	syncer *syncer.Syncer
}

func NewCRMHandlers(s *syncer.Syncer) *CRMHandlers {
	return &CRMHandlers{syncer: s}
}

type LeadOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Status    string `json:"status"`
	Priority  string `json:"priority,omitempty"`
	Source    string `json:"source,omitempty"`
	Notes     string `json:"notes,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type FindLeadsInput struct {
	Query  string `json:"query,omitempty" jsonschema:"Search query (name, email, company)"`
	Status string `json:"status,omitempty" jsonschema:"Filter by status (new, contacted, qualified, proposal, won, lost)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)"`
}

type FindLeadsOutput struct {
	Leads []LeadOutput `json:"leads"`
}

func (h *CRMHandlers) FindLeads(ctx context.Context, request *mcp.CallToolRequest, input FindLeadsInput) (*mcp.CallToolResult, FindLeadsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 20
	}
	params := api.ListParams{Page: 1, PerPage: limit, Search: input.Query, Filters: map[string]string{"status": input.Status}}
	if err := h.syncer.Leads.Load(ctx, params); err != nil && !errors.Is(err, syncer.ErrStale) {
		return nil, FindLeadsOutput{}, fmt.Errorf("failed to find leads: %w", err)
	}

	leads := h.syncer.Leads.Store().Items()
	out := FindLeadsOutput{Leads: make([]LeadOutput, 0, len(leads))}
	for _, lead := range leads {
		out.Leads = append(out.Leads, leadToOutput(lead))
	}
	return nil, out, nil
}

type AddLeadInput struct {
	Name     string `json:"name" jsonschema:"Lead name (required)"`
	Email    string `json:"email,omitempty" jsonschema:"Email address"`
	Phone    string `json:"phone,omitempty" jsonschema:"Phone number"`
	Company  string `json:"company,omitempty" jsonschema:"Company name"`
	Priority string `json:"priority,omitempty" jsonschema:"Priority (low, medium, high)"`
	Source   string `json:"source,omitempty" jsonschema:"Where the lead came from (default manual)"`
	Notes    string `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

func (h *CRMHandlers) AddLead(ctx context.Context, request *mcp.CallToolRequest, input AddLeadInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.Name == "" {
		return nil, LeadOutput{}, fmt.Errorf("name is required")
	}
	source := input.Source
	if source == "" {
		source = models.SourceManual
	}
	if !slices.Contains(models.Sources, source) {
		return nil, LeadOutput{}, fmt.Errorf("invalid source %q", source)
	}

	lead, err := h.syncer.Leads.Create(ctx, models.LeadInput{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Company:  input.Company,
		Status:   models.LeadStatusNew,
		Priority: input.Priority,
		Source:   source,
		Notes:    input.Notes,
	})
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to create lead: %w", err)
	}
	return nil, leadToOutput(*lead), nil
}

type UpdateLeadStatusInput struct {
	ID     string `json:"id" jsonschema:"Lead ID (required)"`
	Status string `json:"status" jsonschema:"New status (required)"`
	Notes  string `json:"notes,omitempty" jsonschema:"Replacement notes"`
}

func (h *CRMHandlers) UpdateLeadStatus(ctx context.Context, request *mcp.CallToolRequest, input UpdateLeadStatusInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.ID == "" {
		return nil, LeadOutput{}, fmt.Errorf("id is required")
	}
	if !slices.Contains(models.LeadStatuses, input.Status) {
		return nil, LeadOutput{}, fmt.Errorf("invalid status %q", input.Status)
	}

	lead, ok := h.syncer.Leads.Store().Get(input.ID)
	if !ok {
		fetched, err := h.syncer.Leads.Get(ctx, input.ID)
		if err != nil {
			return nil, LeadOutput{}, fmt.Errorf("failed to get lead: %w", err)
		}
		lead = *fetched
	}

	optimistic := lead
	optimistic.Status = input.Status
	if input.Notes != "" {
		optimistic.Notes = input.Notes
	}
	updated, err := h.syncer.Leads.Update(ctx, input.ID, models.LeadInput{
		Name:     optimistic.Name,
		Email:    optimistic.Email,
		Phone:    optimistic.Phone,
		Company:  optimistic.Company,
		Status:   optimistic.Status,
		Priority: optimistic.Priority,
		Source:   optimistic.Source,
		Notes:    optimistic.Notes,
		Metadata: optimistic.Metadata,
	}, &optimistic)
	if err != nil {
		return nil, LeadOutput{}, fmt.Errorf("failed to update lead: %w", err)
	}
	return nil, leadToOutput(*updated), nil
}

type ContactOutput struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Company         string   `json:"company,omitempty"`
	Position        string   `json:"position,omitempty"`
	Status          string   `json:"status,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	LastContactedAt string   `json:"last_contacted_at,omitempty"`
}

type FindContactsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search query (searches name and email)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)"`
}

type FindContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
}

func (h *CRMHandlers) FindContacts(ctx context.Context, request *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 20
	}
	if err := h.syncer.Contacts.Load(ctx, api.ListParams{Page: 1, PerPage: limit, Search: input.Query}); err != nil && !errors.Is(err, syncer.ErrStale) {
		return nil, FindContactsOutput{}, fmt.Errorf("failed to find contacts: %w", err)
	}

	contacts := h.syncer.Contacts.Store().Items()
	out := FindContactsOutput{Contacts: make([]ContactOutput, 0, len(contacts))}
	for _, c := range contacts {
		out.Contacts = append(out.Contacts, contactToOutput(c))
	}
	return nil, out, nil
}

type AddContactInput struct {
	Name     string   `json:"name" jsonschema:"Contact name (required)"`
	Email    string   `json:"email,omitempty" jsonschema:"Contact email address"`
	Phone    string   `json:"phone,omitempty" jsonschema:"Contact phone number"`
	Company  string   `json:"company,omitempty" jsonschema:"Company name"`
	Position string   `json:"position,omitempty" jsonschema:"Job title"`
	Tags     []string `json:"tags,omitempty" jsonschema:"Tags"`
}

func (h *CRMHandlers) AddContact(ctx context.Context, request *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.Name == "" {
		return nil, ContactOutput{}, fmt.Errorf("name is required")
	}
	c, err := h.syncer.Contacts.Create(ctx, models.ContactInput{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Company:  input.Company,
		Position: input.Position,
		Tags:     input.Tags,
		Status:   models.ContactStatusActive,
		Source:   models.SourceManual,
	})
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return nil, contactToOutput(*c), nil
}

func leadToOutput(l models.Lead) LeadOutput {
	return LeadOutput{
		ID:        l.ID,
		Name:      l.Name,
		Email:     l.Email,
		Phone:     l.Phone,
		Company:   l.Company,
		Status:    l.Status,
		Priority:  l.Priority,
		Source:    l.Source,
		Notes:     l.Notes,
		UpdatedAt: formatTime(l.UpdatedAt),
	}
}

func contactToOutput(c models.Contact) ContactOutput {
	out := ContactOutput{
		ID:       c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Company:  c.Company,
		Position: c.Position,
		Status:   c.Status,
		Tags:     c.Tags,
	}
	if c.LastContactedAt != nil {
		out.LastContactedAt = formatTime(*c.LastContactedAt)
	}
	return out
}
