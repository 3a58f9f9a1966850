// ABOUTME: Imports Google contacts into the CRM via the People API
// ABOUTME: Existing contacts matched by email are only filled in, never overwritten
package syncer

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"github.com/harperreed/agentdash/models"
)

const personFields = "names,emailAddresses,phoneNumbers,organizations,biographies"

// NewPeopleService creates an authenticated People API client.
func NewPeopleService(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, opts ...option.ClientOption) (*people.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(cfg.Client(ctx, token))}, opts...)
	svc, err := people.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}
	return svc, nil
}

type GoogleContact struct {
	ResourceName string
	Name         string
	Email        string
	Phone        string
	Company      string
	JobTitle     string
	Notes        string
}

// ImportSummary counts what one import did.
type ImportSummary struct {
	Fetched int
	Created int
	Updated int
	Skipped int
	Failed  int
}

// ImportGoogleContacts pages through the user's Google connections and
// creates or fills in CRM contacts. Contacts without a name or email are
// skipped. Per-contact failures are counted and reported through progress.
func (s *Syncer) ImportGoogleContacts(ctx context.Context, svc *people.Service, progress func(string)) (*ImportSummary, error) {
	if progress == nil {
		progress = func(string) {}
	}

	existing, err := s.Contacts.LoadAll(ctx, 100)
	if err != nil {
		s.record(KeyGoogleContacts, err)
		return nil, fmt.Errorf("failed to load existing contacts: %w", err)
	}
	matcher := NewContactMatcher(existing)

	summary := &ImportSummary{}
	pageToken := ""
	for {
		call := svc.People.Connections.List("people/me").
			PageSize(1000).
			PersonFields(personFields).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			err = fmt.Errorf("failed to fetch contacts: %w", err)
			s.record(KeyGoogleContacts, err)
			return summary, err
		}
		if resp == nil {
			break
		}

		summary.Fetched += len(resp.Connections)
		for _, person := range resp.Connections {
			gc := convertPerson(person)
			if gc.Email == "" || gc.Name == "" {
				summary.Skipped++
				continue
			}
			created, updated, err := s.importContact(ctx, matcher, gc)
			switch {
			case err != nil:
				summary.Failed++
				progress(fmt.Sprintf("✗ Failed to import contact %q: %v", gc.Name, err))
			case created:
				summary.Created++
			case updated:
				summary.Updated++
			default:
				summary.Skipped++
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
		progress(fmt.Sprintf("→ Processed %d contacts so far...", summary.Fetched))
	}

	s.record(KeyGoogleContacts, nil)
	return summary, nil
}

func (s *Syncer) importContact(ctx context.Context, matcher *ContactMatcher, gc *GoogleContact) (created, updated bool, err error) {
	existing, found := matcher.FindMatch(gc.Email)
	if !found {
		c, err := s.Contacts.Create(ctx, models.ContactInput{
			Name:     gc.Name,
			Email:    gc.Email,
			Phone:    gc.Phone,
			Company:  gc.Company,
			Position: gc.JobTitle,
			Status:   models.ContactStatusActive,
			Source:   models.SourceImport,
			Metadata: googleMetadata(gc),
		})
		if err != nil {
			return false, false, err
		}
		matcher.AddContact(*c)
		return true, false, nil
	}

	in, changed := fillContact(existing, gc)
	if !changed {
		return false, false, nil
	}
	c, err := s.Contacts.Update(ctx, existing.ID, in, nil)
	if err != nil {
		return false, false, err
	}
	matcher.AddContact(*c)
	return false, true, nil
}

func googleMetadata(gc *GoogleContact) map[string]any {
	meta := map[string]any{"google_resource": gc.ResourceName}
	if gc.Notes != "" {
		meta["notes"] = gc.Notes
	}
	return meta
}

// fillContact copies Google data into fields the CRM contact leaves empty.
func fillContact(c models.Contact, gc *GoogleContact) (models.ContactInput, bool) {
	in := models.ContactInput{
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Company:  c.Company,
		Position: c.Position,
		Status:   c.Status,
		Source:   c.Source,
		Tags:     c.Tags,
		Metadata: c.Metadata,
	}
	changed := false
	if in.Phone == "" && gc.Phone != "" {
		in.Phone = gc.Phone
		changed = true
	}
	if in.Company == "" && gc.Company != "" {
		in.Company = gc.Company
		changed = true
	}
	if in.Position == "" && gc.JobTitle != "" {
		in.Position = gc.JobTitle
		changed = true
	}
	return in, changed
}

// convertPerson prefers primary email and phone entries, falling back to the first non-empty one.
func convertPerson(person *people.Person) *GoogleContact {
	gc := &GoogleContact{ResourceName: person.ResourceName}

	if len(person.Names) > 0 {
		gc.Name = person.Names[0].DisplayName
	}

	for _, email := range person.EmailAddresses {
		if email.Value == "" {
			continue
		}
		if gc.Email == "" {
			gc.Email = email.Value
		}
		if email.Metadata != nil && email.Metadata.Primary {
			gc.Email = email.Value
			break
		}
	}

	for _, phone := range person.PhoneNumbers {
		if phone.Value == "" {
			continue
		}
		if gc.Phone == "" {
			gc.Phone = phone.Value
		}
		if phone.Metadata != nil && phone.Metadata.Primary {
			gc.Phone = phone.Value
			break
		}
	}

	if len(person.Organizations) > 0 {
		gc.Company = person.Organizations[0].Name
		gc.JobTitle = person.Organizations[0].Title
	}

	if len(person.Biographies) > 0 {
		gc.Notes = person.Biographies[0].Value
	}
	return gc
}
