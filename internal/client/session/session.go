// Package session drives a signed-in user's contact screen: it calls the
// contacts API and keeps the contact cache and the form draft in step with
// each response.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/louisbranch/contactkeeper/internal/client/contactcache"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
)

// ContactsAPI is the remote contact store.
type ContactsAPI interface {
	List(ctx context.Context, filter string) ([]contact.Contact, error)
	Create(ctx context.Context, fields contact.Fields) (contact.Contact, error)
	Update(ctx context.Context, id string, patch contact.Patch) (contact.Contact, error)
	Delete(ctx context.Context, id string) error
}

// EmptyDraft is the form state when nothing is being edited.
func EmptyDraft() contact.Fields {
	return contact.Fields{Type: contact.TypePersonal}
}

// Session pairs an API client with a cache. It is safe for concurrent use.
type Session struct {
	api   ContactsAPI
	cache *contactcache.Cache

	mu    sync.Mutex
	draft contact.Fields
}

// New creates a session over api and cache.
func New(api ContactsAPI, cache *contactcache.Cache) (*Session, error) {
	if api == nil {
		return nil, errors.New("contacts api is required")
	}
	if cache == nil {
		return nil, errors.New("contact cache is required")
	}
	return &Session{api: api, cache: cache, draft: EmptyDraft()}, nil
}

// Cache returns the session's cache for observers.
func (s *Session) Cache() *contactcache.Cache {
	return s.cache
}

// Load fetches the full list into the cache.
func (s *Session) Load(ctx context.Context) error {
	return s.cache.Load(ctx, func(ctx context.Context) ([]contact.Contact, error) {
		return s.api.List(ctx, "")
	})
}

// Draft returns the form draft.
func (s *Session) Draft() contact.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SetDraft replaces the form draft.
func (s *Session) SetDraft(fields contact.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = fields
}

// Edit makes id the edit target and copies it into the draft, discarding any
// unsaved input.
func (s *Session) Edit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.SetCurrent(id); err != nil {
		return err
	}
	current := s.cache.Snapshot().Current
	if current == nil {
		return contactcache.ErrUnknownContact
	}
	s.draft = contact.Fields{
		Name:  current.Name,
		Email: current.Email,
		Phone: current.Phone,
		Type:  current.Type,
	}
	return nil
}

// CancelEdit clears the edit target and resets the draft.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.ClearCurrent()
	s.draft = EmptyDraft()
}

// Submit creates a contact from the draft, or updates the edit target when
// there is one. On success the draft resets; on failure it is kept.
func (s *Session) Submit(ctx context.Context) (contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.draft
	current := s.cache.Snapshot().Current
	if current == nil {
		created, err := s.api.Create(ctx, draft)
		if err != nil {
			return contact.Contact{}, err
		}
		s.cache.Add(created)
		s.draft = EmptyDraft()
		return created, nil
	}

	updated, err := s.api.Update(ctx, current.ID, patchFromDraft(*current, draft))
	if err != nil {
		return contact.Contact{}, err
	}
	if err := s.cache.ApplyUpdate(updated); err != nil {
		// Removed locally while the request was in flight.
		s.cache.ClearCurrent()
	}
	s.draft = EmptyDraft()
	return updated, nil
}

// Delete removes id remotely and then from the cache. On failure the record
// stays in the list.
func (s *Session) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	editing := s.cache.Snapshot().Current
	s.cache.Remove(id)
	if editing != nil && editing.ID == id {
		s.draft = EmptyDraft()
	}
	return nil
}

// SetFilter changes the filter text. "" clears it.
func (s *Session) SetFilter(query string) {
	s.cache.SetQuery(query)
}

// Logout discards everything held for the user.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Reset()
	s.draft = EmptyDraft()
}

// patchFromDraft sends only the fields that differ from the stored record.
func patchFromDraft(current contact.Contact, draft contact.Fields) contact.Patch {
	var patch contact.Patch
	if draft.Name != current.Name {
		name := draft.Name
		patch.Name = &name
	}
	if draft.Email != current.Email {
		email := draft.Email
		patch.Email = &email
	}
	if draft.Phone != current.Phone {
		phone := draft.Phone
		patch.Phone = &phone
	}
	if draft.Type != "" && draft.Type != current.Type {
		contactType := draft.Type
		patch.Type = &contactType
	}
	return patch
}
