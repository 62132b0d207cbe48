// Package service implements the owner-scoped contact operations: list,
// create, update and delete.
//
// Update and delete load the target before checking ownership, so a caller
// who does not own an existing id gets FORBIDDEN while an unknown id gets
// NOT_FOUND. That difference reveals existence to non-owners and is kept
// for compatibility with existing clients.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	apperrors "github.com/louisbranch/contactkeeper/internal/platform/errors"
	"github.com/louisbranch/contactkeeper/internal/platform/id"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/ownership"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/filter"
)

// Service applies contact rules on top of a ContactStore.
type Service struct {
	store storage.ContactStore
	clock func() time.Time
	newID func() (string, error)
}

// New creates a contacts service backed by store.
func New(store storage.ContactStore) *Service {
	return &Service{
		store: store,
		clock: time.Now,
		newID: id.NewID,
	}
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Service) ready(ownerID string) error {
	if s == nil || s.store == nil {
		return apperrors.New(apperrors.CodeStoreFault, "contact store is not configured")
	}
	if strings.TrimSpace(ownerID) == "" {
		return apperrors.New(apperrors.CodeUnauthenticated, "owner id is required")
	}
	return nil
}

// List returns ownerID's contacts. filterStr is an optional AIP-160
// expression over name, email, phone and type.
func (s *Service) List(ctx context.Context, ownerID, filterStr string) ([]contact.Contact, error) {
	if err := s.ready(ownerID); err != nil {
		return nil, err
	}
	cond, err := filter.Parse(filterStr)
	if err != nil {
		return nil, apperrors.WithMetadata(
			apperrors.CodeBadRequest,
			"invalid list filter",
			map[string]string{"Reason": err.Error()},
		)
	}

	contacts, err := s.store.ListContacts(ctx, ownerID, cond)
	if err != nil {
		return nil, storeFault("list contacts", err)
	}
	return contacts, nil
}

// Create validates fields and stores a new contact owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, fields contact.Fields) (contact.Contact, error) {
	if err := s.ready(ownerID); err != nil {
		return contact.Contact{}, err
	}
	normalized, err := fields.Normalize()
	if err != nil {
		return contact.Contact{}, err
	}

	contactID, err := s.newID()
	if err != nil {
		return contact.Contact{}, storeFault("generate contact id", err)
	}
	created, err := contact.New(contactID, ownerID, normalized, s.now())
	if err != nil {
		return contact.Contact{}, err
	}
	if err := s.store.InsertContact(ctx, created); err != nil {
		return contact.Contact{}, storeFault("insert contact", err)
	}
	return created, nil
}

// Update applies patch to the contact id after confirming ownerID owns it.
func (s *Service) Update(ctx context.Context, contactID, ownerID string, patch contact.Patch) (contact.Contact, error) {
	if err := s.ready(ownerID); err != nil {
		return contact.Contact{}, err
	}
	current, err := s.loadOwned(ctx, contactID, ownerID)
	if err != nil {
		return contact.Contact{}, err
	}

	normalized, err := patch.Normalize()
	if err != nil {
		return contact.Contact{}, err
	}
	if normalized.IsEmpty() {
		return current, nil
	}

	updated, err := s.store.UpdateContact(ctx, contactID, normalized, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return contact.Contact{}, notFound(contactID)
		}
		return contact.Contact{}, storeFault("update contact", err)
	}
	return updated, nil
}

// Delete removes the contact id after confirming ownerID owns it.
func (s *Service) Delete(ctx context.Context, contactID, ownerID string) error {
	if err := s.ready(ownerID); err != nil {
		return err
	}
	if _, err := s.loadOwned(ctx, contactID, ownerID); err != nil {
		return err
	}

	if err := s.store.DeleteContact(ctx, contactID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(contactID)
		}
		return storeFault("delete contact", err)
	}
	return nil
}

// loadOwned checks existence first and ownership second.
func (s *Service) loadOwned(ctx context.Context, contactID, ownerID string) (contact.Contact, error) {
	current, err := s.store.GetContact(ctx, contactID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return contact.Contact{}, notFound(contactID)
		}
		return contact.Contact{}, storeFault("get contact", err)
	}
	if err := ownership.Authorize(current, ownerID); err != nil {
		return contact.Contact{}, err
	}
	return current, nil
}

func notFound(contactID string) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		"contact not found",
		map[string]string{"ContactID": contactID},
	)
}

func storeFault(op string, err error) error {
	log.Printf("contacts: %s: %v", op, err)
	return apperrors.Wrap(apperrors.CodeStoreFault, op, err)
}
