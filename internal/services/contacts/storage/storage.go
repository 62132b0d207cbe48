// Package storage defines persistence contracts for contacts service state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/filter"
)

// ErrNotFound indicates a requested contact record is missing.
var ErrNotFound = errors.New("record not found")

// ContactStore persists owner-scoped contacts. Each call is atomic per record.
type ContactStore interface {
	// ListContacts returns ownerID's contacts in creation order, narrowed by
	// cond when it is non-empty.
	ListContacts(ctx context.Context, ownerID string, cond filter.SQLCondition) ([]contact.Contact, error)
	GetContact(ctx context.Context, id string) (contact.Contact, error)
	InsertContact(ctx context.Context, c contact.Contact) error
	// UpdateContact applies the present patch slots and returns the stored
	// record afterwards.
	UpdateContact(ctx context.Context, id string, patch contact.Patch, updatedAt time.Time) (contact.Contact, error)
	DeleteContact(ctx context.Context, id string) error
	Close() error
}
