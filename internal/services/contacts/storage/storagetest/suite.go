// Package storagetest holds behavior checks shared by every ContactStore
// implementation.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/filter"
)

// Run exercises a store created fresh by open for each subtest.
func Run(t *testing.T, open func(t *testing.T) storage.ContactStore) {
	t.Helper()

	t.Run("list is owner scoped and ordered", func(t *testing.T) {
		testListOwnerScoped(t, open(t))
	})
	t.Run("get missing", func(t *testing.T) {
		testGetMissing(t, open(t))
	})
	t.Run("update applies present slots", func(t *testing.T) {
		testUpdatePatch(t, open(t))
	})
	t.Run("update missing", func(t *testing.T) {
		testUpdateMissing(t, open(t))
	})
	t.Run("delete twice", func(t *testing.T) {
		testDeleteTwice(t, open(t))
	})
	t.Run("list with filter", func(t *testing.T) {
		testListFilter(t, open(t))
	})
	t.Run("canceled context", func(t *testing.T) {
		testCanceledContext(t, open(t))
	})
}

var baseTime = time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)

// Contact builds a valid record for tests.
func Contact(id, ownerID, name string, offset time.Duration) contact.Contact {
	at := baseTime.Add(offset)
	return contact.Contact{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		Type:      contact.TypePersonal,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func mustInsert(t *testing.T, store storage.ContactStore, c contact.Contact) {
	t.Helper()
	if err := store.InsertContact(context.Background(), c); err != nil {
		t.Fatalf("insert %s: %v", c.ID, err)
	}
}

func testListOwnerScoped(t *testing.T, store storage.ContactStore) {
	ctx := context.Background()

	empty, err := store.ListContacts(ctx, "user-a", filter.SQLCondition{})
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("empty list = %#v, want empty non-nil slice", empty)
	}

	// Inserted out of alphabetical order to check creation ordering.
	mustInsert(t, store, Contact("c-zed", "user-a", "Zed", 0))
	mustInsert(t, store, Contact("c-other", "user-b", "Other", time.Second))
	mustInsert(t, store, Contact("c-ada", "user-a", "Ada", 2*time.Second))

	got, err := store.ListContacts(ctx, "user-a", filter.SQLCondition{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("contacts len = %d, want 2", len(got))
	}
	if got[0].ID != "c-zed" || got[1].ID != "c-ada" {
		t.Fatalf("order = [%s %s], want [c-zed c-ada]", got[0].ID, got[1].ID)
	}
	for _, c := range got {
		if c.OwnerID != "user-a" {
			t.Fatalf("leaked contact %s of %s", c.ID, c.OwnerID)
		}
	}
	if !got[0].CreatedAt.Equal(baseTime) {
		t.Fatalf("created_at = %v, want %v", got[0].CreatedAt, baseTime)
	}
}

func testGetMissing(t *testing.T, store storage.ContactStore) {
	_, err := store.GetContact(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func testUpdatePatch(t *testing.T, store storage.ContactStore) {
	ctx := context.Background()
	original := Contact("c1", "user-a", "Ada", 0)
	original.Email = "ada@x.io"
	original.Type = contact.TypeProfessional
	mustInsert(t, store, original)

	phone := "555"
	later := baseTime.Add(time.Hour)
	updated, err := store.UpdateContact(ctx, "c1", contact.Patch{Phone: &phone}, later)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != "555" || updated.Email != "ada@x.io" || updated.Name != "Ada" {
		t.Fatalf("unexpected record after update: %+v", updated)
	}
	if updated.Type != contact.TypeProfessional || updated.OwnerID != "user-a" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.Equal(later) || !updated.CreatedAt.Equal(baseTime) {
		t.Fatalf("timestamps = %v/%v", updated.CreatedAt, updated.UpdatedAt)
	}

	stored, err := store.GetContact(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Phone != "555" {
		t.Fatalf("stored phone = %q", stored.Phone)
	}
}

func testUpdateMissing(t *testing.T, store storage.ContactStore) {
	name := "Nobody"
	_, err := store.UpdateContact(context.Background(), "missing", contact.Patch{Name: &name}, baseTime)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func testDeleteTwice(t *testing.T, store storage.ContactStore) {
	ctx := context.Background()
	mustInsert(t, store, Contact("c1", "user-a", "Ada", 0))

	if err := store.DeleteContact(ctx, "c1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteContact(ctx, "c1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetContact(ctx, "c1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get after delete err = %v, want ErrNotFound", err)
	}
}

func testListFilter(t *testing.T, store storage.ContactStore) {
	ctx := context.Background()
	work := Contact("c1", "user-a", "Ada", 0)
	work.Type = contact.TypeProfessional
	mustInsert(t, store, work)
	mustInsert(t, store, Contact("c2", "user-a", "Grace", time.Second))
	otherWork := Contact("c3", "user-b", "Linus", 2*time.Second)
	otherWork.Type = contact.TypeProfessional
	mustInsert(t, store, otherWork)

	cond, err := filter.Parse(`type = "professional"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	got, err := store.ListContacts(ctx, "user-a", cond)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("filtered = %+v, want only c1", got)
	}

	cond, err = filter.Parse(`type = "professional" OR name = "Grace"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	got, err = store.ListContacts(ctx, "user-a", cond)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("filtered len = %d, want 2 (OR must stay inside owner scope)", len(got))
	}
}

func testCanceledContext(t *testing.T, store storage.ContactStore) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListContacts(ctx, "user-a", filter.SQLCondition{}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
