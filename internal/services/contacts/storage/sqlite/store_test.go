package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/storagetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "contacts.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.ContactStore {
		return openTestStore(t)
	})
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.InsertContact(context.Background(), storagetest.Contact("c1", "user-a", "Ada", 0)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetContact(context.Background(), "c1")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Name != "Ada" {
		t.Fatalf("name = %q", got.Name)
	}
}

func TestInsertRejectsMissingIdentity(t *testing.T) {
	store := openTestStore(t)
	c := storagetest.Contact("", "user-a", "Ada", 0)
	if err := store.InsertContact(context.Background(), c); err == nil {
		t.Fatal("expected error for empty id")
	}
	c = storagetest.Contact("c1", "", "Ada", 0)
	if err := store.InsertContact(context.Background(), c); err == nil {
		t.Fatal("expected error for empty owner")
	}
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	store := openTestStore(t)
	c := storagetest.Contact("c1", "user-a", "Ada", 0)
	if err := store.InsertContact(context.Background(), c); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.InsertContact(context.Background(), c); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestNilStoreIsNotConfigured(t *testing.T) {
	var store *Store
	if _, err := store.GetContact(context.Background(), "c1"); err == nil {
		t.Fatal("expected error for nil store")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}
