// Package sqlite provides a SQLite-backed contacts storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/contactkeeper/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/filter"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const contactColumns = `id, owner_id, name, email, phone, contact_type, created_at, updated_at`

// Store persists contacts in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite contacts store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// ListContacts returns one owner's contacts in insertion order.
func (s *Store) ListContacts(ctx context.Context, ownerID string, cond filter.SQLCondition) ([]contact.Contact, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE owner_id = ?`
	args := []any{ownerID}
	if !cond.IsEmpty() {
		query += ` AND ` + cond.Clause
		args = append(args, cond.Params...)
	}
	query += ` ORDER BY rowid ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]contact.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("list contacts: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// GetContact returns one contact by id regardless of owner.
func (s *Store) GetContact(ctx context.Context, id string) (contact.Contact, error) {
	if err := s.ready(ctx); err != nil {
		return contact.Contact{}, err
	}
	if strings.TrimSpace(id) == "" {
		return contact.Contact{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contact.Contact{}, storage.ErrNotFound
		}
		return contact.Contact{}, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// InsertContact stores a new contact.
func (s *Store) InsertContact(ctx context.Context, c contact.Contact) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("contact id is required")
	}
	if strings.TrimSpace(c.OwnerID) == "" {
		return fmt.Errorf("owner id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO contacts (`+contactColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.OwnerID,
		c.Name,
		c.Email,
		c.Phone,
		string(c.Type),
		toMillis(c.CreatedAt),
		toMillis(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// UpdateContact applies the present patch slots in a single statement.
func (s *Store) UpdateContact(ctx context.Context, id string, patch contact.Patch, updatedAt time.Time) (contact.Contact, error) {
	if err := s.ready(ctx); err != nil {
		return contact.Contact{}, err
	}

	sets := []string{"updated_at = ?"}
	args := []any{toMillis(updatedAt)}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *patch.Phone)
	}
	if patch.Type != nil {
		sets = append(sets, "contact_type = ?")
		args = append(args, string(*patch.Type))
	}
	args = append(args, id)

	row := s.sqlDB.QueryRowContext(
		ctx,
		`UPDATE contacts SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING `+contactColumns,
		args...,
	)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contact.Contact{}, storage.ErrNotFound
		}
		return contact.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return c, nil
}

// DeleteContact removes one contact by id.
func (s *Store) DeleteContact(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (contact.Contact, error) {
	var (
		c           contact.Contact
		contactType string
		createdAt   int64
		updatedAt   int64
	)
	if err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&contactType,
		&createdAt,
		&updatedAt,
	); err != nil {
		return contact.Contact{}, err
	}
	c.Type = contact.Type(contactType)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}

var _ storage.ContactStore = (*Store)(nil)
