// Package postgres provides a Postgres-backed contacts storage implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlitemigrate "github.com/louisbranch/contactkeeper/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/filter"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/postgres/migrations"
)

const contactColumns = `id, owner_id, name, email, phone, contact_type, created_at, updated_at`

// Store persists contacts in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and applies embedded migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := applyMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.pool == nil {
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
	query += ` ORDER BY seq ASC`

	rows, err := s.pool.Query(ctx, rebind(query), args...)
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

	row := s.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO contacts (`+contactColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID,
		c.OwnerID,
		c.Name,
		c.Email,
		c.Phone,
		string(c.Type),
		c.CreatedAt.UTC(),
		c.UpdatedAt.UTC(),
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
	args := []any{updatedAt.UTC()}
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

	query := `UPDATE contacts SET ` + strings.Join(sets, ", ") + ` WHERE id = ? RETURNING ` + contactColumns
	c, err := scanContact(s.pool.QueryRow(ctx, rebind(query), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

	tag, err := s.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanContact(row pgx.Row) (contact.Contact, error) {
	var (
		c           contact.Contact
		contactType string
	)
	if err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&contactType,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return contact.Contact{}, err
	}
	c.Type = contact.Type(contactType)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// rebind rewrites ? placeholders as $1..$n.
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// applyMigrations runs each embedded migration once, recording it in
// schema_migrations.
func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	loaded, err := sqlitemigrate.Load(migrations.FS, "")
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, migration := range loaded {
		if err := applyMigration(ctx, pool, migration); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, migration sqlitemigrate.Migration) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration transaction %s: %w", migration.Key, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(
		ctx,
		`INSERT INTO schema_migrations (name, applied_at) VALUES ($1, now()) ON CONFLICT (name) DO NOTHING`,
		migration.Key,
	)
	if err != nil {
		return fmt.Errorf("record migration %s: %w", migration.Key, err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	if strings.TrimSpace(migration.Up) != "" {
		if _, err := tx.Exec(ctx, migration.Up); err != nil {
			return fmt.Errorf("exec migration %s: %w", migration.Key, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", migration.Key, err)
	}
	return nil
}

var _ storage.ContactStore = (*Store)(nil)
