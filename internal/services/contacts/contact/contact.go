// Package contact defines the contact record and the rules for creating and
// patching it.
package contact

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/contactkeeper/internal/platform/errors"
)

// Type classifies a contact.
type Type string

const (
	// TypePersonal is the default contact type.
	TypePersonal Type = "personal"
	// TypeProfessional marks work contacts.
	TypeProfessional Type = "professional"
)

// ParseType normalizes raw into a Type. Blank input yields TypePersonal.
func ParseType(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TypePersonal:
		return TypePersonal, nil
	case TypeProfessional:
		return TypeProfessional, nil
	default:
		return "", apperrors.WithMetadata(
			apperrors.CodeContactInvalidType,
			"contact type is not supported",
			map[string]string{"Type": raw},
		)
	}
}

// Contact is one owner-scoped address book entry.
type Contact struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fields is the caller-supplied input for a new contact.
type Fields struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Type  Type   `json:"type,omitempty"`
}

// Normalize trims fields, applies the default type, and validates the result.
func (f Fields) Normalize() (Fields, error) {
	name, err := normalizeName(f.Name)
	if err != nil {
		return Fields{}, err
	}
	contactType, err := ParseType(string(f.Type))
	if err != nil {
		return Fields{}, err
	}
	return Fields{
		Name:  name,
		Email: strings.TrimSpace(f.Email),
		Phone: strings.TrimSpace(f.Phone),
		Type:  contactType,
	}, nil
}

// New builds a contact owned by ownerID from validated fields.
func New(id, ownerID string, fields Fields, now time.Time) (Contact, error) {
	normalized, err := fields.Normalize()
	if err != nil {
		return Contact{}, err
	}
	now = now.UTC()
	return Contact{
		ID:        id,
		OwnerID:   ownerID,
		Name:      normalized.Name,
		Email:     normalized.Email,
		Phone:     normalized.Phone,
		Type:      normalized.Type,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Patch carries a partial update. Nil slots are left untouched; a present
// empty Email or Phone clears the value. Owner has no slot.
type Patch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Type  *Type   `json:"type,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Type == nil
}

// Normalize validates present slots and returns a trimmed copy.
func (p Patch) Normalize() (Patch, error) {
	var out Patch
	if p.Name != nil {
		name, err := normalizeName(*p.Name)
		if err != nil {
			return Patch{}, err
		}
		out.Name = &name
	}
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		out.Email = &email
	}
	if p.Phone != nil {
		phone := strings.TrimSpace(*p.Phone)
		out.Phone = &phone
	}
	if p.Type != nil {
		contactType, err := ParseType(string(*p.Type))
		if err != nil {
			return Patch{}, err
		}
		out.Type = &contactType
	}
	return out, nil
}

// Apply returns c with the present slots applied. UpdatedAt is set to now.
func (p Patch) Apply(c Contact, now time.Time) Contact {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	c.UpdatedAt = now.UTC()
	return c
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperrors.New(apperrors.CodeContactNameEmpty, "contact name is required")
	}
	return name, nil
}
