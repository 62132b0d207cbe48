// Package ownership decides whether a caller may mutate a contact.
package ownership

import (
	apperrors "github.com/louisbranch/contactkeeper/internal/platform/errors"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
)

// Authorize returns nil when ownerID owns record, or a FORBIDDEN error.
//
// Ids are opaque: comparison is exact, so case or whitespace differences are
// mismatches. The error never names the actual owner.
func Authorize(record contact.Contact, ownerID string) error {
	if ownerID == "" || record.OwnerID == "" || record.OwnerID != ownerID {
		return apperrors.New(apperrors.CodeForbidden, "caller does not own contact")
	}
	return nil
}
