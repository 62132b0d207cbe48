package ownership

import (
	"strings"
	"testing"

	apperrors "github.com/louisbranch/contactkeeper/internal/platform/errors"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
)

func TestAuthorize(t *testing.T) {
	record := contact.Contact{ID: "c1", OwnerID: "user-a"}

	tests := []struct {
		name    string
		ownerID string
		allowed bool
	}{
		{name: "owner", ownerID: "user-a", allowed: true},
		{name: "other user", ownerID: "user-b"},
		{name: "case differs", ownerID: "USER-A"},
		{name: "padded", ownerID: " user-a"},
		{name: "empty caller", ownerID: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(record, tc.ownerID)
			if tc.allowed {
				if err != nil {
					t.Fatalf("authorize: %v", err)
				}
				return
			}
			if !apperrors.HasCode(err, apperrors.CodeForbidden) {
				t.Fatalf("err = %v, want forbidden", err)
			}
			if strings.Contains(err.Error(), "user-a") {
				t.Fatalf("error leaks owner id: %v", err)
			}
		})
	}
}

func TestAuthorizeRejectsOwnerlessRecord(t *testing.T) {
	if err := Authorize(contact.Contact{ID: "c1"}, ""); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}
