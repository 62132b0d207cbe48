// Package contactfilter derives the filtered view of a contact list from a
// free-text query.
package contactfilter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
)

// Apply returns the contacts whose name, email or phone contain query,
// ignoring case, in their original order. An empty query means no filter is
// active and Apply returns nil, false. An active query with no matches
// returns an empty non-nil slice.
//
// The query is matched literally; only the empty string disables filtering.
func Apply(contacts []contact.Contact, query string) ([]contact.Contact, bool) {
	if query == "" {
		return nil, false
	}
	caser := cases.Fold()
	needle := caser.String(query)

	matched := make([]contact.Contact, 0, len(contacts))
	for _, c := range contacts {
		if matches(caser, c, needle) {
			matched = append(matched, c)
		}
	}
	return matched, true
}

func matches(caser cases.Caser, c contact.Contact, needle string) bool {
	for _, field := range []string{c.Name, c.Email, c.Phone} {
		if field != "" && strings.Contains(caser.String(field), needle) {
			return true
		}
	}
	return false
}
