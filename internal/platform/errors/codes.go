// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeUnauthenticated Code = "UNAUTHENTICATED"

	// Contact validation errors
	CodeContactNameEmpty   Code = "CONTACT_NAME_EMPTY"
	CodeContactInvalidType Code = "CONTACT_INVALID_TYPE"

	// Access errors
	CodeNotFound  Code = "NOT_FOUND"
	CodeForbidden Code = "FORBIDDEN"

	// Persistence errors
	CodeStoreFault Code = "STORE_FAULT"
)

// HTTPStatus maps domain codes to HTTP status codes.
//
// Forbidden maps to 401 rather than 403: clients of the contacts API treat
// both an unknown caller and a non-owner as "not authorized".
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadRequest,
		CodeContactNameEmpty,
		CodeContactInvalidType:
		return http.StatusBadRequest

	case CodeUnauthenticated,
		CodeForbidden:
		return http.StatusUnauthorized

	case CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}

// IsValidation reports whether the code describes rejected caller input.
func (c Code) IsValidation() bool {
	return c.HTTPStatus() == http.StatusBadRequest
}
