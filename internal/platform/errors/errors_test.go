package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("update contact: %w", New(CodeForbidden, "owner mismatch"))

	if !stderrors.Is(err, New(CodeForbidden, "")) {
		t.Fatal("expected wrapped error to match forbidden code")
	}
	if stderrors.Is(err, New(CodeNotFound, "")) {
		t.Fatal("expected wrapped error not to match not found code")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeStoreFault, "insert contact", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "insert contact" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", New(CodeContactNameEmpty, "name"))); got != CodeContactNameEmpty {
		t.Fatalf("CodeOf = %q", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %q", got)
	}
	if !HasCode(WithMetadata(CodeContactInvalidType, "type", map[string]string{"Type": "x"}), CodeContactInvalidType) {
		t.Fatal("expected HasCode to match")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeBadRequest, http.StatusBadRequest},
		{CodeContactNameEmpty, http.StatusBadRequest},
		{CodeContactInvalidType, http.StatusBadRequest},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeForbidden, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeStoreFault, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tc.code, got, tc.want)
		}
	}
	if !CodeContactNameEmpty.IsValidation() || CodeForbidden.IsValidation() {
		t.Fatal("unexpected IsValidation result")
	}
}
