package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/contactkeeper/internal/platform/errors"
	"github.com/louisbranch/contactkeeper/internal/platform/httpx"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/service"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/storage/sqlite"
)

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, credential string) (string, error) {
	ownerID, ok := f[credential]
	if !ok {
		return "", apperrors.New(apperrors.CodeUnauthenticated, "unknown token")
	}
	return ownerID, nil
}

var testResolver = fakeResolver{
	"token-a": "user-a",
	"token-b": "user-b",
}

type countingService struct {
	calls int
	err   error
}

func (s *countingService) List(context.Context, string, string) ([]contact.Contact, error) {
	s.calls++
	return nil, s.err
}

func (s *countingService) Create(context.Context, string, contact.Fields) (contact.Contact, error) {
	s.calls++
	return contact.Contact{}, s.err
}

func (s *countingService) Update(context.Context, string, string, contact.Patch) (contact.Contact, error) {
	s.calls++
	return contact.Contact{}, s.err
}

func (s *countingService) Delete(context.Context, string, string) error {
	s.calls++
	return s.err
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "contacts.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	server := httptest.NewServer(NewHandler(service.New(store), testResolver).Routes())
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, method, url, token, body string, headers ...string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func assertError(t *testing.T, resp *http.Response, status int, code string) httpx.ErrorBody {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("status = %d, want %d", resp.StatusCode, status)
	}
	body := decodeBody[httpx.ErrorBody](t, resp)
	if body.Error.Code != code {
		t.Fatalf("code = %q, want %q", body.Error.Code, code)
	}
	if body.RequestID == "" {
		t.Fatal("expected request id")
	}
	return body
}

func TestMissingOrInvalidCredentialIsRejectedBeforeService(t *testing.T) {
	svc := &countingService{}
	server := httptest.NewServer(NewHandler(svc, testResolver).Routes())
	defer server.Close()

	for _, token := range []string{"", "forged"} {
		resp := doRequest(t, http.MethodGet, server.URL+BasePath, token, "")
		assertError(t, resp, http.StatusUnauthorized, string(apperrors.CodeUnauthenticated))
		resp = doRequest(t, http.MethodDelete, server.URL+BasePath+"/c1", token, "")
		assertError(t, resp, http.StatusUnauthorized, string(apperrors.CodeUnauthenticated))
	}
	if svc.calls != 0 {
		t.Fatalf("service calls = %d, want 0", svc.calls)
	}
}

func TestNilResolverFailsClosed(t *testing.T) {
	svc := &countingService{}
	server := httptest.NewServer(NewHandler(svc, nil).Routes())
	defer server.Close()

	resp := doRequest(t, http.MethodGet, server.URL+BasePath, "token-a", "")
	assertError(t, resp, http.StatusUnauthorized, string(apperrors.CodeUnauthenticated))
	if svc.calls != 0 {
		t.Fatalf("service calls = %d, want 0", svc.calls)
	}
}

func TestBearerCredentialIsAccepted(t *testing.T) {
	server := newTestServer(t)
	resp := doRequest(t, http.MethodGet, server.URL+BasePath, "", "", "Authorization", "Bearer token-a")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestContactLifecycle(t *testing.T) {
	server := newTestServer(t)
	base := server.URL + BasePath

	resp := doRequest(t, http.MethodPost, base, "token-a", `{"name":"Ada","email":"ada@x.io","phone":"","type":"professional"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decodeBody[contact.Contact](t, resp)
	if created.ID == "" || created.OwnerID != "user-a" || created.Type != contact.TypeProfessional {
		t.Fatalf("unexpected created contact: %+v", created)
	}

	resp = doRequest(t, http.MethodGet, base, "token-a", "")
	listed := decodeBody[[]contact.Contact](t, resp)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("list = %+v", listed)
	}

	resp = doRequest(t, http.MethodPut, base+"/"+created.ID, "token-a", `{"phone":"555"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decodeBody[contact.Contact](t, resp)
	if updated.Phone != "555" || updated.Email != "ada@x.io" || updated.Name != "Ada" {
		t.Fatalf("unexpected updated contact: %+v", updated)
	}

	resp = doRequest(t, http.MethodGet, base+`?filter=type+%3D+%22personal%22`, "token-a", "")
	if got := decodeBody[[]contact.Contact](t, resp); len(got) != 0 {
		t.Fatalf("personal filter = %+v, want none", got)
	}

	resp = doRequest(t, http.MethodDelete, base+"/"+created.ID, "token-a", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if msg := decodeBody[DeleteResponse](t, resp); msg.Msg != DeleteMessage {
		t.Fatalf("delete msg = %q", msg.Msg)
	}

	resp = doRequest(t, http.MethodDelete, base+"/"+created.ID, "token-a", "")
	assertError(t, resp, http.StatusNotFound, string(apperrors.CodeNotFound))

	resp = doRequest(t, http.MethodGet, base, "token-a", "")
	if got := decodeBody[[]contact.Contact](t, resp); got == nil || len(got) != 0 {
		t.Fatalf("final list = %#v, want []", got)
	}
}

func TestNonOwnerGetsUnauthorized(t *testing.T) {
	server := newTestServer(t)
	base := server.URL + BasePath

	resp := doRequest(t, http.MethodPost, base, "token-a", `{"name":"Ada","phone":"111"}`)
	created := decodeBody[contact.Contact](t, resp)

	resp = doRequest(t, http.MethodPut, base+"/"+created.ID, "token-b", `{"phone":"999"}`)
	body := assertError(t, resp, http.StatusUnauthorized, string(apperrors.CodeForbidden))
	if strings.Contains(body.Error.Message, "user-a") || len(body.Error.Details) != 0 {
		t.Fatalf("error leaks owner detail: %+v", body.Error)
	}

	resp = doRequest(t, http.MethodDelete, base+"/"+created.ID, "token-b", "")
	assertError(t, resp, http.StatusUnauthorized, string(apperrors.CodeForbidden))

	resp = doRequest(t, http.MethodGet, base, "token-a", "")
	listed := decodeBody[[]contact.Contact](t, resp)
	if len(listed) != 1 || listed[0].Phone != "111" {
		t.Fatalf("owner record changed: %+v", listed)
	}
	resp = doRequest(t, http.MethodGet, base, "token-b", "")
	if got := decodeBody[[]contact.Contact](t, resp); len(got) != 0 {
		t.Fatalf("user-b sees %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	server := newTestServer(t)
	base := server.URL + BasePath

	resp := doRequest(t, http.MethodPost, base, "token-a", `{"name":"  "}`)
	assertError(t, resp, http.StatusBadRequest, string(apperrors.CodeContactNameEmpty))

	resp = doRequest(t, http.MethodPost, base, "token-a", `{"name":"Ada","type":"family"}`)
	body := assertError(t, resp, http.StatusBadRequest, string(apperrors.CodeContactInvalidType))
	if body.Error.Details["Type"] != "family" {
		t.Fatalf("details = %v", body.Error.Details)
	}

	resp = doRequest(t, http.MethodPost, base, "token-a", `{"name":"Ada","owner_id":"user-b"}`)
	assertError(t, resp, http.StatusBadRequest, string(apperrors.CodeBadRequest))

	resp = doRequest(t, http.MethodPost, base, "token-a", `{"name":`)
	assertError(t, resp, http.StatusBadRequest, string(apperrors.CodeBadRequest))

	resp = doRequest(t, http.MethodGet, base, "token-a", "")
	if got := decodeBody[[]contact.Contact](t, resp); len(got) != 0 {
		t.Fatalf("list after rejected creates = %+v", got)
	}
}

func TestInvalidListFilter(t *testing.T) {
	server := newTestServer(t)
	resp := doRequest(t, http.MethodGet, server.URL+BasePath+"?filter=owner_id+%3D+%22x%22", "token-a", "")
	assertError(t, resp, http.StatusBadRequest, string(apperrors.CodeBadRequest))
}

func TestErrorMessagesAreLocalized(t *testing.T) {
	server := newTestServer(t)
	resp := doRequest(t, http.MethodPost, server.URL+BasePath, "token-a", `{"name":""}`, "Accept-Language", "pt-BR,pt;q=0.9")
	body := assertError(t, resp, http.StatusBadRequest, string(apperrors.CodeContactNameEmpty))
	if body.Error.Message != "O nome é obrigatório" {
		t.Fatalf("message = %q", body.Error.Message)
	}
	if got := resp.Header.Get("Content-Language"); got != "pt-BR" {
		t.Fatalf("content-language = %q", got)
	}
}

func TestStoreFaultIsOpaque(t *testing.T) {
	svc := &countingService{err: apperrors.Wrap(apperrors.CodeStoreFault, "list contacts", errors.New("database is locked"))}
	server := httptest.NewServer(NewHandler(svc, testResolver).Routes())
	defer server.Close()

	resp := doRequest(t, http.MethodGet, server.URL+BasePath, "token-a", "")
	body := assertError(t, resp, http.StatusInternalServerError, string(apperrors.CodeStoreFault))
	if strings.Contains(body.Error.Message, "locked") {
		t.Fatalf("message leaks cause: %q", body.Error.Message)
	}
}

func TestUnknownErrorIsInternal(t *testing.T) {
	svc := &countingService{err: errors.New("boom")}
	server := httptest.NewServer(NewHandler(svc, testResolver).Routes())
	defer server.Close()

	resp := doRequest(t, http.MethodDelete, server.URL+BasePath+"/c1", "token-a", "")
	assertError(t, resp, http.StatusInternalServerError, string(apperrors.CodeUnknown))
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(NewHandler(&countingService{}, testResolver).Routes())
	defer server.Close()

	resp := doRequest(t, http.MethodGet, server.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
