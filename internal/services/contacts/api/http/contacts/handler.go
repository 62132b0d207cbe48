// Package contacts exposes the contacts service over HTTP JSON.
package contacts

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/louisbranch/contactkeeper/internal/platform/errors"
	"github.com/louisbranch/contactkeeper/internal/platform/errors/i18n"
	"github.com/louisbranch/contactkeeper/internal/platform/httpx"
	"github.com/louisbranch/contactkeeper/internal/platform/requestctx"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/identity"
)

// BasePath is the mount point of the contacts API.
const BasePath = "/api/contacts"

// DeleteMessage is returned in the body of a successful delete.
const DeleteMessage = "Contact removed"

// ContactService is the set of operations the handler serves.
type ContactService interface {
	List(ctx context.Context, ownerID, filter string) ([]contact.Contact, error)
	Create(ctx context.Context, ownerID string, fields contact.Fields) (contact.Contact, error)
	Update(ctx context.Context, contactID, ownerID string, patch contact.Patch) (contact.Contact, error)
	Delete(ctx context.Context, contactID, ownerID string) error
}

// DeleteResponse is the body of a successful delete.
type DeleteResponse struct {
	Msg string `json:"msg"`
}

// Handler serves the contacts API.
type Handler struct {
	svc      ContactService
	resolver identity.Resolver
}

// NewHandler creates a handler. Requests under BasePath are rejected unless
// resolver accepts their credential.
func NewHandler(svc ContactService, resolver identity.Resolver) *Handler {
	return &Handler{svc: svc, resolver: resolver}
}

// Routes returns the router for the API and the /health probe.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(traceRequests)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route(BasePath, func(api chi.Router) {
		api.Use(h.authenticate)
		api.Get("/", h.list)
		api.Post("/", h.create)
		api.Put("/{id}", h.update)
		api.Delete("/{id}", h.delete)
	})
	return r
}

// authenticate resolves the caller before any handler runs.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.resolver == nil {
			writeError(w, r, apperrors.New(apperrors.CodeUnauthenticated, "identity resolver is not configured"))
			return
		}
		credential := identity.CredentialFromRequest(r)
		if credential == "" {
			writeError(w, r, apperrors.New(apperrors.CodeUnauthenticated, "credential is required"))
			return
		}
		ownerID, err := h.resolver.Resolve(r.Context(), credential)
		if err != nil {
			if apperrors.CodeOf(err) != apperrors.CodeUnauthenticated {
				err = apperrors.Wrap(apperrors.CodeUnauthenticated, "resolve credential", err)
			}
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestctx.WithOwnerID(r.Context(), ownerID)))
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := requestctx.OwnerIDFromContext(r.Context())
	contacts, err := h.svc.List(r.Context(), ownerID, r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	httpx.WriteJSON(w, http.StatusOK, contacts)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := requestctx.OwnerIDFromContext(r.Context())
	var fields contact.Fields
	if err := httpx.ReadJSON(w, r, &fields); err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	created, err := h.svc.Create(r.Context(), ownerID, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := requestctx.OwnerIDFromContext(r.Context())
	var patch contact.Patch
	if err := httpx.ReadJSON(w, r, &patch); err != nil {
		writeError(w, r, badRequest(err))
		return
	}
	updated, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), ownerID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := requestctx.OwnerIDFromContext(r.Context())
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), ownerID); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, DeleteResponse{Msg: DeleteMessage})
}

func badRequest(err error) error {
	return &apperrors.Error{
		Code:     apperrors.CodeBadRequest,
		Message:  "decode request body",
		Metadata: map[string]string{"Reason": err.Error()},
		Cause:    err,
	}
}

// writeError renders err as an error envelope in the caller's language.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()

	var metadata map[string]string
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) && domainErr != nil {
		metadata = domainErr.Metadata
	}

	locale := i18n.MatchLocale(r.Header.Get("Accept-Language"))
	message := i18n.GetCatalog(locale).Format(string(code), metadata)

	var details map[string]string
	if code.IsValidation() && len(metadata) > 0 {
		details = metadata
	}

	w.Header().Set("Content-Language", locale)
	requestID := httpx.WriteError(w, status, string(code), message, details)
	if status >= http.StatusInternalServerError {
		log.Printf("contacts: request %s %s %s: %v", requestID, r.Method, r.URL.Path, err)
	}
}
