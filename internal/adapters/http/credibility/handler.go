package credibility

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sellerpromotions/admin-api/internal/adapters/http/support"
	appcredibility "sellerpromotions/admin-api/internal/application/credibility"
	"sellerpromotions/admin-api/internal/infrastructure/http/middleware"
)

const scopeExceptions = "SP_CENTRAL_PROMOTION_CREDIBILITY_EXCEPTIONS"

// Handler serves /api/credibility.
type Handler struct {
	support.Base
	service *appcredibility.Service
	authz   *middleware.Authorizer
}

func NewHandler(base support.Base, service *appcredibility.Service, authz *middleware.Authorizer) *Handler {
	return &Handler{Base: base, service: service, authz: authz}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticated)
		r.With(h.authz.RequireScopes(scopeExceptions)).Get("/exceptions", h.Exceptions)
		r.Post("/upload", h.Upload)
	})
}

// Exceptions handles GET /exceptions.
func (h *Handler) Exceptions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Form(support.Detached(r), h.Credibility(r), support.User(r).UserID, r.URL.Query())
	h.Respond(w, resp, err)
}

// Upload handles POST /upload.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	file, release, ok := h.ReadFile(w, r)
	if !ok {
		return
	}
	defer release()

	notice, err := h.service.Upload(support.Detached(r), file, support.User(r).UserID)
	h.RespondValue(w, notice, err)
}
