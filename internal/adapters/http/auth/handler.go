package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpx "sellerpromotions/admin-api/internal/infrastructure/http"
	"sellerpromotions/admin-api/internal/infrastructure/http/middleware"
)

// Handler serves /api/auth, the role probes used by the admin front end.
type Handler struct {
	authz *middleware.Authorizer
	log   *slog.Logger
}

// NewHandler expects an authorizer answering 403.
func NewHandler(authz *middleware.Authorizer, log *slog.Logger) *Handler {
	return &Handler{authz: authz, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticated)
		r.With(h.authz.RequireRoles("DEVELOPMENT_FULL", "PAYMENTS_FULL")).Get("/authorized", h.Authorized)
		r.With(h.authz.RequireRoles("UNAUTHORIZED")).Get("/unauthorized", h.Authorized)
	})
}

// Authorized answers once the role gate has let the request through.
func (h *Handler) Authorized(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "authorized"}, h.log)
}
