package items

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sellerpromotions/admin-api/internal/adapters/http/support"
	appitems "sellerpromotions/admin-api/internal/application/items"
	"sellerpromotions/admin-api/internal/infrastructure/http/middleware"
)

// Handler serves /api/items.
type Handler struct {
	support.Base
	service *appitems.Service
	authz   *middleware.Authorizer
}

func NewHandler(base support.Base, service *appitems.Service, authz *middleware.Authorizer) *Handler {
	return &Handler{Base: base, service: service, authz: authz}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticated)
		r.Get("/search", h.Search)
	})
}

// Search handles GET /search?search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	cfg := h.Items(r)

	resp, err := h.service.Search(support.Detached(r), cfg, support.User(r).UserID, r.URL.Query())
	h.Audit(r, support.Event{
		Name:     "searchItem",
		Resource: "promotions",
		Tags:     []string{"get", "promotions", "search-item"},
		Previous: support.ConfigSnapshot(cfg),
	}, nil, resp, err)
	h.Respond(w, resp, err)
}
