package candidates

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sellerpromotions/admin-api/internal/adapters/http/support"
	appcandidates "sellerpromotions/admin-api/internal/application/candidates"
	"sellerpromotions/admin-api/internal/infrastructure/http/middleware"
)

const scopeItemsList = "SP_CENTRAL_PROMOTION_CANDIDATES_ITEMS_LIST"

// Delays are waited before each listing so that a write made just before is
// visible upstream.
type Delays struct {
	Items   time.Duration
	Invalid time.Duration
}

// Handler serves the candidate routes below /api/promotions.
type Handler struct {
	support.Base
	service *appcandidates.Service
	authz   *middleware.Authorizer
	delays  Delays
}

func NewHandler(base support.Base, service *appcandidates.Service, authz *middleware.Authorizer, delays Delays) *Handler {
	return &Handler{Base: base, service: service, authz: authz, delays: delays}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticated)

		r.With(h.authz.RequireScopes(scopeItemsList), middleware.Delay(h.delays.Items)).
			Get("/{promotionId}/candidates/items", h.Items)
		r.With(middleware.Delay(h.delays.Invalid)).
			Get("/{promotionId}/candidates/invalid", h.Invalid)
	})
}

// Items handles GET /{promotionId}/candidates/items.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Items(support.Detached(r), h.Promotions(r), chi.URLParam(r, "promotionId"), support.User(r).UserID, r.URL.Query())
	h.Audit(r, support.Event{Name: "get-offer-candidates", Resource: "offers", Tags: []string{"get", "offer", "get-offercandidates"}}, nil, resp, err)
	h.Respond(w, resp, err)
}

// Invalid handles GET /{promotionId}/candidates/invalid.
func (h *Handler) Invalid(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Invalid(support.Detached(r), h.Promotions(r), chi.URLParam(r, "promotionId"), support.User(r).UserID, r.URL.Query())
	h.Audit(r, support.Event{Name: "get-invalidcandidates", Resource: "offers", Tags: []string{"get", "offer", "get-invalidcandidates"}}, nil, resp, err)
	h.Respond(w, resp, err)
}
