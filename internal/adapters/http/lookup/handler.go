package lookup

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sellerpromotions/admin-api/internal/adapters/http/support"
	applookup "sellerpromotions/admin-api/internal/application/lookup"
	httpx "sellerpromotions/admin-api/internal/infrastructure/http"
)

var null = json.RawMessage("null")

// Handler serves the reference data routes: /api/country, /api/currency and
// /api/sites.
type Handler struct {
	service *applookup.Service
	log     *slog.Logger
}

func NewHandler(service *applookup.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterCountry(r chi.Router) {
	r.Get("/", h.Country)
}

func (h *Handler) RegisterCurrency(r chi.Router) {
	r.Get("/", h.Currency)
}

func (h *Handler) RegisterSites(r chi.Router) {
	r.Get("/{siteId}", h.Site)
}

// Country handles GET /api/country?countryId. Unknown countries answer null.
func (h *Handler) Country(w http.ResponseWriter, r *http.Request) {
	data := h.service.Country(support.Detached(r), r.URL.Query().Get("countryId"))
	httpx.WriteRaw(w, http.StatusOK, orNull(data), h.log)
}

// Currency handles GET /api/currency?currencyId.
func (h *Handler) Currency(w http.ResponseWriter, r *http.Request) {
	data := h.service.Currency(support.Detached(r), r.URL.Query().Get("currencyId"))
	httpx.WriteRaw(w, http.StatusOK, orNull(data), h.log)
}

// Site handles GET /api/sites/{siteId}.
func (h *Handler) Site(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Site(support.Detached(r), chi.URLParam(r, "siteId"))
	if err != nil {
		httpx.WriteUpstreamError(w, err, h.log)
		return
	}
	httpx.WriteRaw(w, http.StatusOK, orNull(data), h.log)
}

func orNull(data json.RawMessage) json.RawMessage {
	if len(data) == 0 {
		return null
	}
	return data
}
