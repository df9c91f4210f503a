package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apphealth "sellerpromotions/admin-api/internal/application/health"
	httpx "sellerpromotions/admin-api/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
	log     *slog.Logger
}

func NewHandler(service *apphealth.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.Status)
}

// Status always answers 200; a failing dependency shows up as DEGRADED.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.service.Status(r.Context()), h.log)
}
