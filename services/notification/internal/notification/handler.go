package notification

import (
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	stats *Stats
	tlm   *telemetry.HTTP
}

func NewHandler(stats *Stats) *Handler {
	return &Handler{stats: stats, tlm: telemetry.NewHTTP()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/internal/mail", func(r chi.Router) {
		r.Use(middleware.InternalOnly())
		r.Get("/stats", h.Stats)
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "NotificationHandler.Stats")
	defer finish()

	apt.RespondSuccess(w, h.stats.Snapshot())
}
