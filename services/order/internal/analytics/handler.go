package analytics

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/enums/role"
)

type Handler struct {
	service *Service
	issuer  *auth.TokenIssuer
	logger  apt.Logger
	tlm     *telemetry.HTTP
}

func NewHandler(service *Service, issuer *auth.TokenIssuer, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{service: service, issuer: issuer, logger: logger, tlm: telemetry.NewHTTP()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer))
		r.Use(auth.RequireRoles(role.Roles.Admin.Name))
		r.Get("/", h.Range)
		r.Get("/trending", h.Trending)
	})
}

func (h *Handler) Range(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "AnalyticsHandler.Range")
	defer finish()

	q := r.URL.Query()
	rows, err := h.service.Range(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			apt.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("cannot read analytics", "request_id", apt.RequestIDFrom(r.Context()), "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not read analytics")
		return
	}
	apt.RespondCollection(w, rows, "daily-analytics")
}

func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "AnalyticsHandler.Trending")
	defer finish()

	products, err := h.service.Trending(r.Context())
	if err != nil {
		h.logger.Error("cannot read trending products", "request_id", apt.RequestIDFrom(r.Context()), "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not read trending products")
		return
	}
	apt.RespondCollection(w, products, "trending-product")
}
