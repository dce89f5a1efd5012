package promo

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/web"
)

// Handler serves the admin promo code CRUD.
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
	r.Route("/admin/promo-codes", func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer), auth.RequireRoles(role.Roles.Admin.Name))
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "PromoHandler.List")
	defer finish()

	codes, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, r, err, "Could not list promo codes")
		return
	}
	apt.RespondCollection(w, codes, "promo-code")
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "PromoHandler.Create")
	defer finish()

	var req Input
	if !web.Decode(w, r, &req) {
		return
	}
	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Could not create promo code")
		return
	}
	web.RespondCreated(w, p)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "PromoHandler.Get")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Could not retrieve promo code")
		return
	}
	apt.RespondSuccess(w, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "PromoHandler.Update")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req Input
	if !web.Decode(w, r, &req) {
		return
	}
	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, r, err, "Could not update promo code")
		return
	}
	apt.RespondSuccess(w, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "PromoHandler.Delete")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err, "Could not delete promo code")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if status, ok := StatusFor(err); ok {
		apt.RespondError(w, status, err.Error())
		return
	}
	h.logger.With("request_id", apt.RequestIDFrom(r.Context()), "path", r.URL.Path).Error(fallback, "error", err)
	apt.RespondError(w, http.StatusInternalServerError, fallback)
}

// StatusFor maps promo errors to HTTP statuses, ok is false for unexpected errors.
func StatusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, ErrInvalidCode), errors.Is(err, ErrUserLimit), errors.Is(err, ErrRestricted),
		errors.Is(err, ErrAlreadyApplied), errors.Is(err, ErrNotCombinable), errors.Is(err, ErrMinimumOrder),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrCodeExists):
		return http.StatusBadRequest, true
	}
	return 0, false
}
