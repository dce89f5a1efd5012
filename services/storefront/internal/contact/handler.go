package contact

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
	r.Post("/contact", h.Submit)

	r.Route("/admin/contact", func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer))
		r.Use(auth.RequireRoles(role.Roles.Admin.Name))
		r.Get("/", h.List)
		r.Post("/{id}/read", h.MarkRead)
		r.Post("/{id}/answered", h.MarkAnswered)
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ContactHandler.Submit")
	defer finish()

	var in Input
	if !web.Decode(w, r, &in) {
		return
	}

	sub, err := h.service.Submit(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err, "Could not send message")
		return
	}
	h.log(r).Info("contact request received", "id", sub.ID, "subject", sub.Subject)
	web.RespondCreated(w, sub)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ContactHandler.List")
	defer finish()

	subs, err := h.service.List(r.Context(), web.QueryBool(r, "unread"))
	if err != nil {
		h.respondError(w, r, err, "Could not list contact requests")
		return
	}
	apt.RespondCollection(w, subs, "contact-submission")
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ContactHandler.MarkRead")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	sub, err := h.service.MarkRead(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Could not update contact request")
		return
	}
	apt.RespondSuccess(w, sub)
}

func (h *Handler) MarkAnswered(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ContactHandler.MarkAnswered")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	sub, err := h.service.MarkAnswered(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Could not update contact request")
		return
	}
	apt.RespondSuccess(w, sub)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		apt.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		apt.RespondError(w, http.StatusNotFound, err.Error())
	default:
		h.log(r).Error(fallback, "error", err)
		apt.RespondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With(
		"request_id", apt.RequestIDFrom(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}
