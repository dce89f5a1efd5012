package media

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/catering/pkg/web"
)

// maxBody leaves room for the base64 overhead of MaxSize.
const maxBody = MaxSize*4/3 + 4096

type Handler struct {
	service *Service
	logger  apt.Logger
	tlm     *telemetry.HTTP
}

func NewHandler(service *Service, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{service: service, logger: logger, tlm: telemetry.NewHTTP()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/media/{id}", h.Serve)

	r.Route("/internal/media", func(r chi.Router) {
		r.Use(middleware.InternalOnly())
		r.Post("/", h.Upload)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
	})
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "MediaHandler.Upload")
	defer finish()

	var req UploadRequest
	if !web.DecodeLimit(w, r, &req, maxBody) {
		return
	}
	o, err := h.service.Upload(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Could not store media")
		return
	}
	web.RespondCreated(w, o)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "MediaHandler.List")
	defer finish()

	q := r.URL.Query()
	list, err := h.service.ListByOwner(r.Context(), q.Get("owner_type"), q.Get("owner_id"))
	if err != nil {
		h.respondError(w, r, err, "Could not list media")
		return
	}
	apt.RespondCollection(w, list, "media")
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "MediaHandler.Get")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Could not get media")
		return
	}
	apt.RespondSuccess(w, o)
}

// Serve streams the raw object.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "MediaHandler.Serve")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	o, rc, err := h.service.Open(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Could not open media")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", o.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(o.Size))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		h.log(r).Error("media stream interrupted", "id", id, "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		apt.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		apt.RespondError(w, http.StatusNotFound, "media not found")
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
