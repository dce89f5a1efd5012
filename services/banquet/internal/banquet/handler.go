package banquet

import (
	"errors"
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/web"
)

const photoBodyLimit = 16 << 20

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
	admins := auth.RequireRoles(role.Roles.Admin.Name)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer))
		r.Use(auth.RequireRoles(role.Roles.MaitreHotel.Name, role.Roles.Admin.Name))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListContracts)
			r.With(admins).Post("/", h.CreateContract)
			r.Get("/{id}", h.Detail)
			r.With(admins).Post("/{id}/confirm", h.Confirm)
			r.With(admins).Post("/{id}/cancel", h.Cancel)
			r.With(admins).Put("/{id}/staff", h.AssignStaff)
			r.Post("/{id}/start", h.Start)
			r.Post("/{id}/complete", h.Complete)
			r.Post("/{id}/timeline", h.AddTimeline)
			r.Post("/{id}/photos", h.UploadPhoto)
			r.Post("/{id}/report", h.CreateReport)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.ListReports)
			r.Get("/{id}", h.GetReport)
			r.Put("/{id}", h.UpdateReport)
			r.Post("/{id}/submit", h.SubmitReport)
			r.With(admins).Post("/{id}/approve", h.ApproveReport)
		})

		r.Get("/dashboard", h.Dashboard)
		r.Get("/planning", h.Planning)
		r.Get("/notifications", h.Notifications)
	})
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.ListContracts")
	defer finish()

	q := r.URL.Query()
	f := ContractFilter{
		Date:          q.Get("date"),
		From:          q.Get("from"),
		To:            q.Get("to"),
		MaitreHotelID: q.Get("maitre_hotel_id"),
		Limit:         web.QueryInt(r, "limit", 0),
	}
	if status := q.Get("status"); status != "" {
		f.Statuses = strings.Split(status, ",")
	}
	list, err := h.service.List(r.Context(), principal(r), f)
	if err != nil {
		h.respondError(w, r, err, "Could not list events")
		return
	}
	apt.RespondCollection(w, list, "event")
}

func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.CreateContract")
	defer finish()

	var in ContractInput
	if !web.Decode(w, r, &in) {
		return
	}
	c, err := h.service.CreateContract(r.Context(), principal(r), in)
	if err != nil {
		h.respondError(w, r, err, "Could not create event")
		return
	}
	web.RespondCreated(w, c)
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.Detail")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.service.Detail(r.Context(), principal(r), id)
	if err != nil {
		h.respondError(w, r, err, "Could not get event")
		return
	}
	apt.RespondSuccess(w, d)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.Confirm")
	defer finish()

	h.contractAction(w, r, func(id uuid.UUID) (*Contract, error) {
		return h.service.Confirm(r.Context(), principal(r), id)
	})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.Cancel")
	defer finish()

	h.contractAction(w, r, func(id uuid.UUID) (*Contract, error) {
		return h.service.Cancel(r.Context(), principal(r), id)
	})
}

type staffRequest struct {
	Staff []StaffAssignment `json:"staff"`
}

func (h *Handler) AssignStaff(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.AssignStaff")
	defer finish()

	var req staffRequest
	if !web.Decode(w, r, &req) {
		return
	}
	h.contractAction(w, r, func(id uuid.UUID) (*Contract, error) {
		return h.service.AssignStaff(r.Context(), principal(r), id, req.Staff)
	})
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.Start")
	defer finish()

	h.contractAction(w, r, func(id uuid.UUID) (*Contract, error) {
		return h.service.Start(r.Context(), principal(r), id)
	})
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.Complete")
	defer finish()

	h.contractAction(w, r, func(id uuid.UUID) (*Contract, error) {
		return h.service.Complete(r.Context(), principal(r), id)
	})
}

func (h *Handler) contractAction(w http.ResponseWriter, r *http.Request, action func(uuid.UUID) (*Contract, error)) {
	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	c, err := action(id)
	if err != nil {
		h.respondError(w, r, err, "Could not update event")
		return
	}
	apt.RespondSuccess(w, c)
}

func (h *Handler) AddTimeline(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.AddTimeline")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var in TimelineInput
	if !web.Decode(w, r, &in) {
		return
	}
	e, err := h.service.AddTimeline(r.Context(), principal(r), id, in)
	if err != nil {
		h.respondError(w, r, err, "Could not add timeline entry")
		return
	}
	web.RespondCreated(w, e)
}

func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.UploadPhoto")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var in PhotoInput
	if !web.DecodeLimit(w, r, &in, photoBodyLimit) {
		return
	}
	ph, err := h.service.UploadPhoto(r.Context(), principal(r), id, in)
	if err != nil {
		h.respondError(w, r, err, "Could not upload photo")
		return
	}
	web.RespondCreated(w, ph)
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.CreateReport")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var in ReportInput
	if !web.Decode(w, r, &in) {
		return
	}
	rep, err := h.service.CreateReport(r.Context(), principal(r), id, in)
	if err != nil {
		h.respondError(w, r, err, "Could not create report")
		return
	}
	web.RespondCreated(w, rep)
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.ListReports")
	defer finish()

	q := r.URL.Query()
	status := q.Get("status")
	if status == "all" {
		status = ""
	}
	list, err := h.service.ListReports(r.Context(), principal(r), ReportFilter{
		Status: status,
		From:   q.Get("date_from"),
		To:     q.Get("date_to"),
		Search: strings.TrimSpace(q.Get("search")),
	})
	if err != nil {
		h.respondError(w, r, err, "Could not list reports")
		return
	}
	apt.RespondSuccess(w, list)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.GetReport")
	defer finish()

	h.reportAction(w, r, func(id uuid.UUID) (*Report, error) {
		return h.service.GetReport(r.Context(), principal(r), id)
	})
}

func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.UpdateReport")
	defer finish()

	var in ReportInput
	if !web.Decode(w, r, &in) {
		return
	}
	h.reportAction(w, r, func(id uuid.UUID) (*Report, error) {
		return h.service.UpdateReport(r.Context(), principal(r), id, in)
	})
}

func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.SubmitReport")
	defer finish()

	h.reportAction(w, r, func(id uuid.UUID) (*Report, error) {
		return h.service.SubmitReport(r.Context(), principal(r), id)
	})
}

func (h *Handler) ApproveReport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.ApproveReport")
	defer finish()

	h.reportAction(w, r, func(id uuid.UUID) (*Report, error) {
		return h.service.ApproveReport(r.Context(), principal(r), id)
	})
}

func (h *Handler) reportAction(w http.ResponseWriter, r *http.Request, action func(uuid.UUID) (*Report, error)) {
	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	rep, err := action(id)
	if err != nil {
		h.respondError(w, r, err, "Could not update report")
		return
	}
	apt.RespondSuccess(w, rep)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.Dashboard")
	defer finish()

	d, err := h.service.Dashboard(r.Context(), principal(r), r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, r, err, "Could not build dashboard")
		return
	}
	apt.RespondSuccess(w, d)
}

func (h *Handler) Planning(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.Planning")
	defer finish()

	days, err := h.service.Planning(r.Context(), principal(r), r.URL.Query().Get("week"))
	if err != nil {
		h.respondError(w, r, err, "Could not build planning")
		return
	}
	apt.RespondSuccess(w, days)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "BanquetHandler.Notifications")
	defer finish()

	list, err := h.service.Notifications(r.Context(), principal(r))
	if err != nil {
		h.respondError(w, r, err, "Could not list notifications")
		return
	}
	apt.RespondCollection(w, list, "notification")
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrExists):
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
