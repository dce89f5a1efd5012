package delivery

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

// Photos and signatures travel base64 encoded inside JSON bodies.
const validationBodyLimit = 24 << 20

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
	managers := auth.RequireRoles(role.Roles.DeliveryManager.Name, role.Roles.Admin.Name)
	drivers := auth.RequireRoles(role.Roles.Driver.Name, role.Roles.DeliveryManager.Name, role.Roles.Admin.Name)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer))
		r.Use(drivers)

		r.Route("/deliveries", func(r chi.Router) {
			r.Get("/", h.ListDeliveries)
			r.With(managers).Get("/export", h.Export)
			r.With(managers).Post("/bulk", h.CreateBulk)
			r.With(managers).Post("/from-order/{number}", h.CreateFromOrder)
			r.Get("/{id}", h.GetDelivery)
			r.With(managers).Patch("/{id}/status", h.ChangeStatus)
			r.With(managers).Post("/{id}/pickup", h.CreatePickup)
			r.Post("/{id}/validate", h.Validate)
			r.Post("/{id}/issue", h.ReportIssue)
			r.Post("/{id}/retry", h.Retry)
		})

		r.Route("/routes", func(r chi.Router) {
			r.Get("/", h.ListRoutes)
			r.With(managers).Post("/", h.CreateRoute)
			r.Get("/{id}", h.GetRoute)
			r.With(managers).Put("/{id}/stops", h.ReorderStops)
			r.With(managers).Post("/{id}/optimize", h.OptimizeRoute)
			r.Post("/{id}/start", h.StartRoute)
			r.Post("/{id}/complete", h.CompleteRoute)
		})

		r.Put("/planning", h.SetPlanning)
		r.With(managers).Get("/planning", h.PlanningOverview)

		r.With(managers).Get("/dashboard/manager", h.ManagerDashboard)
		r.Get("/dashboard/driver", h.DriverDashboard)
		r.With(managers).Get("/reports", h.Report)

		r.Get("/notifications", h.Notifications)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)
	})
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func filterFrom(r *http.Request) Filter {
	q := r.URL.Query()
	return Filter{
		Date:     q.Get("date"),
		Statuses: splitList(q.Get("status")),
		Types:    splitList(q.Get("type")),
		DriverID: q.Get("driver_id"),
		OrderID:  q.Get("order_id"),
		From:     q.Get("from"),
		To:       q.Get("to"),
		Limit:    web.QueryInt(r, "limit", 0),
	}
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.ListDeliveries")
	defer finish()

	list, err := h.service.List(r.Context(), principal(r), filterFrom(r))
	if err != nil {
		h.respondError(w, r, err, "Could not list deliveries")
		return
	}
	apt.RespondCollection(w, list, "delivery")
}

func (h *Handler) GetDelivery(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.GetDelivery")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.service.GetFor(r.Context(), principal(r), id)
	if err != nil {
		h.respondError(w, r, err, "Could not get delivery")
		return
	}
	apt.RespondSuccess(w, d)
}

func (h *Handler) CreateFromOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.CreateFromOrder")
	defer finish()

	d, err := h.service.CreateFromOrderNumber(r.Context(), principal(r), chi.URLParam(r, "number"))
	if err != nil {
		h.respondError(w, r, err, "Could not create delivery")
		return
	}
	web.RespondCreated(w, d)
}

type bulkRequest struct {
	Date string `json:"date"`
}

func (h *Handler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.CreateBulk")
	defer finish()

	var req bulkRequest
	if !web.Decode(w, r, &req) {
		return
	}
	res, err := h.service.CreateBulk(r.Context(), principal(r), req.Date)
	if err != nil {
		h.respondError(w, r, err, "Could not create deliveries")
		return
	}
	h.log(r).Info("bulk deliveries created", "date", res.Date, "created", len(res.Created), "skipped", res.Skipped)
	apt.RespondSuccess(w, res)
}

func (h *Handler) CreatePickup(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.CreatePickup")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var in PickupInput
	if r.ContentLength != 0 && !web.Decode(w, r, &in) {
		return
	}
	d, err := h.service.CreatePickup(r.Context(), principal(r), id, in)
	if err != nil {
		h.respondError(w, r, err, "Could not create pickup")
		return
	}
	web.RespondCreated(w, d)
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.ChangeStatus")
	defer finish()

	var req statusRequest
	if !web.Decode(w, r, &req) {
		return
	}
	h.deliveryAction(w, r, func(id uuid.UUID) (*Delivery, error) {
		return h.service.ChangeStatus(r.Context(), principal(r), id, req.Status, req.Notes)
	})
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.Validate")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var in ValidationInput
	if !web.DecodeLimit(w, r, &in, validationBodyLimit) {
		return
	}
	res, err := h.service.Validate(r.Context(), principal(r), id, in)
	if err != nil {
		h.respondError(w, r, err, "Could not validate delivery")
		return
	}
	apt.RespondSuccess(w, res)
}

func (h *Handler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.ReportIssue")
	defer finish()

	var in IssueInput
	if !web.DecodeLimit(w, r, &in, validationBodyLimit) {
		return
	}
	h.deliveryAction(w, r, func(id uuid.UUID) (*Delivery, error) {
		return h.service.ReportIssue(r.Context(), principal(r), id, in)
	})
}

func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.Retry")
	defer finish()

	h.deliveryAction(w, r, func(id uuid.UUID) (*Delivery, error) {
		return h.service.Retry(r.Context(), principal(r), id)
	})
}

func (h *Handler) deliveryAction(w http.ResponseWriter, r *http.Request, action func(uuid.UUID) (*Delivery, error)) {
	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	d, err := action(id)
	if err != nil {
		h.respondError(w, r, err, "Could not update delivery")
		return
	}
	apt.RespondSuccess(w, d)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.Export")
	defer finish()

	list, err := h.service.List(r.Context(), principal(r), filterFrom(r))
	if err != nil {
		h.respondError(w, r, err, "Could not export deliveries")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="deliveries.csv"`)
	if err := WriteCSV(w, list); err != nil {
		h.log(r).Error("cannot write delivery export", "error", err)
	}
}

func (h *Handler) ListRoutes(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.ListRoutes")
	defer finish()

	q := r.URL.Query()
	list, err := h.service.ListRoutes(r.Context(), principal(r), RouteFilter{
		Date:     q.Get("date"),
		DriverID: q.Get("driver_id"),
		Statuses: splitList(q.Get("status")),
	})
	if err != nil {
		h.respondError(w, r, err, "Could not list routes")
		return
	}
	apt.RespondCollection(w, list, "route")
}

func (h *Handler) CreateRoute(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.CreateRoute")
	defer finish()

	var in RouteInput
	if !web.Decode(w, r, &in) {
		return
	}
	route, err := h.service.CreateRoute(r.Context(), principal(r), in)
	if err != nil {
		h.respondError(w, r, err, "Could not create route")
		return
	}
	web.RespondCreated(w, route)
}

func (h *Handler) GetRoute(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.GetRoute")
	defer finish()

	h.routeAction(w, r, func(id uuid.UUID) (*Route, error) {
		return h.service.GetRoute(r.Context(), principal(r), id)
	})
}

type stopsRequest struct {
	DeliveryIDs []uuid.UUID `json:"delivery_ids"`
}

func (h *Handler) ReorderStops(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.ReorderStops")
	defer finish()

	var req stopsRequest
	if !web.Decode(w, r, &req) {
		return
	}
	h.routeAction(w, r, func(id uuid.UUID) (*Route, error) {
		return h.service.ReorderStops(r.Context(), principal(r), id, req.DeliveryIDs)
	})
}

func (h *Handler) OptimizeRoute(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.OptimizeRoute")
	defer finish()

	h.routeAction(w, r, func(id uuid.UUID) (*Route, error) {
		return h.service.OptimizeRoute(r.Context(), principal(r), id)
	})
}

func (h *Handler) StartRoute(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.StartRoute")
	defer finish()

	h.routeAction(w, r, func(id uuid.UUID) (*Route, error) {
		return h.service.StartRoute(r.Context(), principal(r), id)
	})
}

func (h *Handler) CompleteRoute(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.CompleteRoute")
	defer finish()

	h.routeAction(w, r, func(id uuid.UUID) (*Route, error) {
		return h.service.CompleteRoute(r.Context(), principal(r), id)
	})
}

func (h *Handler) routeAction(w http.ResponseWriter, r *http.Request, action func(uuid.UUID) (*Route, error)) {
	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	route, err := action(id)
	if err != nil {
		h.respondError(w, r, err, "Could not update route")
		return
	}
	apt.RespondSuccess(w, route)
}

func (h *Handler) SetPlanning(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.SetPlanning")
	defer finish()

	var in PlanningInput
	if !web.Decode(w, r, &in) {
		return
	}
	pl, err := h.service.SetPlanning(r.Context(), principal(r), in)
	if err != nil {
		h.respondError(w, r, err, "Could not store planning")
		return
	}
	apt.RespondSuccess(w, pl)
}

func (h *Handler) PlanningOverview(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.PlanningOverview")
	defer finish()

	o, err := h.service.PlanningOverview(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, r, err, "Could not build planning overview")
		return
	}
	apt.RespondSuccess(w, o)
}

func (h *Handler) ManagerDashboard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.ManagerDashboard")
	defer finish()

	d, err := h.service.ManagerDashboard(r.Context(), principal(r), r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, r, err, "Could not build dashboard")
		return
	}
	apt.RespondSuccess(w, d)
}

func (h *Handler) DriverDashboard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.DriverDashboard")
	defer finish()

	d, err := h.service.DriverDashboard(r.Context(), principal(r), r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, r, err, "Could not build dashboard")
		return
	}
	apt.RespondSuccess(w, d)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.Report")
	defer finish()

	rep, err := h.service.Report(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		h.respondError(w, r, err, "Could not build report")
		return
	}
	apt.RespondSuccess(w, rep)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.Notifications")
	defer finish()

	list, err := h.service.Notifications(r.Context(), principal(r), web.QueryBool(r, "unread"))
	if err != nil {
		h.respondError(w, r, err, "Could not list notifications")
		return
	}
	apt.RespondCollection(w, list, "notification")
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DeliveryHandler.MarkNotificationRead")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.MarkNotificationRead(r.Context(), principal(r), id); err != nil {
		h.respondError(w, r, err, "Could not update notification")
		return
	}
	apt.RespondSuccess(w, map[string]string{"status": "read"})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrConflict):
		apt.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrExists):
		apt.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		apt.RespondError(w, http.StatusForbidden, err.Error())
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
