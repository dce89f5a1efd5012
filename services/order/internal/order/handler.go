package order

import (
	"errors"
	"net/http"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/orderclient"
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
	r.Get("/track/{number}", h.Track)

	r.Route("/orders", func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer))
		r.Use(auth.RequireAuth)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/cancel", h.Cancel)
		r.With(auth.RequireRoles(role.BackOffice...)).Patch("/{id}/status", h.ChangeStatus)
	})

	r.Route("/dashboard/admin", func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer))
		r.Use(auth.RequireRoles(role.Roles.Admin.Name))
		r.Get("/", h.AdminDashboard)
	})

	r.Route("/internal/orders", func(r chi.Router) {
		r.Use(middleware.InternalOnly())
		r.Post("/", h.InternalCreate)
		r.Get("/", h.InternalList)
		r.Get("/by-number/{number}", h.InternalGetByNumber)
		r.Get("/{id}", h.InternalGet)
		r.Put("/{id}/payment", h.InternalMarkPaid)
		r.Patch("/{id}/status", h.InternalChangeStatus)
		r.Post("/{id}/delivered", h.InternalMarkDelivered)
	})
}

type statusRequest struct {
	Status    string `json:"status"`
	ChangedBy string `json:"changed_by"`
}

type paymentRequest struct {
	PaymentID string `json:"payment_id"`
	Method    string `json:"method"`
}

func filterFrom(r *http.Request) Filter {
	q := r.URL.Query()
	f := Filter{
		DeliveryDate: q.Get("delivery_date"),
		UserID:       q.Get("user_id"),
		Query:        strings.TrimSpace(q.Get("q")),
		Limit:        web.QueryInt(r, "limit", 0),
	}
	if f.DeliveryDate == "" {
		f.DeliveryDate = q.Get("date")
	}
	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Statuses = append(f.Statuses, s)
			}
		}
	}
	return f
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.List")
	defer finish()

	p, _ := auth.PrincipalFrom(r.Context())
	orders, err := h.service.ListFor(r.Context(), p, filterFrom(r))
	if err != nil {
		h.respondError(w, r, err, "Could not list orders")
		return
	}
	apt.RespondCollection(w, orders, "order")
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.Get")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())
	o, err := h.service.GetFor(r.Context(), p, id)
	if err != nil {
		h.respondError(w, r, err, "Could not get order")
		return
	}
	apt.RespondSuccess(w, o)
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.ChangeStatus")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !web.Decode(w, r, &req) {
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())
	o, err := h.service.ChangeStatus(r.Context(), id, req.Status, p.UserID)
	if err != nil {
		h.respondError(w, r, err, "Could not change order status")
		return
	}
	apt.RespondSuccess(w, o)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.Cancel")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	p, _ := auth.PrincipalFrom(r.Context())
	o, err := h.service.CancelByCustomer(r.Context(), p, id)
	if err != nil {
		h.respondError(w, r, err, "Could not cancel order")
		return
	}
	apt.RespondSuccess(w, o)
}

func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.Track")
	defer finish()

	t, err := h.service.Track(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.respondError(w, r, err, "Could not track order")
		return
	}
	apt.RespondSuccess(w, t)
}

func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.AdminDashboard")
	defer finish()

	d, err := h.service.AdminDashboard(r.Context())
	if err != nil {
		h.respondError(w, r, err, "Could not build dashboard")
		return
	}
	apt.RespondSuccess(w, d)
}

func (h *Handler) InternalCreate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.InternalCreate")
	defer finish()

	var req orderclient.CreateRequest
	if !web.Decode(w, r, &req) {
		return
	}
	o, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Could not create order")
		return
	}
	h.log(r).Info("order created", "number", o.Number, "total", o.Total)
	web.RespondCreated(w, o)
}

func (h *Handler) InternalList(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.InternalList")
	defer finish()

	orders, err := h.service.List(r.Context(), filterFrom(r))
	if err != nil {
		h.respondError(w, r, err, "Could not list orders")
		return
	}
	apt.RespondCollection(w, orders, "order")
}

func (h *Handler) InternalGet(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.InternalGet")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Could not get order")
		return
	}
	apt.RespondSuccess(w, o)
}

func (h *Handler) InternalGetByNumber(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.InternalGetByNumber")
	defer finish()

	o, err := h.service.GetByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.respondError(w, r, err, "Could not get order")
		return
	}
	apt.RespondSuccess(w, o)
}

func (h *Handler) InternalMarkPaid(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.InternalMarkPaid")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if !web.Decode(w, r, &req) {
		return
	}
	o, err := h.service.MarkPaid(r.Context(), id, req.PaymentID, req.Method)
	if err != nil {
		h.respondError(w, r, err, "Could not record payment")
		return
	}
	apt.RespondSuccess(w, o)
}

func (h *Handler) InternalChangeStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.InternalChangeStatus")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !web.Decode(w, r, &req) {
		return
	}
	o, err := h.service.ChangeStatus(r.Context(), id, req.Status, req.ChangedBy)
	if err != nil {
		h.respondError(w, r, err, "Could not change order status")
		return
	}
	apt.RespondSuccess(w, o)
}

func (h *Handler) InternalMarkDelivered(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "OrderHandler.InternalMarkDelivered")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !web.Decode(w, r, &req) {
		return
	}
	o, err := h.service.MarkDelivered(r.Context(), id, req.ChangedBy)
	if err != nil {
		h.respondError(w, r, err, "Could not mark order delivered")
		return
	}
	apt.RespondSuccess(w, o)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrStatusChanged):
		apt.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrAlreadyPaid):
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
