package kitchen

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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
	headChef := auth.RequireRoles(role.Roles.HeadChef.Name, role.Roles.Admin.Name)
	chefs := auth.RequireRoles(role.Roles.DepartmentChef.Name, role.Roles.HeadChef.Name, role.Roles.Admin.Name)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer))
		r.Use(auth.RequireRoles(role.Kitchen...))

		r.With(headChef).Post("/dispatch", h.Dispatch)
		r.Get("/dispatch", h.Board)

		r.Post("/items/{id}/start", h.StartItem)
		r.Post("/items/{id}/complete", h.CompleteItem)
		r.Post("/items/{id}/issue", h.ReportIssue)

		r.With(headChef).Get("/dashboard/head-chef", h.HeadChefDashboard)
		r.With(chefs).Get("/dashboard/department", h.DepartmentDashboard)
		r.Get("/dashboard/cook", h.CookDashboard)

		r.Route("/supply-orders", func(r chi.Router) {
			r.Use(chefs)
			r.Get("/", h.ListSupplies)
			r.Post("/", h.CreateSupply)
			r.Get("/{id}", h.GetSupply)
			r.Post("/{id}/submit", h.SubmitSupply)
			r.With(headChef).Post("/{id}/approve", h.ApproveSupply)
			r.With(headChef).Post("/{id}/reject", h.RejectSupply)
			r.With(headChef).Post("/{id}/ordered", h.MarkSupplyOrdered)
			r.Post("/{id}/received", h.MarkSupplyReceived)
		})

		r.Get("/notifications", h.Notifications)
		r.Post("/notifications/read-all", h.MarkAllNotificationsRead)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)
	})
}

type dispatchRequest struct {
	Date string `json:"date"`
}

type completeRequest struct {
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

type issueRequest struct {
	Description string `json:"description"`
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.Dispatch")
	defer finish()

	var req dispatchRequest
	if !web.Decode(w, r, &req) {
		return
	}
	result, err := h.service.Dispatch(r.Context(), req.Date)
	if err != nil {
		h.respondError(w, r, err, "Could not dispatch production")
		return
	}
	h.log(r).Info("production dispatched", "date", result.Date, "items_created", result.ItemsCreated)
	apt.RespondSuccess(w, result)
}

func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.Board")
	defer finish()

	boards, err := h.service.Board(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, r, err, "Could not load production board")
		return
	}
	apt.RespondCollection(w, boards, "production")
}

func (h *Handler) StartItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.StartItem")
	defer finish()

	h.itemAction(w, r, func(id uuid.UUID) (*Item, error) {
		return h.service.StartItem(r.Context(), principal(r), id)
	})
}

func (h *Handler) CompleteItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.CompleteItem")
	defer finish()

	var req completeRequest
	if r.ContentLength != 0 && !web.Decode(w, r, &req) {
		return
	}
	h.itemAction(w, r, func(id uuid.UUID) (*Item, error) {
		return h.service.CompleteItem(r.Context(), principal(r), id, req.Quantity, req.Notes)
	})
}

func (h *Handler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.ReportIssue")
	defer finish()

	var req issueRequest
	if !web.Decode(w, r, &req) {
		return
	}
	h.itemAction(w, r, func(id uuid.UUID) (*Item, error) {
		return h.service.ReportIssue(r.Context(), principal(r), id, req.Description)
	})
}

func (h *Handler) itemAction(w http.ResponseWriter, r *http.Request, action func(uuid.UUID) (*Item, error)) {
	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	item, err := action(id)
	if err != nil {
		h.respondError(w, r, err, "Could not update production item")
		return
	}
	apt.RespondSuccess(w, item)
}

func (h *Handler) HeadChefDashboard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.HeadChefDashboard")
	defer finish()

	d, err := h.service.HeadChefDashboard(r.Context(), principal(r), r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, r, err, "Could not build dashboard")
		return
	}
	apt.RespondSuccess(w, d)
}

func (h *Handler) DepartmentDashboard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.DepartmentDashboard")
	defer finish()

	q := r.URL.Query()
	d, err := h.service.DepartmentChefDashboard(r.Context(), principal(r), q.Get("department"), q.Get("date"), q.Get("status"))
	if err != nil {
		h.respondError(w, r, err, "Could not build dashboard")
		return
	}
	apt.RespondSuccess(w, d)
}

func (h *Handler) CookDashboard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.CookDashboard")
	defer finish()

	d, err := h.service.CookDashboard(r.Context(), principal(r))
	if err != nil {
		h.respondError(w, r, err, "Could not build dashboard")
		return
	}
	apt.RespondSuccess(w, d)
}

func (h *Handler) ListSupplies(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.ListSupplies")
	defer finish()

	list, err := h.service.ListSupplies(r.Context(), principal(r), r.URL.Query().Get("status"))
	if err != nil {
		h.respondError(w, r, err, "Could not list supply orders")
		return
	}
	apt.RespondCollection(w, list, "supply-order")
}

func (h *Handler) CreateSupply(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.CreateSupply")
	defer finish()

	var in SupplyInput
	if !web.Decode(w, r, &in) {
		return
	}
	so, err := h.service.CreateSupply(r.Context(), principal(r), in)
	if err != nil {
		h.respondError(w, r, err, "Could not create supply order")
		return
	}
	web.RespondCreated(w, so)
}

func (h *Handler) GetSupply(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.GetSupply")
	defer finish()

	h.supplyAction(w, r, func(id uuid.UUID) (*SupplyOrder, error) {
		return h.service.GetSupply(r.Context(), principal(r), id)
	})
}

func (h *Handler) SubmitSupply(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.SubmitSupply")
	defer finish()

	h.supplyAction(w, r, func(id uuid.UUID) (*SupplyOrder, error) {
		return h.service.SubmitSupply(r.Context(), principal(r), id)
	})
}

func (h *Handler) ApproveSupply(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.ApproveSupply")
	defer finish()

	h.supplyAction(w, r, func(id uuid.UUID) (*SupplyOrder, error) {
		return h.service.ReviewSupply(r.Context(), principal(r), id, true)
	})
}

func (h *Handler) RejectSupply(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.RejectSupply")
	defer finish()

	h.supplyAction(w, r, func(id uuid.UUID) (*SupplyOrder, error) {
		return h.service.ReviewSupply(r.Context(), principal(r), id, false)
	})
}

func (h *Handler) MarkSupplyOrdered(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.MarkSupplyOrdered")
	defer finish()

	h.supplyAction(w, r, func(id uuid.UUID) (*SupplyOrder, error) {
		return h.service.MarkSupplyOrdered(r.Context(), principal(r), id)
	})
}

func (h *Handler) MarkSupplyReceived(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.MarkSupplyReceived")
	defer finish()

	h.supplyAction(w, r, func(id uuid.UUID) (*SupplyOrder, error) {
		return h.service.MarkSupplyReceived(r.Context(), principal(r), id)
	})
}

func (h *Handler) supplyAction(w http.ResponseWriter, r *http.Request, action func(uuid.UUID) (*SupplyOrder, error)) {
	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	so, err := action(id)
	if err != nil {
		h.respondError(w, r, err, "Could not update supply order")
		return
	}
	apt.RespondSuccess(w, so)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.Notifications")
	defer finish()

	list, err := h.service.Notifications(r.Context(), principal(r), web.QueryBool(r, "unread"))
	if err != nil {
		h.respondError(w, r, err, "Could not list notifications")
		return
	}
	apt.RespondCollection(w, list, "notification")
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.MarkNotificationRead")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.MarkNotificationRead(r.Context(), id); err != nil {
		h.respondError(w, r, err, "Could not update notification")
		return
	}
	apt.RespondSuccess(w, map[string]string{"status": "read"})
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "KitchenHandler.MarkAllNotificationsRead")
	defer finish()

	n, err := h.service.MarkAllNotificationsRead(r.Context(), principal(r))
	if err != nil {
		h.respondError(w, r, err, "Could not update notifications")
		return
	}
	apt.RespondSuccess(w, map[string]int64{"updated": n})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidTransition):
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
