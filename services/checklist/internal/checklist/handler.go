package checklist

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
	admins := auth.RequireRoles(role.Roles.Admin.Name)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer))
		r.Use(auth.RequireRoles(role.Roles.ChecklistManager.Name, role.Roles.Admin.Name, role.Roles.Staff.Name))

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.ListInventory)
			r.With(admins).Post("/", h.CreateInventoryItem)
			r.With(admins).Put("/{id}", h.UpdateInventoryItem)
			r.With(admins).Delete("/{id}", h.DeactivateInventoryItem)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Get("/{id}", h.GetTemplate)
			r.With(admins).Post("/", h.CreateTemplate)
			r.With(admins).Put("/{id}", h.UpdateTemplate)
			r.With(admins).Delete("/{id}", h.DeactivateTemplate)
		})

		r.Route("/checklists", func(r chi.Router) {
			r.Get("/", h.Dashboard)
			r.With(admins).Post("/", h.Create)
			r.Get("/by-order/{number}", h.GetByOrder)
			r.Get("/{id}", h.Detail)
			r.With(admins).Put("/{id}", h.Update)
			r.With(admins).Post("/{id}/items", h.AddItems)
			r.With(admins).Delete("/{id}/items/{itemID}", h.RemoveItem)
			r.Post("/{id}/start", h.Start)
			r.Post("/{id}/complete", h.Complete)
		})

		r.Post("/items/{id}/validate", h.ValidateItem)
		r.Post("/items/{id}/issue", h.ReportIssue)

		r.Get("/notifications", h.Notifications)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)
	})
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.ListInventory")
	defer finish()

	list, err := h.service.ListInventory(r.Context(), !web.QueryBool(r, "all"))
	if err != nil {
		h.respondError(w, r, err, "Could not list inventory")
		return
	}
	apt.RespondCollection(w, list, "inventory_item")
}

func (h *Handler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.CreateInventoryItem")
	defer finish()

	var in InventoryInput
	if !web.Decode(w, r, &in) {
		return
	}
	item, err := h.service.CreateInventoryItem(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err, "Could not create inventory item")
		return
	}
	web.RespondCreated(w, item)
}

func (h *Handler) UpdateInventoryItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.UpdateInventoryItem")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var in InventoryInput
	if !web.Decode(w, r, &in) {
		return
	}
	item, err := h.service.UpdateInventoryItem(r.Context(), id, in)
	if err != nil {
		h.respondError(w, r, err, "Could not update inventory item")
		return
	}
	apt.RespondSuccess(w, item)
}

func (h *Handler) DeactivateInventoryItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.DeactivateInventoryItem")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateInventoryItem(r.Context(), id); err != nil {
		h.respondError(w, r, err, "Could not deactivate inventory item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.ListTemplates")
	defer finish()

	list, err := h.service.ListTemplates(r.Context(), !web.QueryBool(r, "all"))
	if err != nil {
		h.respondError(w, r, err, "Could not list templates")
		return
	}
	apt.RespondCollection(w, list, "template")
}

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.GetTemplate")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.service.GetTemplate(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Could not get template")
		return
	}
	apt.RespondSuccess(w, t)
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.CreateTemplate")
	defer finish()

	var in TemplateInput
	if !web.Decode(w, r, &in) {
		return
	}
	t, err := h.service.CreateTemplate(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err, "Could not create template")
		return
	}
	web.RespondCreated(w, t)
}

func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.UpdateTemplate")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var in TemplateInput
	if !web.Decode(w, r, &in) {
		return
	}
	t, err := h.service.UpdateTemplate(r.Context(), id, in)
	if err != nil {
		h.respondError(w, r, err, "Could not update template")
		return
	}
	apt.RespondSuccess(w, t)
}

func (h *Handler) DeactivateTemplate(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.DeactivateTemplate")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeactivateTemplate(r.Context(), id); err != nil {
		h.respondError(w, r, err, "Could not deactivate template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.Dashboard")
	defer finish()

	q := r.URL.Query()
	dash, err := h.service.Dashboard(r.Context(), principal(r), q.Get("status"), q.Get("period"))
	if err != nil {
		h.respondError(w, r, err, "Could not build dashboard")
		return
	}
	apt.RespondSuccess(w, dash)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.Create")
	defer finish()

	var in CreateInput
	if !web.Decode(w, r, &in) {
		return
	}
	c, err := h.service.Create(r.Context(), principal(r), in)
	if err != nil {
		h.respondError(w, r, err, "Could not create checklist")
		return
	}
	web.RespondCreated(w, c)
}

func (h *Handler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.GetByOrder")
	defer finish()

	c, err := h.service.GetByOrder(r.Context(), principal(r), chi.URLParam(r, "number"))
	if err != nil {
		h.respondError(w, r, err, "Could not get checklist")
		return
	}
	apt.RespondSuccess(w, c)
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.Detail")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.service.Detail(r.Context(), principal(r), id)
	if err != nil {
		h.respondError(w, r, err, "Could not get checklist")
		return
	}
	apt.RespondSuccess(w, d)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.Update")
	defer finish()

	var in UpdateInput
	if !web.Decode(w, r, &in) {
		return
	}
	h.checklistAction(w, r, func(id uuid.UUID) (*Checklist, error) {
		return h.service.Update(r.Context(), principal(r), id, in)
	})
}

type itemsRequest struct {
	Items []ItemInput `json:"items"`
}

func (h *Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.AddItems")
	defer finish()

	var req itemsRequest
	if !web.Decode(w, r, &req) {
		return
	}
	h.checklistAction(w, r, func(id uuid.UUID) (*Checklist, error) {
		return h.service.AddItems(r.Context(), id, req.Items)
	})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.RemoveItem")
	defer finish()

	itemID, ok := web.ParseID(w, r, "itemID")
	if !ok {
		return
	}
	h.checklistAction(w, r, func(id uuid.UUID) (*Checklist, error) {
		return h.service.RemoveItem(r.Context(), id, itemID)
	})
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.Start")
	defer finish()

	h.checklistAction(w, r, func(id uuid.UUID) (*Checklist, error) {
		return h.service.Start(r.Context(), principal(r), id)
	})
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.Complete")
	defer finish()

	h.checklistAction(w, r, func(id uuid.UUID) (*Checklist, error) {
		return h.service.Complete(r.Context(), principal(r), id)
	})
}

func (h *Handler) checklistAction(w http.ResponseWriter, r *http.Request, action func(uuid.UUID) (*Checklist, error)) {
	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	c, err := action(id)
	if err != nil {
		h.respondError(w, r, err, "Could not update checklist")
		return
	}
	apt.RespondSuccess(w, c)
}

func (h *Handler) ValidateItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.ValidateItem")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var in ValidateInput
	if !web.Decode(w, r, &in) {
		return
	}
	res, err := h.service.ValidateItem(r.Context(), principal(r), id, in)
	if err != nil {
		h.respondError(w, r, err, "Could not validate item")
		return
	}
	apt.RespondSuccess(w, res)
}

type issueRequest struct {
	Description string `json:"description"`
}

func (h *Handler) ReportIssue(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.ReportIssue")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req issueRequest
	if !web.Decode(w, r, &req) {
		return
	}
	it, err := h.service.ReportIssue(r.Context(), principal(r), id, req.Description)
	if err != nil {
		h.respondError(w, r, err, "Could not report issue")
		return
	}
	apt.RespondSuccess(w, it)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.Notifications")
	defer finish()

	list, err := h.service.Notifications(r.Context(), principal(r), web.QueryBool(r, "unread"))
	if err != nil {
		h.respondError(w, r, err, "Could not list notifications")
		return
	}
	apt.RespondCollection(w, list, "notification")
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "ChecklistHandler.MarkNotificationRead")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.MarkNotificationRead(r.Context(), principal(r), id); err != nil {
		h.respondError(w, r, err, "Could not update notification")
		return
	}
	apt.RespondSuccess(w, map[string]bool{"success": true})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrConflict):
		apt.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrExists), errors.Is(err, ErrIncomplete):
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
