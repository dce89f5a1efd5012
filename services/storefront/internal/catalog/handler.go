package catalog

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
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
	return &Handler{
		service: service,
		issuer:  issuer,
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer))

		r.Get("/categories", h.ListCategories)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{slug}", h.GetProduct)
		r.With(auth.RequireAuth).Post("/products/{slug}/reviews", h.AddReview)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRoles(role.Roles.Admin.Name))

			r.Get("/categories", h.AdminListCategories)
			r.Post("/categories", h.CreateCategory)
			r.Put("/categories/{id}", h.UpdateCategory)
			r.Delete("/categories/{id}", h.DeleteCategory)

			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)

			r.Get("/reviews", h.PendingReviews)
			r.Post("/reviews/{id}/approve", h.ApproveReview)
		})
	})

	r.With(middleware.InternalOnly()).Get("/internal/products/{id}", h.GetProductByID)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListCategories")
	defer finish()

	cats, err := h.service.Categories(r.Context())
	if err != nil {
		h.respondError(w, r, err, "Could not list categories")
		return
	}
	apt.RespondCollection(w, cats, "category")
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListProducts")
	defer finish()

	q := r.URL.Query()
	query := ProductQuery{
		Vegetarian: web.QueryBool(r, "vegetarian"),
		Vegan:      web.QueryBool(r, "vegan"),
		GlutenFree: web.QueryBool(r, "gluten_free"),
		Text:       q.Get("q"),
		Sort:       q.Get("sort"),
		Page:       web.QueryInt(r, "page", 1),
		PageSize:   web.QueryInt(r, "page_size", DefaultPageSize),
	}

	page, err := h.service.ListProducts(r.Context(), q.Get("category"), query)
	if err != nil {
		h.respondError(w, r, err, "Could not list products")
		return
	}
	apt.RespondSuccess(w, page)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetProduct")
	defer finish()

	detail, err := h.service.ProductDetail(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondError(w, r, err, "Could not retrieve product")
		return
	}
	apt.RespondSuccess(w, detail)
}

func (h *Handler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetProductByID")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.service.Product(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Could not retrieve product")
		return
	}
	apt.RespondSuccess(w, p)
}

func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddReview")
	defer finish()

	var req ReviewInput
	if !web.Decode(w, r, &req) {
		return
	}

	p, _ := auth.PrincipalFrom(r.Context())
	review, err := h.service.AddReview(r.Context(), chi.URLParam(r, "slug"), p.UserID, p.Name, req)
	if err != nil {
		h.respondError(w, r, err, "Could not add review")
		return
	}
	web.RespondCreated(w, review)
}

func (h *Handler) AdminListCategories(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AdminListCategories")
	defer finish()

	cats, err := h.service.AllCategories(r.Context())
	if err != nil {
		h.respondError(w, r, err, "Could not list categories")
		return
	}
	apt.RespondCollection(w, cats, "category")
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateCategory")
	defer finish()

	var req CategoryInput
	if !web.Decode(w, r, &req) {
		return
	}
	c, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Could not create category")
		return
	}
	web.RespondCreated(w, c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateCategory")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req CategoryInput
	if !web.Decode(w, r, &req) {
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), id, req)
	if err != nil {
		h.respondError(w, r, err, "Could not update category")
		return
	}
	apt.RespondSuccess(w, c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteCategory")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.respondError(w, r, err, "Could not delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateProduct")
	defer finish()

	var req ProductInput
	if !web.Decode(w, r, &req) {
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "Could not create product")
		return
	}
	h.log(r).Info("product created", "product_id", p.ID, "slug", p.Slug)
	web.RespondCreated(w, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateProduct")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	var req ProductInput
	if !web.Decode(w, r, &req) {
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		h.respondError(w, r, err, "Could not update product")
		return
	}
	apt.RespondSuccess(w, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteProduct")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.respondError(w, r, err, "Could not delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PendingReviews(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PendingReviews")
	defer finish()

	reviews, err := h.service.PendingReviews(r.Context())
	if err != nil {
		h.respondError(w, r, err, "Could not list reviews")
		return
	}
	apt.RespondCollection(w, reviews, "review")
}

func (h *Handler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ApproveReview")
	defer finish()

	id, ok := web.ParseID(w, r, "id")
	if !ok {
		return
	}
	review, err := h.service.ApproveReview(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Could not approve review")
		return
	}
	apt.RespondSuccess(w, review)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		apt.RespondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrDuplicateReview):
		apt.RespondError(w, http.StatusBadRequest, err.Error())
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
