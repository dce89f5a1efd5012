package cart

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/web"
	"github.com/appetiteclub/catering/services/storefront/internal/pricing"
	"github.com/appetiteclub/catering/services/storefront/internal/promo"
)

const SessionHeader = "X-Cart-Session"

type Handler struct {
	service  *Service
	checkout *Checkout
	issuer   *auth.TokenIssuer
	logger   apt.Logger
	tlm      *telemetry.HTTP
}

func NewHandler(service *Service, checkout *Checkout, issuer *auth.TokenIssuer, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		service:  service,
		checkout: checkout,
		issuer:   issuer,
		logger:   logger,
		tlm:      telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(h.issuer))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{product_id}", h.SetQuantity)
			r.Delete("/items/{product_id}", h.RemoveItem)
			r.Post("/promo", h.ApplyPromo)
			r.Delete("/promo/{code}", h.RemovePromo)
			r.With(auth.RequireAuth).Post("/merge", h.Merge)
		})

		r.With(auth.RequireAuth).Post("/checkout", h.Checkout)
	})
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type promoRequest struct {
	Code string `json:"code"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CartHandler.GetCart")
	defer finish()

	view, err := h.service.View(r.Context(), ownerOf(r), deliveryType(r))
	if err != nil {
		h.respondError(w, r, err, "Could not retrieve cart")
		return
	}
	apt.RespondSuccess(w, view)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CartHandler.AddItem")
	defer finish()

	var req addItemRequest
	if !web.Decode(w, r, &req) {
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid product_id")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	owner := ownerOf(r)
	if _, err := h.service.AddItem(r.Context(), owner, productID, req.Quantity, req.Notes); err != nil {
		h.respondError(w, r, err, "Could not add item")
		return
	}
	h.respondView(w, r, owner)
}

func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CartHandler.SetQuantity")
	defer finish()

	productID, ok := web.ParseID(w, r, "product_id")
	if !ok {
		return
	}
	var req quantityRequest
	if !web.Decode(w, r, &req) {
		return
	}

	owner := ownerOf(r)
	if _, err := h.service.SetQuantity(r.Context(), owner, productID, req.Quantity); err != nil {
		h.respondError(w, r, err, "Could not update item")
		return
	}
	h.respondView(w, r, owner)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CartHandler.RemoveItem")
	defer finish()

	productID, ok := web.ParseID(w, r, "product_id")
	if !ok {
		return
	}

	owner := ownerOf(r)
	if _, err := h.service.RemoveItem(r.Context(), owner, productID); err != nil {
		h.respondError(w, r, err, "Could not remove item")
		return
	}
	h.respondView(w, r, owner)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CartHandler.ClearCart")
	defer finish()

	if err := h.service.Clear(r.Context(), ownerOf(r)); err != nil {
		h.respondError(w, r, err, "Could not clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CartHandler.ApplyPromo")
	defer finish()

	var req promoRequest
	if !web.Decode(w, r, &req) {
		return
	}
	if req.Code == "" {
		apt.RespondError(w, http.StatusBadRequest, "Promo code is required")
		return
	}

	owner := ownerOf(r)
	if _, err := h.service.ApplyPromo(r.Context(), owner, req.Code); err != nil {
		h.respondError(w, r, err, "Could not apply promo code")
		return
	}
	h.respondView(w, r, owner)
}

func (h *Handler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CartHandler.RemovePromo")
	defer finish()

	owner := ownerOf(r)
	if _, err := h.service.RemovePromo(r.Context(), owner, chi.URLParam(r, "code")); err != nil {
		h.respondError(w, r, err, "Could not remove promo code")
		return
	}
	h.respondView(w, r, owner)
}

func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CartHandler.Merge")
	defer finish()

	p, _ := auth.PrincipalFrom(r.Context())
	if _, err := h.service.Merge(r.Context(), p.UserID, r.Header.Get(SessionHeader)); err != nil {
		h.respondError(w, r, err, "Could not merge carts")
		return
	}
	h.respondView(w, r, Owner{UserID: p.UserID})
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "CartHandler.Checkout")
	defer finish()

	var req CheckoutInput
	if !web.Decode(w, r, &req) {
		return
	}

	p, _ := auth.PrincipalFrom(r.Context())
	order, err := h.checkout.PlaceOrder(r.Context(), p.UserID, req)
	if err != nil {
		h.respondError(w, r, err, "Could not place order")
		return
	}

	h.log(r).Info("order placed", "order_id", order.ID, "number", order.Number, "total", order.Total)
	web.RespondCreated(w, order)
}

func (h *Handler) respondView(w http.ResponseWriter, r *http.Request, owner Owner) {
	view, err := h.service.View(r.Context(), owner, deliveryType(r))
	if err != nil {
		h.respondError(w, r, err, "Could not retrieve cart")
		return
	}
	apt.RespondSuccess(w, view)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if status, ok := promo.StatusFor(err); ok {
		apt.RespondError(w, status, err.Error())
		return
	}
	switch {
	case errors.Is(err, ErrNoOwner), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrUnavailable),
		errors.Is(err, ErrEmptyCart), errors.Is(err, ErrCheckoutInvalid), errors.Is(err, ErrPromoNotApplied):
		apt.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrItemNotInCart):
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

func ownerOf(r *http.Request) Owner {
	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		return Owner{UserID: p.UserID}
	}
	return Owner{SessionKey: r.Header.Get(SessionHeader)}
}

func deliveryType(r *http.Request) string {
	if r.URL.Query().Get("delivery_type") == pricing.DeliveryTypePickup {
		return pricing.DeliveryTypePickup
	}
	return pricing.DeliveryTypeDelivery
}
