package payments

import (
	"errors"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/catering/pkg/auth"
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
	r.Route("/payments", func(r chi.Router) {
		r.With(auth.Authenticate(h.issuer), auth.RequireAuth).Post("/charge", h.Charge)
		r.Post("/webhook", h.Webhook)
	})
}

type chargeRequest struct {
	OrderID   string `json:"order_id"`
	CardToken string `json:"card_token"`
}

type webhookPayload struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

func (h *Handler) Charge(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "PaymentHandler.Charge")
	defer finish()

	var req chargeRequest
	if !web.Decode(w, r, &req) {
		return
	}
	if req.OrderID == "" {
		apt.RespondError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	p, _ := auth.PrincipalFrom(r.Context())
	res, err := h.service.Charge(r.Context(), p.UserID, req.OrderID, req.CardToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingToken), errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrNotPayable):
			apt.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrDisabled):
			apt.RespondError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, ErrDeclined):
			apt.RespondError(w, http.StatusPaymentRequired, err.Error())
		case errors.Is(err, ErrNotOwner):
			apt.RespondError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, ErrOrderNotFound):
			apt.RespondError(w, http.StatusNotFound, "Order not found")
		default:
			h.log(r).Error("charge failed", "order_id", req.OrderID, "error", err)
			apt.RespondError(w, http.StatusBadGateway, "Payment gateway error")
		}
		return
	}
	apt.RespondSuccess(w, res)
}

// Webhook always answers 200 for events it could verify so the gateway stops retrying.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "PaymentHandler.Webhook")
	defer finish()

	var payload webhookPayload
	if !web.Decode(w, r, &payload) {
		return
	}
	if payload.ID == "" {
		apt.RespondError(w, http.StatusBadRequest, "Missing event id")
		return
	}

	paid, err := h.service.HandleEvent(r.Context(), payload.ID)
	if err != nil {
		if errors.Is(err, ErrDisabled) {
			apt.RespondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if errors.Is(err, ErrOrderNotFound) {
			h.log(r).Error("webhook references unknown order", "event_id", payload.ID, "error", err)
			apt.RespondSuccess(w, map[string]bool{"paid": false})
			return
		}
		h.log(r).Error("cannot verify webhook event", "event_id", payload.ID, "error", err)
		apt.RespondError(w, http.StatusUnauthorized, "Event could not be verified")
		return
	}
	apt.RespondSuccess(w, map[string]bool{"paid": paid})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With(
		"request_id", apt.RequestIDFrom(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}
