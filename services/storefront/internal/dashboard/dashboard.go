// Package dashboard serves the signed in customer's overview.
package dashboard

import (
	"context"
	"fmt"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/orderclient"
	"github.com/appetiteclub/catering/services/storefront/internal/cart"
	"github.com/appetiteclub/catering/services/storefront/internal/promo"
)

const recentOrders = 5

type Orders interface {
	List(ctx context.Context, f orderclient.Filter) ([]orderclient.Order, error)
}

type Promos interface {
	Available(ctx context.Context, userID string) ([]*promo.PromoCode, error)
}

type Carts interface {
	Get(ctx context.Context, owner cart.Owner) (*cart.Cart, error)
}

type Customer struct {
	RecentOrders []orderclient.Order `json:"recent_orders"`
	PromoCodes   []*promo.PromoCode  `json:"promo_codes"`
	CartItems    int                 `json:"cart_items"`
	OpenOrders   int                 `json:"open_orders"`
	TotalSpent   int64               `json:"total_spent"`
}

type Service struct {
	orders Orders
	promos Promos
	carts  Carts
}

func NewService(orders Orders, promos Promos, carts Carts) *Service {
	return &Service{orders: orders, promos: promos, carts: carts}
}

// Customer gathers the three sources concurrently.
func (s *Service) Customer(ctx context.Context, userID string) (*Customer, error) {
	out := &Customer{RecentOrders: []orderclient.Order{}, PromoCodes: []*promo.PromoCode{}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		orders, err := s.orders.List(gctx, orderclient.Filter{UserID: userID, Limit: recentOrders})
		if err != nil {
			return fmt.Errorf("recent orders: %w", err)
		}
		for _, o := range orders {
			if o.Status != "delivered" && o.Status != "cancelled" {
				out.OpenOrders++
			}
			if o.Status != "cancelled" {
				out.TotalSpent += o.Total
			}
		}
		if orders != nil {
			out.RecentOrders = orders
		}
		return nil
	})

	g.Go(func() error {
		codes, err := s.promos.Available(gctx, userID)
		if err != nil {
			return fmt.Errorf("promo codes: %w", err)
		}
		if codes != nil {
			out.PromoCodes = codes
		}
		return nil
	})

	g.Go(func() error {
		c, err := s.carts.Get(gctx, cart.Owner{UserID: userID})
		if err != nil {
			return fmt.Errorf("cart: %w", err)
		}
		out.CartItems = c.ItemCount()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

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
	r.With(auth.Authenticate(h.issuer), auth.RequireAuth).Get("/dashboard/customer", h.Customer)
}

func (h *Handler) Customer(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "DashboardHandler.Customer")
	defer finish()

	p, _ := auth.PrincipalFrom(r.Context())
	d, err := h.service.Customer(r.Context(), p.UserID)
	if err != nil {
		h.logger.Error("cannot build customer dashboard", "user_id", p.UserID, "request_id", apt.RequestIDFrom(r.Context()), "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load dashboard")
		return
	}
	apt.RespondSuccess(w, d)
}
