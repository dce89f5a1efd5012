package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/catering/pkg/orderclient"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrNotOwner      = errors.New("order belongs to another customer")
	ErrAlreadyPaid   = errors.New("order is already paid")
	ErrNotPayable    = errors.New("order cannot be paid in its current status")
	ErrMissingToken  = errors.New("card_token is required")
	ErrDeclined      = errors.New("payment was declined")
	ErrDisabled      = errors.New("card payments are not configured")
)

const (
	DefaultCurrency = "cad"
	MethodCard      = "card"
)

// Orders is the order service view payments need.
type Orders interface {
	Get(ctx context.Context, id string) (*orderclient.Order, error)
	MarkPaid(ctx context.Context, id, paymentID, method string) (*orderclient.Order, error)
}

type Service struct {
	gateway  Gateway
	orders   Orders
	currency string
	logger   apt.Logger
}

func NewService(gateway Gateway, orders Orders, currency string, logger apt.Logger) *Service {
	if currency == "" {
		currency = DefaultCurrency
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{gateway: gateway, orders: orders, currency: strings.ToLower(currency), logger: logger}
}

// Charge bills the order total to the card token. A successful charge marks the order paid;
// a pending one is settled later by the webhook.
func (s *Service) Charge(ctx context.Context, userID, orderID, cardToken string) (*ChargeResult, error) {
	if s.gateway == nil {
		return nil, ErrDisabled
	}
	if strings.TrimSpace(cardToken) == "" {
		return nil, ErrMissingToken
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderNotFound, err)
	}
	if order.UserID != userID {
		return nil, ErrNotOwner
	}
	if order.IsPaid {
		return nil, ErrAlreadyPaid
	}
	if order.Status == "cancelled" {
		return nil, ErrNotPayable
	}

	res, err := s.gateway.Charge(ctx, ChargeRequest{
		Amount:    order.Total,
		Currency:  s.currency,
		CardToken: cardToken,
		Metadata:  map[string]string{"order_id": order.ID, "order_number": order.Number, "user_id": userID},
	})
	if err != nil {
		return nil, err
	}

	switch res.Status {
	case ChargeSuccessful:
		if _, err := s.orders.MarkPaid(ctx, order.ID, res.ID, MethodCard); err != nil {
			return nil, fmt.Errorf("mark order paid: %w", err)
		}
		s.logger.Info("order paid", "order_id", order.ID, "charge_id", res.ID, "amount", res.Amount)
	case ChargeFailed:
		return res, fmt.Errorf("%w: %s", ErrDeclined, res.FailureMessage)
	}
	return res, nil
}

// HandleEvent settles an order from a gateway event. The event is fetched back from the
// gateway so a forged payload cannot mark anything paid. It reports whether an order was paid.
func (s *Service) HandleEvent(ctx context.Context, eventID string) (bool, error) {
	if s.gateway == nil {
		return false, ErrDisabled
	}
	ev, err := s.gateway.RetrieveEvent(ctx, eventID)
	if err != nil {
		return false, err
	}
	if ev.Key != EventChargeComplete || ev.Charge == nil {
		return false, nil
	}
	if ev.Charge.Status != ChargeSuccessful {
		s.logger.Info("charge not successful", "charge_id", ev.Charge.ID, "status", ev.Charge.Status, "failure", ev.Charge.FailureCode)
		return false, nil
	}

	orderID := ev.Charge.Metadata["order_id"]
	if orderID == "" {
		return false, nil
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrOrderNotFound, err)
	}
	if order.IsPaid {
		return false, nil
	}
	if _, err := s.orders.MarkPaid(ctx, orderID, ev.Charge.ID, MethodCard); err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	return true, nil
}
