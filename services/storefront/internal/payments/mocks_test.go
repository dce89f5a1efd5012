package payments

import (
	"context"
	"errors"

	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/orderclient"
)

type MockGateway struct {
	ChargeFunc        func(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	RetrieveEventFunc func(ctx context.Context, id string) (*VerifiedEvent, error)
	Charges           []ChargeRequest
}

func (m *MockGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	m.Charges = append(m.Charges, req)
	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, req)
	}
	return &ChargeResult{ID: "chrg_test", Status: ChargeSuccessful, Amount: req.Amount, Currency: req.Currency}, nil
}

func (m *MockGateway) RetrieveEvent(ctx context.Context, id string) (*VerifiedEvent, error) {
	if m.RetrieveEventFunc != nil {
		return m.RetrieveEventFunc(ctx, id)
	}
	return nil, errors.New("unknown event")
}

type paidCall struct {
	OrderID   string
	PaymentID string
	Method    string
}

type MockOrders struct {
	orders map[string]*orderclient.Order
	Paid   []paidCall
}

func NewMockOrders(orders ...*orderclient.Order) *MockOrders {
	m := &MockOrders{orders: map[string]*orderclient.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *MockOrders) Get(ctx context.Context, id string) (*orderclient.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return o, nil
}

func (m *MockOrders) MarkPaid(ctx context.Context, id, paymentID, method string) (*orderclient.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, errors.New("404 not found")
	}
	o.IsPaid = true
	o.PaymentID = paymentID
	m.Paid = append(m.Paid, paidCall{OrderID: id, PaymentID: paymentID, Method: method})
	return o, nil
}

func testOrder(id, userID string, total int64) *orderclient.Order {
	return &orderclient.Order{OrderSnapshot: event.OrderSnapshot{
		ID:     id,
		Number: "CMD-20250310-000042",
		UserID: userID,
		Status: "pending",
		Total:  total,
	}}
}
