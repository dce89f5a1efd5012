package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/event"
)

// MockRepo stores copies, so a loaded order goes stale like a real document.
// BeforeWrite runs ahead of every guarded write and may change the stored order.
type MockRepo struct {
	mu          sync.Mutex
	orders      map[uuid.UUID]*Order
	counters    map[string]int64
	BeforeWrite func(stored *Order)
}

func NewMockRepo(orders ...*Order) *MockRepo {
	m := &MockRepo{orders: map[uuid.UUID]*Order{}, counters: map[string]int64{}}
	for _, o := range orders {
		m.orders[o.ID] = cloneOrder(o)
	}
	return m
}

func cloneOrder(o *Order) *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	c.History = append([]StatusChange(nil), o.History...)
	return &c
}

func (m *MockRepo) Create(ctx context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *MockRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneOrder(m.orders[id]), nil
}

func (m *MockRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.Number == number {
			return cloneOrder(o), nil
		}
	}
	return nil, nil
}

func (m *MockRepo) List(ctx context.Context, f Filter) ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Order
	for _, o := range m.orders {
		if len(f.Statuses) > 0 && !containsString(f.Statuses, o.Status) {
			continue
		}
		if f.DeliveryDate != "" && o.DeliveryDate != f.DeliveryDate {
			continue
		}
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if !f.CreatedFrom.IsZero() && o.CreatedAt.Before(f.CreatedFrom) {
			continue
		}
		if !f.CreatedTo.IsZero() && !o.CreatedAt.Before(f.CreatedTo) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MockRepo) Save(ctx context.Context, o *Order, expected string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if m.BeforeWrite != nil {
		m.BeforeWrite(stored)
	}
	if stored.Status != expected {
		return ErrStatusChanged
	}
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *MockRepo) MarkPaid(ctx context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if m.BeforeWrite != nil {
		m.BeforeWrite(stored)
	}
	if stored.IsPaid {
		return ErrAlreadyPaid
	}
	stored.IsPaid = true
	stored.PaymentID = o.PaymentID
	if o.PaymentMethod != "" {
		stored.PaymentMethod = o.PaymentMethod
	}
	stored.PaidAt = o.PaidAt
	stored.UpdatedAt = o.UpdatedAt
	return nil
}

func (m *MockRepo) NextSequence(ctx context.Context, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[day]++
	return m.counters[day], nil
}

func (m *MockRepo) CustomersBefore(ctx context.Context, userIDs []string, t time.Time) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := map[string]bool{}
	for _, o := range m.orders {
		if containsString(userIDs, o.UserID) && o.CreatedAt.Before(t) {
			result[o.UserID] = true
		}
	}
	return result, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type published struct {
	Topic string
	Data  []byte
}

type MockPublisher struct {
	mu       sync.Mutex
	Messages []published
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, published{Topic: topic, Data: msg})
	return nil
}

func (m *MockPublisher) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Messages))
	for _, p := range m.Messages {
		out = append(out, p.Topic)
	}
	return out
}

type MockMailQueue struct {
	Sent []event.MailMessage
}

func (m *MockMailQueue) Enqueue(ctx context.Context, msg event.MailMessage) error {
	m.Sent = append(m.Sent, msg)
	return nil
}

type MockSubscriber struct {
	handlers map[string]events.HandlerFunc
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.handlers == nil {
		m.handlers = map[string]events.HandlerFunc{}
	}
	m.handlers[topic] = handler
	return nil
}
