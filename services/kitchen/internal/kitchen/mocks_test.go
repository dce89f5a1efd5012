package kitchen

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/orderclient"
)

type MockProductionRepo struct {
	mu          sync.Mutex
	productions map[uuid.UUID]*Production
}

func (m *MockProductionRepo) GetOrCreate(ctx context.Context, p *Production) (*Production, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.productions {
		if existing.Date == p.Date && existing.Department == p.Department {
			return existing, nil
		}
	}
	m.productions[p.ID] = p
	return p, nil
}

func (m *MockProductionRepo) Get(ctx context.Context, id uuid.UUID) (*Production, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.productions[id], nil
}

func (m *MockProductionRepo) ListByDate(ctx context.Context, date string) ([]*Production, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Production
	for _, p := range m.productions {
		if p.Date == date {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockProductionRepo) Save(ctx context.Context, p *Production) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.productions[p.ID] = p
	return nil
}

type MockItemRepo struct {
	mu    sync.Mutex
	items []*Item
}

func (m *MockItemRepo) CreateIfAbsent(ctx context.Context, i *Item) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.ProductionID == i.ProductionID && existing.OrderItemID == i.OrderItemID {
			return false, nil
		}
	}
	m.items = append(m.items, i)
	return true, nil
}

func (m *MockItemRepo) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.items {
		if i.ID == id {
			return i, nil
		}
	}
	return nil, nil
}

func (m *MockItemRepo) List(ctx context.Context, f ItemFilter) ([]*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Item
	for _, i := range m.items {
		if f.Date != "" && i.Date != f.Date {
			continue
		}
		if f.Department != "" && i.Department != f.Department {
			continue
		}
		if f.OrderID != "" && i.OrderID != f.OrderID {
			continue
		}
		if f.Priority != nil && i.Priority != *f.Priority {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, i.Status) {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (m *MockItemRepo) ListByProduction(ctx context.Context, productionID uuid.UUID) ([]*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Item
	for _, i := range m.items {
		if i.ProductionID == productionID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *MockItemRepo) Save(ctx context.Context, i *Item) error {
	return nil
}

type MockNotificationRepo struct {
	mu            sync.Mutex
	notifications []*Notification
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *MockNotificationRepo) List(ctx context.Context, role, department string, unreadOnly bool) ([]*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, n := range m.notifications {
		if n.RecipientRole != role {
			continue
		}
		if department != "" && n.Department != "" && n.Department != department {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *MockNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id {
			now := time.Now()
			n.Read = true
			n.ReadAt = &now
			return nil
		}
	}
	return ErrNotFound
}

func (m *MockNotificationRepo) MarkAllRead(ctx context.Context, role, department string) (int64, error) {
	list, _ := m.List(ctx, role, department, true)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range list {
		n.Read = true
	}
	return int64(len(list)), nil
}

type MockSupplyRepo struct {
	mu       sync.Mutex
	supplies map[uuid.UUID]*SupplyOrder
}

func (m *MockSupplyRepo) Create(ctx context.Context, s *SupplyOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supplies[s.ID] = s
	return nil
}

func (m *MockSupplyRepo) Get(ctx context.Context, id uuid.UUID) (*SupplyOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.supplies[id], nil
}

func (m *MockSupplyRepo) List(ctx context.Context, department string, statuses []string) ([]*SupplyOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*SupplyOrder
	for _, s := range m.supplies {
		if department != "" && s.Department != department {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, s.Status) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *MockSupplyRepo) Save(ctx context.Context, s *SupplyOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supplies[s.ID] = s
	return nil
}

type MockOrders struct {
	orders []orderclient.Order
	calls  int
}

func (m *MockOrders) List(ctx context.Context, f orderclient.Filter) ([]orderclient.Order, error) {
	m.calls++
	var out []orderclient.Order
	for _, o := range m.orders {
		if f.DeliveryDate != "" && o.DeliveryDate != f.DeliveryDate {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, o.Status) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

type published struct {
	topic string
	msg   []byte
}

type MockPublisher struct {
	mu       sync.Mutex
	messages []published
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, published{topic: topic, msg: msg})
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type testEnv struct {
	service       *Service
	productions   *MockProductionRepo
	items         *MockItemRepo
	notifications *MockNotificationRepo
	supplies      *MockSupplyRepo
	orders        *MockOrders
	publisher     *MockPublisher
}

var testNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestEnv(orders ...orderclient.Order) *testEnv {
	env := &testEnv{
		productions:   &MockProductionRepo{productions: map[uuid.UUID]*Production{}},
		items:         &MockItemRepo{},
		notifications: &MockNotificationRepo{},
		supplies:      &MockSupplyRepo{supplies: map[uuid.UUID]*SupplyOrder{}},
		orders:        &MockOrders{orders: orders},
		publisher:     &MockPublisher{},
	}
	env.service = NewService(Repos{
		Productions:   env.productions,
		Items:         env.items,
		Notifications: env.notifications,
		Supplies:      env.supplies,
	}, env.orders, env.publisher, nil)
	env.service.now = func() time.Time { return testNow }
	return env
}
