package checklist

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/orderclient"
	"github.com/appetiteclub/catering/pkg/userclient"
)

type MockInventoryRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*InventoryItem
}

func (m *MockInventoryRepo) Create(ctx context.Context, item *InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *MockInventoryRepo) Get(ctx context.Context, id uuid.UUID) (*InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id], nil
}

func (m *MockInventoryRepo) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uuid.UUID]*InventoryItem{}
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (m *MockInventoryRepo) List(ctx context.Context, activeOnly bool) ([]*InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*InventoryItem{}
	for _, item := range m.items {
		if activeOnly && !item.Active {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockInventoryRepo) Save(ctx context.Context, item *InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.ID]; !ok {
		return ErrNotFound
	}
	m.items[item.ID] = item
	return nil
}

type MockTemplateRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*Template
}

func (m *MockTemplateRepo) Create(ctx context.Context, t *Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = t
	return nil
}

func (m *MockTemplateRepo) Get(ctx context.Context, id uuid.UUID) (*Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.templates[id], nil
}

func (m *MockTemplateRepo) List(ctx context.Context, activeOnly bool) ([]*Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Template{}
	for _, t := range m.templates {
		if activeOnly && !t.Active {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockTemplateRepo) Save(ctx context.Context, t *Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return ErrNotFound
	}
	m.templates[t.ID] = t
	return nil
}

// MockChecklistRepo stores copies and versions them like the Mongo repo.
// BeforeSave runs ahead of the version check and may change the stored copy.
type MockChecklistRepo struct {
	mu         sync.Mutex
	checklists map[uuid.UUID]*Checklist
	BeforeSave func(stored *Checklist)
}

func cloneChecklist(c *Checklist) *Checklist {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = append([]Item(nil), c.Items...)
	return &cp
}

func (m *MockChecklistRepo) Create(ctx context.Context, c *Checklist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.checklists {
		if other.OrderID == c.OrderID {
			return ErrExists
		}
	}
	m.checklists[c.ID] = cloneChecklist(c)
	return nil
}

func (m *MockChecklistRepo) Get(ctx context.Context, id uuid.UUID) (*Checklist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneChecklist(m.checklists[id]), nil
}

func (m *MockChecklistRepo) GetByOrder(ctx context.Context, orderID string) (*Checklist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.checklists {
		if c.OrderID == orderID {
			return cloneChecklist(c), nil
		}
	}
	return nil, nil
}

func (m *MockChecklistRepo) GetByItem(ctx context.Context, itemID uuid.UUID) (*Checklist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.checklists {
		if c.Item(itemID) != nil {
			return cloneChecklist(c), nil
		}
	}
	return nil, nil
}

func (m *MockChecklistRepo) List(ctx context.Context, f Filter) ([]*Checklist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Checklist{}
	for _, c := range m.checklists {
		switch {
		case f.AssignedTo != "" && c.AssignedTo != f.AssignedTo:
		case f.Status != "" && c.Status != f.Status:
		case f.DeliveryDate != "" && c.DeliveryDate != f.DeliveryDate:
		case f.DeliveryDate == "" && f.To != "" && c.DeliveryDate > f.To:
		default:
			out = append(out, cloneChecklist(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, nil
}

func (m *MockChecklistRepo) Save(ctx context.Context, c *Checklist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.checklists[c.ID]
	if !ok {
		return ErrNotFound
	}
	if hook := m.BeforeSave; hook != nil {
		m.BeforeSave = nil
		hook(stored)
	}
	if stored.Version != c.Version {
		return ErrConflict
	}
	c.Version++
	m.checklists[c.ID] = cloneChecklist(c)
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

func (m *MockNotificationRepo) List(ctx context.Context, assignedTo string, unreadOnly bool, limit int) ([]*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Notification{}
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if assignedTo != "" && n.AssignedTo != assignedTo {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, assignedTo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && (assignedTo == "" || n.AssignedTo == assignedTo) {
			n.Read = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *MockNotificationRepo) byType(kind string) []*Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, n := range m.notifications {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

type MockOrders struct {
	orders map[string]*orderclient.Order
}

func (m *MockOrders) GetByNumber(ctx context.Context, number string) (*orderclient.Order, error) {
	o, ok := m.orders[number]
	if !ok {
		return nil, errors.New("404 order not found")
	}
	return o, nil
}

type MockUsers struct {
	users map[string]*userclient.User
}

func (m *MockUsers) Get(ctx context.Context, id string) (*userclient.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, errors.New("404 user not found")
	}
	return u, nil
}

type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.messages == nil {
		m.messages = map[string][][]byte{}
	}
	m.messages[topic] = append(m.messages[topic], msg)
	return nil
}

type MockMail struct {
	mu   sync.Mutex
	sent []event.MailMessage
}

func (m *MockMail) Enqueue(ctx context.Context, msg event.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// testNow is mid-morning on the day the fixtures run.
var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	service       *Service
	inventory     *MockInventoryRepo
	templates     *MockTemplateRepo
	checklists    *MockChecklistRepo
	notifications *MockNotificationRepo
	orders        *MockOrders
	publisher     *MockPublisher
	mail          *MockMail

	// napkins, plates and glasses are active inventory items, crate is inactive.
	napkins, plates, glasses, crate uuid.UUID
}

func order(id, number, date, clock string) *orderclient.Order {
	return &orderclient.Order{OrderSnapshot: event.OrderSnapshot{
		ID:           id,
		Number:       number,
		FirstName:    "Lea",
		LastName:     "Martin",
		DeliveryDate: date,
		DeliveryTime: clock,
	}}
}

func newTestEnv() *testEnv {
	env := &testEnv{
		inventory:     &MockInventoryRepo{items: map[uuid.UUID]*InventoryItem{}},
		templates:     &MockTemplateRepo{templates: map[uuid.UUID]*Template{}},
		checklists:    &MockChecklistRepo{checklists: map[uuid.UUID]*Checklist{}},
		notifications: &MockNotificationRepo{},
		publisher:     &MockPublisher{},
		mail:          &MockMail{},
	}
	env.orders = &MockOrders{orders: map[string]*orderclient.Order{
		"CMD-20250301-000001": order("order-1", "CMD-20250301-000001", "2025-03-10", "12:00"),
		"CMD-20250301-000002": order("order-2", "CMD-20250301-000002", "2025-03-11", "08:30"),
		"CMD-20250301-000003": order("order-3", "CMD-20250301-000003", "2025-03-15", "19:00"),
		"CMD-20250301-000004": order("order-4", "CMD-20250301-000004", "2025-03-30", "11:00"),
	}}
	users := &MockUsers{users: map[string]*userclient.User{
		"a-1":  {ID: "a-1", Email: "admin@catering.local", FirstName: "Ana", LastName: "Admin", Role: "admin"},
		"cm-1": {ID: "cm-1", Email: "chloe@catering.local", FirstName: "Chloe", LastName: "Manager", Role: "checklist_manager"},
		"cm-2": {ID: "cm-2", Email: "paul@catering.local", FirstName: "Paul", LastName: "Stock", Role: "checklist_manager"},
		"d-1":  {ID: "d-1", Email: "driver@catering.local", FirstName: "Dan", LastName: "Driver", Role: "driver"},
	}}
	env.service = NewService(Repos{
		Inventory:     env.inventory,
		Templates:     env.templates,
		Checklists:    env.checklists,
		Notifications: env.notifications,
	}, Deps{
		Orders:    env.orders,
		Users:     users,
		Publisher: env.publisher,
		Mail:      env.mail,
		SiteURL:   "http://catering.local/",
		Logger:    apt.NewNoopLogger(),
	})
	env.service.now = func() time.Time { return testNow }

	add := func(name, category string, active bool) uuid.UUID {
		id := uuid.New()
		env.inventory.items[id] = &InventoryItem{ID: id, Name: name, Category: category, Unit: "piece", StockQuantity: 100, MinStock: 10, Active: active}
		return id
	}
	env.napkins = add("Napkin", CategoryLinens, true)
	env.plates = add("Plate", CategoryTableware, true)
	env.glasses = add("Wine glass", CategoryGlassware, true)
	env.crate = add("Old crate", CategoryEquipment, false)
	return env
}

// items is a three line request: napkins, plates and glasses.
func (env *testEnv) items() []ItemInput {
	return []ItemInput{
		{InventoryItemID: env.napkins, Quantity: 50},
		{InventoryItemID: env.plates, Quantity: 40},
		{InventoryItemID: env.glasses},
	}
}
