package delivery

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/mediaclient"
	"github.com/appetiteclub/catering/pkg/orderclient"
	"github.com/appetiteclub/catering/pkg/userclient"
)

// MockDeliveryRepo hands out shared pointers and tracks the stored version
// apart. BeforeSave runs once ahead of the next version check.
type MockDeliveryRepo struct {
	mu         sync.Mutex
	deliveries map[uuid.UUID]*Delivery
	counters   map[string]int64
	versions   map[uuid.UUID]int64
	BeforeSave func(versions map[uuid.UUID]int64)
}

func (m *MockDeliveryRepo) CreateForOrder(ctx context.Context, d *Delivery) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.deliveries {
		if existing.OrderID == d.OrderID && existing.Type == d.Type {
			return false, nil
		}
	}
	m.deliveries[d.ID] = d
	return true, nil
}

func (m *MockDeliveryRepo) Create(ctx context.Context, d *Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries[d.ID] = d
	return nil
}

func (m *MockDeliveryRepo) Get(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deliveries[id], nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (m *MockDeliveryRepo) List(ctx context.Context, f Filter) ([]*Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := map[uuid.UUID]bool{}
	for _, id := range f.IDs {
		ids[id] = true
	}
	out := []*Delivery{}
	for _, d := range m.deliveries {
		switch {
		case f.Date != "" && d.ScheduledDate != f.Date:
		case f.From != "" && d.ScheduledDate < f.From:
		case f.To != "" && d.ScheduledDate > f.To:
		case len(f.Statuses) > 0 && !contains(f.Statuses, d.Status):
		case len(f.Types) > 0 && !contains(f.Types, d.Type):
		case f.DriverID != "" && d.DriverID != f.DriverID:
		case f.OrderID != "" && d.OrderID != f.OrderID:
		case len(ids) > 0 && !ids[d.ID]:
		default:
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MockDeliveryRepo) Save(ctx context.Context, d *Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.deliveries[d.ID]; !ok {
		return ErrNotFound
	}
	if m.versions == nil {
		m.versions = map[uuid.UUID]int64{}
	}
	if hook := m.BeforeSave; hook != nil {
		m.BeforeSave = nil
		hook(m.versions)
	}
	if m.versions[d.ID] != d.Version {
		return ErrConflict
	}
	d.Version++
	m.versions[d.ID] = d.Version
	m.deliveries[d.ID] = d
	return nil
}

func (m *MockDeliveryRepo) NextSequence(ctx context.Context, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[day]++
	return m.counters[day], nil
}

type MockRouteRepo struct {
	mu         sync.Mutex
	routes     map[uuid.UUID]*Route
	versions   map[uuid.UUID]int64
	BeforeSave func(versions map[uuid.UUID]int64)
}

func (m *MockRouteRepo) Create(ctx context.Context, r *Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[r.ID] = r
	return nil
}

func (m *MockRouteRepo) Get(ctx context.Context, id uuid.UUID) (*Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.routes[id], nil
}

func (m *MockRouteRepo) List(ctx context.Context, f RouteFilter) ([]*Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Route{}
	for _, r := range m.routes {
		if (f.Date == "" || r.Date == f.Date) && (f.DriverID == "" || r.DriverID == f.DriverID) &&
			(len(f.Statuses) == 0 || contains(f.Statuses, r.Status)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockRouteRepo) Save(ctx context.Context, r *Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions == nil {
		m.versions = map[uuid.UUID]int64{}
	}
	if hook := m.BeforeSave; hook != nil {
		m.BeforeSave = nil
		hook(m.versions)
	}
	if m.versions[r.ID] != r.Version {
		return ErrConflict
	}
	r.Version++
	m.versions[r.ID] = r.Version
	m.routes[r.ID] = r
	return nil
}

type MockPlanningRepo struct {
	mu        sync.Mutex
	plannings []*Planning
}

func (m *MockPlanningRepo) Upsert(ctx context.Context, p *Planning) (*Planning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.plannings {
		if existing.DriverID == p.DriverID && existing.Date == p.Date {
			p.ID = existing.ID
			m.plannings[i] = p
			return p, nil
		}
	}
	m.plannings = append(m.plannings, p)
	return p, nil
}

func (m *MockPlanningRepo) List(ctx context.Context, date string) ([]*Planning, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Planning
	for _, p := range m.plannings {
		if p.Date == date {
			out = append(out, p)
		}
	}
	return out, nil
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

func (m *MockNotificationRepo) List(ctx context.Context, role, userID string, unreadOnly bool) ([]*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, n := range m.notifications {
		if n.RecipientRole != role || (n.RecipientID != "" && n.RecipientID != userID) {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *MockNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, role, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.RecipientRole == role {
			n.Read = true
			return nil
		}
	}
	return ErrNotFound
}

// byType returns the notifications of one type.
func (m *MockNotificationRepo) byType(t string) []*Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, n := range m.notifications {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type MockOrders struct {
	mu      sync.Mutex
	orders  map[string]*orderclient.Order
	updates []string
	listErr error
}

func (m *MockOrders) Get(ctx context.Context, id string) (*orderclient.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, errors.New("404 order not found")
	}
	return o, nil
}

func (m *MockOrders) GetByNumber(ctx context.Context, number string) (*orderclient.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.Number == number {
			return o, nil
		}
	}
	return nil, errors.New("404 order not found")
}

func (m *MockOrders) List(ctx context.Context, f orderclient.Filter) ([]orderclient.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []orderclient.Order
	for _, o := range m.orders {
		if f.DeliveryDate != "" && o.DeliveryDate != f.DeliveryDate {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, o.Status) {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *MockOrders) MarkDelivered(ctx context.Context, id, changedBy string) (*orderclient.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, errors.New("404 order not found")
	}
	o.Status = "delivered"
	m.updates = append(m.updates, o.Status)
	return o, nil
}

type MockMedia struct {
	mu       sync.Mutex
	uploads  []mediaclient.UploadRequest
	failWith error
}

func (m *MockMedia) Upload(ctx context.Context, req mediaclient.UploadRequest) (*mediaclient.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.uploads = append(m.uploads, req)
	id := uuid.NewString()
	return &mediaclient.Object{ID: id, Kind: req.Kind, OwnerID: req.OwnerID, URL: "http://media.local/media/" + id}, nil
}

type MockUsers struct {
	users []userclient.User
}

func (m *MockUsers) ListByRole(ctx context.Context, role string) ([]userclient.User, error) {
	var out []userclient.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
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
	mu       sync.Mutex
	messages []event.MailMessage
}

func (m *MockMail) Enqueue(ctx context.Context, msg event.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

type MockBroadcaster struct {
	mu     sync.Mutex
	events []event.DeliveryEvent
}

func (m *MockBroadcaster) Broadcast(evt event.DeliveryEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

var testNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	service       *Service
	deliveries    *MockDeliveryRepo
	routes        *MockRouteRepo
	plannings     *MockPlanningRepo
	notifications *MockNotificationRepo
	orders        *MockOrders
	media         *MockMedia
	publisher     *MockPublisher
	mail          *MockMail
	stream        *MockBroadcaster
}

func newTestEnv(orders ...*orderclient.Order) *testEnv {
	env := &testEnv{
		deliveries:    &MockDeliveryRepo{deliveries: map[uuid.UUID]*Delivery{}, counters: map[string]int64{}},
		routes:        &MockRouteRepo{routes: map[uuid.UUID]*Route{}},
		plannings:     &MockPlanningRepo{},
		notifications: &MockNotificationRepo{},
		orders:        &MockOrders{orders: map[string]*orderclient.Order{}},
		media:         &MockMedia{},
		publisher:     &MockPublisher{},
		mail:          &MockMail{},
		stream:        &MockBroadcaster{},
	}
	for _, o := range orders {
		env.orders.orders[o.ID] = o
	}
	users := &MockUsers{users: []userclient.User{
		{ID: "m-1", Email: "manager@catering.local", FirstName: "Mia", LastName: "Manager", Role: "delivery_manager"},
		{ID: "d-1", Email: "driver1@catering.local", FirstName: "Dan", LastName: "Driver", Role: "driver"},
		{ID: "d-2", Email: "driver2@catering.local", FirstName: "Ada", LastName: "Wheel", Role: "driver"},
	}}
	env.service = NewService(Repos{
		Deliveries:    env.deliveries,
		Routes:        env.routes,
		Plannings:     env.plannings,
		Notifications: env.notifications,
	}, Deps{
		Orders:    env.orders,
		Media:     env.media,
		Users:     users,
		Publisher: env.publisher,
		Mail:      env.mail,
		Stream:    env.stream,
		Logger:    apt.NewNoopLogger(),
	})
	env.service.now = func() time.Time { return testNow }
	return env
}

// newOrder builds a confirmed delivery order due on date.
func newOrder(number, date string, total int64) *orderclient.Order {
	return &orderclient.Order{OrderSnapshot: event.OrderSnapshot{
		ID:           "id-" + number,
		Number:       number,
		Status:       "confirmed",
		DeliveryType: "delivery",
		FirstName:    "Jane",
		LastName:     "Doe",
		Email:        "jane@example.com",
		Phone:        "555-0100",
		Address:      "12 Main St",
		PostalCode:   "H2X 1Y4",
		City:         "Montreal",
		DeliveryDate: date,
		DeliveryTime: "11:30",
		Items:        []event.OrderItemSnapshot{{Name: "Lunch box", Quantity: 12}},
		Total:        total,
	}}
}
