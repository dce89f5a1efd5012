package banquet

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

type MockContractRepo struct {
	mu        sync.Mutex
	contracts map[uuid.UUID]*Contract
	counters  map[string]int64
}

func (m *MockContractRepo) Create(ctx context.Context, c *Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = c
	return nil
}

func (m *MockContractRepo) Get(ctx context.Context, id uuid.UUID) (*Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contracts[id], nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (m *MockContractRepo) List(ctx context.Context, f ContractFilter) ([]*Contract, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Contract{}
	for _, c := range m.contracts {
		switch {
		case f.Date != "" && c.Date != f.Date:
		case f.Date == "" && f.From != "" && c.Date < f.From:
		case f.Date == "" && f.To != "" && c.Date > f.To:
		case f.MaitreHotelID != "" && c.MaitreHotelID != f.MaitreHotelID:
		case len(f.Statuses) > 0 && !contains(f.Statuses, c.Status):
		default:
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MockContractRepo) Save(ctx context.Context, c *Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contracts[c.ID]; !ok {
		return ErrNotFound
	}
	m.contracts[c.ID] = c
	return nil
}

func (m *MockContractRepo) NextSequence(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
	return m.counters[name], nil
}

type MockTimelineRepo struct {
	mu      sync.Mutex
	entries []*TimelineEntry
}

func (m *MockTimelineRepo) Create(ctx context.Context, e *TimelineEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *MockTimelineRepo) List(ctx context.Context, contractID uuid.UUID, limit int) ([]*TimelineEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*TimelineEntry{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].ContractID == contractID {
			out = append(out, m.entries[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MockPhotoRepo struct {
	mu     sync.Mutex
	photos []*Photo
}

func (m *MockPhotoRepo) Create(ctx context.Context, p *Photo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos = append(m.photos, p)
	return nil
}

func (m *MockPhotoRepo) List(ctx context.Context, contractID uuid.UUID, limit int) ([]*Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Photo{}
	for _, p := range m.photos {
		if p.ContractID == contractID {
			out = append(out, p)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MockReportRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*Report
}

func (m *MockReportRepo) Create(ctx context.Context, r *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = r
	return nil
}

func (m *MockReportRepo) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports[id], nil
}

func (m *MockReportRepo) GetByContract(ctx context.Context, contractID uuid.UUID) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ContractID == contractID {
			return r, nil
		}
	}
	return nil, nil
}

func (m *MockReportRepo) List(ctx context.Context, f ReportFilter) ([]*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Report{}
	for _, r := range m.reports {
		switch {
		case f.MaitreHotelID != "" && r.MaitreHotelID != f.MaitreHotelID:
		case f.Status != "" && r.Status != f.Status:
		case f.From != "" && r.EventDate < f.From:
		case f.To != "" && r.EventDate > f.To:
		case f.Search != "" && r.EventName != f.Search && r.Number != f.Search && r.ContractNumber != f.Search:
		default:
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *MockReportRepo) Save(ctx context.Context, r *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[r.ID]; !ok {
		return ErrNotFound
	}
	m.reports[r.ID] = r
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

func (m *MockNotificationRepo) List(ctx context.Context, recipientID string, limit int) ([]*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Notification{}
	for i := len(m.notifications) - 1; i >= 0; i-- {
		if m.notifications[i].RecipientID == recipientID {
			out = append(out, m.notifications[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockNotificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, note := range m.notifications {
		if note.RecipientID == recipientID && !note.Read {
			note.Read = true
			n++
		}
	}
	return n, nil
}

// forRecipient returns the notifications of one type sent to recipientID.
func (m *MockNotificationRepo) forRecipient(recipientID, kind string) []*Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Notification
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && n.Type == kind {
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

type MockMedia struct {
	mu      sync.Mutex
	uploads []mediaclient.UploadRequest
}

func (m *MockMedia) Upload(ctx context.Context, req mediaclient.UploadRequest) (*mediaclient.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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

// testNow is 19:30 on the day the fixtures run.
var testNow = time.Date(2025, 3, 10, 19, 30, 0, 0, time.UTC)

type testEnv struct {
	service       *Service
	contracts     *MockContractRepo
	timeline      *MockTimelineRepo
	photos        *MockPhotoRepo
	reports       *MockReportRepo
	notifications *MockNotificationRepo
	media         *MockMedia
}

func newTestEnv() *testEnv {
	env := &testEnv{
		contracts:     &MockContractRepo{contracts: map[uuid.UUID]*Contract{}, counters: map[string]int64{}},
		timeline:      &MockTimelineRepo{},
		photos:        &MockPhotoRepo{},
		reports:       &MockReportRepo{reports: map[uuid.UUID]*Report{}},
		notifications: &MockNotificationRepo{},
		media:         &MockMedia{},
	}
	orders := &MockOrders{orders: map[string]*orderclient.Order{
		"CMD-20250301-000007": {OrderSnapshot: event.OrderSnapshot{
			ID:        "order-7",
			Number:    "CMD-20250301-000007",
			FirstName: "Lea",
			LastName:  "Martin",
			Email:     "lea@example.com",
			Phone:     "555-0107",
		}},
	}}
	users := &MockUsers{users: []userclient.User{
		{ID: "a-1", Email: "admin@catering.local", FirstName: "Ana", LastName: "Admin", Role: "admin"},
		{ID: "mh-1", Email: "maitre@catering.local", FirstName: "Marc", LastName: "Hotel", Role: "maitre_hotel"},
	}}
	env.service = NewService(Repos{
		Contracts:     env.contracts,
		Timeline:      env.timeline,
		Photos:        env.photos,
		Reports:       env.reports,
		Notifications: env.notifications,
	}, Deps{
		Orders: orders,
		Media:  env.media,
		Users:  users,
		Logger: apt.NewNoopLogger(),
	})
	env.service.now = func() time.Time { return testNow }
	return env
}

// validInput is an evening gala run by mh-1.
func validInput(date string) ContractInput {
	return ContractInput{
		Name:          "Spring gala",
		ClientName:    "Acme Inc",
		Location:      "Grand Hall",
		GuestCount:    120,
		Date:          date,
		StartTime:     "18:00",
		EndTime:       "23:00",
		MaitreHotelID: "mh-1",
	}
}
