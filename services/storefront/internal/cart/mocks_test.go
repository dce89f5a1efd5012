package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/orderclient"
	"github.com/appetiteclub/catering/services/storefront/internal/catalog"
	"github.com/appetiteclub/catering/services/storefront/internal/pricing"
	"github.com/appetiteclub/catering/services/storefront/internal/promo"
)

type MockRepo struct {
	mu      sync.Mutex
	carts   map[uuid.UUID]*Cart
	SaveErr error
}

func NewMockRepo() *MockRepo {
	return &MockRepo{carts: map[uuid.UUID]*Cart{}}
}

func (m *MockRepo) GetByUser(ctx context.Context, userID string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, nil
}

func (m *MockRepo) GetBySession(ctx context.Context, key string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if c.UserID == "" && c.SessionKey == key {
			return c, nil
		}
	}
	return nil, nil
}

func (m *MockRepo) Create(ctx context.Context, c *Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.ID] = c
	return nil
}

func (m *MockRepo) Save(ctx context.Context, c *Cart) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	return m.Create(ctx, c)
}

func (m *MockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, id)
	return nil
}

func (m *MockRepo) DeleteAnonymousBefore(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.carts {
		if c.UserID == "" && c.UpdatedAt.Before(before) {
			delete(m.carts, id)
			n++
		}
	}
	return n, nil
}

type MockProducts struct {
	products map[uuid.UUID]*catalog.Product
	sales    map[uuid.UUID]int
	SaleErr  error
}

func NewMockProducts(products ...*catalog.Product) *MockProducts {
	m := &MockProducts{products: map[uuid.UUID]*catalog.Product{}, sales: map[uuid.UUID]int{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *MockProducts) Product(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func (m *MockProducts) RecordSale(ctx context.Context, id uuid.UUID, qty int) error {
	if m.SaleErr != nil {
		return m.SaleErr
	}
	m.sales[id] += qty
	return nil
}

// MockPromos accepts codes listed in Codes and resolves them as combinable percentage codes.
type MockPromos struct {
	Codes     map[string]pricing.Promo
	CheckErr  error
	RecordErr error
	Recorded  []pricing.AppliedPromo
}

func (m *MockPromos) Check(ctx context.Context, code, userID string, subtotal int64, applied []string) (*promo.PromoCode, error) {
	if m.CheckErr != nil {
		return nil, m.CheckErr
	}
	code = promo.NormalizeCode(code)
	if _, ok := m.Codes[code]; !ok {
		return nil, promo.ErrNotFound
	}
	return &promo.PromoCode{Code: code}, nil
}

func (m *MockPromos) Resolve(ctx context.Context, codes []string, userID string) ([]pricing.Promo, error) {
	var out []pricing.Promo
	for _, c := range codes {
		out = append(out, m.Codes[c])
	}
	return out, nil
}

func (m *MockPromos) RecordUsage(ctx context.Context, applied []pricing.AppliedPromo, userID, orderID string) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Recorded = append(m.Recorded, applied...)
	return nil
}

type MockOrders struct {
	Requests []orderclient.CreateRequest
}

func (m *MockOrders) Create(ctx context.Context, req orderclient.CreateRequest) (*orderclient.Order, error) {
	m.Requests = append(m.Requests, req)
	return &orderclient.Order{OrderSnapshot: event.OrderSnapshot{
		ID:     uuid.NewString(),
		Number: "CMD-20250310-000001",
		Status: "pending",
		Total:  req.Total,
	}}, nil
}

// PromoCodeStore and PromoUsageStore back a real promo.Service in memory.
type PromoCodeStore struct {
	mu    sync.Mutex
	codes map[string]*promo.PromoCode
}

func NewPromoCodeStore(codes ...*promo.PromoCode) *PromoCodeStore {
	m := &PromoCodeStore{codes: map[string]*promo.PromoCode{}}
	for _, c := range codes {
		m.codes[c.Code] = c
	}
	return m
}

func (m *PromoCodeStore) Create(ctx context.Context, p *promo.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[p.Code] = p
	return nil
}

func (m *PromoCodeStore) Get(ctx context.Context, id uuid.UUID) (*promo.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.codes {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *PromoCodeStore) GetByCode(ctx context.Context, code string) (*promo.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[code], nil
}

func (m *PromoCodeStore) List(ctx context.Context) ([]*promo.PromoCode, error) {
	return nil, nil
}

func (m *PromoCodeStore) ListRestrictedTo(ctx context.Context, userID string) ([]*promo.PromoCode, error) {
	return nil, nil
}

func (m *PromoCodeStore) Save(ctx context.Context, p *promo.PromoCode) error {
	return m.Create(ctx, p)
}

func (m *PromoCodeStore) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (m *PromoCodeStore) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.codes {
		if p.ID == id {
			p.UsageCount++
		}
	}
	return nil
}

func (m *PromoCodeStore) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type PromoUsageStore struct {
	mu     sync.Mutex
	usages []*promo.Usage
}

func (m *PromoUsageStore) Create(ctx context.Context, u *promo.Usage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usages = append(m.usages, u)
	return nil
}

func (m *PromoUsageStore) CountByUser(ctx context.Context, promoID uuid.UUID, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.usages {
		if u.PromoID == promoID && u.UserID == userID {
			n++
		}
	}
	return n, nil
}
