package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type MockCategoryRepo struct {
	mu   sync.Mutex
	data map[uuid.UUID]*Category
}

func NewMockCategoryRepo() *MockCategoryRepo {
	return &MockCategoryRepo{data: map[uuid.UUID]*Category{}}
}

func (m *MockCategoryRepo) Create(ctx context.Context, c *Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[c.ID] = c
	return nil
}

func (m *MockCategoryRepo) Get(ctx context.Context, id uuid.UUID) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[id], nil
}

func (m *MockCategoryRepo) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.data {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, nil
}

func (m *MockCategoryRepo) List(ctx context.Context, activeOnly bool) ([]*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Category
	for _, c := range m.data {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MockCategoryRepo) Save(ctx context.Context, c *Category) error {
	return m.Create(ctx, c)
}

func (m *MockCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type MockProductRepo struct {
	mu   sync.Mutex
	data map[uuid.UUID]*Product

	LastQuery ProductQuery
}

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{data: map[uuid.UUID]*Product{}}
}

func (m *MockProductRepo) Create(ctx context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[p.ID] = p
	return nil
}

func (m *MockProductRepo) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *MockProductRepo) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.data {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockProductRepo) List(ctx context.Context, q ProductQuery) ([]*Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastQuery = q
	var out []*Product
	for _, p := range m.data {
		if q.CategoryID != nil && p.CategoryID != *q.CategoryID {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (m *MockProductRepo) ListByCategory(ctx context.Context, categoryID, exclude uuid.UUID, limit int) ([]*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Product
	for _, p := range m.data {
		if p.CategoryID == categoryID && p.ID != exclude && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockProductRepo) Save(ctx context.Context, p *Product) error {
	return m.Create(ctx, p)
}

func (m *MockProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *MockProductRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.data[id]; ok {
		p.ViewsCount++
	}
	return nil
}

func (m *MockProductRepo) IncrementSales(ctx context.Context, id uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.data[id]; ok {
		p.SalesCount += qty
	}
	return nil
}

func (m *MockProductRepo) SetRating(ctx context.Context, id uuid.UUID, average float64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.data[id]; ok {
		p.AverageRating = average
		p.ReviewCount = count
	}
	return nil
}

type MockReviewRepo struct {
	mu   sync.Mutex
	data map[uuid.UUID]*Review
}

func NewMockReviewRepo() *MockReviewRepo {
	return &MockReviewRepo{data: map[uuid.UUID]*Review{}}
}

func (m *MockReviewRepo) Create(ctx context.Context, r *Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[r.ID] = r
	return nil
}

func (m *MockReviewRepo) Get(ctx context.Context, id uuid.UUID) (*Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[id], nil
}

func (m *MockReviewRepo) Exists(ctx context.Context, productID uuid.UUID, userID, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.data {
		if r.ProductID == productID && r.UserID == userID && r.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]*Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Review
	for _, r := range m.data {
		if r.ProductID == productID && (!approvedOnly || r.Approved) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockReviewRepo) ListPending(ctx context.Context) ([]*Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Review
	for _, r := range m.data {
		if !r.Approved {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockReviewRepo) Save(ctx context.Context, r *Review) error {
	return m.Create(ctx, r)
}

func newTestService() (*Service, Repos) {
	repos := Repos{
		Categories: NewMockCategoryRepo(),
		Products:   NewMockProductRepo(),
		Reviews:    NewMockReviewRepo(),
	}
	return NewService(repos), repos
}
