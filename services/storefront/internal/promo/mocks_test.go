package promo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/event"
)

type MockRepo struct {
	mu   sync.Mutex
	data map[uuid.UUID]*PromoCode
}

func NewMockRepo(codes ...*PromoCode) *MockRepo {
	m := &MockRepo{data: map[uuid.UUID]*PromoCode{}}
	for _, c := range codes {
		m.data[c.ID] = c
	}
	return m
}

func (m *MockRepo) Create(ctx context.Context, p *PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[p.ID] = p
	return nil
}

func (m *MockRepo) Get(ctx context.Context, id uuid.UUID) (*PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[id], nil
}

func (m *MockRepo) GetByCode(ctx context.Context, code string) (*PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.data {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, nil
}

func (m *MockRepo) List(ctx context.Context) ([]*PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*PromoCode
	for _, p := range m.data {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockRepo) ListRestrictedTo(ctx context.Context, userID string) ([]*PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*PromoCode
	for _, p := range m.data {
		if p.RestrictedTo == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockRepo) Save(ctx context.Context, p *PromoCode) error {
	return m.Create(ctx, p)
}

func (m *MockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *MockRepo) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.data[id]; ok {
		p.UsageCount++
	}
	return nil
}

func (m *MockRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.data {
		if p.Active && p.ValidUntil.Before(now) {
			p.Active = false
			n++
		}
	}
	return n, nil
}

type MockUsageRepo struct {
	mu     sync.Mutex
	usages []*Usage
}

func (m *MockUsageRepo) Create(ctx context.Context, u *Usage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usages = append(m.usages, u)
	return nil
}

func (m *MockUsageRepo) CountByUser(ctx context.Context, promoID uuid.UUID, userID string) (int, error) {
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

type MockMailQueue struct {
	mu       sync.Mutex
	Messages []event.MailMessage
}

func (m *MockMailQueue) Enqueue(ctx context.Context, msg event.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
	return nil
}
