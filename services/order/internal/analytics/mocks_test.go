package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/appetiteclub/catering/services/order/internal/order"
)

type MockStore struct {
	Daily    map[string]DailyAnalytics
	Trending []TrendingProduct
}

func NewMockStore() *MockStore {
	return &MockStore{Daily: map[string]DailyAnalytics{}}
}

func (m *MockStore) UpsertDaily(ctx context.Context, d DailyAnalytics) error {
	m.Daily[d.Date] = d
	return nil
}

func (m *MockStore) ListDaily(ctx context.Context, from, to string) ([]DailyAnalytics, error) {
	var out []DailyAnalytics
	for date, d := range m.Daily {
		if date >= from && date <= to {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *MockStore) ReplaceTrending(ctx context.Context, products []TrendingProduct) error {
	m.Trending = products
	return nil
}

func (m *MockStore) ListTrending(ctx context.Context) ([]TrendingProduct, error) {
	return m.Trending, nil
}

type MockOrders struct {
	Orders []*order.Order
}

func (m *MockOrders) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	var out []*order.Order
	for _, o := range m.Orders {
		if !f.CreatedFrom.IsZero() && o.CreatedAt.Before(f.CreatedFrom) {
			continue
		}
		if !f.CreatedTo.IsZero() && !o.CreatedAt.Before(f.CreatedTo) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *MockOrders) CustomersBefore(ctx context.Context, userIDs []string, t time.Time) (map[string]bool, error) {
	result := map[string]bool{}
	for _, o := range m.Orders {
		if !o.CreatedAt.Before(t) {
			continue
		}
		for _, id := range userIDs {
			if o.UserID == id {
				result[id] = true
			}
		}
	}
	return result, nil
}
