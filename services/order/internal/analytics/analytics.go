// Package analytics computes the daily and trending reporting rows from orders.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/services/order/internal/order"
)

const (
	TrendingWindowDays = 7
	TrendingLimit      = 10
	defaultRangeDays   = 30
)

var ErrInvalidRange = errors.New("invalid date range")

type DailyAnalytics struct {
	Date               string    `json:"date"`
	TotalOrders        int       `json:"total_orders"`
	TotalRevenue       int64     `json:"total_revenue"`
	TotalCustomers     int       `json:"total_customers"`
	NewCustomers       int       `json:"new_customers"`
	ReturningCustomers int       `json:"returning_customers"`
	AverageOrderValue  int64     `json:"average_order_value"`
	MostSoldItem       string    `json:"most_sold_item,omitempty"`
	MostSoldQuantity   int       `json:"most_sold_quantity"`
	PromoCodesUsed     int       `json:"promo_codes_used"`
	CancelledOrders    int       `json:"cancelled_orders"`
	ComputedAt         time.Time `json:"computed_at"`
}

type TrendingProduct struct {
	Rank        int       `json:"rank"`
	ProductID   string    `json:"product_id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Revenue     int64     `json:"revenue"`
	PeriodStart string    `json:"period_start"`
	PeriodEnd   string    `json:"period_end"`
	ComputedAt  time.Time `json:"computed_at"`
}

type Store interface {
	UpsertDaily(ctx context.Context, d DailyAnalytics) error
	ListDaily(ctx context.Context, from, to string) ([]DailyAnalytics, error)
	ReplaceTrending(ctx context.Context, products []TrendingProduct) error
	ListTrending(ctx context.Context) ([]TrendingProduct, error)
}

// Orders is the part of the order store the reports read.
type Orders interface {
	List(ctx context.Context, f order.Filter) ([]*order.Order, error)
	CustomersBefore(ctx context.Context, userIDs []string, t time.Time) (map[string]bool, error)
}

type Service struct {
	store  Store
	orders Orders
	logger apt.Logger
	now    func() time.Time
}

func NewService(store Store, orders Orders, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{store: store, orders: orders, logger: logger, now: time.Now}
}

// ComputeDaily aggregates the orders created on date and upserts the row.
func (s *Service) ComputeDaily(ctx context.Context, date string) (*DailyAnalytics, error) {
	from, err := day.Parse(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	to := from.AddDate(0, 0, 1)

	orders, err := s.orders.List(ctx, order.Filter{CreatedFrom: from, CreatedTo: to})
	if err != nil {
		return nil, fmt.Errorf("list orders of %s: %w", date, err)
	}

	sum := order.Summarize(orders)
	returning, err := s.orders.CustomersBefore(ctx, sum.CustomerIDs, from)
	if err != nil {
		return nil, err
	}

	d := DailyAnalytics{
		Date:              date,
		TotalOrders:       sum.Orders,
		TotalRevenue:      sum.Revenue,
		TotalCustomers:    sum.Customers,
		AverageOrderValue: sum.AverageOrderValue,
		PromoCodesUsed:    sum.PromoCodesUsed,
		CancelledOrders:   sum.Cancelled,
		ComputedAt:        s.now().UTC(),
	}
	for _, id := range sum.CustomerIDs {
		if returning[id] {
			d.ReturningCustomers++
		}
	}
	d.NewCustomers = d.TotalCustomers - d.ReturningCustomers
	if top := order.TopProducts(orders, 1); len(top) == 1 {
		d.MostSoldItem = top[0].Name
		d.MostSoldQuantity = top[0].Quantity
	}

	if err := s.store.UpsertDaily(ctx, d); err != nil {
		return nil, fmt.Errorf("store daily analytics: %w", err)
	}
	s.logger.Info("daily analytics computed", "date", date, "orders", d.TotalOrders, "revenue", d.TotalRevenue)
	return &d, nil
}

// ComputeYesterday is the nightly job.
func (s *Service) ComputeYesterday(ctx context.Context) error {
	yesterday, err := day.Add(day.Today(s.now()), -1)
	if err != nil {
		return err
	}
	_, err = s.ComputeDaily(ctx, yesterday)
	return err
}

// ComputeTrending replaces the trending table with the best sellers of the last seven days.
func (s *Service) ComputeTrending(ctx context.Context) ([]TrendingProduct, error) {
	end := day.Today(s.now())
	start, err := day.Add(end, -TrendingWindowDays)
	if err != nil {
		return nil, err
	}
	from, _ := day.Parse(start)
	to, _ := day.Parse(end)

	orders, err := s.orders.List(ctx, order.Filter{CreatedFrom: from, CreatedTo: to})
	if err != nil {
		return nil, fmt.Errorf("list orders for trending: %w", err)
	}

	now := s.now().UTC()
	top := order.TopProducts(orders, TrendingLimit)
	products := make([]TrendingProduct, 0, len(top))
	for i, p := range top {
		products = append(products, TrendingProduct{
			Rank:        i + 1,
			ProductID:   p.ProductID,
			Name:        p.Name,
			Quantity:    p.Quantity,
			Revenue:     p.Revenue,
			PeriodStart: start,
			PeriodEnd:   end,
			ComputedAt:  now,
		})
	}
	if err := s.store.ReplaceTrending(ctx, products); err != nil {
		return nil, fmt.Errorf("store trending products: %w", err)
	}
	return products, nil
}

// Range returns stored rows between from and to inclusive, defaulting to the last 30 days.
func (s *Service) Range(ctx context.Context, from, to string) ([]DailyAnalytics, error) {
	var err error
	if to == "" {
		to = day.Today(s.now())
	}
	if from == "" {
		if from, err = day.Add(to, -defaultRangeDays); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
	}
	n, err := day.Between(from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: from is after to", ErrInvalidRange)
	}
	return s.store.ListDaily(ctx, from, to)
}

func (s *Service) Trending(ctx context.Context) ([]TrendingProduct, error) {
	return s.store.ListTrending(ctx)
}
