package order

import (
	"context"
	"fmt"
	"sort"

	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
	"github.com/appetiteclub/catering/pkg/event"
)

const (
	dashboardWindowDays = 30
	recentOrdersLimit   = 10
	topProductsLimit    = 5
)

type AdminDashboard struct {
	TotalOrders    int            `json:"total_orders"`
	TotalRevenue   int64          `json:"total_revenue"`
	TotalCustomers int            `json:"total_customers"`
	PendingOrders  int            `json:"pending_orders"`
	Last30Days     Summary        `json:"last_30_days"`
	TopProducts    []ProductSales `json:"top_products"`
	SalesChart     []DayPoint     `json:"sales_chart"`
	RecentOrders   []*Order       `json:"recent_orders"`
}

func (s *Service) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	all, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	now := s.now()
	today := day.Today(now)
	days := make([]string, 0, dashboardWindowDays)
	for i := dashboardWindowDays - 1; i >= 0; i-- {
		d, err := day.Add(today, -i)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	from, _ := day.Parse(days[0])

	var window []*Order
	pending := 0
	for _, o := range all {
		if o.Status == orderstatus.Statuses.Pending.Name {
			pending++
		}
		if !o.CreatedAt.Before(from) {
			window = append(window, o)
		}
	}

	total := Summarize(all)
	recent := append([]*Order(nil), all...)
	sort.Slice(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentOrdersLimit {
		recent = recent[:recentOrdersLimit]
	}

	return &AdminDashboard{
		TotalOrders:    total.Orders,
		TotalRevenue:   total.Revenue,
		TotalCustomers: total.Customers,
		PendingOrders:  pending,
		Last30Days:     Summarize(window),
		TopProducts:    TopProducts(window, topProductsLimit),
		SalesChart:     SalesByDay(window, days),
		RecentOrders:   recent,
	}, nil
}

// SendWeeklyReport mails the admin a summary of the seven days before today.
func (s *Service) SendWeeklyReport(ctx context.Context, adminEmail string) error {
	if adminEmail == "" {
		return fmt.Errorf("weekly report: no admin address configured")
	}
	today := day.Today(s.now())
	start, err := day.Add(today, -7)
	if err != nil {
		return err
	}
	from, _ := day.Parse(start)
	to, _ := day.Parse(today)

	orders, err := s.repo.List(ctx, Filter{CreatedFrom: from, CreatedTo: to})
	if err != nil {
		return fmt.Errorf("list orders for weekly report: %w", err)
	}

	sum := Summarize(orders)
	top := TopProducts(orders, topProductsLimit)
	return s.mail.Enqueue(ctx, event.MailMessage{
		Kind:    event.MailWeeklyReport,
		To:      []string{adminEmail},
		Subject: fmt.Sprintf("Weekly report %s to %s", start, today),
		Body:    weeklyReportBody(start, today, sum, top),
	})
}
