package order

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/appetiteclub/catering/pkg/event"
)

func statsOrder(user string, status string, created time.Time, items ...Item) *Order {
	o := newOrder(created)
	o.UserID = user
	o.Status = status
	o.Items = items
	for _, it := range items {
		o.Total += it.Total
	}
	return o
}

func TestSummarize(t *testing.T) {
	box := Item{ProductID: "p-1", Name: "Box", Quantity: 2, Total: 3000}
	salad := Item{ProductID: "p-2", Name: "Salad", Quantity: 1, Total: 1001}

	orders := []*Order{
		statsOrder("u-1", "confirmed", testNow, box),
		statsOrder("u-1", "delivered", testNow, salad),
		statsOrder("u-2", "pending", testNow, box),
		statsOrder("u-3", "cancelled", testNow, box),
	}
	orders[0].PromoCodes = []string{"WELCOME10"}

	s := Summarize(orders)
	if s.Orders != 3 || s.Cancelled != 1 {
		t.Errorf("orders = %d cancelled = %d", s.Orders, s.Cancelled)
	}
	if s.Revenue != 7001 {
		t.Errorf("revenue = %d, want 7001", s.Revenue)
	}
	if s.Customers != 2 {
		t.Errorf("customers = %d, want 2", s.Customers)
	}
	if s.AverageOrderValue != 2334 {
		t.Errorf("average = %d, want 2334", s.AverageOrderValue)
	}
	if s.PromoCodesUsed != 1 {
		t.Errorf("promo codes = %d", s.PromoCodesUsed)
	}
}

func TestTopProducts(t *testing.T) {
	orders := []*Order{
		statsOrder("u-1", "confirmed", testNow,
			Item{ProductID: "a", Name: "Alpha", Quantity: 3, Total: 300},
			Item{ProductID: "b", Name: "Beta", Quantity: 5, Total: 500}),
		statsOrder("u-2", "confirmed", testNow,
			Item{ProductID: "a", Name: "Alpha", Quantity: 3, Total: 600},
			Item{ProductID: "c", Name: "Gamma", Quantity: 1, Total: 100}),
		statsOrder("u-3", "cancelled", testNow,
			Item{ProductID: "c", Name: "Gamma", Quantity: 50, Total: 5000}),
	}

	top := TopProducts(orders, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 products, got %d", len(top))
	}
	if top[0].ProductID != "a" || top[0].Quantity != 6 || top[0].Revenue != 900 {
		t.Errorf("first = %+v", top[0])
	}
	if top[1].ProductID != "b" {
		t.Errorf("second = %+v", top[1])
	}
}

func TestSalesByDay(t *testing.T) {
	d1 := time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	orders := []*Order{
		statsOrder("u-1", "confirmed", d1, Item{Quantity: 1, Total: 100}),
		statsOrder("u-1", "confirmed", d2, Item{Quantity: 1, Total: 200}),
		statsOrder("u-2", "confirmed", d2, Item{Quantity: 1, Total: 300}),
	}

	points := SalesByDay(orders, []string{"2025-03-08", "2025-03-09", "2025-03-10"})
	want := []DayPoint{
		{Date: "2025-03-08"},
		{Date: "2025-03-09", Orders: 1, Revenue: 100},
		{Date: "2025-03-10", Orders: 2, Revenue: 500},
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("points[%d] = %+v, want %+v", i, points[i], want[i])
		}
	}
}

func TestAdminDashboard(t *testing.T) {
	old := statsOrder("u-1", "delivered", testNow.AddDate(0, 0, -45), Item{ProductID: "x", Name: "Old", Quantity: 9, Total: 900})
	recent := statsOrder("u-2", "pending", testNow.Add(-2*time.Hour), Item{ProductID: "y", Name: "New", Quantity: 2, Total: 400})
	svc, _, _, _ := newTestService(old, recent)

	d, err := svc.AdminDashboard(context.Background())
	if err != nil {
		t.Fatalf("AdminDashboard() error = %v", err)
	}
	if d.TotalOrders != 2 || d.TotalRevenue != 1300 || d.TotalCustomers != 2 {
		t.Errorf("totals = %d %d %d", d.TotalOrders, d.TotalRevenue, d.TotalCustomers)
	}
	if d.PendingOrders != 1 {
		t.Errorf("pending = %d", d.PendingOrders)
	}
	if d.Last30Days.Orders != 1 || d.Last30Days.Revenue != 400 {
		t.Errorf("last 30 days = %+v", d.Last30Days)
	}
	if len(d.TopProducts) != 1 || d.TopProducts[0].ProductID != "y" {
		t.Errorf("top products = %+v", d.TopProducts)
	}
	if len(d.SalesChart) != 30 || d.SalesChart[29].Date != "2025-03-10" || d.SalesChart[29].Revenue != 400 {
		t.Errorf("unexpected chart tail: %+v", d.SalesChart[len(d.SalesChart)-1])
	}
	if len(d.RecentOrders) != 2 || d.RecentOrders[0].ID != recent.ID {
		t.Error("recent orders must be newest first")
	}
}

func TestSendWeeklyReport(t *testing.T) {
	inWeek := statsOrder("u-1", "confirmed", testNow.AddDate(0, 0, -3), Item{ProductID: "a", Name: "Alpha", Quantity: 4, Total: 4000})
	tooOld := statsOrder("u-2", "confirmed", testNow.AddDate(0, 0, -10), Item{ProductID: "b", Name: "Beta", Quantity: 1, Total: 100})
	svc, _, _, mail := newTestService(inWeek, tooOld)

	if err := svc.SendWeeklyReport(context.Background(), "admin@example.com"); err != nil {
		t.Fatalf("SendWeeklyReport() error = %v", err)
	}
	if len(mail.Sent) != 1 {
		t.Fatalf("expected one report, got %d", len(mail.Sent))
	}
	m := mail.Sent[0]
	if m.Kind != event.MailWeeklyReport || m.To[0] != "admin@example.com" {
		t.Errorf("unexpected mail: %+v", m)
	}
	if !strings.Contains(m.Body, "Orders:              1") || !strings.Contains(m.Body, "Alpha") || strings.Contains(m.Body, "Beta") {
		t.Errorf("unexpected body:\n%s", m.Body)
	}

	if err := svc.SendWeeklyReport(context.Background(), ""); err == nil {
		t.Error("expected an error without admin address")
	}
}
