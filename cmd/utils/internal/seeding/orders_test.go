package seeding

import (
	"testing"
	"time"

	"github.com/appetiteclub/catering/pkg/enums/department"
	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
)

func TestDemoOrders(t *testing.T) {
	now := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)

	plans, err := DemoOrders(now)
	if err != nil {
		t.Fatalf("DemoOrders() error = %v", err)
	}
	if len(plans) != 5 {
		t.Fatalf("len(plans) = %d, want 5", len(plans))
	}

	dates := map[string]bool{}
	for _, p := range plans {
		req := p.Request
		dates[req.DeliveryDate] = true

		if !IsDemoEmail(req.Email) {
			t.Errorf("%s is not a demo address", req.Email)
		}
		if len(req.Items) == 0 {
			t.Errorf("%s has no items", req.Email)
		}

		var subtotal int64
		for _, it := range req.Items {
			if department.ByName(it.Department) == nil {
				t.Errorf("unknown department %q", it.Department)
			}
			subtotal += it.UnitPrice * int64(it.Quantity)
		}
		if req.Subtotal != subtotal {
			t.Errorf("%s subtotal = %d, want %d", req.Email, req.Subtotal, subtotal)
		}
		if req.Total != req.Subtotal+req.Tax+req.DeliveryFee {
			t.Errorf("%s total = %d does not add up", req.Email, req.Total)
		}
		if req.DeliveryType == "pickup" && (req.Address != "" || req.DeliveryFee != 0) {
			t.Errorf("%s pickup carries an address or fee", req.Email)
		}

		from := orderstatus.Statuses.Pending.Name
		for _, to := range p.Path {
			if !orderstatus.CanTransition(from, to) {
				t.Errorf("%s path %s -> %s is not allowed", req.Email, from, to)
			}
			from = to
		}
	}

	for _, want := range []string{"2025-03-10", "2025-03-11", "2025-03-12"} {
		if !dates[want] {
			t.Errorf("no demo order on %s", want)
		}
	}
}

func TestDemoOrdersTax(t *testing.T) {
	plans, _ := DemoOrders(time.Now())
	// Sandwich tray: 39.00 pickup, 14.975% tax.
	req := plans[3].Request
	if req.Subtotal != 3900 || req.Tax != 584 || req.DeliveryFee != 0 {
		t.Errorf("subtotal=%d tax=%d fee=%d", req.Subtotal, req.Tax, req.DeliveryFee)
	}
}

func TestIsDemoEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{email: "claire.dubois@demo.catering.test", want: true},
		{email: "Claire.Dubois@DEMO.catering.test", want: true},
		{email: "claire@example.com", want: false},
		{email: "demo.catering.test@example.com", want: false},
		{email: "x@demoXcatering.test", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsDemoEmail(tt.email); got != tt.want {
				t.Errorf("IsDemoEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestPlanFinalStatus(t *testing.T) {
	if got := (Plan{}).FinalStatus(); got != "pending" {
		t.Errorf("empty path = %q, want pending", got)
	}
	if got := (Plan{Path: []string{"confirmed", "preparing"}}).FinalStatus(); got != "preparing" {
		t.Errorf("FinalStatus() = %q, want preparing", got)
	}
}
