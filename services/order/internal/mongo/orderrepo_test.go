package mongo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/appetiteclub/catering/services/order/internal/order"
)

func TestOrderFilter(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		in    order.Filter
		check func(t *testing.T, f bson.M)
	}{
		{
			name: "empty",
			in:   order.Filter{},
			check: func(t *testing.T, f bson.M) {
				if len(f) != 0 {
					t.Errorf("expected empty filter, got %v", f)
				}
			},
		},
		{
			name: "singleStatus",
			in:   order.Filter{Statuses: []string{"pending"}},
			check: func(t *testing.T, f bson.M) {
				if f["status"] != "pending" {
					t.Errorf("status = %v", f["status"])
				}
			},
		},
		{
			name: "manyStatuses",
			in:   order.Filter{Statuses: []string{"confirmed", "preparing"}, DeliveryDate: "2025-03-10"},
			check: func(t *testing.T, f bson.M) {
				in, ok := f["status"].(bson.M)
				if !ok || len(in["$in"].([]string)) != 2 {
					t.Errorf("status = %v", f["status"])
				}
				if f["delivery_date"] != "2025-03-10" {
					t.Errorf("delivery_date = %v", f["delivery_date"])
				}
			},
		},
		{
			name: "createdRangeAndQuery",
			in:   order.Filter{CreatedFrom: from, CreatedTo: from.AddDate(0, 0, 7), Query: "CMD-2025"},
			check: func(t *testing.T, f bson.M) {
				created := f["created_at"].(bson.M)
				if created["$gte"] != from {
					t.Errorf("$gte = %v", created["$gte"])
				}
				if _, ok := created["$lt"]; !ok {
					t.Error("expected $lt bound")
				}
				if or, ok := f["$or"].(bson.A); !ok || len(or) != 5 {
					t.Errorf("$or = %v", f["$or"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, OrderFilter(tt.in))
		})
	}
}

func TestSaveFilterGuardsStatus(t *testing.T) {
	id := uuid.New()
	f := SaveFilter(id, "pending")
	if f["_id"] != id || f["status"] != "pending" {
		t.Errorf("filter = %v", f)
	}
}

func TestPaymentUpdateLeavesStatusAlone(t *testing.T) {
	paidAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	o := &order.Order{
		ID:        uuid.New(),
		Status:    "pending",
		History:   []order.StatusChange{},
		PaymentID: "chrg_1",
		PaidAt:    &paidAt,
		UpdatedAt: paidAt,
	}

	filter, update := PaymentUpdate(o)
	if filter["_id"] != o.ID {
		t.Errorf("filter _id = %v", filter["_id"])
	}
	if unpaid, ok := filter["is_paid"].(bson.M); !ok || unpaid["$ne"] != true {
		t.Errorf("filter is_paid = %v", filter["is_paid"])
	}

	set := update["$set"].(bson.M)
	for _, field := range []string{"status", "history", "items", "total"} {
		if _, ok := set[field]; ok {
			t.Errorf("payment update writes %s", field)
		}
	}
	if set["payment_id"] != "chrg_1" || set["is_paid"] != true {
		t.Errorf("set = %v", set)
	}
	if _, ok := set["payment_method"]; ok {
		t.Error("empty payment method must keep the stored one")
	}
}
