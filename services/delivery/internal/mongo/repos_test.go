package mongo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/appetiteclub/catering/pkg/mongodb"
	"github.com/appetiteclub/catering/services/delivery/internal/delivery"
)

func TestDeliveryFilter(t *testing.T) {
	tests := []struct {
		name string
		in   delivery.Filter
		want []string
	}{
		{name: "empty", in: delivery.Filter{}, want: nil},
		{name: "date", in: delivery.Filter{Date: "2025-03-10", From: "2025-03-01"}, want: []string{"scheduled_date"}},
		{name: "range", in: delivery.Filter{From: "2025-03-01", To: "2025-03-31"}, want: []string{"scheduled_date"}},
		{name: "driverAndStatus", in: delivery.Filter{DriverID: "d-1", Statuses: []string{"assigned"}}, want: []string{"driver_id", "status"}},
		{name: "ids", in: delivery.Filter{IDs: []uuid.UUID{uuid.New()}, OrderID: "o-1"}, want: []string{"_id", "order_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DeliveryFilter(tt.in)
			if len(f) != len(tt.want) {
				t.Fatalf("DeliveryFilter() = %v, want keys %v", f, tt.want)
			}
			for _, k := range tt.want {
				if _, ok := f[k]; !ok {
					t.Errorf("missing key %s in %v", k, f)
				}
			}
		})
	}

	if f := DeliveryFilter(delivery.Filter{Date: "2025-03-10", From: "2025-03-01"}); f["scheduled_date"] != "2025-03-10" {
		t.Errorf("exact date must win over range: %v", f)
	}
	r := DeliveryFilter(delivery.Filter{From: "2025-03-01", To: "2025-03-31"})["scheduled_date"].(bson.M)
	if r["$gte"] != "2025-03-01" || r["$lte"] != "2025-03-31" {
		t.Errorf("range = %v", r)
	}
}

func TestRecipient(t *testing.T) {
	f := recipient("driver", "u-1")
	if f["recipient_role"] != "driver" {
		t.Errorf("recipient_role = %v", f["recipient_role"])
	}
	in := f["recipient_id"].(bson.M)["$in"].(bson.A)
	if len(in) != 2 || in[0] != "u-1" || in[1] != nil {
		t.Errorf("recipient_id = %v", in)
	}
}

func TestVersionedErrors(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "missing", in: fmt.Errorf("delivery: %w", mongodb.ErrMissing), want: delivery.ErrNotFound},
		{name: "conflict", in: fmt.Errorf("route: %w", mongodb.ErrConflict), want: delivery.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := versioned(tt.in); !errors.Is(got, tt.want) {
				t.Errorf("versioned(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	other := errors.New("network down")
	if got := versioned(other); got != other {
		t.Errorf("versioned(other) = %v", got)
	}
}
