package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/orderclient"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestService(orders ...*Order) (*Service, *MockRepo, *MockPublisher, *MockMailQueue) {
	repo := NewMockRepo(orders...)
	pub := &MockPublisher{}
	mail := &MockMailQueue{}
	svc := NewService(repo, pub, mail, "https://shop.example.com/", nil)
	svc.now = func() time.Time { return testNow }
	return svc, repo, pub, mail
}

func validRequest() orderclient.CreateRequest {
	return orderclient.CreateRequest{
		UserID:       "user-1",
		DeliveryType: DeliveryTypeDelivery,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		Phone:        "555-0100",
		Address:      "12 Main St",
		PostalCode:   "H2X 1Y4",
		City:         "Montreal",
		DeliveryDate: "2025-03-12",
		DeliveryTime: "11:30",
		Items: []orderclient.ItemRequest{
			{ProductID: "p-1", Name: "Chicken Box", Department: "boxes", Quantity: 3, UnitPrice: 1650},
			{ProductID: "p-2", Name: "Salad", Department: "salads", Quantity: 2, UnitPrice: 1250},
		},
		Subtotal: 7450,
		Tax:      1117,
		Total:    8567,
	}
}

func testOrder(status string) *Order {
	o := newOrder(testNow.Add(-time.Hour))
	o.Number = FormatNumber(testNow, 1)
	o.UserID = "user-1"
	o.Status = status
	o.DeliveryType = DeliveryTypeDelivery
	o.FirstName = "Ada"
	o.Email = "ada@example.com"
	o.DeliveryDate = "2025-03-11"
	o.DeliveryTime = "10:00"
	o.Items = []Item{{ProductID: "p-1", Name: "Chicken Box", Quantity: 2, UnitPrice: 1650, Total: 3300}}
	o.Total = 3300
	return o
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(testNow, 42); got != "CMD-20250310-000042" {
		t.Errorf("FormatNumber() = %s", got)
	}
}

func TestServiceCreate(t *testing.T) {
	svc, _, pub, mail := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, validRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := svc.Create(ctx, validRequest())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if first.Number != "CMD-20250310-000001" || second.Number != "CMD-20250310-000002" {
		t.Errorf("numbers = %s, %s", first.Number, second.Number)
	}
	if first.Status != orderstatus.Statuses.Pending.Name {
		t.Errorf("status = %s, want pending", first.Status)
	}
	if first.Items[0].Total != 4950 {
		t.Errorf("line total = %d, want 4950", first.Items[0].Total)
	}
	if first.Total != 8567 {
		t.Errorf("total = %d, want the checkout total", first.Total)
	}

	topics := pub.Topics()
	if len(topics) != 2 || topics[0] != event.OrdersCreatedTopic {
		t.Errorf("published topics = %v", topics)
	}
	var evt event.OrderCreatedEvent
	if err := json.Unmarshal(pub.Messages[0].Data, &evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if evt.Order.Number != first.Number || len(evt.Order.Items) != 2 {
		t.Errorf("unexpected event snapshot: %+v", evt.Order)
	}

	if len(mail.Sent) != 2 {
		t.Fatalf("expected 2 confirmation mails, got %d", len(mail.Sent))
	}
	m := mail.Sent[0]
	if m.Kind != event.MailOrderConfirmation || m.Order == nil || m.Order.Number != first.Number {
		t.Errorf("unexpected confirmation mail: %+v", m)
	}
}

func TestServiceCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *orderclient.CreateRequest)
	}{
		{name: "missingEmail", mutate: func(r *orderclient.CreateRequest) { r.Email = "" }},
		{name: "badDate", mutate: func(r *orderclient.CreateRequest) { r.DeliveryDate = "12/03/2025" }},
		{name: "badTime", mutate: func(r *orderclient.CreateRequest) { r.DeliveryTime = "noon" }},
		{name: "deliveryWithoutAddress", mutate: func(r *orderclient.CreateRequest) { r.Address = "" }},
		{name: "unknownType", mutate: func(r *orderclient.CreateRequest) { r.DeliveryType = "drone" }},
		{name: "noItems", mutate: func(r *orderclient.CreateRequest) { r.Items = nil }},
		{name: "zeroQuantity", mutate: func(r *orderclient.CreateRequest) { r.Items[0].Quantity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newTestService()
			req := validRequest()
			tt.mutate(&req)
			if _, err := svc.Create(context.Background(), req); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	t.Run("pickupNeedsNoAddress", func(t *testing.T) {
		svc, _, _, _ := newTestService()
		req := validRequest()
		req.DeliveryType = DeliveryTypePickup
		req.Address, req.City, req.PostalCode = "", "", ""
		if _, err := svc.Create(context.Background(), req); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestServiceChangeStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{name: "pendingToConfirmed", from: "pending", to: "confirmed"},
		{name: "pendingToCancelled", from: "pending", to: "cancelled"},
		{name: "confirmedToPreparing", from: "confirmed", to: "preparing"},
		{name: "preparingToReady", from: "preparing", to: "ready"},
		{name: "preparingToCancelled", from: "preparing", to: "cancelled"},
		{name: "readyToDelivered", from: "ready", to: "delivered"},
		{name: "pendingToReady", from: "pending", to: "ready", wantErr: true},
		{name: "readyToCancelled", from: "ready", to: "cancelled", wantErr: true},
		{name: "deliveredToPending", from: "delivered", to: "pending", wantErr: true},
		{name: "cancelledToConfirmed", from: "cancelled", to: "confirmed", wantErr: true},
		{name: "unknownStatus", from: "pending", to: "shipped", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOrder(tt.from)
			svc, _, pub, mail := newTestService(o)

			got, err := svc.ChangeStatus(context.Background(), o.ID, tt.to, "admin-1")
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
				if len(pub.Messages) != 0 || len(mail.Sent) != 0 {
					t.Error("rejected transition must not notify")
				}
				return
			}
			if err != nil {
				t.Fatalf("ChangeStatus() error = %v", err)
			}
			if got.Status != tt.to {
				t.Errorf("status = %s, want %s", got.Status, tt.to)
			}
			if len(got.History) != 1 || got.History[0].From != tt.from || got.History[0].ChangedBy != "admin-1" {
				t.Errorf("unexpected history: %+v", got.History)
			}

			var evt event.OrderStatusChangedEvent
			if err := json.Unmarshal(pub.Messages[0].Data, &evt); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			if pub.Messages[0].Topic != event.OrdersStatusChangedTopic || evt.PreviousStatus != tt.from || evt.NewStatus != tt.to {
				t.Errorf("unexpected event: %s %+v", pub.Messages[0].Topic, evt)
			}
			if evt.Order.Email != "ada@example.com" {
				t.Error("event must carry the full order snapshot")
			}
			if len(mail.Sent) != 1 || mail.Sent[0].Kind != event.MailOrderStatus {
				t.Errorf("unexpected mails: %+v", mail.Sent)
			}
		})
	}
}

func TestServiceCancelByCustomer(t *testing.T) {
	owner := auth.Principal{UserID: "user-1", Role: "customer"}
	other := auth.Principal{UserID: "user-2", Role: "customer"}

	tests := []struct {
		name    string
		status  string
		who     auth.Principal
		wantErr error
	}{
		{name: "ownerPending", status: "pending", who: owner},
		{name: "ownerConfirmed", status: "confirmed", who: owner, wantErr: ErrInvalidTransition},
		{name: "otherCustomer", status: "pending", who: other, wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOrder(tt.status)
			svc, _, _, _ := newTestService(o)
			got, err := svc.CancelByCustomer(context.Background(), tt.who, o.ID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CancelByCustomer() error = %v", err)
			}
			if got.Status != orderstatus.Statuses.Cancelled.Name {
				t.Errorf("status = %s", got.Status)
			}
		})
	}
}

func TestServiceListFor(t *testing.T) {
	mine := testOrder("pending")
	theirs := testOrder("confirmed")
	theirs.UserID = "user-2"
	theirs.Number = FormatNumber(testNow, 2)
	svc, _, _, _ := newTestService(mine, theirs)
	ctx := context.Background()

	customer, err := svc.ListFor(ctx, auth.Principal{UserID: "user-1", Role: "customer"}, Filter{UserID: "user-2"})
	if err != nil {
		t.Fatalf("ListFor() error = %v", err)
	}
	if len(customer) != 1 || customer[0].ID != mine.ID {
		t.Errorf("customer must only see own orders, got %d", len(customer))
	}

	staff, _ := svc.ListFor(ctx, auth.Principal{UserID: "s-1", Role: "staff"}, Filter{Statuses: []string{"confirmed"}})
	if len(staff) != 1 || staff[0].ID != theirs.ID {
		t.Errorf("staff filter by status failed, got %d", len(staff))
	}

	if _, err := svc.GetFor(ctx, auth.Principal{UserID: "user-1", Role: "customer"}, theirs.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a foreign order, got %v", err)
	}
}

func TestServiceMarkPaid(t *testing.T) {
	o := testOrder("pending")
	svc, _, pub, _ := newTestService(o)
	ctx := context.Background()

	got, err := svc.MarkPaid(ctx, o.ID, "chrg_1", "card")
	if err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if !got.IsPaid || got.PaymentID != "chrg_1" || got.PaidAt == nil {
		t.Errorf("unexpected payment state: %+v", got)
	}
	if topics := pub.Topics(); len(topics) != 1 || topics[0] != event.OrdersPaidTopic {
		t.Errorf("published = %v", topics)
	}

	if _, err := svc.MarkPaid(ctx, o.ID, "chrg_2", "card"); !errors.Is(err, ErrAlreadyPaid) {
		t.Errorf("expected ErrAlreadyPaid, got %v", err)
	}
}

func TestServiceMarkDelivered(t *testing.T) {
	tests := []struct {
		name      string
		from      string
		wantErr   error
		wantMails int
	}{
		{name: "fromConfirmed", from: "confirmed", wantMails: 1},
		{name: "fromPreparing", from: "preparing", wantMails: 1},
		{name: "fromReady", from: "ready", wantMails: 1},
		{name: "alreadyDelivered", from: "delivered"},
		{name: "pendingRejected", from: "pending", wantErr: ErrInvalidTransition},
		{name: "cancelledRejected", from: "cancelled", wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOrder(tt.from)
			svc, _, pub, mail := newTestService(o)

			got, err := svc.MarkDelivered(context.Background(), o.ID, "driver-1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MarkDelivered() error = %v", err)
			}
			if got.Status != orderstatus.Statuses.Delivered.Name {
				t.Errorf("status = %s", got.Status)
			}
			if len(mail.Sent) != tt.wantMails || len(pub.Messages) != tt.wantMails {
				t.Errorf("mails = %d events = %d, want %d", len(mail.Sent), len(pub.Messages), tt.wantMails)
			}
			if tt.wantMails == 1 && (len(got.History) != 1 || got.History[0].From != tt.from) {
				t.Errorf("history = %+v", got.History)
			}
		})
	}
}

func TestServiceChangeStatusRejectsStaleOrder(t *testing.T) {
	o := testOrder("pending")
	svc, repo, pub, mail := newTestService(o)
	repo.BeforeWrite = func(stored *Order) {
		stored.Status = orderstatus.Statuses.Cancelled.Name
	}

	_, err := svc.ChangeStatus(context.Background(), o.ID, "confirmed", "admin-1")
	if !errors.Is(err, ErrStatusChanged) || !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrStatusChanged, got %v", err)
	}
	if len(pub.Messages) != 0 || len(mail.Sent) != 0 {
		t.Error("lost write must not notify")
	}
	stored, _ := repo.Get(context.Background(), o.ID)
	if stored.Status != orderstatus.Statuses.Cancelled.Name {
		t.Errorf("status = %s, want cancelled", stored.Status)
	}
}

func TestServiceMarkPaidKeepsConcurrentStatus(t *testing.T) {
	o := testOrder("pending")
	svc, repo, _, _ := newTestService(o)
	repo.BeforeWrite = func(stored *Order) {
		stored.Status = orderstatus.Statuses.Confirmed.Name
		stored.History = append(stored.History, StatusChange{From: "pending", To: "confirmed"})
	}

	if _, err := svc.MarkPaid(context.Background(), o.ID, "chrg_1", "card"); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	stored, _ := repo.Get(context.Background(), o.ID)
	if stored.Status != orderstatus.Statuses.Confirmed.Name || len(stored.History) != 1 {
		t.Errorf("status = %s history = %d, want the concurrent confirm kept", stored.Status, len(stored.History))
	}
	if !stored.IsPaid || stored.PaymentID != "chrg_1" {
		t.Errorf("payment not stored: %+v", stored)
	}
}

func TestServiceTrack(t *testing.T) {
	o := testOrder("preparing")
	svc, _, _, _ := newTestService(o)

	tr, err := svc.Track(context.Background(), " cmd-20250310-000001 ")
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if tr.Status != "preparing" || tr.StatusLabel != "Preparing" || tr.ItemCount != 2 {
		t.Errorf("unexpected tracking: %+v", tr)
	}

	if _, err := svc.Track(context.Background(), "CMD-19990101-000001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceSendReminders(t *testing.T) {
	due := testOrder("confirmed")
	preparing := testOrder("preparing")
	preparing.Email = "bob@example.com"
	pending := testOrder("pending")
	later := testOrder("confirmed")
	later.DeliveryDate = "2025-03-14"
	svc, _, _, mail := newTestService(due, preparing, pending, later)

	if err := svc.SendReminders(context.Background()); err != nil {
		t.Fatalf("SendReminders() error = %v", err)
	}
	if len(mail.Sent) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(mail.Sent))
	}
	for _, m := range mail.Sent {
		if m.Kind != event.MailOrderReminder {
			t.Errorf("kind = %s", m.Kind)
		}
	}
}
