package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/appetiteclub/apt/events"

	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/services/kitchen/internal/kitchen"
)

type mockSubscriber struct {
	handlers map[string]events.HandlerFunc
}

func (m *mockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	m.handlers[topic] = handler
	return nil
}

type mockDispatcher struct {
	added     []string
	cancelled []string
	addErr    error
}

func (m *mockDispatcher) AddOrder(ctx context.Context, o event.OrderSnapshot) (int, error) {
	if m.addErr != nil {
		return 0, m.addErr
	}
	m.added = append(m.added, o.Number)
	return len(o.Items), nil
}

func (m *mockDispatcher) CancelOrder(ctx context.Context, orderID string) (int, error) {
	m.cancelled = append(m.cancelled, orderID)
	return 1, nil
}

func statusEvent(t *testing.T, status string) []byte {
	t.Helper()
	msg, err := json.Marshal(event.OrderStatusChangedEvent{
		EventType: event.EventOrderStatusChanged,
		NewStatus: status,
		Order:     event.OrderSnapshot{ID: "o-1", Number: "CMD-20250310-000001"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestOrderSubscriber(t *testing.T) {
	tests := []struct {
		name          string
		msg           func(t *testing.T) []byte
		addErr        error
		wantErr       bool
		wantAdded     int
		wantCancelled int
	}{
		{name: "confirmed", msg: func(t *testing.T) []byte { return statusEvent(t, "confirmed") }, wantAdded: 1},
		{name: "cancelled", msg: func(t *testing.T) []byte { return statusEvent(t, "cancelled") }, wantCancelled: 1},
		{name: "otherStatus", msg: func(t *testing.T) []byte { return statusEvent(t, "delivered") }},
		{name: "garbage", msg: func(t *testing.T) []byte { return []byte("{not json") }},
		{name: "invalidOrderSkipped", msg: func(t *testing.T) []byte { return statusEvent(t, "confirmed") },
			addErr: fmt.Errorf("%w: no date", kitchen.ErrInvalidInput)},
		{name: "storeFailureRedelivers", msg: func(t *testing.T) []byte { return statusEvent(t, "confirmed") },
			addErr: errors.New("mongo down"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &mockSubscriber{handlers: map[string]events.HandlerFunc{}}
			dispatcher := &mockDispatcher{addErr: tt.addErr}
			s := NewOrderSubscriber(sub, dispatcher, nil)
			if err := s.Start(context.Background()); err != nil {
				t.Fatalf("Start() error = %v", err)
			}

			handler := sub.handlers[event.OrdersStatusChangedTopic]
			if handler == nil {
				t.Fatal("no handler registered")
			}
			err := handler(context.Background(), tt.msg(t))
			if (err != nil) != tt.wantErr {
				t.Errorf("handler error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(dispatcher.added) != tt.wantAdded || len(dispatcher.cancelled) != tt.wantCancelled {
				t.Errorf("added %v cancelled %v", dispatcher.added, dispatcher.cancelled)
			}
		})
	}
}
