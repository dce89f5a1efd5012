package notification

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/services/notification/internal/mailer"
)

type MockSender struct {
	mu   sync.Mutex
	sent []mailer.Mail
	// errs are returned by the next calls in order, then nil.
	errs []error
}

func (m *MockSender) Send(ctx context.Context, mail mailer.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return err
		}
	}
	m.sent = append(m.sent, mail)
	return nil
}

func (m *MockSender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// MockAcker records how each delivery tag was settled.
type MockAcker struct {
	mu       sync.Mutex
	outcomes map[uint64]Outcome
	done     chan struct{}
	expected int
}

func newMockAcker(expected int) *MockAcker {
	return &MockAcker{outcomes: map[uint64]Outcome{}, done: make(chan struct{}), expected: expected}
}

func (m *MockAcker) settle(tag uint64, o Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[tag] = o
	if len(m.outcomes) == m.expected {
		close(m.done)
	}
	return nil
}

func (m *MockAcker) Ack(tag uint64, multiple bool) error {
	return m.settle(tag, Ack)
}

func (m *MockAcker) Nack(tag uint64, multiple, requeue bool) error {
	if requeue {
		return m.settle(tag, Requeue)
	}
	return m.settle(tag, Drop)
}

func (m *MockAcker) Reject(tag uint64, requeue bool) error {
	return m.Nack(tag, false, requeue)
}

func (m *MockAcker) wait(t *testing.T) map[uint64]Outcome {
	t.Helper()
	select {
	case <-m.done:
	case <-time.After(5 * time.Second):
		t.Fatal("deliveries were not settled in time")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uint64]Outcome{}
	for k, v := range m.outcomes {
		out[k] = v
	}
	return out
}

type MockSource struct {
	deliveries chan amqp.Delivery
	closed     bool
}

func (m *MockSource) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	return m.deliveries, nil
}

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

func delivery(t *testing.T, acker amqp.Acknowledger, tag uint64, msg any) amqp.Delivery {
	t.Helper()
	var body []byte
	switch v := msg.(type) {
	case []byte:
		body = v
	default:
		var err error
		if body, err = json.Marshal(v); err != nil {
			t.Fatal(err)
		}
	}
	return amqp.Delivery{Acknowledger: acker, DeliveryTag: tag, Body: body}
}

func welcome(to string) event.MailMessage {
	return event.MailMessage{
		Kind:    event.MailWelcome,
		To:      []string{to},
		Subject: "Welcome",
		Body:    "Your promo code is BIENVENUE10.",
	}
}

func confirmation() event.MailMessage {
	return event.MailMessage{
		Kind:    event.MailOrderConfirmation,
		To:      []string{"lea@example.com"},
		Subject: "Order CMD-20250301-000001 received",
		Body:    "Thank you.",
		Order: &event.OrderSnapshot{
			Number:    "CMD-20250301-000001",
			FirstName: "Lea",
			LastName:  "Martin",
			Items:     []event.OrderItemSnapshot{{Name: "Lunch box", Quantity: 2, UnitPrice: 1500, Total: 3000}},
			Subtotal:  3000,
			Tax:       450,
			Total:     3450,
		},
	}
}

func newTestComposer() *Composer {
	c := NewComposer("Catering <noreply@catering.local>", "http://catering.local/")
	c.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return c
}
