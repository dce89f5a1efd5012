package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/catering/pkg/event"
)

// MailQueue enqueues mail jobs for the notification service.
type MailQueue interface {
	Enqueue(ctx context.Context, msg event.MailMessage) error
}

type jsonPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// MailPublisher routes each mail by its kind.
type MailPublisher struct {
	publisher jsonPublisher
}

func NewMailPublisher(publisher jsonPublisher) *MailPublisher {
	return &MailPublisher{publisher: publisher}
}

func (m *MailPublisher) Enqueue(ctx context.Context, msg event.MailMessage) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mail %s has no recipient", msg.Kind)
	}
	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now().UTC()
	}
	return m.publisher.PublishJSON(ctx, msg.Kind, msg)
}

// NoopMailQueue drops every mail, used when no broker is configured.
type NoopMailQueue struct {
	logger apt.Logger
}

func NewNoopMailQueue(logger apt.Logger) *NoopMailQueue {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &NoopMailQueue{logger: logger}
}

func (n *NoopMailQueue) Enqueue(ctx context.Context, msg event.MailMessage) error {
	n.logger.Debug("mail dropped, no broker configured", "kind", msg.Kind, "subject", msg.Subject)
	return nil
}

// MailQueueFromConfig connects to rabbitmq.url when set and falls back to a noop queue.
// The returned lifecycle is nil for the noop queue.
func MailQueueFromConfig(config *apt.Config, logger apt.Logger) (MailQueue, *Publisher, error) {
	url, ok := config.GetString("rabbitmq.url")
	if !ok || url == "" {
		return NewNoopMailQueue(logger), nil, nil
	}
	exchange := config.GetStringOrDef("rabbitmq.exchange", DefaultExchange)
	publisher, err := NewPublisher(url, exchange)
	if err != nil {
		return nil, nil, err
	}
	return NewMailPublisher(publisher), publisher, nil
}
