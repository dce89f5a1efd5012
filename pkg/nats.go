package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/nats-io/nats.go"
)

const DefaultNATSURL = "nats://localhost:4222"

// NATSURL returns the configured NATS URL or the local default.
func NATSURL(config *apt.Config) string {
	if config == nil {
		return DefaultNATSURL
	}
	return config.GetStringOrDef("nats.url", DefaultNATSURL)
}

func connectNATS(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to NATS at %s: %w", url, err)
	}
	return conn, nil
}

// NATSPublisher publishes fire-and-forget domain events on core NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url, name string) (*NATSPublisher, error) {
	conn, err := connectNATS(url, name+"-publisher")
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if err := p.conn.Publish(topic, msg); err != nil {
		return fmt.Errorf("cannot publish to %s: %w", topic, err)
	}
	return nil
}

func (p *NATSPublisher) Start(ctx context.Context) error {
	return nil
}

func (p *NATSPublisher) Stop(ctx context.Context) error {
	return p.conn.Drain()
}

// NATSSubscriber delivers core NATS messages to handlers. Handler errors are logged,
// core subjects have no redelivery.
type NATSSubscriber struct {
	conn   *nats.Conn
	logger apt.Logger
	subs   []*nats.Subscription
}

func NewNATSSubscriber(url, name string, logger apt.Logger) (*NATSSubscriber, error) {
	conn, err := connectNATS(url, name+"-subscriber")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &NATSSubscriber{conn: conn, logger: logger}, nil
}

func (s *NATSSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		if err := handler(ctx, msg.Data); err != nil {
			s.logger.Errorf("handler for %s failed: %v", topic, err)
		}
	})
	if err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", topic, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *NATSSubscriber) Start(ctx context.Context) error {
	return nil
}

func (s *NATSSubscriber) Stop(ctx context.Context) error {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	return s.conn.Drain()
}
