package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStream is a JetStream backed publisher and durable subscriber. Services that must not
// miss a message (delivery creation, kitchen dispatch) consume the order stream through it.
type NATSStream struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	stream   jetstream.Stream
	consumer jetstream.Consumer
	consume  jetstream.ConsumeContext
	logger   apt.Logger
}

type NATSStreamConfig struct {
	URL          string
	StreamName   string   // e.g. "CATERING_ORDERS"
	Subjects     []string // e.g. "orders.>"
	ConsumerName string   // durable name, empty for publish-only streams
	FilterTopic  string
	MaxAge       time.Duration
	MaxDeliver   int
}

// OrderStreamConfig is the shared layout of the order lifecycle stream.
func OrderStreamConfig(url, consumer string) NATSStreamConfig {
	return NATSStreamConfig{
		URL:          url,
		StreamName:   "CATERING_ORDERS",
		Subjects:     []string{"orders.>"},
		ConsumerName: consumer,
		MaxAge:       7 * 24 * time.Hour,
		MaxDeliver:   5,
	}
}

func NewNATSStream(ctx context.Context, cfg NATSStreamConfig, logger apt.Logger) (*NATSStream, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	conn, err := connectNATS(cfg.URL, cfg.StreamName+"-"+cfg.ConsumerName)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot create JetStream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: cfg.Subjects,
		MaxAge:   cfg.MaxAge,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot create stream %s: %w", cfg.StreamName, err)
	}

	s := &NATSStream{conn: conn, js: js, stream: stream, logger: logger}
	if cfg.ConsumerName == "" {
		return s, nil
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          cfg.ConsumerName,
		Durable:       cfg.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		FilterSubject: cfg.FilterTopic,
		MaxDeliver:    cfg.MaxDeliver,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot create consumer %s: %w", cfg.ConsumerName, err)
	}
	s.consumer = consumer

	return s, nil
}

func (s *NATSStream) Publish(ctx context.Context, topic string, msg []byte) error {
	if _, err := s.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("cannot publish to stream subject %s: %w", topic, err)
	}
	return nil
}

// Subscribe consumes the durable consumer. The topic argument is informational, the
// consumer filter decides what is delivered. Failed handlers trigger a redelivery.
func (s *NATSStream) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if s.consumer == nil {
		return fmt.Errorf("stream has no consumer configured")
	}

	cc, err := s.consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Data()); err != nil {
			s.logger.Errorf("stream handler for %s failed: %v", msg.Subject(), err)
			_ = msg.NakWithDelay(2 * time.Second)
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("cannot consume %s: %w", topic, err)
	}
	s.consume = cc
	return nil
}

func (s *NATSStream) Start(ctx context.Context) error {
	return nil
}

func (s *NATSStream) Stop(ctx context.Context) error {
	if s.consume != nil {
		s.consume.Stop()
	}
	return s.conn.Drain()
}
