package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/services/notification/internal/mailer"
)

const (
	DefaultWorkers    = 4
	defaultRetryDelay = 2 * time.Second
)

// Source is a queue of mail deliveries, mq.Consumer in production.
type Source interface {
	Deliveries(ctx context.Context) (<-chan amqp.Delivery, error)
	Close() error
}

type Outcome int

const (
	Ack Outcome = iota
	Requeue
	Drop
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Requeue:
		return "requeue"
	default:
		return "drop"
	}
}

// Pool sends queued mails with a fixed number of workers sharing one delivery channel.
type Pool struct {
	source     Source
	composer   *Composer
	sender     mailer.Sender
	workers    int
	retryDelay time.Duration
	stats      *Stats
	logger     apt.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewPool(source Source, composer *Composer, sender mailer.Sender, workers int, stats *Stats, logger apt.Logger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if stats == nil {
		stats = NewStats()
	}
	return &Pool{
		source:     source,
		composer:   composer,
		sender:     sender,
		workers:    workers,
		retryDelay: defaultRetryDelay,
		stats:      stats,
		logger:     logger,
	}
}

// Process handles one message body and says how the broker should settle it.
// Malformed and permanently rejected mails are dropped, transient failures requeued.
func (p *Pool) Process(ctx context.Context, body []byte) Outcome {
	var msg event.MailMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		p.logger.Error("cannot decode mail job", "error", err)
		p.stats.record(msg.Kind, Drop)
		return Drop
	}

	m, err := p.composer.Compose(msg)
	if err != nil {
		p.logger.Error("cannot compose mail", "kind", msg.Kind, "error", err)
		p.stats.record(msg.Kind, Drop)
		return Drop
	}

	if err := p.sender.Send(ctx, m); err != nil {
		if errors.Is(err, mailer.ErrPermanent) {
			p.logger.Error("mail rejected", "kind", msg.Kind, "to", msg.To, "error", err)
			p.stats.record(msg.Kind, Drop)
			return Drop
		}
		p.logger.Error("mail delivery failed, requeuing", "kind", msg.Kind, "error", err)
		p.stats.record(msg.Kind, Requeue)
		return Requeue
	}

	p.logger.Debug("mail sent", "kind", msg.Kind, "subject", msg.Subject)
	p.stats.record(msg.Kind, Ack)
	return Ack
}

func settle(d amqp.Delivery, o Outcome) error {
	switch o {
	case Ack:
		return d.Ack(false)
	case Requeue:
		return d.Nack(false, true)
	default:
		return d.Nack(false, false)
	}
}

func (p *Pool) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	deliveries, err := p.source.Deliveries(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("consume mail queue: %w", err)
	}
	p.cancel = cancel

	g, gctx := errgroup.WithContext(runCtx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			p.work(gctx, deliveries)
			return nil
		})
	}
	p.group = g

	p.logger.Infof("mail pool started with %d workers", p.workers)
	return nil
}

func (p *Pool) work(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			outcome := p.Process(ctx, d.Body)
			if outcome == Requeue && p.retryDelay > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(p.retryDelay):
				}
			}
			if err := settle(d, outcome); err != nil {
				p.logger.Error("cannot settle mail delivery", "outcome", outcome.String(), "error", err)
			}
		}
	}
}

// Stop cancels the workers, waits for in-flight mails and closes the source.
func (p *Pool) Stop(ctx context.Context) error {
	if p.cancel == nil {
		return p.source.Close()
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		_ = p.group.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Info("mail pool stop timed out")
	}
	return p.source.Close()
}
