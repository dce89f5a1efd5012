// Package deliveryfeed relays the delivery gRPC event stream to browser subscribers.
package deliveryfeed

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"google.golang.org/grpc"

	"github.com/appetiteclub/catering/pkg/deliverystream"
	"github.com/appetiteclub/catering/pkg/event"
)

const bufferSize = 100

// Receiver yields the events of one open subscription.
type Receiver interface {
	Recv() (event.DeliveryEvent, error)
}

// SubscribeFunc opens a subscription replaying the events newer than since.
type SubscribeFunc func(ctx context.Context, since time.Time) (Receiver, error)

// GRPCSubscriber subscribes through a delivery gRPC connection.
func GRPCSubscriber(conn grpc.ClientConnInterface) SubscribeFunc {
	return func(ctx context.Context, since time.Time) (Receiver, error) {
		return deliverystream.Subscribe(ctx, conn, since)
	}
}

// Feed keeps one upstream subscription open and fans its events out.
type Feed struct {
	subscribe  SubscribeFunc
	logger     apt.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
	now        func() time.Time

	mu          sync.RWMutex
	subscribers map[string]chan event.DeliveryEvent
	last        time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewFeed(subscribe SubscribeFunc, logger apt.Logger) *Feed {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Feed{
		subscribe:   subscribe,
		logger:      logger,
		minBackoff:  time.Second,
		maxBackoff:  30 * time.Second,
		now:         time.Now,
		subscribers: make(map[string]chan event.DeliveryEvent),
	}
}

// Start connects in the background so the console boots without the delivery service.
func (f *Feed) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})
	f.last = f.now()

	go f.run(runCtx)
	return nil
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.done)
	backoff := f.minBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		f.mu.RLock()
		since := f.last
		f.mu.RUnlock()

		rcv, err := f.subscribe(ctx, since)
		if err != nil {
			f.logger.Error("cannot subscribe to delivery stream", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, f.maxBackoff)
			continue
		}

		f.logger.Info("connected to delivery stream")
		backoff = f.minBackoff

		for {
			evt, err := rcv.Recv()
			if err != nil {
				if ctx.Err() == nil {
					f.logger.Info("delivery stream interrupted", "error", err)
				}
				break
			}
			f.broadcast(evt)
		}

		if !sleep(ctx, backoff) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// broadcast drops the event for subscribers whose buffer is full.
func (f *Feed) broadcast(evt event.DeliveryEvent) {
	f.mu.Lock()
	if evt.OccurredAt.After(f.last) {
		f.last = evt.OccurredAt
	}
	f.mu.Unlock()

	f.mu.RLock()
	defer f.mu.RUnlock()
	for id, ch := range f.subscribers {
		select {
		case ch <- evt:
		default:
			f.logger.Info("subscriber too slow, dropping delivery event", "subscriber_id", id)
		}
	}
}

func (f *Feed) Subscribe(id string) <-chan event.DeliveryEvent {
	ch := make(chan event.DeliveryEvent, bufferSize)

	f.mu.Lock()
	f.subscribers[id] = ch
	total := len(f.subscribers)
	f.mu.Unlock()

	f.logger.Debug("delivery feed subscriber added", "subscriber_id", id, "total", total)
	return ch
}

func (f *Feed) Unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ch, ok := f.subscribers[id]; ok {
		close(ch)
		delete(f.subscribers, id)
	}
}

func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

func (f *Feed) Stop(ctx context.Context) error {
	if f.cancel != nil {
		f.cancel()
		select {
		case <-f.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	for id, ch := range f.subscribers {
		close(ch)
		delete(f.subscribers, id)
	}
	f.mu.Unlock()

	return nil
}
