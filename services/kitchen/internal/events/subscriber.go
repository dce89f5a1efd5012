package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/services/kitchen/internal/kitchen"
)

// Dispatcher is the part of the kitchen service driven by order events.
type Dispatcher interface {
	AddOrder(ctx context.Context, o event.OrderSnapshot) (int, error)
	CancelOrder(ctx context.Context, orderID string) (int, error)
}

// OrderSubscriber feeds confirmed orders into production and withdraws cancelled ones.
type OrderSubscriber struct {
	subscriber events.Subscriber
	dispatcher Dispatcher
	logger     apt.Logger
}

func NewOrderSubscriber(subscriber events.Subscriber, dispatcher Dispatcher, logger apt.Logger) *OrderSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderSubscriber{subscriber: subscriber, dispatcher: dispatcher, logger: logger}
}

func (s *OrderSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting order subscriber", "topic", event.OrdersStatusChangedTopic)
	if err := s.subscriber.Subscribe(ctx, event.OrdersStatusChangedTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.OrdersStatusChangedTopic, err)
	}
	return nil
}

func (s *OrderSubscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *OrderSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.OrderStatusChangedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Errorf("Failed to unmarshal order event: %v", err)
		return nil
	}
	if evt.EventType != event.EventOrderStatusChanged {
		return nil
	}

	switch evt.NewStatus {
	case orderstatus.Statuses.Confirmed.Name:
		n, err := s.dispatcher.AddOrder(ctx, evt.Order)
		if errors.Is(err, kitchen.ErrInvalidInput) {
			s.logger.Info("order skipped by kitchen", "number", evt.Order.Number, "error", err)
			return nil
		}
		if err != nil {
			return err
		}
		s.logger.Info("order dispatched to kitchen", "number", evt.Order.Number, "items_created", n)
	case orderstatus.Statuses.Cancelled.Name:
		n, err := s.dispatcher.CancelOrder(ctx, evt.Order.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("production withdrawn for cancelled order", "number", evt.Order.Number, "items", n)
		}
	}
	return nil
}
