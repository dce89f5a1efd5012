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
	"github.com/appetiteclub/catering/services/delivery/internal/delivery"
)

// Logistics is the part of the delivery service driven by events.
type Logistics interface {
	HandleConfirmed(ctx context.Context, o event.OrderSnapshot) (bool, error)
	CancelForOrder(ctx context.Context, orderID string) (int, error)
	MarkChecklistCompleted(ctx context.Context, orderID string) (int, error)
}

// OrderSubscriber creates deliveries for confirmed orders and cancels them with the order.
type OrderSubscriber struct {
	subscriber events.Subscriber
	logistics  Logistics
	logger     apt.Logger
}

func NewOrderSubscriber(subscriber events.Subscriber, logistics Logistics, logger apt.Logger) *OrderSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderSubscriber{subscriber: subscriber, logistics: logistics, logger: logger}
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
		created, err := s.logistics.HandleConfirmed(ctx, evt.Order)
		if errors.Is(err, delivery.ErrInvalidInput) {
			s.logger.Info("order skipped by logistics", "number", evt.Order.Number, "error", err)
			return nil
		}
		if err != nil {
			return err
		}
		if created {
			s.logger.Info("delivery created from order event", "number", evt.Order.Number)
		}
	case orderstatus.Statuses.Cancelled.Name:
		n, err := s.logistics.CancelForOrder(ctx, evt.Order.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			s.logger.Info("deliveries cancelled with order", "number", evt.Order.Number, "deliveries", n)
		}
	}
	return nil
}

// ChecklistSubscriber flags deliveries whose equipment checklist is done.
type ChecklistSubscriber struct {
	subscriber events.Subscriber
	logistics  Logistics
	logger     apt.Logger
}

func NewChecklistSubscriber(subscriber events.Subscriber, logistics Logistics, logger apt.Logger) *ChecklistSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &ChecklistSubscriber{subscriber: subscriber, logistics: logistics, logger: logger}
}

func (s *ChecklistSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting checklist subscriber", "topic", event.ChecklistsCompletedTopic)
	if err := s.subscriber.Subscribe(ctx, event.ChecklistsCompletedTopic, s.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.ChecklistsCompletedTopic, err)
	}
	return nil
}

func (s *ChecklistSubscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *ChecklistSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.ChecklistCompletedEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Errorf("Failed to unmarshal checklist event: %v", err)
		return nil
	}
	if evt.EventType != event.EventChecklistCompleted || evt.OrderID == "" {
		return nil
	}
	n, err := s.logistics.MarkChecklistCompleted(ctx, evt.OrderID)
	if err != nil {
		return err
	}
	s.logger.Info("checklist completed for deliveries", "order", evt.OrderNumber, "deliveries", n)
	return nil
}
