package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
	"github.com/appetiteclub/catering/pkg/event"
)

const kitchenActor = "kitchen"

// KitchenSubscriber follows production progress: the first started item moves a
// confirmed order to preparing, the last completed item moves it to ready.
type KitchenSubscriber struct {
	subscriber events.Subscriber
	service    *Service
	logger     apt.Logger
}

func NewKitchenSubscriber(sub events.Subscriber, service *Service, logger apt.Logger) *KitchenSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &KitchenSubscriber{subscriber: sub, service: service, logger: logger}
}

func (s *KitchenSubscriber) Start(ctx context.Context) error {
	if s.subscriber == nil {
		return fmt.Errorf("kitchen subscriber not configured")
	}
	s.logger.Info("starting kitchen subscriber", "topic", event.KitchenItemsTopic)
	return s.subscriber.Subscribe(ctx, event.KitchenItemsTopic, s.handleEvent)
}

func (s *KitchenSubscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *KitchenSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt event.ProductionItemEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Info("invalid kitchen item event", "error", err)
		return nil
	}

	id, err := uuid.Parse(evt.OrderID)
	if err != nil {
		s.logger.Debug("kitchen item event without order", "item_id", evt.ItemID)
		return nil
	}

	var target string
	switch {
	case evt.EventType == event.EventProductionItemStarted:
		target = orderstatus.Statuses.Preparing.Name
	case evt.EventType == event.EventProductionItemCompleted && evt.OrderCompleted:
		target = orderstatus.Statuses.Ready.Name
	default:
		return nil
	}

	o, err := s.service.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		s.logger.Info("kitchen item event for unknown order", "order_id", evt.OrderID)
		return nil
	}
	if err != nil {
		return err
	}

	// Preparing may be skipped when a single item order completes before its start event is seen.
	if target == orderstatus.Statuses.Ready.Name && o.Status == orderstatus.Statuses.Confirmed.Name {
		if _, err := s.service.transition(ctx, o, orderstatus.Statuses.Preparing.Name, kitchenActor); err != nil {
			return err
		}
	}
	if !orderstatus.CanTransition(o.Status, target) {
		return nil
	}
	_, err = s.service.transition(ctx, o, target, kitchenActor)
	return err
}
