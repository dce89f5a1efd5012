package delivery

import (
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/appetiteclub/catering/pkg/deliverystream"
	"github.com/appetiteclub/catering/pkg/event"
)

// replaySize bounds the events kept for subscribers that reconnect.
const replaySize = 256

// EventStreamServer pushes delivery events to gRPC subscribers.
type EventStreamServer struct {
	logger apt.Logger

	mu          sync.RWMutex
	subscribers map[string]chan event.DeliveryEvent
	recent      []event.DeliveryEvent
}

func NewEventStreamServer(logger apt.Logger) *EventStreamServer {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &EventStreamServer{
		logger:      logger,
		subscribers: make(map[string]chan event.DeliveryEvent),
	}
}

// RegisterGRPCService registers the server with the micro runtime.
func (s *EventStreamServer) RegisterGRPCService(server *grpc.Server) {
	deliverystream.Register(server, s)
}

// Subscribe replays buffered events newer than since, then streams live ones until the
// client goes away.
func (s *EventStreamServer) Subscribe(since *timestamppb.Timestamp, stream grpc.ServerStream) error {
	ctx := stream.Context()
	id := uuid.NewString()
	ch := make(chan event.DeliveryEvent, 100)

	s.mu.Lock()
	var backlog []event.DeliveryEvent
	if since != nil && since.IsValid() {
		from := since.AsTime()
		for _, evt := range s.recent {
			if evt.OccurredAt.After(from) {
				backlog = append(backlog, evt)
			}
		}
	}
	s.subscribers[id] = ch
	s.mu.Unlock()
	s.logger.Info("delivery stream subscriber connected", "subscriber_id", id, "replay", len(backlog))

	defer func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
		s.logger.Info("delivery stream subscriber disconnected", "subscriber_id", id)
	}()

	for _, evt := range backlog {
		if err := send(stream, evt); err != nil {
			return err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-ch:
			if err := send(stream, evt); err != nil {
				s.logger.Errorf("cannot send delivery event: %v", err)
				return err
			}
		}
	}
}

func send(stream grpc.ServerStream, evt event.DeliveryEvent) error {
	msg, err := deliverystream.ToStruct(evt)
	if err != nil {
		return err
	}
	return stream.SendMsg(msg)
}

// Broadcast records the event and hands it to every subscriber. Slow subscribers miss it.
func (s *EventStreamServer) Broadcast(evt event.DeliveryEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = append(s.recent, evt)
	if len(s.recent) > replaySize {
		s.recent = s.recent[len(s.recent)-replaySize:]
	}
	for id, ch := range s.subscribers {
		select {
		case ch <- evt:
		default:
			s.logger.Info("subscriber channel full, dropping delivery event", "subscriber_id", id)
		}
	}
}

func (s *EventStreamServer) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}
