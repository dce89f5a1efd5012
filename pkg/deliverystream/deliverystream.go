// Package deliverystream describes the catering.delivery.v1.DeliveryEvents gRPC service.
// Messages are well-known protobuf types: the subscribe request is a timestamp from which
// buffered events are replayed, each event is a struct.
package deliverystream

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/appetiteclub/catering/pkg/event"
)

const (
	ServiceName     = "catering.delivery.v1.DeliveryEvents"
	SubscribeMethod = "/" + ServiceName + "/Subscribe"
)

// Server is implemented by the delivery service.
type Server interface {
	Subscribe(since *timestamppb.Timestamp, stream grpc.ServerStream) error
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "catering/delivery/v1/events.proto",
}

func subscribeHandler(srv interface{}, stream grpc.ServerStream) error {
	since := new(timestamppb.Timestamp)
	if err := stream.RecvMsg(since); err != nil {
		return err
	}
	return srv.(Server).Subscribe(since, stream)
}

func Register(s *grpc.Server, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

// ToStruct encodes a delivery event for the wire.
func ToStruct(e event.DeliveryEvent) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"event_type":      e.EventType,
		"occurred_at":     e.OccurredAt.UTC().Format(time.RFC3339Nano),
		"delivery_id":     e.DeliveryID,
		"delivery_number": e.DeliveryNumber,
		"order_id":        e.OrderID,
		"order_number":    e.OrderNumber,
		"route_id":        e.RouteID,
		"driver_id":       e.DriverID,
		"status":          e.Status,
		"previous_status": e.PreviousStatus,
		"priority":        e.Priority,
	})
}

func FromStruct(s *structpb.Struct) event.DeliveryEvent {
	f := s.GetFields()
	str := func(k string) string { return f[k].GetStringValue() }
	occurred, _ := time.Parse(time.RFC3339Nano, str("occurred_at"))
	return event.DeliveryEvent{
		EventType:      str("event_type"),
		OccurredAt:     occurred,
		DeliveryID:     str("delivery_id"),
		DeliveryNumber: str("delivery_number"),
		OrderID:        str("order_id"),
		OrderNumber:    str("order_number"),
		RouteID:        str("route_id"),
		DriverID:       str("driver_id"),
		Status:         str("status"),
		PreviousStatus: str("previous_status"),
		Priority:       str("priority"),
	}
}

// Dial opens a plaintext client connection to the delivery gRPC port.
func Dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("cannot create delivery stream client: %w", err)
	}
	return conn, nil
}

// Receiver reads events from an open subscription.
type Receiver struct {
	stream grpc.ClientStream
}

// Subscribe opens the server stream. Events newer than since are replayed first.
func Subscribe(ctx context.Context, conn grpc.ClientConnInterface, since time.Time) (*Receiver, error) {
	stream, err := conn.NewStream(ctx, &ServiceDesc.Streams[0], SubscribeMethod)
	if err != nil {
		return nil, fmt.Errorf("cannot open delivery stream: %w", err)
	}
	if err := stream.SendMsg(timestamppb.New(since)); err != nil {
		return nil, fmt.Errorf("cannot send subscribe request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("cannot close subscribe request: %w", err)
	}
	return &Receiver{stream: stream}, nil
}

// Recv blocks for the next event. It returns io.EOF when the server ends the stream.
func (r *Receiver) Recv() (event.DeliveryEvent, error) {
	msg := new(structpb.Struct)
	if err := r.stream.RecvMsg(msg); err != nil {
		return event.DeliveryEvent{}, err
	}
	return FromStruct(msg), nil
}
