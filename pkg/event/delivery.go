package event

import "time"

const (
	DeliveriesTopic = "deliveries.status"

	EventDeliveryCreated       = "delivery.created"
	EventDeliveryStatusChanged = "delivery.status_changed"
)

type DeliveryEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	DeliveryID     string    `json:"delivery_id"`
	DeliveryNumber string    `json:"delivery_number"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	RouteID        string    `json:"route_id,omitempty"`
	DriverID       string    `json:"driver_id,omitempty"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Priority       string    `json:"priority"`
}
