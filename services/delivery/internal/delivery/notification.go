package delivery

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotifyNewDelivery    = "new_delivery"
	NotifyRouteAssigned  = "route_assigned"
	NotifyRouteStarted   = "route_started"
	NotifyRouteCompleted = "route_completed"
	NotifyDelivered      = "delivered"
	NotifyIssue          = "issue"
	NotifyPlanning       = "planning"

	NotificationNormal = "normal"
	NotificationUrgent = "urgent"
)

// Notification targets a role, or one user of that role when RecipientID is set.
type Notification struct {
	ID            uuid.UUID  `json:"id" bson:"_id"`
	RecipientRole string     `json:"recipient_role" bson:"recipient_role"`
	RecipientID   string     `json:"recipient_id,omitempty" bson:"recipient_id,omitempty"`
	Type          string     `json:"type" bson:"type"`
	Title         string     `json:"title" bson:"title"`
	Message       string     `json:"message" bson:"message"`
	Priority      string     `json:"priority" bson:"priority"`
	DeliveryID    string     `json:"delivery_id,omitempty" bson:"delivery_id,omitempty"`
	RouteID       string     `json:"route_id,omitempty" bson:"route_id,omitempty"`
	Read          bool       `json:"is_read" bson:"is_read"`
	ReadAt        *time.Time `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
}
