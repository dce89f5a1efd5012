package kitchen

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationNormal = "normal"
	NotificationUrgent = "urgent"
)

// Notification is addressed to a role, optionally scoped to a department.
type Notification struct {
	ID            uuid.UUID  `json:"id" bson:"_id"`
	RecipientRole string     `json:"recipient_role" bson:"recipient_role"`
	Department    string     `json:"department,omitempty" bson:"department,omitempty"`
	Title         string     `json:"title" bson:"title"`
	Message       string     `json:"message" bson:"message"`
	Priority      string     `json:"priority" bson:"priority"`
	ItemID        string     `json:"item_id,omitempty" bson:"item_id,omitempty"`
	Read          bool       `json:"is_read" bson:"is_read"`
	ReadAt        *time.Time `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
}
