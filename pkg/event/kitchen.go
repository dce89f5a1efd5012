package event

import "time"

const (
	KitchenItemsTopic = "kitchen.items"

	EventProductionItemStarted   = "kitchen.item.started"
	EventProductionItemCompleted = "kitchen.item.completed"
	EventProductionItemIssue     = "kitchen.item.issue"
)

// ProductionItemEvent reports progress on one production line. OrderCompleted is set
// when every line of the order has been produced.
type ProductionItemEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	ItemID         string    `json:"item_id"`
	ProductionID   string    `json:"production_id"`
	Department     string    `json:"department"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	ProductName    string    `json:"product_name"`
	Quantity       int       `json:"quantity"`
	OrderCompleted bool      `json:"order_completed"`
	Description    string    `json:"description,omitempty"`
}
