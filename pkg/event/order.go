package event

import "time"

const (
	OrdersCreatedTopic       = "orders.created"
	OrdersStatusChangedTopic = "orders.status_changed"
	OrdersPaidTopic          = "orders.paid"

	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderPaid          = "order.paid"
)

// OrderItemSnapshot is the denormalized line carried by order events.
type OrderItemSnapshot struct {
	OrderItemID string `json:"order_item_id"`
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Department  string `json:"department"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Total       int64  `json:"total"`
}

// OrderSnapshot carries everything downstream services need without calling back
// into the order service.
type OrderSnapshot struct {
	ID                  string              `json:"id"`
	Number              string              `json:"number"`
	UserID              string              `json:"user_id"`
	Status              string              `json:"status"`
	DeliveryType        string              `json:"delivery_type"`
	FirstName           string              `json:"first_name"`
	LastName            string              `json:"last_name"`
	Email               string              `json:"email"`
	Phone               string              `json:"phone"`
	Company             string              `json:"company,omitempty"`
	Address             string              `json:"address,omitempty"`
	PostalCode          string              `json:"postal_code,omitempty"`
	City                string              `json:"city,omitempty"`
	DeliveryDate        string              `json:"delivery_date"`
	DeliveryTime        string              `json:"delivery_time"`
	SpecialInstructions string              `json:"special_instructions,omitempty"`
	Items               []OrderItemSnapshot `json:"items"`
	Subtotal            int64               `json:"subtotal"`
	Discount            int64               `json:"discount"`
	Tax                 int64               `json:"tax"`
	DeliveryFee         int64               `json:"delivery_fee"`
	Total               int64               `json:"total"`
	PromoCodes          []string            `json:"promo_codes,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}

func (o OrderSnapshot) CustomerName() string {
	if o.LastName == "" {
		return o.FirstName
	}
	return o.FirstName + " " + o.LastName
}

type OrderCreatedEvent struct {
	EventType  string        `json:"event_type"`
	OccurredAt time.Time     `json:"occurred_at"`
	Order      OrderSnapshot `json:"order"`
}

type OrderStatusChangedEvent struct {
	EventType      string        `json:"event_type"`
	OccurredAt     time.Time     `json:"occurred_at"`
	PreviousStatus string        `json:"previous_status"`
	NewStatus      string        `json:"new_status"`
	ChangedBy      string        `json:"changed_by,omitempty"`
	Order          OrderSnapshot `json:"order"`
}

type OrderPaidEvent struct {
	EventType     string    `json:"event_type"`
	OccurredAt    time.Time `json:"occurred_at"`
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	PaymentID     string    `json:"payment_id"`
	PaymentMethod string    `json:"payment_method"`
	Amount        int64     `json:"amount"`
}
