package event

import "time"

const (
	ChecklistsCompletedTopic = "checklists.completed"
	EventChecklistCompleted  = "checklist.completed"
)

type ChecklistCompletedEvent struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	ChecklistID string    `json:"checklist_id"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CompletedBy string    `json:"completed_by"`
}
