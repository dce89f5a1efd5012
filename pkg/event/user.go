package event

import "time"

const (
	UsersRegisteredTopic = "users.registered"
	EventUserRegistered  = "user.registered"
)

type UserRegisteredEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
}
