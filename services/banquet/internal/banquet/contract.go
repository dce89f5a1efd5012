package banquet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/day"
)

const (
	StatusDraft      = "draft"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"

	ActionEventStart = "event_start"
	ActionEventEnd   = "event_end"
	ActionNote       = "note"
	ActionIssue      = "issue"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrExists            = errors.New("already exists")
)

// StaffAssignment is one person working an event.
type StaffAssignment struct {
	UserID      string `json:"user_id" bson:"user_id"`
	Name        string `json:"name" bson:"name"`
	Position    string `json:"position" bson:"position"`
	ArrivalTime string `json:"arrival_time,omitempty" bson:"arrival_time,omitempty"`
	Notes       string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Contract is a catered event run on site by a maître d'hôtel.
type Contract struct {
	ID            uuid.UUID         `json:"id" bson:"_id"`
	Number        string            `json:"number" bson:"number"`
	Name          string            `json:"event_name" bson:"event_name"`
	OrderID       string            `json:"order_id,omitempty" bson:"order_id,omitempty"`
	OrderNumber   string            `json:"order_number,omitempty" bson:"order_number,omitempty"`
	ClientName    string            `json:"client_name" bson:"client_name"`
	ClientPhone   string            `json:"client_phone,omitempty" bson:"client_phone,omitempty"`
	ClientEmail   string            `json:"client_email,omitempty" bson:"client_email,omitempty"`
	Location      string            `json:"location" bson:"location"`
	GuestCount    int               `json:"guest_count" bson:"guest_count"`
	Date          string            `json:"date" bson:"date"`
	StartTime     string            `json:"start_time" bson:"start_time"`
	EndTime       string            `json:"end_time" bson:"end_time"`
	MaitreHotelID string            `json:"maitre_hotel_id" bson:"maitre_hotel_id"`
	Status        string            `json:"status" bson:"status"`
	Notes         string            `json:"notes,omitempty" bson:"notes,omitempty"`
	Staff         []StaffAssignment `json:"staff" bson:"staff"`
	StartedAt     *time.Time        `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedBy     string            `json:"created_by" bson:"created_by"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" bson:"updated_at"`
}

type ContractInput struct {
	Name          string `json:"event_name"`
	OrderNumber   string `json:"order_number"`
	ClientName    string `json:"client_name"`
	ClientPhone   string `json:"client_phone"`
	ClientEmail   string `json:"client_email"`
	Location      string `json:"location"`
	GuestCount    int    `json:"guest_count"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	MaitreHotelID string `json:"maitre_hotel_id"`
	Notes         string `json:"notes"`
}

// Validate trims the input and checks the event window.
func (in *ContractInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.OrderNumber = strings.ToUpper(strings.TrimSpace(in.OrderNumber))

	if in.Name == "" || in.Location == "" {
		return fmt.Errorf("%w: event_name and location are required", ErrInvalidInput)
	}
	if in.MaitreHotelID == "" {
		return fmt.Errorf("%w: maitre_hotel_id is required", ErrInvalidInput)
	}
	if in.GuestCount <= 0 {
		return fmt.Errorf("%w: guest_count must be positive", ErrInvalidInput)
	}
	if _, err := day.Parse(in.Date); err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalidInput, in.Date)
	}
	start, err := day.ParseClock(in.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start_time %q", ErrInvalidInput, in.StartTime)
	}
	end, err := day.ParseClock(in.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end_time %q", ErrInvalidInput, in.EndTime)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end_time must follow start_time", ErrInvalidInput)
	}
	return nil
}

// FormatNumber renders contract and report numbers such as EVT-20250310-0001.
func FormatNumber(prefix string, date time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, date.Format("20060102"), seq)
}

var transitions = map[string][]string{
	StatusDraft:      {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func (c *Contract) CanTransition(to string) bool {
	for _, s := range transitions[c.Status] {
		if s == to {
			return true
		}
	}
	return false
}

// SetStatus applies a lifecycle move and stamps start and completion times.
func (c *Contract) SetStatus(to string, now time.Time) error {
	if !c.CanTransition(to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, c.Status, to)
	}
	c.Status = to
	switch to {
	case StatusInProgress:
		c.StartedAt = &now
	case StatusCompleted:
		c.CompletedAt = &now
	}
	c.UpdatedAt = now
	return nil
}

// IsPending reports a contract that has not started yet.
func (c *Contract) IsPending() bool {
	return c.Status == StatusDraft || c.Status == StatusConfirmed
}

// Running reports whether clock, an HH:MM time on the contract date, falls in the event window.
func (c *Contract) Running(date, clock string) bool {
	return c.Status == StatusInProgress && c.Date == date && c.StartTime <= clock && clock <= c.EndTime
}
