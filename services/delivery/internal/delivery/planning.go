package delivery

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/day"
)

const (
	PlanningAvailable   = "available"
	PlanningUnavailable = "unavailable"
	PlanningNone        = "no-planning"
)

// Planning is a driver's availability for one date.
type Planning struct {
	ID            uuid.UUID `json:"id" bson:"_id"`
	DriverID      string    `json:"driver_id" bson:"driver_id"`
	Date          string    `json:"date" bson:"date"`
	Available     bool      `json:"is_available" bson:"is_available"`
	StartTime     string    `json:"start_time" bson:"start_time"`
	EndTime       string    `json:"end_time" bson:"end_time"`
	MaxDeliveries int       `json:"max_deliveries" bson:"max_deliveries"`
	Zones         []string  `json:"zones" bson:"zones"`
	Notes         string    `json:"notes,omitempty" bson:"notes,omitempty"`
	UpdatedBy     string    `json:"updated_by" bson:"updated_by"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

type PlanningInput struct {
	DriverID      string   `json:"driver_id"`
	Date          string   `json:"date"`
	Available     *bool    `json:"is_available"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	MaxDeliveries int      `json:"max_deliveries"`
	Zones         []string `json:"zones"`
	Notes         string   `json:"notes"`
}

// Validate fills defaults: available, 08:00 to 18:00, ten deliveries.
func (in *PlanningInput) Validate() error {
	if in.DriverID == "" {
		return fmt.Errorf("%w: driver_id is required", ErrInvalidInput)
	}
	if _, err := day.Parse(in.Date); err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalidInput, in.Date)
	}
	if in.StartTime == "" {
		in.StartTime = "08:00"
	}
	if in.EndTime == "" {
		in.EndTime = "18:00"
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
	if in.MaxDeliveries < 0 {
		return fmt.Errorf("%w: max_deliveries must not be negative", ErrInvalidInput)
	}
	if in.MaxDeliveries == 0 {
		in.MaxDeliveries = 10
	}
	if in.Zones == nil {
		in.Zones = []string{}
	}
	return nil
}

// DriverDay summarises one driver in the planning overview.
type DriverDay struct {
	DriverID       string    `json:"driver_id"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	Planning       *Planning `json:"planning,omitempty"`
	Routes         int       `json:"routes"`
	Assigned       int       `json:"assigned"`
	Delivered      int       `json:"delivered"`
	RemainingSlots int       `json:"remaining_slots"`
}

func planningStatus(p *Planning) string {
	switch {
	case p == nil:
		return PlanningNone
	case p.Available:
		return PlanningAvailable
	default:
		return PlanningUnavailable
	}
}
