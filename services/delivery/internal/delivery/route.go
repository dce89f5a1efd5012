package delivery

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/day"
)

const (
	RoutePlanned    = "planned"
	RouteInProgress = "in_progress"
	RouteCompleted  = "completed"
	RouteCancelled  = "cancelled"

	travelMinutes = 15
	kmPerStop     = 5
)

type Stop struct {
	DeliveryID         uuid.UUID  `json:"delivery_id" bson:"delivery_id"`
	Position           int        `json:"position" bson:"position"`
	EstimatedArrival   string     `json:"estimated_arrival" bson:"estimated_arrival"`
	EstimatedDeparture string     `json:"estimated_departure" bson:"estimated_departure"`
	Completed          bool       `json:"completed" bson:"completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

type Route struct {
	ID               uuid.UUID  `json:"id" bson:"_id"`
	Name             string     `json:"name" bson:"name"`
	DriverID         string     `json:"driver_id" bson:"driver_id"`
	Date             string     `json:"date" bson:"date"`
	StartTime        string     `json:"start_time" bson:"start_time"`
	Vehicle          string     `json:"vehicle,omitempty" bson:"vehicle,omitempty"`
	Status           string     `json:"status" bson:"status"`
	Stops            []Stop     `json:"stops" bson:"stops"`
	Optimized        bool       `json:"optimized" bson:"optimized"`
	TotalDistanceKm  float64    `json:"total_distance_km" bson:"total_distance_km"`
	EstimatedMinutes int        `json:"estimated_minutes" bson:"estimated_minutes"`
	StartedAt        *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedBy        string     `json:"created_by" bson:"created_by"`
	CreatedAt        time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" bson:"updated_at"`
	Version          int64      `json:"version" bson:"version"`
}

// SetStops replaces the stops, in the given order.
func (r *Route) SetStops(ids []uuid.UUID) error {
	seen := map[uuid.UUID]bool{}
	stops := make([]Stop, 0, len(ids))
	for i, id := range ids {
		if seen[id] {
			return fmt.Errorf("%w: delivery %s listed twice", ErrInvalidInput, id)
		}
		seen[id] = true
		stops = append(stops, Stop{DeliveryID: id, Position: i + 1})
	}
	r.Stops = stops
	r.Optimized = false
	return nil
}

// ComputeEstimates walks the stops in order: travel to each stop, then stay on site for
// the delivery's duration. durations holds minutes per delivery, missing ones use the default.
func (r *Route) ComputeEstimates(durations map[uuid.UUID]int) error {
	start, err := day.ParseClock(r.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start time %q", ErrInvalidInput, r.StartTime)
	}
	sort.SliceStable(r.Stops, func(i, j int) bool { return r.Stops[i].Position < r.Stops[j].Position })

	current := start
	for i := range r.Stops {
		current = current.Add(travelMinutes * time.Minute)
		r.Stops[i].EstimatedArrival = current.Format(day.TimeLayout)

		stay := durations[r.Stops[i].DeliveryID]
		if stay <= 0 {
			stay = DefaultDuration
		}
		current = current.Add(time.Duration(stay) * time.Minute)
		r.Stops[i].EstimatedDeparture = current.Format(day.TimeLayout)
	}
	r.TotalDistanceKm = float64(kmPerStop * len(r.Stops))
	r.EstimatedMinutes = int(current.Sub(start).Minutes())
	return nil
}

// Optimize orders the stops by postal code then address.
func (r *Route) Optimize(deliveries map[uuid.UUID]*Delivery) {
	key := func(s Stop) (string, string) {
		d := deliveries[s.DeliveryID]
		if d == nil {
			return "", ""
		}
		return d.PostalCode, d.Address
	}
	sort.SliceStable(r.Stops, func(i, j int) bool {
		pi, ai := key(r.Stops[i])
		pj, aj := key(r.Stops[j])
		if pi != pj {
			return pi < pj
		}
		return ai < aj
	})
	for i := range r.Stops {
		r.Stops[i].Position = i + 1
	}
	r.Optimized = true
}

func (r *Route) DeliveryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Stops))
	for _, s := range r.Stops {
		ids = append(ids, s.DeliveryID)
	}
	return ids
}

// CompleteStop marks the stop of a delivery and returns the next open stop, if any.
func (r *Route) CompleteStop(deliveryID uuid.UUID, now time.Time) *Stop {
	for i := range r.Stops {
		if r.Stops[i].DeliveryID == deliveryID {
			r.Stops[i].Completed = true
			r.Stops[i].CompletedAt = &now
		}
	}
	r.UpdatedAt = now
	return r.NextStop()
}

func (r *Route) NextStop() *Stop {
	for i := range r.Stops {
		if !r.Stops[i].Completed {
			return &r.Stops[i]
		}
	}
	return nil
}
