package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/role"
)

type RouteInput struct {
	Name        string      `json:"name"`
	DriverID    string      `json:"driver_id"`
	Date        string      `json:"date"`
	StartTime   string      `json:"start_time"`
	Vehicle     string      `json:"vehicle"`
	DeliveryIDs []uuid.UUID `json:"delivery_ids"`
}

// CreateRoute assigns the listed deliveries to a driver, in the given order.
func (s *Service) CreateRoute(ctx context.Context, p auth.Principal, in RouteInput) (*Route, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.DriverID == "" {
		return nil, fmt.Errorf("%w: name and driver_id are required", ErrInvalidInput)
	}
	if _, err := day.Parse(in.Date); err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidInput, in.Date)
	}
	if in.StartTime == "" {
		in.StartTime = "08:00"
	}
	if len(in.DeliveryIDs) == 0 {
		return nil, fmt.Errorf("%w: a route needs at least one delivery", ErrInvalidInput)
	}

	deliveries, err := s.loadDeliveries(ctx, in.DeliveryIDs)
	if err != nil {
		return nil, err
	}
	for _, d := range deliveries {
		if d.Status != StatusPending {
			return nil, fmt.Errorf("%w: delivery %s is %s", ErrInvalidInput, d.Number, d.Status)
		}
	}

	now := s.now()
	r := &Route{
		ID:        apt.GenerateNewID(),
		Name:      in.Name,
		DriverID:  in.DriverID,
		Date:      in.Date,
		StartTime: in.StartTime,
		Vehicle:   in.Vehicle,
		Status:    RoutePlanned,
		CreatedBy: p.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.SetStops(in.DeliveryIDs); err != nil {
		return nil, err
	}
	if err := r.ComputeEstimates(durations(deliveries)); err != nil {
		return nil, err
	}
	if err := s.repos.Routes.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("store route: %w", err)
	}

	for _, d := range deliveries {
		d.DriverID = r.DriverID
		d.RouteID = &r.ID
		if err := d.SetStatus(StatusAssigned, p.UserID, now); err != nil {
			return nil, err
		}
		if err := s.save(ctx, d); err != nil {
			return nil, err
		}
	}

	s.notify(ctx, &Notification{
		RecipientRole: role.Roles.Driver.Name,
		RecipientID:   r.DriverID,
		Type:          NotifyRouteAssigned,
		Title:         "New route " + r.Name,
		Message:       fmt.Sprintf("%d deliveries on %s from %s", len(r.Stops), r.Date, r.StartTime),
		RouteID:       r.ID.String(),
	})
	s.logger.Info("route created", "route_id", r.ID, "driver_id", r.DriverID, "stops", len(r.Stops))
	return r, nil
}

func durations(deliveries map[uuid.UUID]*Delivery) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(deliveries))
	for id, d := range deliveries {
		out[id] = d.Duration()
	}
	return out
}

func (s *Service) loadDeliveries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Delivery, error) {
	list, err := s.repos.Deliveries.List(ctx, Filter{IDs: ids})
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*Delivery, len(list))
	for _, d := range list {
		out[d.ID] = d
	}
	for _, id := range ids {
		if out[id] == nil {
			return nil, fmt.Errorf("delivery %s: %w", id, ErrNotFound)
		}
	}
	return out, nil
}

func (s *Service) GetRoute(ctx context.Context, p auth.Principal, id uuid.UUID) (*Route, error) {
	r, err := s.repos.Routes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil || (isDriver(p) && r.DriverID != p.UserID) {
		return nil, fmt.Errorf("route: %w", ErrNotFound)
	}
	return r, nil
}

func (s *Service) ListRoutes(ctx context.Context, p auth.Principal, f RouteFilter) ([]*Route, error) {
	if isDriver(p) {
		f.DriverID = p.UserID
	}
	return s.repos.Routes.List(ctx, f)
}

// ReorderStops replaces the stop order of a planned route and refreshes estimates.
func (s *Service) ReorderStops(ctx context.Context, p auth.Principal, id uuid.UUID, ids []uuid.UUID) (*Route, error) {
	r, err := s.GetRoute(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if r.Status != RoutePlanned {
		return nil, fmt.Errorf("%w: only planned routes can be reordered", ErrInvalidTransition)
	}
	if len(ids) != len(r.Stops) {
		return nil, fmt.Errorf("%w: expected %d deliveries", ErrInvalidInput, len(r.Stops))
	}
	current := map[uuid.UUID]bool{}
	for _, st := range r.Stops {
		current[st.DeliveryID] = true
	}
	for _, did := range ids {
		if !current[did] {
			return nil, fmt.Errorf("%w: delivery %s is not on this route", ErrInvalidInput, did)
		}
	}

	deliveries, err := s.loadDeliveries(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := r.SetStops(ids); err != nil {
		return nil, err
	}
	if err := r.ComputeEstimates(durations(deliveries)); err != nil {
		return nil, err
	}
	r.UpdatedAt = s.now()
	if err := s.repos.Routes.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save route: %w", err)
	}
	return r, nil
}

// OptimizeRoute sorts the stops by postal code then address.
func (s *Service) OptimizeRoute(ctx context.Context, p auth.Principal, id uuid.UUID) (*Route, error) {
	r, err := s.GetRoute(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if r.Status != RoutePlanned {
		return nil, fmt.Errorf("%w: only planned routes can be optimized", ErrInvalidTransition)
	}
	deliveries, err := s.loadDeliveries(ctx, r.DeliveryIDs())
	if err != nil {
		return nil, err
	}
	r.Optimize(deliveries)
	if err := r.ComputeEstimates(durations(deliveries)); err != nil {
		return nil, err
	}
	r.UpdatedAt = s.now()
	if err := s.repos.Routes.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save route: %w", err)
	}
	return r, nil
}

// StartRoute puts the assigned deliveries of a planned route in transit.
func (s *Service) StartRoute(ctx context.Context, p auth.Principal, id uuid.UUID) (*Route, error) {
	r, err := s.GetRoute(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if r.Status != RoutePlanned {
		return nil, fmt.Errorf("%w: route is %s, not planned", ErrInvalidTransition, r.Status)
	}

	deliveries, err := s.loadDeliveries(ctx, r.DeliveryIDs())
	if err != nil {
		return nil, err
	}
	now := s.now()
	r.Status = RouteInProgress
	r.StartedAt = &now
	r.UpdatedAt = now
	if err := s.repos.Routes.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save route: %w", err)
	}

	for _, st := range r.Stops {
		d := deliveries[st.DeliveryID]
		if d.Status != StatusAssigned {
			continue
		}
		if err := d.SetStatus(StatusInTransit, p.UserID, now); err != nil {
			return nil, err
		}
		if err := s.save(ctx, d); err != nil {
			return nil, err
		}
	}

	s.notify(ctx, &Notification{
		RecipientRole: role.Roles.DeliveryManager.Name,
		Type:          NotifyRouteStarted,
		Title:         "Route started: " + r.Name,
		Message:       fmt.Sprintf("%d stops, first arrival %s", len(r.Stops), firstArrival(r)),
		RouteID:       r.ID.String(),
	})
	return r, nil
}

func firstArrival(r *Route) string {
	if len(r.Stops) == 0 {
		return "-"
	}
	return r.Stops[0].EstimatedArrival
}

// CompleteRoute closes a route once none of its deliveries is still on the way.
func (s *Service) CompleteRoute(ctx context.Context, p auth.Principal, id uuid.UUID) (*Route, error) {
	r, err := s.GetRoute(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if r.Status != RouteInProgress {
		return nil, fmt.Errorf("%w: route is %s, not in progress", ErrInvalidTransition, r.Status)
	}
	deliveries, err := s.loadDeliveries(ctx, r.DeliveryIDs())
	if err != nil {
		return nil, err
	}
	open, delivered := 0, 0
	for _, d := range deliveries {
		switch d.Status {
		case StatusAssigned, StatusInTransit:
			open++
		case StatusDelivered:
			delivered++
		}
	}
	if open > 0 {
		return nil, fmt.Errorf("%w: %d deliveries are still pending", ErrInvalidTransition, open)
	}

	now := s.now()
	r.Status = RouteCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now
	if err := s.repos.Routes.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save route: %w", err)
	}
	s.notify(ctx, &Notification{
		RecipientRole: role.Roles.DeliveryManager.Name,
		Type:          NotifyRouteCompleted,
		Title:         "Route completed: " + r.Name,
		Message:       fmt.Sprintf("%d of %d deliveries delivered", delivered, len(r.Stops)),
		RouteID:       r.ID.String(),
	})
	return r, nil
}
