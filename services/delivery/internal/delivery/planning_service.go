package delivery

import (
	"context"
	"fmt"
	"sort"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/role"
)

// SetPlanning stores a driver's availability. Drivers can only plan themselves.
func (s *Service) SetPlanning(ctx context.Context, p auth.Principal, in PlanningInput) (*Planning, error) {
	if isDriver(p) {
		in.DriverID = p.UserID
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	available := true
	if in.Available != nil {
		available = *in.Available
	}
	pl := &Planning{
		ID:            apt.GenerateNewID(),
		DriverID:      in.DriverID,
		Date:          in.Date,
		Available:     available,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		MaxDeliveries: in.MaxDeliveries,
		Zones:         in.Zones,
		Notes:         in.Notes,
		UpdatedBy:     p.UserID,
		UpdatedAt:     s.now(),
	}
	stored, err := s.repos.Plannings.Upsert(ctx, pl)
	if err != nil {
		return nil, fmt.Errorf("store planning: %w", err)
	}
	if p.UserID != pl.DriverID {
		s.notify(ctx, &Notification{
			RecipientRole: role.Roles.Driver.Name,
			RecipientID:   pl.DriverID,
			Type:          NotifyPlanning,
			Title:         "Planning updated for " + pl.Date,
			Message:       fmt.Sprintf("%s to %s, up to %d deliveries", pl.StartTime, pl.EndTime, pl.MaxDeliveries),
		})
	}
	return stored, nil
}

type PlanningOverview struct {
	Date        string       `json:"date"`
	Drivers     []*DriverDay `json:"drivers"`
	Available   int          `json:"available"`
	Unavailable int          `json:"unavailable"`
	NoPlanning  int          `json:"no_planning"`
}

// PlanningOverview lists every active driver with their planning and load for date.
func (s *Service) PlanningOverview(ctx context.Context, date string) (*PlanningOverview, error) {
	if date == "" {
		date = s.today()
	}
	if _, err := day.Parse(date); err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidInput, date)
	}
	if s.users == nil {
		return nil, fmt.Errorf("user directory is not configured")
	}

	drivers, err := s.users.ListByRole(ctx, role.Roles.Driver.Name)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	plannings, err := s.repos.Plannings.List(ctx, date)
	if err != nil {
		return nil, err
	}
	routes, err := s.repos.Routes.List(ctx, RouteFilter{Date: date})
	if err != nil {
		return nil, err
	}
	deliveries, err := s.repos.Deliveries.List(ctx, Filter{Date: date})
	if err != nil {
		return nil, err
	}

	byDriver := map[string]*Planning{}
	for _, pl := range plannings {
		byDriver[pl.DriverID] = pl
	}
	out := &PlanningOverview{Date: date, Drivers: []*DriverDay{}}
	for _, u := range drivers {
		dd := &DriverDay{DriverID: u.ID, Name: u.Name(), Planning: byDriver[u.ID]}
		dd.Status = planningStatus(dd.Planning)
		for _, r := range routes {
			if r.DriverID == u.ID && r.Status != RouteCancelled {
				dd.Routes++
			}
		}
		for _, d := range deliveries {
			if d.DriverID != u.ID {
				continue
			}
			switch d.Status {
			case StatusDelivered:
				dd.Delivered++
			case StatusAssigned, StatusInTransit:
				dd.Assigned++
			}
		}
		if dd.Planning != nil && dd.Planning.Available {
			dd.RemainingSlots = dd.Planning.MaxDeliveries - dd.Assigned - dd.Delivered
			if dd.RemainingSlots < 0 {
				dd.RemainingSlots = 0
			}
		}

		switch dd.Status {
		case PlanningAvailable:
			out.Available++
		case PlanningUnavailable:
			out.Unavailable++
		default:
			out.NoPlanning++
		}
		out.Drivers = append(out.Drivers, dd)
	}
	sort.SliceStable(out.Drivers, func(i, j int) bool { return out.Drivers[i].Name < out.Drivers[j].Name })
	return out, nil
}
