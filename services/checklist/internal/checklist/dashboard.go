package checklist

import (
	"context"
	"fmt"
	"sort"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/day"
)

const (
	PeriodToday    = "today"
	PeriodTomorrow = "tomorrow"
	PeriodWeek     = "week"

	dashboardNotifications = 10
	notificationMax        = 100
	weekDays               = 7
)

type DashboardStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Today      int `json:"today"`
	Urgent     int `json:"urgent"`
}

type Dashboard struct {
	Checklists    []*Checklist    `json:"checklists"`
	Stats         DashboardStats  `json:"stats"`
	Notifications []*Notification `json:"notifications"`
	Status        string          `json:"current_status,omitempty"`
	Period        string          `json:"current_period,omitempty"`
}

// periodFilter narrows f to a delivery period counted from today. The week period
// keeps anything due within seven days, overdue lists included.
func periodFilter(f *Filter, period, today string) error {
	switch period {
	case "":
	case PeriodToday:
		f.DeliveryDate = today
	case PeriodTomorrow:
		f.DeliveryDate, _ = day.Add(today, 1)
	case PeriodWeek:
		f.To, _ = day.Add(today, weekDays)
	default:
		return fmt.Errorf("%w: period must be today, tomorrow or week", ErrInvalidInput)
	}
	return nil
}

// SortByUrgency orders by priority, highest first, then by delivery date and time.
func SortByUrgency(list []*Checklist) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.DeliveryDate != b.DeliveryDate {
			return a.DeliveryDate < b.DeliveryDate
		}
		return a.DeliveryTime < b.DeliveryTime
	})
}

// Dashboard lists the checklists p works on. Admins see all of them.
func (s *Service) Dashboard(ctx context.Context, p auth.Principal, status, period string) (*Dashboard, error) {
	if status != "" && status != StatusPending && status != StatusInProgress && status != StatusCompleted {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	today := s.today()
	f := Filter{AssignedTo: s.audience(p), Status: status}
	if err := periodFilter(&f, period, today); err != nil {
		return nil, err
	}

	list, err := s.repos.Checklists.List(ctx, f)
	if err != nil {
		return nil, err
	}
	SortByUrgency(list)

	dash := &Dashboard{Checklists: list, Status: status, Period: period}
	for _, c := range list {
		dash.Stats.Total++
		switch c.Status {
		case StatusPending:
			dash.Stats.Pending++
		case StatusInProgress:
			dash.Stats.InProgress++
		case StatusCompleted:
			dash.Stats.Completed++
		}
		if c.DeliveryDate == today {
			dash.Stats.Today++
		}
		if c.Priority == PriorityUrgent {
			dash.Stats.Urgent++
		}
	}

	dash.Notifications, err = s.repos.Notifications.List(ctx, s.audience(p), true, dashboardNotifications)
	if err != nil {
		return nil, err
	}
	return dash, nil
}
