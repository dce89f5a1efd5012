package delivery

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/orderclient"
)

type StatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Assigned  int `json:"assigned"`
	InTransit int `json:"in_transit"`
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

func (c *StatusCounts) add(status string) {
	c.Total++
	switch status {
	case StatusPending:
		c.Pending++
	case StatusAssigned:
		c.Assigned++
	case StatusInTransit:
		c.InTransit++
	case StatusDelivered:
		c.Delivered++
	case StatusFailed:
		c.Failed++
	case StatusCancelled:
		c.Cancelled++
	}
}

type ManagerDashboard struct {
	Date                string              `json:"date"`
	Stats               StatusCounts        `json:"stats"`
	Deliveries          []*Delivery         `json:"deliveries"`
	Unassigned          []*Delivery         `json:"unassigned"`
	OrdersToSchedule    []orderclient.Order `json:"orders_to_schedule"`
	Routes              []*Route            `json:"routes"`
	Planning            *PlanningOverview   `json:"planning,omitempty"`
	UrgentNotifications []*Notification     `json:"urgent_notifications"`
}

// ManagerDashboard gathers the logistics picture of a date.
func (s *Service) ManagerDashboard(ctx context.Context, p auth.Principal, date string) (*ManagerDashboard, error) {
	if date == "" {
		date = s.today()
	}
	if _, err := day.Parse(date); err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidInput, date)
	}

	deliveries, err := s.repos.Deliveries.List(ctx, Filter{Date: date})
	if err != nil {
		return nil, err
	}
	dash := &ManagerDashboard{
		Date:                date,
		Deliveries:          deliveries,
		Unassigned:          []*Delivery{},
		OrdersToSchedule:    []orderclient.Order{},
		UrgentNotifications: []*Notification{},
	}
	for _, d := range deliveries {
		dash.Stats.add(d.Status)
		if d.Status == StatusPending && d.RouteID == nil {
			dash.Unassigned = append(dash.Unassigned, d)
		}
	}

	if s.orders != nil {
		confirmed, err := s.orders.List(ctx, orderclient.Filter{
			DeliveryDate: date,
			Statuses:     []string{orderstatus.Statuses.Confirmed.Name},
		})
		if err != nil {
			return nil, fmt.Errorf("list confirmed orders: %w", err)
		}
		scheduled := map[string]bool{}
		for _, d := range deliveries {
			if d.Type == TypeDelivery {
				scheduled[d.OrderID] = true
			}
		}
		for _, o := range confirmed {
			if o.DeliveryType == TypeDelivery && !scheduled[o.ID] {
				dash.OrdersToSchedule = append(dash.OrdersToSchedule, o)
			}
		}
		sort.SliceStable(dash.OrdersToSchedule, func(i, j int) bool {
			return dash.OrdersToSchedule[i].DeliveryTime < dash.OrdersToSchedule[j].DeliveryTime
		})
	}

	dash.Routes, err = s.repos.Routes.List(ctx, RouteFilter{Date: date})
	if err != nil {
		return nil, err
	}
	if s.users != nil {
		dash.Planning, err = s.PlanningOverview(ctx, date)
		if err != nil {
			s.logger.Error("cannot build planning overview", "date", date, "error", err)
		}
	}

	unread, err := s.repos.Notifications.List(ctx, p.Role, p.UserID, true)
	if err != nil {
		return nil, err
	}
	for _, n := range unread {
		if n.Priority == NotificationUrgent && len(dash.UrgentNotifications) < 5 {
			dash.UrgentNotifications = append(dash.UrgentNotifications, n)
		}
	}
	return dash, nil
}

type DriverPerformance struct {
	DriverID    string  `json:"driver_id"`
	Name        string  `json:"name"`
	Routes      int     `json:"routes"`
	Deliveries  int     `json:"deliveries"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

type DailyCount struct {
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

type Report struct {
	Period      string               `json:"period"`
	From        string               `json:"from"`
	To          string               `json:"to"`
	Stats       StatusCounts         `json:"stats"`
	SuccessRate float64              `json:"success_rate"`
	OnTimeRate  float64              `json:"on_time_rate"`
	Drivers     []*DriverPerformance `json:"drivers"`
	Daily       []DailyCount         `json:"daily"`
}

// periodDays maps a report period to its length in days. Month is the default.
func periodDays(period string) (string, int) {
	switch period {
	case "week":
		return period, 7
	case "year":
		return period, 365
	default:
		return "month", 30
	}
}

// Report summarises the deliveries scheduled over the period ending today.
func (s *Service) Report(ctx context.Context, period string) (*Report, error) {
	period, days := periodDays(period)
	to := s.today()
	from, err := day.Add(to, -days)
	if err != nil {
		return nil, err
	}
	deliveries, err := s.repos.Deliveries.List(ctx, Filter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	routes, err := s.repos.Routes.List(ctx, RouteFilter{})
	if err != nil {
		return nil, err
	}
	names := map[string]string{}
	if s.users != nil {
		if drivers, err := s.users.ListByRole(ctx, role.Roles.Driver.Name); err == nil {
			for _, u := range drivers {
				names[u.ID] = u.Name()
			}
		}
	}
	return buildReport(period, from, to, deliveries, routes, names), nil
}

func buildReport(period, from, to string, deliveries []*Delivery, routes []*Route, names map[string]string) *Report {
	rep := &Report{Period: period, From: from, To: to, Drivers: []*DriverPerformance{}, Daily: []DailyCount{}}

	perDriver := map[string]*DriverPerformance{}
	driver := func(id string) *DriverPerformance {
		dp := perDriver[id]
		if dp == nil {
			dp = &DriverPerformance{DriverID: id, Name: names[id]}
			perDriver[id] = dp
		}
		return dp
	}
	daily := map[string]*DailyCount{}
	onTime := 0

	for _, d := range deliveries {
		rep.Stats.add(d.Status)
		dc := daily[d.ScheduledDate]
		if dc == nil {
			dc = &DailyCount{Date: d.ScheduledDate}
			daily[d.ScheduledDate] = dc
		}
		dc.Total++
		switch d.Status {
		case StatusDelivered:
			dc.Completed++
			if deliveredOnTime(d) {
				onTime++
			}
		case StatusFailed:
			dc.Failed++
		}
		if d.DriverID == "" {
			continue
		}
		dp := driver(d.DriverID)
		dp.Deliveries++
		switch d.Status {
		case StatusDelivered:
			dp.Completed++
		case StatusFailed:
			dp.Failed++
		}
	}
	for _, r := range routes {
		if r.Date >= from && r.Date <= to {
			driver(r.DriverID).Routes++
		}
	}

	if rep.Stats.Total > 0 {
		rep.SuccessRate = percent(rep.Stats.Delivered, rep.Stats.Total)
	}
	if rep.Stats.Delivered > 0 {
		rep.OnTimeRate = percent(onTime, rep.Stats.Delivered)
	}
	for _, dp := range perDriver {
		if dp.Deliveries > 0 {
			dp.SuccessRate = percent(dp.Completed, dp.Deliveries)
		}
		rep.Drivers = append(rep.Drivers, dp)
	}
	sort.Slice(rep.Drivers, func(i, j int) bool { return rep.Drivers[i].DriverID < rep.Drivers[j].DriverID })
	for _, dc := range daily {
		rep.Daily = append(rep.Daily, *dc)
	}
	sort.Slice(rep.Daily, func(i, j int) bool { return rep.Daily[i].Date < rep.Daily[j].Date })
	return rep
}

func percent(n, total int) float64 {
	return float64(n*1000/total) / 10
}

// deliveredOnTime compares the delivery time with the end of the slot, in UTC.
func deliveredOnTime(d *Delivery) bool {
	if d.DeliveredAt == nil {
		return false
	}
	end, err := time.Parse(day.Layout+" "+day.TimeLayout, d.ScheduledDate+" "+d.ScheduledEnd)
	if err != nil {
		return false
	}
	return !d.DeliveredAt.UTC().After(end)
}

var exportHeader = []string{
	"number", "type", "date", "time", "customer", "phone", "address", "postal_code", "city",
	"status", "driver_id", "route_id", "delivered_at", "duration_minutes", "notes",
}

// WriteCSV renders deliveries for spreadsheet export.
func WriteCSV(w io.Writer, deliveries []*Delivery) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, d := range deliveries {
		route, deliveredAt, duration := "", "", ""
		if d.RouteID != nil {
			route = d.RouteID.String()
		}
		if d.DeliveredAt != nil {
			deliveredAt = d.DeliveredAt.UTC().Format(time.RFC3339)
			duration = strconv.Itoa(int(d.DeliveredAt.Sub(d.CreatedAt).Minutes()))
		}
		row := []string{
			d.Number, d.Type, d.ScheduledDate, d.ScheduledStart, d.CustomerName, d.Phone,
			d.Address, d.PostalCode, d.City, d.Status, d.DriverID, route, deliveredAt, duration,
			d.DeliveryNotes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
