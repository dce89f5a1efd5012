package kitchen

import (
	"context"
	"fmt"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/department"
)

type HeadChefDashboard struct {
	Date                  string             `json:"date"`
	Departments           []*DepartmentBoard `json:"departments"`
	CompletedProductions  int                `json:"completed_productions"`
	InProgressProductions int                `json:"in_progress_productions"`
	TotalItems            int                `json:"total_items"`
	CompletedItems        int                `json:"completed_items"`
	PendingSupplyOrders   []*SupplyOrder     `json:"pending_supply_orders"`
	UnreadNotifications   int                `json:"unread_notifications"`
}

func (s *Service) HeadChefDashboard(ctx context.Context, p auth.Principal, date string) (*HeadChefDashboard, error) {
	if date == "" {
		date = day.Today(s.now())
	}
	boards, err := s.Board(ctx, date)
	if err != nil {
		return nil, err
	}

	d := &HeadChefDashboard{Date: date, Departments: boards}
	for _, b := range boards {
		switch b.Production.Status {
		case ProductionCompleted:
			d.CompletedProductions++
		case ProductionInProgress:
			d.InProgressProductions++
		}
		d.TotalItems += b.Production.TotalItems
		d.CompletedItems += b.Production.CompletedItems
	}

	d.PendingSupplyOrders, err = s.repos.Supplies.List(ctx, "", []string{SupplyPending})
	if err != nil {
		return nil, err
	}
	unread, err := s.repos.Notifications.List(ctx, p.Role, "", true)
	if err != nil {
		return nil, err
	}
	d.UnreadNotifications = len(unread)
	return d, nil
}

type DepartmentDashboard struct {
	Date       string         `json:"date"`
	Department string         `json:"department"`
	Label      string         `json:"label"`
	Items      []*Item        `json:"items"`
	Counts     map[string]int `json:"counts"`
	Production *Production    `json:"production,omitempty"`
	Supplies   []*SupplyOrder `json:"supply_orders"`
}

// DepartmentChefDashboard lists a department's items. Filter accepts an item status or "priority".
func (s *Service) DepartmentChefDashboard(ctx context.Context, p auth.Principal, dept, date, filter string) (*DepartmentDashboard, error) {
	d, err := s.departmentDashboard(ctx, p, dept, date, filter)
	if err != nil {
		return nil, err
	}
	d.Supplies, err = s.repos.Supplies.List(ctx, d.Department, nil)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// CookDashboard shows today's items of the cook's department.
func (s *Service) CookDashboard(ctx context.Context, p auth.Principal) (*DepartmentDashboard, error) {
	return s.departmentDashboard(ctx, p, "", "", "")
}

func (s *Service) departmentDashboard(ctx context.Context, p auth.Principal, dept, date, filter string) (*DepartmentDashboard, error) {
	if dept == "" {
		dept = p.Department
	}
	dep := department.ByName(dept)
	if dep == nil {
		return nil, fmt.Errorf("%w: unknown department %q", ErrInvalidInput, dept)
	}
	if !canWork(p, dep.Name) {
		return nil, ErrForbidden
	}
	if date == "" {
		date = day.Today(s.now())
	}

	all, err := s.repos.Items.List(ctx, ItemFilter{Date: date, Department: dep.Name})
	if err != nil {
		return nil, err
	}

	counts := map[string]int{ItemPending: 0, ItemInProgress: 0, ItemCompleted: 0, ItemIssue: 0, "priority": 0}
	var items []*Item
	for _, it := range all {
		if it.Status == ItemCancelled {
			continue
		}
		counts[it.Status]++
		if it.Priority && it.Open() {
			counts["priority"]++
		}
		if matchesFilter(it, filter) {
			items = append(items, it)
		}
	}
	SortItems(items)

	d := &DepartmentDashboard{Date: date, Department: dep.Name, Label: dep.Title, Items: items, Counts: counts}
	productions, err := s.repos.Productions.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, prod := range productions {
		if prod.Department == dep.Name {
			d.Production = prod
		}
	}
	return d, nil
}

func matchesFilter(it *Item, filter string) bool {
	switch filter {
	case "":
		return true
	case "priority":
		return it.Priority && it.Open()
	default:
		return it.Status == filter
	}
}
