package kitchen

import (
	"context"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/enums/department"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/money"
)

type SupplyInput struct {
	Department string       `json:"department"`
	Lines      []SupplyLine `json:"lines"`
	Notes      string       `json:"notes"`
	NeededBy   string       `json:"needed_by"`
}

// CreateSupply stores a draft supply order for the chef's department.
func (s *Service) CreateSupply(ctx context.Context, p auth.Principal, in SupplyInput) (*SupplyOrder, error) {
	dept := in.Department
	if p.Department != "" {
		dept = p.Department
	}
	if department.ByName(dept) == nil {
		return nil, fmt.Errorf("%w: unknown department %q", ErrInvalidInput, dept)
	}
	if !canWork(p, dept) {
		return nil, ErrForbidden
	}

	now := s.now()
	so := &SupplyOrder{
		ID:         apt.GenerateNewID(),
		Department: dept,
		Status:     SupplyDraft,
		Notes:      strings.TrimSpace(in.Notes),
		NeededBy:   in.NeededBy,
		CreatedBy:  p.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := so.SetLines(in.Lines); err != nil {
		return nil, err
	}
	if err := s.repos.Supplies.Create(ctx, so); err != nil {
		return nil, fmt.Errorf("store supply order: %w", err)
	}
	return so, nil
}

func (s *Service) ListSupplies(ctx context.Context, p auth.Principal, status string) ([]*SupplyOrder, error) {
	dept := ""
	if !p.HasRole(role.Roles.HeadChef.Name, role.Roles.Admin.Name) {
		dept = p.Department
	}
	var statuses []string
	if status != "" {
		statuses = []string{status}
	}
	return s.repos.Supplies.List(ctx, dept, statuses)
}

func (s *Service) GetSupply(ctx context.Context, p auth.Principal, id uuid.UUID) (*SupplyOrder, error) {
	so, err := s.repos.Supplies.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if so == nil || !canWork(p, so.Department) {
		return nil, fmt.Errorf("supply order: %w", ErrNotFound)
	}
	return so, nil
}

// SubmitSupply sends a draft to the head chef.
func (s *Service) SubmitSupply(ctx context.Context, p auth.Principal, id uuid.UUID) (*SupplyOrder, error) {
	so, err := s.transitionSupply(ctx, p, id, SupplyPending)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, &Notification{
		RecipientRole: role.Roles.HeadChef.Name,
		Title:         fmt.Sprintf("Supply order from %s", so.Department),
		Message:       fmt.Sprintf("%d lines, total %s", len(so.Lines), money.Format(so.Total)),
	})
	return so, nil
}

// ReviewSupply approves or rejects a pending supply order.
func (s *Service) ReviewSupply(ctx context.Context, p auth.Principal, id uuid.UUID, approve bool) (*SupplyOrder, error) {
	to := SupplyCancelled
	verdict := "rejected"
	if approve {
		to = SupplyApproved
		verdict = "approved"
	}
	current, err := s.GetSupply(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if current.Status != SupplyPending {
		return nil, fmt.Errorf("%w: only pending supply orders can be reviewed", ErrInvalidTransition)
	}
	so, err := s.transitionSupply(ctx, p, id, to)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, &Notification{
		RecipientRole: role.Roles.DepartmentChef.Name,
		Department:    so.Department,
		Title:         "Supply order " + verdict,
		Message:       fmt.Sprintf("Your supply order of %s was %s.", money.Format(so.Total), verdict),
	})
	return so, nil
}

func (s *Service) MarkSupplyOrdered(ctx context.Context, p auth.Principal, id uuid.UUID) (*SupplyOrder, error) {
	return s.transitionSupply(ctx, p, id, SupplyOrdered)
}

func (s *Service) MarkSupplyReceived(ctx context.Context, p auth.Principal, id uuid.UUID) (*SupplyOrder, error) {
	return s.transitionSupply(ctx, p, id, SupplyReceived)
}

func (s *Service) transitionSupply(ctx context.Context, p auth.Principal, id uuid.UUID, to string) (*SupplyOrder, error) {
	so, err := s.GetSupply(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := so.Transition(to, p.UserID, s.now()); err != nil {
		return nil, err
	}
	if err := s.repos.Supplies.Save(ctx, so); err != nil {
		return nil, fmt.Errorf("save supply order: %w", err)
	}
	return so, nil
}

func notificationScope(p auth.Principal) (string, string) {
	if p.HasRole(role.Roles.DepartmentChef.Name, role.Roles.Cook.Name) {
		return p.Role, p.Department
	}
	return p.Role, ""
}

func (s *Service) Notifications(ctx context.Context, p auth.Principal, unreadOnly bool) ([]*Notification, error) {
	r, dept := notificationScope(p)
	return s.repos.Notifications.List(ctx, r, dept, unreadOnly)
}

func (s *Service) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	return s.repos.Notifications.MarkRead(ctx, id)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, p auth.Principal) (int64, error) {
	r, dept := notificationScope(p)
	return s.repos.Notifications.MarkAllRead(ctx, r, dept)
}
