package banquet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/mediaclient"
	"github.com/appetiteclub/catering/pkg/orderclient"
	"github.com/appetiteclub/catering/pkg/userclient"
)

// Orders resolves the order an event is catered from.
type Orders interface {
	GetByNumber(ctx context.Context, number string) (*orderclient.Order, error)
}

type Deps struct {
	Orders Orders
	Media  mediaclient.Uploader
	Users  userclient.Directory
	Logger apt.Logger
}

type Service struct {
	repos  Repos
	orders Orders
	media  mediaclient.Uploader
	users  userclient.Directory
	logger apt.Logger
	now    func() time.Time
}

func NewService(repos Repos, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{
		repos:  repos,
		orders: deps.Orders,
		media:  deps.Media,
		users:  deps.Users,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) today() string {
	return day.Today(s.now())
}

func (s *Service) nextNumber(ctx context.Context, prefix string) (string, error) {
	now := s.now().UTC()
	seq, err := s.repos.Contracts.NextSequence(ctx, strings.ToLower(prefix)+"-"+day.Format(now))
	if err != nil {
		return "", fmt.Errorf("number %s: %w", prefix, err)
	}
	return FormatNumber(prefix, now, seq), nil
}

// CreateContract records a draft event and tells its maître d'hôtel.
func (s *Service) CreateContract(ctx context.Context, p auth.Principal, in ContractInput) (*Contract, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	c := &Contract{
		ID:            apt.GenerateNewID(),
		Name:          in.Name,
		ClientName:    in.ClientName,
		ClientPhone:   strings.TrimSpace(in.ClientPhone),
		ClientEmail:   strings.TrimSpace(in.ClientEmail),
		Location:      in.Location,
		GuestCount:    in.GuestCount,
		Date:          in.Date,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		MaitreHotelID: in.MaitreHotelID,
		Status:        StatusDraft,
		Notes:         strings.TrimSpace(in.Notes),
		Staff:         []StaffAssignment{},
		CreatedBy:     p.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if in.OrderNumber != "" {
		if s.orders == nil {
			return nil, fmt.Errorf("order service is not configured")
		}
		o, err := s.orders.GetByNumber(ctx, in.OrderNumber)
		if err != nil || o == nil {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, in.OrderNumber)
		}
		c.OrderID, c.OrderNumber = o.ID, o.Number
		if c.ClientName == "" {
			c.ClientName = o.CustomerName()
		}
		if c.ClientPhone == "" {
			c.ClientPhone = o.Phone
		}
		if c.ClientEmail == "" {
			c.ClientEmail = o.Email
		}
	}
	if c.ClientName == "" {
		return nil, fmt.Errorf("%w: client_name or order_number is required", ErrInvalidInput)
	}

	number, err := s.nextNumber(ctx, "EVT")
	if err != nil {
		return nil, err
	}
	c.Number = number
	if err := s.repos.Contracts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("store contract: %w", err)
	}

	s.notify(ctx, c.MaitreHotelID, NotifyAssigned, "New event "+c.Name,
		fmt.Sprintf("%s on %s from %s to %s, %d guests", c.Location, c.Date, c.StartTime, c.EndTime, c.GuestCount), c)
	s.logger.Info("event contract created", "number", c.Number, "maitre_hotel_id", c.MaitreHotelID)
	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Contract, error) {
	c, err := s.repos.Contracts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("contract: %w", ErrNotFound)
	}
	return c, nil
}

// GetFor hides the contracts of other maîtres d'hôtel. Admins see every contract.
func (s *Service) GetFor(ctx context.Context, p auth.Principal, id uuid.UUID) (*Contract, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && c.MaitreHotelID != p.UserID {
		return nil, fmt.Errorf("contract: %w", ErrNotFound)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, p auth.Principal, f ContractFilter) ([]*Contract, error) {
	if !p.IsAdmin() {
		f.MaitreHotelID = p.UserID
	}
	return s.repos.Contracts.List(ctx, f)
}

func (s *Service) Confirm(ctx context.Context, p auth.Principal, id uuid.UUID) (*Contract, error) {
	c, err := s.transition(ctx, id, StatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, c.MaitreHotelID, NotifyConfirmed, "Event confirmed: "+c.Name,
		fmt.Sprintf("%s on %s at %s", c.Number, c.Date, c.StartTime), c)
	return c, nil
}

func (s *Service) Cancel(ctx context.Context, p auth.Principal, id uuid.UUID) (*Contract, error) {
	c, err := s.transition(ctx, id, StatusCancelled)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, c.MaitreHotelID, NotifyCancelled, "Event cancelled: "+c.Name,
		fmt.Sprintf("%s on %s was cancelled", c.Number, c.Date), c)
	return c, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to string) (*Contract, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.SetStatus(to, s.now()); err != nil {
		return nil, err
	}
	if err := s.repos.Contracts.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save contract %s: %w", c.Number, err)
	}
	s.logger.Info("event contract status changed", "number", c.Number, "status", to)
	return c, nil
}

// AssignStaff replaces the staff of an event that has not ended.
func (s *Service) AssignStaff(ctx context.Context, p auth.Principal, id uuid.UUID, staff []StaffAssignment) (*Contract, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusCompleted || c.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: contract is %s", ErrInvalidTransition, c.Status)
	}
	seen := map[string]bool{}
	out := make([]StaffAssignment, 0, len(staff))
	for _, a := range staff {
		a.Name = strings.TrimSpace(a.Name)
		a.Position = strings.TrimSpace(a.Position)
		if a.UserID == "" && a.Name == "" {
			return nil, fmt.Errorf("%w: staff member needs user_id or name", ErrInvalidInput)
		}
		if a.ArrivalTime != "" {
			if _, err := day.ParseClock(a.ArrivalTime); err != nil {
				return nil, fmt.Errorf("%w: arrival_time %q", ErrInvalidInput, a.ArrivalTime)
			}
		}
		key := a.UserID
		if key == "" {
			key = a.Name
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: %s listed twice", ErrInvalidInput, key)
		}
		seen[key] = true
		out = append(out, a)
	}

	c.Staff = out
	c.UpdatedAt = s.now()
	if err := s.repos.Contracts.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save contract %s: %w", c.Number, err)
	}
	s.notify(ctx, c.MaitreHotelID, NotifyStaff, "Staff updated: "+c.Name,
		fmt.Sprintf("%d people assigned", len(out)), c)
	return c, nil
}

func (s *Service) notify(ctx context.Context, recipientID, kind, title, message string, c *Contract) {
	if recipientID == "" {
		return
	}
	n := &Notification{
		ID:          apt.GenerateNewID(),
		RecipientID: recipientID,
		Type:        kind,
		Title:       title,
		Message:     message,
		CreatedAt:   s.now(),
	}
	if c != nil {
		n.ContractID = c.ID.String()
	}
	if err := s.repos.Notifications.Create(ctx, n); err != nil {
		s.logger.Error("cannot store event notification", "title", title, "error", err)
	}
}

// notifyAdmins sends one notification to every admin account.
func (s *Service) notifyAdmins(ctx context.Context, kind, title, message string, c *Contract) {
	if s.users == nil {
		return
	}
	admins, err := s.users.ListByRole(ctx, role.Roles.Admin.Name)
	if err != nil {
		s.logger.Error("cannot list admins", "error", err)
		return
	}
	for _, a := range admins {
		s.notify(ctx, a.ID, kind, title, message, c)
	}
}
