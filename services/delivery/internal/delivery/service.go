package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/mediaclient"
	"github.com/appetiteclub/catering/pkg/mq"
	"github.com/appetiteclub/catering/pkg/orderclient"
	"github.com/appetiteclub/catering/pkg/userclient"
)

// Orders is the part of the order service internal API used by logistics.
type Orders interface {
	Get(ctx context.Context, id string) (*orderclient.Order, error)
	GetByNumber(ctx context.Context, number string) (*orderclient.Order, error)
	List(ctx context.Context, f orderclient.Filter) ([]orderclient.Order, error)
	MarkDelivered(ctx context.Context, id, changedBy string) (*orderclient.Order, error)
}

// Broadcaster fans delivery events out to live subscribers.
type Broadcaster interface {
	Broadcast(evt event.DeliveryEvent)
}

type Deps struct {
	Orders    Orders
	Media     mediaclient.Uploader
	Users     userclient.Directory
	Publisher events.Publisher
	Mail      mq.MailQueue
	Stream    Broadcaster
	Logger    apt.Logger
}

type Service struct {
	repos     Repos
	orders    Orders
	media     mediaclient.Uploader
	users     userclient.Directory
	publisher events.Publisher
	mail      mq.MailQueue
	stream    Broadcaster
	logger    apt.Logger
	now       func() time.Time
}

func NewService(repos Repos, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{
		repos:     repos,
		orders:    deps.Orders,
		media:     deps.Media,
		users:     deps.Users,
		publisher: deps.Publisher,
		mail:      deps.Mail,
		stream:    deps.Stream,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) today() string {
	return day.Today(s.now())
}

// CreateForOrder creates the delivery of a confirmed order. It reports false when the
// order already has one, which makes redelivered events harmless.
func (s *Service) CreateForOrder(ctx context.Context, o event.OrderSnapshot, by string) (*Delivery, bool, error) {
	if o.ID == "" || o.Number == "" {
		return nil, false, fmt.Errorf("%w: order reference missing", ErrInvalidInput)
	}
	if _, err := day.Parse(o.DeliveryDate); err != nil {
		return nil, false, fmt.Errorf("%w: order %s has no valid delivery date", ErrInvalidInput, o.Number)
	}

	existing, err := s.repos.Deliveries.List(ctx, Filter{OrderID: o.ID, Types: []string{TypeDelivery}, Limit: 1})
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return nil, false, nil
	}

	now := s.now()
	d := FromOrder(o, s.today(), by, now)
	d.ID = apt.GenerateNewID()
	seq, err := s.repos.Deliveries.NextSequence(ctx, day.Format(now.UTC()))
	if err != nil {
		return nil, false, fmt.Errorf("number delivery: %w", err)
	}
	d.Number = FormatNumber(now.UTC(), seq)

	created, err := s.repos.Deliveries.CreateForOrder(ctx, d)
	if err != nil {
		return nil, false, fmt.Errorf("store delivery for %s: %w", o.Number, err)
	}
	if !created {
		return nil, false, nil
	}

	s.logger.Info("delivery created", "number", d.Number, "order", d.OrderNumber, "priority", d.Priority)
	s.notify(ctx, &Notification{
		RecipientRole: role.Roles.DeliveryManager.Name,
		Type:          NotifyNewDelivery,
		Title:         "New delivery " + d.Number,
		Message:       fmt.Sprintf("%s on %s at %s, %s %s", d.CustomerName, d.ScheduledDate, d.ScheduledStart, d.Address, d.City),
		Priority:      notificationPriority(d.Priority),
		DeliveryID:    d.ID.String(),
	})
	s.emit(ctx, event.EventDeliveryCreated, d)
	return d, true, nil
}

func notificationPriority(p string) string {
	if p == "urgent" {
		return NotificationUrgent
	}
	return NotificationNormal
}

// HandleConfirmed reacts to an order confirmation. Pickup orders get no delivery.
func (s *Service) HandleConfirmed(ctx context.Context, o event.OrderSnapshot) (bool, error) {
	if o.DeliveryType != TypeDelivery {
		return false, nil
	}
	_, created, err := s.CreateForOrder(ctx, o, "system")
	return created, err
}

// CreateFromOrderNumber is the manual creation by a manager.
func (s *Service) CreateFromOrderNumber(ctx context.Context, p auth.Principal, number string) (*Delivery, error) {
	o, err := s.orders.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil || o == nil {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, number)
	}
	if o.Status != orderstatus.Statuses.Confirmed.Name {
		return nil, fmt.Errorf("%w: order %s is %s, not confirmed", ErrInvalidInput, o.Number, o.Status)
	}
	d, created, err := s.CreateForOrder(ctx, o.OrderSnapshot, p.UserID)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("%w for order %s", ErrExists, o.Number)
	}
	return d, nil
}

type BulkResult struct {
	Date    string      `json:"date"`
	Created []*Delivery `json:"created"`
	Skipped int         `json:"skipped"`
}

// CreateBulk creates the missing deliveries of the confirmed orders due on date.
func (s *Service) CreateBulk(ctx context.Context, p auth.Principal, date string) (*BulkResult, error) {
	if _, err := day.Parse(date); err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidInput, date)
	}
	orders, err := s.orders.List(ctx, orderclient.Filter{
		DeliveryDate: date,
		Statuses:     []string{orderstatus.Statuses.Confirmed.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("list confirmed orders: %w", err)
	}

	res := &BulkResult{Date: date, Created: []*Delivery{}}
	for _, o := range orders {
		if o.DeliveryType != TypeDelivery {
			continue
		}
		d, created, err := s.CreateForOrder(ctx, o.OrderSnapshot, p.UserID)
		if err != nil {
			return nil, err
		}
		if !created {
			res.Skipped++
			continue
		}
		res.Created = append(res.Created, d)
	}
	return res, nil
}

type PickupInput struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

// CreatePickup schedules the collection of what a delivery left on site.
func (s *Service) CreatePickup(ctx context.Context, p auth.Principal, parentID uuid.UUID, in PickupInput) (*Delivery, error) {
	parent, err := s.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.Type != TypeDelivery {
		return nil, fmt.Errorf("%w: a pickup must follow a delivery", ErrInvalidInput)
	}
	if in.Date == "" {
		in.Date = parent.ScheduledDate
	}
	if _, err := day.Parse(in.Date); err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidInput, in.Date)
	}
	if in.StartTime == "" {
		in.StartTime = parent.ScheduledEnd
	}
	if _, err := day.ParseClock(in.StartTime); err != nil {
		return nil, fmt.Errorf("%w: start_time %q", ErrInvalidInput, in.StartTime)
	}

	now := s.now()
	pickup := PickupOf(parent, in.Date, in.StartTime, p.UserID, now)
	pickup.ID = apt.GenerateNewID()
	seq, err := s.repos.Deliveries.NextSequence(ctx, day.Format(now.UTC()))
	if err != nil {
		return nil, fmt.Errorf("number pickup: %w", err)
	}
	pickup.Number = FormatNumber(now.UTC(), seq)
	if err := s.repos.Deliveries.Create(ctx, pickup); err != nil {
		return nil, fmt.Errorf("store pickup: %w", err)
	}
	s.emit(ctx, event.EventDeliveryCreated, pickup)
	return pickup, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Delivery, error) {
	d, err := s.repos.Deliveries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("delivery: %w", ErrNotFound)
	}
	return d, nil
}

// GetFor hides deliveries of other drivers.
func (s *Service) GetFor(ctx context.Context, p auth.Principal, id uuid.UUID) (*Delivery, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if isDriver(p) && d.DriverID != p.UserID {
		return nil, fmt.Errorf("delivery: %w", ErrNotFound)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, p auth.Principal, f Filter) ([]*Delivery, error) {
	if isDriver(p) {
		f.DriverID = p.UserID
	}
	return s.repos.Deliveries.List(ctx, f)
}

// ChangeStatus is the manager's manual status update.
func (s *Service) ChangeStatus(ctx context.Context, p auth.Principal, id uuid.UUID, status, notes string) (*Delivery, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := d.SetStatus(status, p.UserID, s.now()); err != nil {
		return nil, err
	}
	if notes != "" {
		d.DeliveryNotes = notes
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	if status == StatusDelivered {
		s.advanceOrder(ctx, d.OrderID, p.UserID)
	}
	return d, nil
}

// CancelForOrder cancels the open deliveries of a cancelled order.
func (s *Service) CancelForOrder(ctx context.Context, orderID string) (int, error) {
	list, err := s.repos.Deliveries.List(ctx, Filter{OrderID: orderID, Statuses: Open})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range list {
		if err := d.SetStatus(StatusCancelled, "system", s.now()); err != nil {
			continue
		}
		if err := s.save(ctx, d); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// MarkChecklistCompleted flags the deliveries of an order as ready to load.
func (s *Service) MarkChecklistCompleted(ctx context.Context, orderID string) (int, error) {
	list, err := s.repos.Deliveries.List(ctx, Filter{OrderID: orderID})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range list {
		if d.ChecklistCompleted {
			continue
		}
		d.ChecklistCompleted = true
		d.UpdatedAt = s.now()
		if err := s.repos.Deliveries.Save(ctx, d); err != nil {
			return n, fmt.Errorf("save delivery %s: %w", d.Number, err)
		}
		n++
	}
	return n, nil
}

// advanceOrder marks the order delivered in one transition. Failures are logged,
// the delivery itself is already recorded.
func (s *Service) advanceOrder(ctx context.Context, orderID, by string) {
	if s.orders == nil || orderID == "" {
		return
	}
	o, err := s.orders.MarkDelivered(ctx, orderID, by)
	if err != nil {
		s.logger.Error("cannot mark order delivered", "order_id", orderID, "error", err)
		return
	}
	if o.Status != orderstatus.Statuses.Delivered.Name {
		s.logger.Info("order left unchanged by delivery", "order", o.Number, "status", o.Status)
	}
}

func (s *Service) save(ctx context.Context, d *Delivery) error {
	if err := s.repos.Deliveries.Save(ctx, d); err != nil {
		return fmt.Errorf("save delivery %s: %w", d.Number, err)
	}
	s.emit(ctx, event.EventDeliveryStatusChanged, d)
	return nil
}

func (s *Service) emit(ctx context.Context, eventType string, d *Delivery) {
	evt := event.DeliveryEvent{
		EventType:      eventType,
		OccurredAt:     s.now().UTC(),
		DeliveryID:     d.ID.String(),
		DeliveryNumber: d.Number,
		OrderID:        d.OrderID,
		OrderNumber:    d.OrderNumber,
		DriverID:       d.DriverID,
		Status:         d.Status,
		PreviousStatus: d.PreviousStatus(),
		Priority:       d.Priority,
	}
	if d.RouteID != nil {
		evt.RouteID = d.RouteID.String()
	}
	if s.stream != nil {
		s.stream.Broadcast(evt)
	}
	if s.publisher == nil {
		return
	}
	msg, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot encode delivery event", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event.DeliveriesTopic, msg); err != nil {
		s.logger.Error("cannot publish delivery event", "number", d.Number, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, n *Notification) {
	n.ID = apt.GenerateNewID()
	n.CreatedAt = s.now()
	if n.Priority == "" {
		n.Priority = NotificationNormal
	}
	if err := s.repos.Notifications.Create(ctx, n); err != nil {
		s.logger.Error("cannot store delivery notification", "title", n.Title, "error", err)
	}
}

// mailManagers sends a plain text mail to every delivery manager.
func (s *Service) mailManagers(ctx context.Context, kind, subject, body string) {
	if s.mail == nil || s.users == nil {
		return
	}
	managers, err := s.users.ListByRole(ctx, role.Roles.DeliveryManager.Name)
	if err != nil {
		s.logger.Error("cannot list delivery managers", "error", err)
		return
	}
	var to []string
	for _, m := range managers {
		if m.Email != "" {
			to = append(to, m.Email)
		}
	}
	if len(to) == 0 {
		return
	}
	if err := s.mail.Enqueue(ctx, event.MailMessage{Kind: kind, To: to, Subject: subject, Body: body}); err != nil {
		s.logger.Error("cannot enqueue manager mail", "kind", kind, "error", err)
	}
}

func (s *Service) Notifications(ctx context.Context, p auth.Principal, unreadOnly bool) ([]*Notification, error) {
	return s.repos.Notifications.List(ctx, p.Role, p.UserID, unreadOnly)
}

func (s *Service) MarkNotificationRead(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	return s.repos.Notifications.MarkRead(ctx, id, p.Role, p.UserID)
}

func isDriver(p auth.Principal) bool {
	return p.Role == role.Roles.Driver.Name
}
