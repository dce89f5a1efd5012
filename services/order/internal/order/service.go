package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/money"
	"github.com/appetiteclub/catering/pkg/mq"
	"github.com/appetiteclub/catering/pkg/orderclient"
)

type Service struct {
	repo      Repo
	publisher events.Publisher
	mail      mq.MailQueue
	siteURL   string
	logger    apt.Logger
	now       func() time.Time
}

func NewService(repo Repo, publisher events.Publisher, mail mq.MailQueue, siteURL string, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		mail:      mail,
		siteURL:   strings.TrimRight(siteURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

func validateCreate(req orderclient.CreateRequest) error {
	var missing []string
	if req.FirstName == "" {
		missing = append(missing, "first_name")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Phone == "" {
		missing = append(missing, "phone")
	}
	if _, err := day.Parse(req.DeliveryDate); err != nil {
		missing = append(missing, "delivery_date")
	}
	if _, err := day.ParseClock(req.DeliveryTime); err != nil {
		missing = append(missing, "delivery_time")
	}
	switch req.DeliveryType {
	case DeliveryTypePickup:
	case DeliveryTypeDelivery:
		if req.Address == "" || req.City == "" || req.PostalCode == "" {
			missing = append(missing, "address")
		}
	default:
		missing = append(missing, "delivery_type")
	}
	if len(req.Items) == 0 {
		missing = append(missing, "items")
	}
	for _, it := range req.Items {
		if it.Quantity < 1 || it.ProductID == "" {
			missing = append(missing, "items")
			break
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// Create stores a priced checkout as a pending order.
func (s *Service) Create(ctx context.Context, req orderclient.CreateRequest) (*Order, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	seq, err := s.repo.NextSequence(ctx, day.Format(now))
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}

	o := newOrder(now)
	o.Number = FormatNumber(now, seq)
	o.UserID = req.UserID
	o.DeliveryType = req.DeliveryType
	o.FirstName = req.FirstName
	o.LastName = req.LastName
	o.Email = req.Email
	o.Phone = req.Phone
	o.Company = req.Company
	o.Address = req.Address
	o.PostalCode = req.PostalCode
	o.City = req.City
	o.DeliveryDate = req.DeliveryDate
	o.DeliveryTime = req.DeliveryTime
	o.SpecialInstructions = req.SpecialInstructions
	o.PaymentMethod = req.PaymentMethod
	o.Subtotal = req.Subtotal
	o.Discount = req.Discount
	o.Tax = req.Tax
	o.DeliveryFee = req.DeliveryFee
	o.Total = req.Total
	o.PromoCodes = req.PromoCodes
	for _, it := range req.Items {
		o.Items = append(o.Items, Item{
			ID:         apt.GenerateNewID(),
			ProductID:  it.ProductID,
			Name:       it.Name,
			Department: it.Department,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Total:      money.Multiply(it.UnitPrice, it.Quantity),
			Notes:      it.Notes,
		})
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}

	snap := o.Snapshot()
	s.publish(ctx, event.OrdersCreatedTopic, event.OrderCreatedEvent{
		EventType:  event.EventOrderCreated,
		OccurredAt: now,
		Order:      snap,
	})
	s.enqueue(ctx, event.MailMessage{
		Kind:    event.MailOrderConfirmation,
		To:      []string{o.Email},
		Subject: fmt.Sprintf("Order %s received", o.Number),
		Body:    confirmationBody(o, s.trackURL(o.Number)),
		Order:   &snap,
	})

	return o, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

// GetFor returns the order when the principal may see it.
func (s *Service) GetFor(ctx context.Context, p auth.Principal, id uuid.UUID) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsBackOffice() && o.UserID != p.UserID {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	o, err := s.repo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *Service) Track(ctx context.Context, number string) (Tracking, error) {
	o, err := s.GetByNumber(ctx, number)
	if err != nil {
		return Tracking{}, err
	}
	return o.Tracking(), nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]*Order, error) {
	return s.repo.List(ctx, f)
}

// ListFor restricts customers to their own orders.
func (s *Service) ListFor(ctx context.Context, p auth.Principal, f Filter) ([]*Order, error) {
	if !p.IsBackOffice() {
		f = Filter{UserID: p.UserID, Statuses: f.Statuses, Limit: f.Limit}
	}
	return s.repo.List(ctx, f)
}

// ChangeStatus applies a lifecycle transition, then notifies the stream and the customer.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status, changedBy string) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, o, status, changedBy)
}

// CancelByCustomer lets the owner cancel a pending order.
func (s *Service) CancelByCustomer(ctx context.Context, p auth.Principal, id uuid.UUID) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != p.UserID {
		return nil, ErrForbidden
	}
	if o.Status != orderstatus.Statuses.Pending.Name {
		return nil, fmt.Errorf("%w: only pending orders can be cancelled", ErrInvalidTransition)
	}
	return s.transition(ctx, o, orderstatus.Statuses.Cancelled.Name, p.UserID)
}

// MarkDelivered closes an order handed over by a driver. It is a single
// transition, so the customer gets one mail. Delivered orders are returned as is.
func (s *Service) MarkDelivered(ctx context.Context, id uuid.UUID, changedBy string) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == orderstatus.Statuses.Delivered.Name {
		return o, nil
	}
	return s.move(ctx, o, changedBy, func(now time.Time) error {
		return o.Deliver(changedBy, now)
	})
}

func (s *Service) transition(ctx context.Context, o *Order, status, changedBy string) (*Order, error) {
	return s.move(ctx, o, changedBy, func(now time.Time) error {
		return o.Transition(status, changedBy, now)
	})
}

// move applies change to o, saves it against the status it was loaded with and
// then notifies the stream and the customer.
func (s *Service) move(ctx context.Context, o *Order, changedBy string, change func(now time.Time) error) (*Order, error) {
	previous := o.Status
	now := s.now().UTC()
	if err := change(now); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, o, previous); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	snap := o.Snapshot()
	s.publish(ctx, event.OrdersStatusChangedTopic, event.OrderStatusChangedEvent{
		EventType:      event.EventOrderStatusChanged,
		OccurredAt:     now,
		PreviousStatus: previous,
		NewStatus:      o.Status,
		ChangedBy:      changedBy,
		Order:          snap,
	})
	s.enqueue(ctx, event.MailMessage{
		Kind:    event.MailOrderStatus,
		To:      []string{o.Email},
		Subject: fmt.Sprintf("Order %s is now %s", o.Number, o.Tracking().StatusLabel),
		Body:    statusBody(o, s.trackURL(o.Number)),
	})

	s.logger.Info("order status changed", "number", o.Number, "from", previous, "to", o.Status)
	return o, nil
}

func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, paymentID, method string) (*Order, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment_id is required", ErrInvalidInput)
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := o.MarkPaid(paymentID, method, now); err != nil {
		return nil, err
	}
	if err := s.repo.MarkPaid(ctx, o); err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	s.publish(ctx, event.OrdersPaidTopic, event.OrderPaidEvent{
		EventType:     event.EventOrderPaid,
		OccurredAt:    now,
		OrderID:       o.ID.String(),
		OrderNumber:   o.Number,
		PaymentID:     paymentID,
		PaymentMethod: o.PaymentMethod,
		Amount:        o.Total,
	})
	return o, nil
}

// SendReminders mails every customer whose confirmed or preparing order is due tomorrow.
func (s *Service) SendReminders(ctx context.Context) error {
	tomorrow, err := day.Add(day.Today(s.now()), 1)
	if err != nil {
		return err
	}
	orders, err := s.repo.List(ctx, Filter{
		DeliveryDate: tomorrow,
		Statuses:     []string{orderstatus.Statuses.Confirmed.Name, orderstatus.Statuses.Preparing.Name},
	})
	if err != nil {
		return fmt.Errorf("list orders due %s: %w", tomorrow, err)
	}

	var errs []error
	for _, o := range orders {
		err := s.mail.Enqueue(ctx, event.MailMessage{
			Kind:    event.MailOrderReminder,
			To:      []string{o.Email},
			Subject: fmt.Sprintf("Reminder: order %s is scheduled for tomorrow", o.Number),
			Body:    reminderBody(o, s.trackURL(o.Number)),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("reminder for %s: %w", o.Number, err))
		}
	}
	s.logger.Info("order reminders enqueued", "date", tomorrow, "count", len(orders)-len(errs))
	return errors.Join(errs...)
}

func (s *Service) trackURL(number string) string {
	return s.siteURL + "/track/" + number
}

func (s *Service) publish(ctx context.Context, topic string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("cannot encode order event", "topic", topic, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, topic, msg); err != nil {
		s.logger.Error("cannot publish order event", "topic", topic, "error", err)
	}
}

func (s *Service) enqueue(ctx context.Context, msg event.MailMessage) {
	if s.mail == nil || msg.To[0] == "" {
		return
	}
	if err := s.mail.Enqueue(ctx, msg); err != nil {
		s.logger.Error("cannot enqueue order mail", "kind", msg.Kind, "error", err)
	}
}
