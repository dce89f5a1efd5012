package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/auth"
	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/department"
	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/orderclient"
)

// Orders is the read side of the order service used by dispatch.
type Orders interface {
	List(ctx context.Context, f orderclient.Filter) ([]orderclient.Order, error)
}

type Service struct {
	repos     Repos
	orders    Orders
	publisher events.Publisher
	logger    apt.Logger
	now       func() time.Time
}

func NewService(repos Repos, orders Orders, publisher events.Publisher, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Service{repos: repos, orders: orders, publisher: publisher, logger: logger, now: time.Now}
}

// DepartmentBoard is a production with its items, priority first then by delivery time.
type DepartmentBoard struct {
	Department string      `json:"department"`
	Label      string      `json:"label"`
	Production *Production `json:"production"`
	Items      []*Item     `json:"items"`
}

type DispatchResult struct {
	Date         string             `json:"date"`
	Orders       int                `json:"orders"`
	ItemsCreated int                `json:"items_created"`
	Departments  []*DepartmentBoard `json:"departments"`
}

// Dispatch spreads the production of every confirmed or preparing order due on date
// across the departments. Running it again only adds what is missing.
func (s *Service) Dispatch(ctx context.Context, date string) (*DispatchResult, error) {
	if _, err := day.Parse(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	orders, err := s.orders.List(ctx, orderclient.Filter{
		DeliveryDate: date,
		Statuses:     []string{orderstatus.Statuses.Confirmed.Name, orderstatus.Statuses.Preparing.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("list orders due %s: %w", date, err)
	}

	productions := map[string]*Production{}
	for _, d := range department.All {
		p, err := s.repos.Productions.GetOrCreate(ctx, NewProduction(date, d.Name, s.now()))
		if err != nil {
			return nil, fmt.Errorf("production %s/%s: %w", date, d.Name, err)
		}
		productions[d.Name] = p
	}

	created := 0
	for _, o := range orders {
		n, err := s.addItems(ctx, o.OrderSnapshot, productions)
		if err != nil {
			return nil, err
		}
		created += n
	}

	for _, p := range productions {
		if err := s.recompute(ctx, p); err != nil {
			return nil, err
		}
	}

	boards, err := s.Board(ctx, date)
	if err != nil {
		return nil, err
	}
	s.logger.Info("kitchen dispatched", "date", date, "orders", len(orders), "items_created", created)
	return &DispatchResult{Date: date, Orders: len(orders), ItemsCreated: created, Departments: boards}, nil
}

// AddOrder dispatches a single confirmed order.
func (s *Service) AddOrder(ctx context.Context, o event.OrderSnapshot) (int, error) {
	if _, err := day.Parse(o.DeliveryDate); err != nil {
		return 0, fmt.Errorf("%w: order %s has no valid delivery date", ErrInvalidInput, o.Number)
	}

	productions := map[string]*Production{}
	for _, it := range o.Items {
		d := department.OrDefault(it.Department)
		if _, ok := productions[d]; ok {
			continue
		}
		p, err := s.repos.Productions.GetOrCreate(ctx, NewProduction(o.DeliveryDate, d, s.now()))
		if err != nil {
			return 0, fmt.Errorf("production %s/%s: %w", o.DeliveryDate, d, err)
		}
		productions[d] = p
	}

	n, err := s.addItems(ctx, o, productions)
	if err != nil {
		return 0, err
	}
	for _, p := range productions {
		if err := s.recompute(ctx, p); err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (s *Service) addItems(ctx context.Context, o event.OrderSnapshot, productions map[string]*Production) (int, error) {
	created := 0
	for _, line := range o.Items {
		p := productions[department.OrDefault(line.Department)]
		now := s.now()
		item := &Item{
			ID:           apt.GenerateNewID(),
			ProductionID: p.ID,
			Date:         p.Date,
			Department:   p.Department,
			OrderID:      o.ID,
			OrderNumber:  o.Number,
			OrderItemID:  line.OrderItemID,
			ProductID:    line.ProductID,
			ProductName:  line.Name,
			Quantity:     line.Quantity,
			DeliveryTime: o.DeliveryTime,
			Priority:     IsPriorityTime(o.DeliveryTime),
			Status:       ItemPending,
			Notes:        o.SpecialInstructions,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		ok, err := s.repos.Items.CreateIfAbsent(ctx, item)
		if err != nil {
			return created, fmt.Errorf("create production item for %s: %w", o.Number, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// CancelOrder cancels the open production items of an order.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (int, error) {
	items, err := s.repos.Items.List(ctx, ItemFilter{OrderID: orderID})
	if err != nil {
		return 0, err
	}

	touched := map[uuid.UUID]bool{}
	cancelled := 0
	for _, it := range items {
		if !it.Open() {
			continue
		}
		it.Status = ItemCancelled
		it.UpdatedAt = s.now()
		if err := s.repos.Items.Save(ctx, it); err != nil {
			return cancelled, fmt.Errorf("cancel item %s: %w", it.ID, err)
		}
		touched[it.ProductionID] = true
		cancelled++
	}

	for id := range touched {
		p, err := s.repos.Productions.Get(ctx, id)
		if err != nil || p == nil {
			continue
		}
		if err := s.recompute(ctx, p); err != nil {
			return cancelled, err
		}
	}
	return cancelled, nil
}

func (s *Service) recompute(ctx context.Context, p *Production) error {
	items, err := s.repos.Items.ListByProduction(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("list items of production %s: %w", p.ID, err)
	}
	p.Recompute(items, s.now())
	if err := s.repos.Productions.Save(ctx, p); err != nil {
		return fmt.Errorf("save production %s: %w", p.ID, err)
	}
	return nil
}

// Board lists the productions of a date in department order.
func (s *Service) Board(ctx context.Context, date string) ([]*DepartmentBoard, error) {
	if _, err := day.Parse(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	productions, err := s.repos.Productions.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	byDept := map[string]*Production{}
	for _, p := range productions {
		byDept[p.Department] = p
	}

	var boards []*DepartmentBoard
	for _, d := range department.All {
		p, ok := byDept[d.Name]
		if !ok {
			continue
		}
		items, err := s.repos.Items.ListByProduction(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		SortItems(items)
		boards = append(boards, &DepartmentBoard{Department: d.Name, Label: d.Title, Production: p, Items: items})
	}
	return boards, nil
}

// SortItems orders priority items first, then by delivery time and order number.
func SortItems(items []*Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority
		}
		if items[i].DeliveryTime != items[j].DeliveryTime {
			return items[i].DeliveryTime < items[j].DeliveryTime
		}
		return items[i].OrderNumber < items[j].OrderNumber
	})
}

// canWork restricts department staff to their own department.
func canWork(p auth.Principal, dept string) bool {
	if p.HasRole(role.Roles.HeadChef.Name, role.Roles.Admin.Name) {
		return true
	}
	return p.Department == "" || p.Department == dept
}

func (s *Service) workItem(ctx context.Context, p auth.Principal, id uuid.UUID, change func(*Item, time.Time) error) (*Item, error) {
	item, err := s.repos.Items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("production item: %w", ErrNotFound)
	}
	if !canWork(p, item.Department) {
		return nil, ErrForbidden
	}
	if err := change(item, s.now()); err != nil {
		return nil, err
	}
	if err := s.repos.Items.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save production item: %w", err)
	}

	prod, err := s.repos.Productions.Get(ctx, item.ProductionID)
	if err != nil {
		return nil, err
	}
	if prod != nil {
		if err := s.recompute(ctx, prod); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (s *Service) StartItem(ctx context.Context, p auth.Principal, id uuid.UUID) (*Item, error) {
	item, err := s.workItem(ctx, p, id, func(i *Item, now time.Time) error {
		return i.Start(p.UserID, now)
	})
	if err != nil {
		return nil, err
	}
	s.publishItem(ctx, event.EventProductionItemStarted, item, false)
	return item, nil
}

func (s *Service) CompleteItem(ctx context.Context, p auth.Principal, id uuid.UUID, quantity int, notes string) (*Item, error) {
	item, err := s.workItem(ctx, p, id, func(i *Item, now time.Time) error {
		return i.Complete(p.UserID, quantity, notes, now)
	})
	if err != nil {
		return nil, err
	}

	remaining, err := s.repos.Items.List(ctx, ItemFilter{
		OrderID:  item.OrderID,
		Statuses: []string{ItemPending, ItemInProgress, ItemIssue},
	})
	if err != nil {
		return nil, err
	}
	s.publishItem(ctx, event.EventProductionItemCompleted, item, len(remaining) == 0)
	return item, nil
}

// ReportIssue flags an item and warns the department chef.
func (s *Service) ReportIssue(ctx context.Context, p auth.Principal, id uuid.UUID, description string) (*Item, error) {
	item, err := s.workItem(ctx, p, id, func(i *Item, now time.Time) error {
		return i.Flag(description, now)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &Notification{
		RecipientRole: role.Roles.DepartmentChef.Name,
		Department:    item.Department,
		Title:         fmt.Sprintf("Issue on %s (%s)", item.ProductName, item.OrderNumber),
		Message:       description,
		Priority:      NotificationUrgent,
		ItemID:        item.ID.String(),
	})
	s.publishItem(ctx, event.EventProductionItemIssue, item, false)
	return item, nil
}

func (s *Service) publishItem(ctx context.Context, eventType string, item *Item, orderCompleted bool) {
	if s.publisher == nil {
		return
	}
	evt := event.ProductionItemEvent{
		EventType:      eventType,
		OccurredAt:     s.now().UTC(),
		ItemID:         item.ID.String(),
		ProductionID:   item.ProductionID.String(),
		Department:     item.Department,
		OrderID:        item.OrderID,
		OrderNumber:    item.OrderNumber,
		ProductName:    item.ProductName,
		Quantity:       item.Quantity,
		OrderCompleted: orderCompleted,
		Description:    item.IssueDescription,
	}
	msg, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("cannot encode kitchen event", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event.KitchenItemsTopic, msg); err != nil {
		s.logger.Error("cannot publish kitchen event", "event_type", eventType, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, n *Notification) {
	n.ID = apt.GenerateNewID()
	n.CreatedAt = s.now()
	if n.Priority == "" {
		n.Priority = NotificationNormal
	}
	if err := s.repos.Notifications.Create(ctx, n); err != nil {
		s.logger.Error("cannot store kitchen notification", "title", n.Title, "error", err)
	}
}
