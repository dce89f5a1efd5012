package checklist

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
	"github.com/appetiteclub/catering/pkg/enums/role"
	"github.com/appetiteclub/catering/pkg/event"
	"github.com/appetiteclub/catering/pkg/mq"
	"github.com/appetiteclub/catering/pkg/orderclient"
	"github.com/appetiteclub/catering/pkg/userclient"
)

type Orders interface {
	GetByNumber(ctx context.Context, number string) (*orderclient.Order, error)
}

// Users resolves assignees.
type Users interface {
	Get(ctx context.Context, id string) (*userclient.User, error)
}

type Deps struct {
	Orders    Orders
	Users     Users
	Publisher events.Publisher
	Mail      mq.MailQueue
	SiteURL   string
	Logger    apt.Logger
}

type Service struct {
	repos     Repos
	orders    Orders
	users     Users
	publisher events.Publisher
	mail      mq.MailQueue
	siteURL   string
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
		users:     deps.Users,
		publisher: deps.Publisher,
		mail:      deps.Mail,
		siteURL:   strings.TrimRight(deps.SiteURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

// assignableRoles may own a checklist.
var assignableRoles = []string{role.Roles.ChecklistManager.Name, role.Roles.Admin.Name, role.Roles.Staff.Name}

type ItemInput struct {
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	Quantity        int       `json:"quantity"`
	Notes           string    `json:"notes"`
}

type CreateInput struct {
	OrderNumber string      `json:"order_number"`
	Title       string      `json:"title"`
	AssignedTo  string      `json:"assigned_to"`
	Priority    int         `json:"priority"`
	Notes       string      `json:"notes"`
	TemplateID  *uuid.UUID  `json:"template_id"`
	Items       []ItemInput `json:"items"`
}

func validPriority(p int) bool {
	return p >= PriorityNormal && p <= PriorityUrgent
}

// Create builds the checklist of an order from a template or from listed inventory items.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (*Checklist, error) {
	in.OrderNumber = strings.ToUpper(strings.TrimSpace(in.OrderNumber))
	if in.OrderNumber == "" {
		return nil, fmt.Errorf("%w: order_number is required", ErrInvalidInput)
	}
	if !validPriority(in.Priority) {
		return nil, fmt.Errorf("%w: priority must be between %d and %d", ErrInvalidInput, PriorityNormal, PriorityUrgent)
	}
	if in.TemplateID == nil && len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: template_id or items is required", ErrInvalidInput)
	}

	o, err := s.orders.GetByNumber(ctx, in.OrderNumber)
	if err != nil || o == nil {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, in.OrderNumber)
	}
	existing, err := s.repos.Checklists.GetByOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: order %s", ErrExists, o.Number)
	}

	assignee, err := s.assignee(ctx, in.AssignedTo)
	if err != nil {
		return nil, err
	}

	lines := in.Items
	if in.TemplateID != nil {
		t, err := s.GetTemplate(ctx, *in.TemplateID)
		if err != nil {
			return nil, err
		}
		if !t.Active {
			return nil, fmt.Errorf("%w: template %s is inactive", ErrInvalidInput, t.Name)
		}
		lines = make([]ItemInput, 0, len(t.Items))
		for _, ti := range t.Items {
			lines = append(lines, ItemInput{InventoryItemID: ti.InventoryItemID, Quantity: ti.Quantity, Notes: ti.Notes})
		}
	}
	items, err := s.buildItems(ctx, lines, 0)
	if err != nil {
		return nil, err
	}

	now := s.now()
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Checklist " + o.Number
	}
	c := &Checklist{
		ID:           apt.GenerateNewID(),
		OrderID:      o.ID,
		OrderNumber:  o.Number,
		CustomerName: o.CustomerName(),
		DeliveryDate: o.DeliveryDate,
		DeliveryTime: o.DeliveryTime,
		Title:        title,
		Priority:     in.Priority,
		Status:       StatusPending,
		Notes:        strings.TrimSpace(in.Notes),
		Items:        items,
		CreatedBy:    p.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if assignee != nil {
		c.AssignedTo, c.AssigneeName = assignee.ID, assignee.Name()
	}
	c.UpdateProgress()

	if err := s.repos.Checklists.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("store checklist: %w", err)
	}
	s.logger.Info("checklist created", "order", c.OrderNumber, "items", c.TotalItems, "assigned_to", c.AssignedTo)
	s.notifyAssignee(ctx, p, c, assignee)
	return c, nil
}

func (s *Service) assignee(ctx context.Context, id string) (*userclient.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	if s.users == nil {
		return nil, fmt.Errorf("user directory is not configured")
	}
	u, err := s.users.Get(ctx, id)
	if err != nil || u == nil {
		return nil, fmt.Errorf("%w: unknown assignee %s", ErrInvalidInput, id)
	}
	for _, r := range assignableRoles {
		if u.Role == r {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: %s cannot own a checklist", ErrInvalidInput, u.Role)
}

// buildItems snapshots the inventory items of lines. Positions continue after offset.
func (s *Service) buildItems(ctx context.Context, lines []ItemInput, offset int) ([]Item, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.InventoryItemID)
	}
	found, err := s.repos.Inventory.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(lines))
	for i, l := range lines {
		inv := found[l.InventoryItemID]
		if inv == nil || !inv.Active {
			return nil, fmt.Errorf("%w: inventory item %s is not available", ErrInvalidInput, l.InventoryItemID)
		}
		qty := l.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, Item{
			ID:              apt.GenerateNewID(),
			InventoryItemID: inv.ID,
			Name:            inv.Name,
			Category:        inv.Category,
			Unit:            inv.Unit,
			QuantityNeeded:  qty,
			Notes:           strings.TrimSpace(l.Notes),
			Position:        offset + i + 1,
		})
	}
	return items, nil
}

// Get returns any checklist. Use GetFor on behalf of a user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Checklist, error) {
	c, err := s.repos.Checklists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("checklist: %w", ErrNotFound)
	}
	return c, nil
}

// GetFor hides the checklists assigned to others. Admins see every checklist.
func (s *Service) GetFor(ctx context.Context, p auth.Principal, id uuid.UUID) (*Checklist, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && c.AssignedTo != p.UserID {
		return nil, fmt.Errorf("checklist: %w", ErrNotFound)
	}
	return c, nil
}

func (s *Service) GetByOrder(ctx context.Context, p auth.Principal, number string) (*Checklist, error) {
	o, err := s.orders.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil || o == nil {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, number)
	}
	c, err := s.repos.Checklists.GetByOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if c == nil || (!p.IsAdmin() && c.AssignedTo != p.UserID) {
		return nil, fmt.Errorf("checklist: %w", ErrNotFound)
	}
	return c, nil
}

type Detail struct {
	Checklist  *Checklist      `json:"checklist"`
	Categories []CategoryGroup `json:"items_by_category"`
}

func (s *Service) Detail(ctx context.Context, p auth.Principal, id uuid.UUID) (*Detail, error) {
	c, err := s.GetFor(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Checklist: c, Categories: c.ByCategory()}, nil
}

type UpdateInput struct {
	Title      string `json:"title"`
	AssignedTo string `json:"assigned_to"`
	Priority   int    `json:"priority"`
	Notes      string `json:"notes"`
}

// Update edits the header of a checklist. A new assignee is notified.
func (s *Service) Update(ctx context.Context, p auth.Principal, id uuid.UUID, in UpdateInput) (*Checklist, error) {
	if !validPriority(in.Priority) {
		return nil, fmt.Errorf("%w: priority must be between %d and %d", ErrInvalidInput, PriorityNormal, PriorityUrgent)
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	assignee, err := s.assignee(ctx, in.AssignedTo)
	if err != nil {
		return nil, err
	}
	reassigned := assignee != nil && assignee.ID != c.AssignedTo
	if title := strings.TrimSpace(in.Title); title != "" {
		c.Title = title
	}
	c.Priority = in.Priority
	c.Notes = strings.TrimSpace(in.Notes)
	if assignee != nil {
		c.AssignedTo, c.AssigneeName = assignee.ID, assignee.Name()
	} else {
		c.AssignedTo, c.AssigneeName = "", ""
	}
	c.UpdatedAt = s.now()
	if err := s.repos.Checklists.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save checklist %s: %w", c.OrderNumber, err)
	}
	if reassigned {
		s.notifyAssignee(ctx, p, c, assignee)
	}
	return c, nil
}

// AddItems appends inventory lines to a checklist that is not completed.
func (s *Service) AddItems(ctx context.Context, id uuid.UUID, lines []ItemInput) (*Checklist, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidInput)
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusCompleted {
		return nil, fmt.Errorf("%w: checklist is completed", ErrInvalidTransition)
	}
	items, err := s.buildItems(ctx, lines, len(c.Items))
	if err != nil {
		return nil, err
	}
	c.Items = append(c.Items, items...)
	c.UpdateProgress()
	c.UpdatedAt = s.now()
	if err := s.repos.Checklists.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save checklist %s: %w", c.OrderNumber, err)
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*Checklist, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusCompleted {
		return nil, fmt.Errorf("%w: checklist is completed", ErrInvalidTransition)
	}
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(c.Items) {
		return nil, fmt.Errorf("item: %w", ErrNotFound)
	}
	c.Items = kept
	c.UpdateProgress()
	c.UpdatedAt = s.now()
	if err := s.repos.Checklists.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save checklist %s: %w", c.OrderNumber, err)
	}
	return c, nil
}

func (s *Service) Start(ctx context.Context, p auth.Principal, id uuid.UUID) (*Checklist, error) {
	c, err := s.GetFor(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := c.Start(s.now()); err != nil {
		return nil, err
	}
	if err := s.repos.Checklists.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save checklist %s: %w", c.OrderNumber, err)
	}
	return c, nil
}

type ValidateInput struct {
	Action   string `json:"action"`
	Quantity int    `json:"quantity"`
}

// ValidationResult is what the tablet view needs after each tap.
type ValidationResult struct {
	Progress        int    `json:"progress"`
	CompletedItems  int    `json:"completed_items"`
	TotalItems      int    `json:"total_items"`
	ChecklistStatus string `json:"checklist_status"`
	ItemChecked     bool   `json:"item_checked"`
	Item            *Item  `json:"item"`
}

// itemOwner loads the checklist holding itemID. Only its assignee or an admin may change it.
func (s *Service) itemOwner(ctx context.Context, p auth.Principal, itemID uuid.UUID) (*Checklist, error) {
	c, err := s.repos.Checklists.GetByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("item: %w", ErrNotFound)
	}
	if !p.IsAdmin() && c.AssignedTo != p.UserID {
		return nil, fmt.Errorf("%w: checklist %s is assigned to someone else", ErrForbidden, c.OrderNumber)
	}
	return c, nil
}

// conflictRetries bounds how often an item change is replayed on a fresh copy.
const conflictRetries = 3

// changeItem loads the checklist holding itemID, applies change and saves it.
// When another tablet saved first, the change is replayed on the fresh copy.
func (s *Service) changeItem(ctx context.Context, p auth.Principal, itemID uuid.UUID, change func(c *Checklist) (*Item, error)) (*Checklist, *Item, error) {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		var c *Checklist
		c, err = s.itemOwner(ctx, p, itemID)
		if err != nil {
			return nil, nil, err
		}
		var it *Item
		it, err = change(c)
		if err != nil {
			return nil, nil, err
		}
		err = s.repos.Checklists.Save(ctx, c)
		if err == nil {
			return c, it, nil
		}
		if !errors.Is(err, ErrConflict) {
			break
		}
		s.logger.Debug("checklist changed meanwhile, retrying", "order", c.OrderNumber, "attempt", attempt+1)
	}
	return nil, nil, fmt.Errorf("save checklist: %w", err)
}

func (s *Service) ValidateItem(ctx context.Context, p auth.Principal, itemID uuid.UUID, in ValidateInput) (*ValidationResult, error) {
	if in.Action != ActionCheck && in.Action != ActionUncheck {
		if _, err := s.itemOwner(ctx, p, itemID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: action must be check or uncheck", ErrInvalidInput)
	}
	c, it, err := s.changeItem(ctx, p, itemID, func(c *Checklist) (*Item, error) {
		if in.Action == ActionCheck {
			return c.Check(itemID, in.Quantity, p.UserID, s.now())
		}
		return c.Uncheck(itemID, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &ValidationResult{
		Progress:        c.Progress,
		CompletedItems:  c.CompletedItems,
		TotalItems:      c.TotalItems,
		ChecklistStatus: c.Status,
		ItemChecked:     it.Checked,
		Item:            it,
	}, nil
}

func (s *Service) ReportIssue(ctx context.Context, p auth.Principal, itemID uuid.UUID, description string) (*Item, error) {
	c, it, err := s.changeItem(ctx, p, itemID, func(c *Checklist) (*Item, error) {
		return c.ReportIssue(itemID, description, p.UserID, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, p, c, NotifyIssue, fmt.Sprintf("Issue on %s: %s", it.Name, it.IssueDescription))
	s.logger.Info("checklist issue reported", "order", c.OrderNumber, "item", it.Name)
	return it, nil
}

// Complete closes the checklist and announces it on checklists.completed.
func (s *Service) Complete(ctx context.Context, p auth.Principal, id uuid.UUID) (*Checklist, error) {
	c, err := s.GetFor(ctx, p, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := c.Complete(now); err != nil {
		return nil, err
	}
	if err := s.repos.Checklists.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save checklist %s: %w", c.OrderNumber, err)
	}

	by := p.Name
	if by == "" {
		by = p.UserID
	}
	s.notify(ctx, p, c, NotifyCompleted, "Checklist completed by "+by)
	s.publishCompleted(ctx, p, c, now)
	s.logger.Info("checklist completed", "order", c.OrderNumber, "by", p.UserID)
	return c, nil
}

func (s *Service) publishCompleted(ctx context.Context, p auth.Principal, c *Checklist, at time.Time) {
	if s.publisher == nil {
		return
	}
	msg, err := json.Marshal(event.ChecklistCompletedEvent{
		EventType:   event.EventChecklistCompleted,
		OccurredAt:  at.UTC(),
		ChecklistID: c.ID.String(),
		OrderID:     c.OrderID,
		OrderNumber: c.OrderNumber,
		CompletedBy: p.UserID,
	})
	if err != nil {
		s.logger.Error("cannot encode checklist event", "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, event.ChecklistsCompletedTopic, msg); err != nil {
		s.logger.Error("cannot publish checklist event", "order", c.OrderNumber, "error", err)
	}
}

func (s *Service) notify(ctx context.Context, p auth.Principal, c *Checklist, kind, message string) {
	n := &Notification{
		ID:          apt.GenerateNewID(),
		ChecklistID: c.ID,
		OrderNumber: c.OrderNumber,
		AssignedTo:  c.AssignedTo,
		Type:        kind,
		Message:     message,
		CreatedBy:   p.UserID,
		CreatedAt:   s.now(),
	}
	if err := s.repos.Notifications.Create(ctx, n); err != nil {
		s.logger.Error("cannot store checklist notification", "order", c.OrderNumber, "error", err)
	}
}

// notifyAssignee records the assignment and mails the assignee.
func (s *Service) notifyAssignee(ctx context.Context, p auth.Principal, c *Checklist, u *userclient.User) {
	if u == nil {
		return
	}
	s.notify(ctx, p, c, NotifyAssigned, fmt.Sprintf("New checklist for order %s, delivery %s %s", c.OrderNumber, c.DeliveryDate, c.DeliveryTime))
	if s.mail == nil || u.Email == "" {
		return
	}
	body := fmt.Sprintf("Hello %s,\n\nA checklist was assigned to you for order %s (%s).\nDelivery: %s at %s\nItems: %d\n\n%s/checklist/%s\n",
		u.FirstName, c.OrderNumber, c.CustomerName, c.DeliveryDate, c.DeliveryTime, c.TotalItems, s.siteURL, c.ID)
	err := s.mail.Enqueue(ctx, event.MailMessage{
		Kind:    event.MailChecklistAssigned,
		To:      []string{u.Email},
		Subject: "New checklist assigned - Order " + c.OrderNumber,
		Body:    body,
	})
	if err != nil {
		s.logger.Error("cannot enqueue checklist mail", "order", c.OrderNumber, "error", err)
	}
}

func (s *Service) Notifications(ctx context.Context, p auth.Principal, unreadOnly bool) ([]*Notification, error) {
	return s.repos.Notifications.List(ctx, s.audience(p), unreadOnly, notificationMax)
}

func (s *Service) MarkNotificationRead(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	return s.repos.Notifications.MarkRead(ctx, id, s.audience(p))
}

// audience is the assignee whose notifications p reads, empty for every notification.
func (s *Service) audience(p auth.Principal) string {
	if p.IsAdmin() {
		return ""
	}
	return p.UserID
}

func (s *Service) today() string {
	return day.Today(s.now())
}
