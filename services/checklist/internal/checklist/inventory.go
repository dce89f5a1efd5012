package checklist

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	CategoryLinens     = "linens"
	CategoryTableware  = "tableware"
	CategoryGlassware  = "glassware"
	CategoryCutlery    = "cutlery"
	CategoryEquipment  = "equipment"
	CategoryDecoration = "decoration"
	CategoryOther      = "other"

	StockOut = "out"
	StockLow = "low"
	StockOK  = "ok"
)

var categories = []string{
	CategoryLinens, CategoryTableware, CategoryGlassware, CategoryCutlery,
	CategoryEquipment, CategoryDecoration, CategoryOther,
}

func validCategory(c string) bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

// InventoryItem is a piece of equipment that can go out with an order.
type InventoryItem struct {
	ID            uuid.UUID `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	Category      string    `json:"category" bson:"category"`
	Unit          string    `json:"unit" bson:"unit"`
	StockQuantity int       `json:"stock_quantity" bson:"stock_quantity"`
	MinStock      int       `json:"min_stock" bson:"min_stock"`
	Active        bool      `json:"is_active" bson:"is_active"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

func (i *InventoryItem) StockStatus() string {
	switch {
	case i.StockQuantity <= 0:
		return StockOut
	case i.StockQuantity <= i.MinStock:
		return StockLow
	default:
		return StockOK
	}
}

type InventoryInput struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Unit          string `json:"unit"`
	StockQuantity int    `json:"stock_quantity"`
	MinStock      int    `json:"min_stock"`
	Active        *bool  `json:"is_active"`
}

func (in *InventoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Category == "" {
		in.Category = CategoryOther
	}
	if !validCategory(in.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	if in.Unit == "" {
		in.Unit = "piece"
	}
	if in.StockQuantity < 0 || in.MinStock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidInput)
	}
	return nil
}

// Apply copies a validated input onto the item.
func (i *InventoryItem) Apply(in InventoryInput, now time.Time) {
	i.Name = in.Name
	i.Category = in.Category
	i.Unit = in.Unit
	i.StockQuantity = in.StockQuantity
	i.MinStock = in.MinStock
	if in.Active != nil {
		i.Active = *in.Active
	}
	i.UpdatedAt = now
}

// TemplateItem is a default line of a template.
type TemplateItem struct {
	InventoryItemID uuid.UUID `json:"inventory_item_id" bson:"inventory_item_id"`
	Quantity        int       `json:"default_quantity" bson:"default_quantity"`
	Notes           string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Position        int       `json:"order" bson:"position"`
}

// Template is a reusable list of equipment for a kind of event.
type Template struct {
	ID          uuid.UUID      `json:"id" bson:"_id"`
	Name        string         `json:"name" bson:"name"`
	EventType   string         `json:"event_type,omitempty" bson:"event_type,omitempty"`
	Description string         `json:"description,omitempty" bson:"description,omitempty"`
	Items       []TemplateItem `json:"items" bson:"items"`
	Active      bool           `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}

type TemplateInput struct {
	Name        string         `json:"name"`
	EventType   string         `json:"event_type"`
	Description string         `json:"description"`
	Items       []TemplateItem `json:"items"`
	Active      *bool          `json:"is_active"`
}

func (in *TemplateInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: a template needs at least one item", ErrInvalidInput)
	}
	seen := map[uuid.UUID]bool{}
	for i := range in.Items {
		it := &in.Items[i]
		if it.InventoryItemID == uuid.Nil {
			return fmt.Errorf("%w: item %d has no inventory_item_id", ErrInvalidInput, i+1)
		}
		if seen[it.InventoryItemID] {
			return fmt.Errorf("%w: inventory item %s listed twice", ErrInvalidInput, it.InventoryItemID)
		}
		seen[it.InventoryItemID] = true
		if it.Quantity <= 0 {
			it.Quantity = 1
		}
		if it.Position == 0 {
			it.Position = i + 1
		}
		it.Notes = strings.TrimSpace(it.Notes)
	}
	return nil
}

func (t *Template) Apply(in TemplateInput, now time.Time) {
	t.Name = in.Name
	t.EventType = strings.TrimSpace(in.EventType)
	t.Description = strings.TrimSpace(in.Description)
	t.Items = in.Items
	if in.Active != nil {
		t.Active = *in.Active
	}
	t.UpdatedAt = now
}
