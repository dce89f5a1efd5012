package catalog

import (
	"regexp"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/catering/pkg/enums/department"
)

type Category struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Slug        string    `json:"slug" bson:"slug"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Order       int       `json:"order" bson:"order"`
	Active      bool      `json:"active" bson:"active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

func (c *Category) GetID() uuid.UUID    { return c.ID }
func (c *Category) ResourceType() string { return "category" }

// Product is a lunch box sold on the storefront. Department tells the kitchen which
// station prepares it.
type Product struct {
	ID               uuid.UUID `json:"id" bson:"_id"`
	Name             string    `json:"name" bson:"name"`
	Slug             string    `json:"slug" bson:"slug"`
	CategoryID       uuid.UUID `json:"category_id" bson:"category_id"`
	Description      string    `json:"description" bson:"description"`
	Ingredients      string    `json:"ingredients" bson:"ingredients"`
	Price            int64     `json:"price" bson:"price"`
	Calories         int       `json:"calories,omitempty" bson:"calories,omitempty"`
	Vegetarian       bool      `json:"vegetarian" bson:"vegetarian"`
	Vegan            bool      `json:"vegan" bson:"vegan"`
	GlutenFree       bool      `json:"gluten_free" bson:"gluten_free"`
	Available        bool      `json:"available" bson:"available"`
	PreparationTime  int       `json:"preparation_time" bson:"preparation_time"`
	MinOrderQuantity int       `json:"min_order_quantity" bson:"min_order_quantity"`
	Department       string    `json:"department" bson:"department"`
	ImageURL         string    `json:"image_url,omitempty" bson:"image_url,omitempty"`
	ViewsCount       int       `json:"views_count" bson:"views_count"`
	SalesCount       int       `json:"sales_count" bson:"sales_count"`
	AverageRating    float64   `json:"average_rating" bson:"average_rating"`
	ReviewCount      int       `json:"review_count" bson:"review_count"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

func (p *Product) GetID() uuid.UUID    { return p.ID }
func (p *Product) ResourceType() string { return "product" }

func NewProduct() *Product {
	return &Product{
		ID:               apt.GenerateNewID(),
		Available:        true,
		PreparationTime:  30,
		MinOrderQuantity: 1,
		Department:       department.Departments.Boxes.Name,
	}
}

func (p *Product) BeforeCreate() {
	if p.ID == uuid.Nil {
		p.ID = apt.GenerateNewID()
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	if p.MinOrderQuantity < 1 {
		p.MinOrderQuantity = 1
	}
	p.Department = department.OrDefault(p.Department)
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
}

func (p *Product) BeforeUpdate() {
	p.UpdatedAt = time.Now()
}

type Review struct {
	ID        uuid.UUID `json:"id" bson:"_id"`
	ProductID uuid.UUID `json:"product_id" bson:"product_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	UserName  string    `json:"user_name" bson:"user_name"`
	OrderID   string    `json:"order_id,omitempty" bson:"order_id"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	Approved  bool      `json:"approved" bson:"approved"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

var accents = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a", "é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i", "ô", "o", "ö", "o", "ù", "u", "û", "u", "ü", "u", "ç", "c",
)

// Slugify lowercases, folds French accents and joins words with dashes.
func Slugify(s string) string {
	s = accents.Replace(strings.ToLower(strings.TrimSpace(s)))
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
