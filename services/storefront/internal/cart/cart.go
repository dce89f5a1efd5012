package cart

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Owner identifies a cart: the signed in user, or the anonymous session key.
type Owner struct {
	UserID     string
	SessionKey string
}

func (o Owner) Anonymous() bool {
	return o.UserID == ""
}

func (o Owner) Empty() bool {
	return o.UserID == "" && o.SessionKey == ""
}

type Item struct {
	ProductID  uuid.UUID `json:"product_id" bson:"product_id"`
	Name       string    `json:"name" bson:"name"`
	Slug       string    `json:"slug" bson:"slug"`
	Department string    `json:"department" bson:"department"`
	UnitPrice  int64     `json:"unit_price" bson:"unit_price"`
	Quantity   int       `json:"quantity" bson:"quantity"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty"`
	AddedAt    time.Time `json:"added_at" bson:"added_at"`
}

func (i Item) Total() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

type Cart struct {
	ID         uuid.UUID `json:"id" bson:"_id"`
	UserID     string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	SessionKey string    `json:"session_key,omitempty" bson:"session_key,omitempty"`
	Items      []Item    `json:"items" bson:"items"`
	PromoCodes []string  `json:"promo_codes" bson:"promo_codes"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

func NewCart(owner Owner) *Cart {
	now := time.Now()
	c := &Cart{
		ID:         apt.GenerateNewID(),
		Items:      []Item{},
		PromoCodes: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if owner.Anonymous() {
		c.SessionKey = owner.SessionKey
	} else {
		c.UserID = owner.UserID
	}
	return c
}

func (c *Cart) find(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) remove(productID uuid.UUID) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// ItemCount is the number of units in the cart.
func (c *Cart) ItemCount() int {
	n := 0
	for _, i := range c.Items {
		n += i.Quantity
	}
	return n
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
