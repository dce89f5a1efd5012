// Package seeding builds the demo catering orders created by catering-utils.
package seeding

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/catering/pkg/day"
	"github.com/appetiteclub/catering/pkg/enums/department"
	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
	"github.com/appetiteclub/catering/pkg/money"
	"github.com/appetiteclub/catering/pkg/orderclient"
)

const (
	DemoDomain = "demo.catering.test"
	SeedID     = "demo_orders_v1"
	ChangedBy  = "demo-seed"

	deliveryFee       int64 = 500
	freeDeliveryAbove int64 = 5000
)

var (
	taxRate = decimal.RequireFromString("14.975")

	demoEmail = regexp.MustCompile(`@` + regexp.QuoteMeta(DemoDomain) + `$`)
)

// DemoEmailPattern matches the addresses used by demo orders.
func DemoEmailPattern() string {
	return demoEmail.String()
}

func IsDemoEmail(email string) bool {
	return demoEmail.MatchString(strings.ToLower(email))
}

type item struct {
	name       string
	department department.Department
	quantity   int
	unitPrice  int64
}

type customer struct {
	first, last, company string
	address, postalCode  string
}

// Plan is one demo order and the statuses it is walked through after creation.
type Plan struct {
	Request orderclient.CreateRequest
	Path    []string
}

// FinalStatus is the status the order ends in once the plan is applied.
func (p Plan) FinalStatus() string {
	if len(p.Path) == 0 {
		return orderstatus.Statuses.Pending.Name
	}
	return p.Path[len(p.Path)-1]
}

var (
	deps = department.Departments
	st   = orderstatus.Statuses

	customers = []customer{
		{first: "Claire", last: "Dubois", company: "Atelier Nord", address: "1200 rue Peel", postalCode: "H3B 2T6"},
		{first: "Marc", last: "Tremblay", company: "Studio Lumen", address: "355 rue Sainte-Catherine O", postalCode: "H3B 1A5"},
		{first: "Nadia", last: "Haddad", company: "Clinique Laurier", address: "5100 avenue Laurier", postalCode: "H2T 1R6"},
		{first: "Louis", last: "Gagnon", address: "88 rue Saint-Paul", postalCode: "H2Y 1G7"},
		{first: "Sofia", last: "Rossi", company: "Groupe Vela", address: "2000 boulevard Robert-Bourassa", postalCode: "H3A 2A5"},
	}

	baskets = [][]item{
		{
			{name: "Executive lunch box", department: deps.Boxes, quantity: 12, unitPrice: 1850},
			{name: "Seasonal green salad", department: deps.Salads, quantity: 4, unitPrice: 2400},
			{name: "Mini pastries assortment", department: deps.Pastry, quantity: 2, unitPrice: 3600},
		},
		{
			{name: "Continental breakfast", department: deps.Breakfast, quantity: 20, unitPrice: 1200},
			{name: "Fresh fruit platter", department: deps.Bites, quantity: 2, unitPrice: 4500},
		},
		{
			{name: "Braised short ribs", department: deps.Hot, quantity: 15, unitPrice: 2650},
			{name: "Roasted vegetables", department: deps.Hot, quantity: 3, unitPrice: 2800},
			{name: "Chocolate tart", department: deps.Pastry, quantity: 2, unitPrice: 4200},
		},
		{
			{name: "Club sandwich tray", department: deps.Sandwiches, quantity: 1, unitPrice: 3900},
		},
		{
			{name: "Canape selection", department: deps.Bites, quantity: 6, unitPrice: 3200},
			{name: "Quinoa salad", department: deps.Salads, quantity: 3, unitPrice: 2200},
			{name: "Macarons", department: deps.Pastry, quantity: 4, unitPrice: 2400},
		},
	}

	paths = [][]string{
		nil,
		{st.Confirmed.Name},
		{st.Confirmed.Name, st.Preparing.Name},
		{st.Confirmed.Name, st.Preparing.Name, st.Ready.Name},
		{st.Confirmed.Name},
	}

	slots = []string{"08:00", "11:30", "12:00", "17:30", "09:00"}
)

// DemoOrders returns the demo plans spread over today and the next two days.
func DemoOrders(now time.Time) ([]Plan, error) {
	today := day.Today(now)
	plans := make([]Plan, 0, len(customers))

	for i, c := range customers {
		date, err := day.Add(today, i%3)
		if err != nil {
			return nil, fmt.Errorf("demo delivery date: %w", err)
		}

		deliveryType := "delivery"
		if c.company == "" {
			deliveryType = "pickup"
		}

		req := orderclient.CreateRequest{
			DeliveryType:  deliveryType,
			FirstName:     c.first,
			LastName:      c.last,
			Email:         fmt.Sprintf("%s.%s@%s", strings.ToLower(c.first), strings.ToLower(c.last), DemoDomain),
			Phone:         fmt.Sprintf("514-555-01%02d", i+10),
			Company:       c.company,
			DeliveryDate:  date,
			DeliveryTime:  slots[i],
			PaymentMethod: "invoice",
		}
		if deliveryType == "delivery" {
			req.Address = c.address
			req.PostalCode = c.postalCode
			req.City = "Montreal"
		}

		for j, it := range baskets[i] {
			req.Items = append(req.Items, orderclient.ItemRequest{
				ProductID:  fmt.Sprintf("demo-%d-%d", i+1, j+1),
				Name:       it.name,
				Department: it.department.Name,
				Quantity:   it.quantity,
				UnitPrice:  it.unitPrice,
			})
			req.Subtotal += money.Multiply(it.unitPrice, it.quantity)
		}

		if deliveryType == "delivery" && req.Subtotal < freeDeliveryAbove {
			req.DeliveryFee = deliveryFee
		}
		req.Tax = money.Percent(req.Subtotal, taxRate)
		req.Total = req.Subtotal + req.Tax + req.DeliveryFee

		plans = append(plans, Plan{Request: req, Path: paths[i]})
	}

	return plans, nil
}
