package order

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/catering/pkg/enums/orderstatus"
	"github.com/appetiteclub/catering/pkg/money"
)

// Summary aggregates a set of orders. Cancelled orders count only in Cancelled.
type Summary struct {
	Orders            int      `json:"orders"`
	Revenue           int64    `json:"revenue"`
	Customers         int      `json:"customers"`
	AverageOrderValue int64    `json:"average_order_value"`
	Cancelled         int      `json:"cancelled"`
	PromoCodesUsed    int      `json:"promo_codes_used"`
	CustomerIDs       []string `json:"-"`
}

type ProductSales struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Revenue   int64  `json:"revenue"`
}

type DayPoint struct {
	Date    string `json:"date"`
	Orders  int    `json:"orders"`
	Revenue int64  `json:"revenue"`
}

func counted(o *Order) bool {
	return o.Status != orderstatus.Statuses.Cancelled.Name
}

func Summarize(orders []*Order) Summary {
	var s Summary
	seen := map[string]bool{}
	for _, o := range orders {
		if !counted(o) {
			s.Cancelled++
			continue
		}
		s.Orders++
		s.Revenue += o.Total
		s.PromoCodesUsed += len(o.PromoCodes)
		key := o.UserID
		if key == "" {
			key = "email:" + o.Email
		}
		if !seen[key] {
			seen[key] = true
			if o.UserID != "" {
				s.CustomerIDs = append(s.CustomerIDs, o.UserID)
			}
		}
	}
	s.Customers = len(seen)
	s.AverageOrderValue = Average(s.Revenue, s.Orders)
	return s
}

// Average divides a cent total by n, rounded to whole cents.
func Average(total int64, n int) int64 {
	if n == 0 {
		return 0
	}
	return money.Cents(money.Decimal(total).Div(decimal.NewFromInt(int64(n))))
}

// TopProducts ranks products by quantity sold, then revenue, then name.
func TopProducts(orders []*Order, limit int) []ProductSales {
	byProduct := map[string]*ProductSales{}
	for _, o := range orders {
		if !counted(o) {
			continue
		}
		for _, it := range o.Items {
			p, ok := byProduct[it.ProductID]
			if !ok {
				p = &ProductSales{ProductID: it.ProductID, Name: it.Name}
				byProduct[it.ProductID] = p
			}
			p.Quantity += it.Quantity
			p.Revenue += it.Total
		}
	}

	result := make([]ProductSales, 0, len(byProduct))
	for _, p := range byProduct {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Quantity != result[j].Quantity {
			return result[i].Quantity > result[j].Quantity
		}
		if result[i].Revenue != result[j].Revenue {
			return result[i].Revenue > result[j].Revenue
		}
		return result[i].Name < result[j].Name
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// SalesByDay buckets orders by creation date over the given days, keeping empty days.
func SalesByDay(orders []*Order, days []string) []DayPoint {
	index := make(map[string]int, len(days))
	points := make([]DayPoint, len(days))
	for i, d := range days {
		index[d] = i
		points[i] = DayPoint{Date: d}
	}
	for _, o := range orders {
		if !counted(o) {
			continue
		}
		i, ok := index[o.CreatedAt.Format("2006-01-02")]
		if !ok {
			continue
		}
		points[i].Orders++
		points[i].Revenue += o.Total
	}
	return points
}
