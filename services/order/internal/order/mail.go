package order

import (
	"fmt"
	"strings"

	"github.com/appetiteclub/catering/pkg/money"
)

func itemLines(o *Order) string {
	var b strings.Builder
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %dx %-30s %10s\n", it.Quantity, it.Name, money.Format(it.Total))
	}
	return b.String()
}

func scheduleLine(o *Order) string {
	if o.DeliveryType == DeliveryTypePickup {
		return fmt.Sprintf("Pickup on %s at %s", o.DeliveryDate, o.DeliveryTime)
	}
	return fmt.Sprintf("Delivery on %s at %s to %s, %s %s", o.DeliveryDate, o.DeliveryTime, o.Address, o.PostalCode, o.City)
}

func confirmationBody(o *Order, trackURL string) string {
	return fmt.Sprintf(`Hello %s,

Thank you for your order %s. We will confirm it shortly.

%s
Subtotal:     %s
Discount:     %s
Tax:          %s
Delivery fee: %s
Total:        %s

%s

Track your order: %s
`, o.FirstName, o.Number, itemLines(o),
		money.Format(o.Subtotal), money.Format(o.Discount), money.Format(o.Tax),
		money.Format(o.DeliveryFee), money.Format(o.Total), scheduleLine(o), trackURL)
}

func statusBody(o *Order, trackURL string) string {
	return fmt.Sprintf(`Hello %s,

The status of your order %s changed to: %s.

%s

Track your order: %s
`, o.FirstName, o.Number, o.Tracking().StatusLabel, scheduleLine(o), trackURL)
}

func reminderBody(o *Order, trackURL string) string {
	return fmt.Sprintf(`Hello %s,

This is a reminder that your order %s is scheduled for tomorrow.

%s

%s
Track your order: %s
`, o.FirstName, o.Number, scheduleLine(o), itemLines(o), trackURL)
}

func weeklyReportBody(from, to string, sum Summary, top []ProductSales) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly report from %s to %s\n\n", from, to)
	fmt.Fprintf(&b, "Orders:              %d\n", sum.Orders)
	fmt.Fprintf(&b, "Revenue:             %s\n", money.Format(sum.Revenue))
	fmt.Fprintf(&b, "Average order value: %s\n", money.Format(sum.AverageOrderValue))
	fmt.Fprintf(&b, "Customers:           %d\n", sum.Customers)
	fmt.Fprintf(&b, "Cancelled:           %d\n", sum.Cancelled)
	fmt.Fprintf(&b, "Promo codes used:    %d\n", sum.PromoCodesUsed)
	if len(top) > 0 {
		b.WriteString("\nTop products:\n")
		for i, p := range top {
			fmt.Fprintf(&b, "  %d. %s (%d sold, %s)\n", i+1, p.Name, p.Quantity, money.Format(p.Revenue))
		}
	}
	return b.String()
}
