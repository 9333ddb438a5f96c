package segmentation

import (
	"fmt"
	"time"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
)

// CleanResult carries the deduplicated record sets plus drop counters for
// the run audit row.
type CleanResult struct {
	Customers  []model.Customer
	Orders     []model.Order
	OrderLines []model.OrderLine

	DroppedCustomers  int // null customer_id or null signup_date
	DroppedOrders     int // null order_id
	DroppedOrderLines int // null order_detail_id
	DuplicateRows     int // structural duplicates removed across all three sets
}

// Clean deduplicates each record set by structural equality across all
// fields and removes rows with missing required identifiers. It filters
// each set independently; cross-table consistency is not its concern.
// Input order is preserved (first occurrence wins) so repeated runs over
// the same snapshot produce identical output.
func Clean(customers []model.Customer, orders []model.Order, lines []model.OrderLine) CleanResult {
	res := CleanResult{
		Customers:  make([]model.Customer, 0, len(customers)),
		Orders:     make([]model.Order, 0, len(orders)),
		OrderLines: make([]model.OrderLine, 0, len(lines)),
	}

	seenCustomers := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		if c.CustomerID == "" || c.SignupDate == nil {
			res.DroppedCustomers++
			continue
		}
		key := customerKey(c)
		if _, dup := seenCustomers[key]; dup {
			res.DuplicateRows++
			continue
		}
		seenCustomers[key] = struct{}{}
		res.Customers = append(res.Customers, c)
	}

	seenOrders := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		if o.OrderID == "" {
			res.DroppedOrders++
			continue
		}
		key := orderKey(o)
		if _, dup := seenOrders[key]; dup {
			res.DuplicateRows++
			continue
		}
		seenOrders[key] = struct{}{}
		res.Orders = append(res.Orders, o)
	}

	seenLines := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.OrderDetailID == "" {
			res.DroppedOrderLines++
			continue
		}
		key := lineKey(l)
		if _, dup := seenLines[key]; dup {
			res.DuplicateRows++
			continue
		}
		seenLines[key] = struct{}{}
		res.OrderLines = append(res.OrderLines, l)
	}

	return res
}

// Structural keys cover every field so that rows differing only in a
// non-identifier column survive deduplication as distinct records.

func customerKey(c model.Customer) string {
	return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%d\x1f%s\x1f%s",
		c.CustomerID, c.Name, c.Gender, c.Age, c.Region, fmtDate(c.SignupDate))
}

func orderKey(o model.Order) string {
	return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%s",
		o.OrderID, o.CustomerID, fmtDate(o.OrderDate), fmtFloat(o.TotalAmount))
}

func lineKey(l model.OrderLine) string {
	return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%d\x1f%g",
		l.OrderDetailID, l.OrderID, l.ProductID, l.Quantity, l.UnitPrice)
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return "<nil>"
	}
	return t.UTC().Format(time.RFC3339)
}

func fmtFloat(f *float64) string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%g", *f)
}
