package segmentation

import (
	"time"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

// ComputeMetrics derives the per-customer (Recency, Frequency, Monetary)
// triple for every cleaned customer, relative to the analysis date.
//
//   - Recency is the forward day distance from the analysis date to the
//     customer's latest order dated on or after it, nil when no such
//     order exists. The forward direction is intentional and mirrors the
//     original scoring definition; do not flip it to a backward
//     "days since last order".
//   - Frequency counts order-line rows (not distinct orders) over the
//     entire history.
//   - Monetary averages order totals across the customer's joined
//     order-line rows, rounded to 2 decimals; rows whose parent order
//     still has a null total are ignored by the average, matching SQL
//     AVG semantics.
//
// Left-join semantics apply throughout: a customer with no orders gets
// (nil, 0, nil). Output preserves the input customer order.
func ComputeMetrics(customers []model.Customer, orders []model.Order, lines []model.OrderLine, analysisDate time.Time) []CustomerMetrics {
	analysisDate = utils.DateOnly(analysisDate)

	ordersByID := make(map[string]model.Order, len(orders))
	ordersByCustomer := make(map[string][]model.Order, len(customers))
	for _, o := range orders {
		ordersByID[o.OrderID] = o
		ordersByCustomer[o.CustomerID] = append(ordersByCustomer[o.CustomerID], o)
	}

	// The order-line-joined-to-order view, aggregated as we go: one
	// frequency increment per joined row, one monetary contribution per
	// row with a non-null order total.
	freq := make(map[string]int)
	moneySum := make(map[string]float64)
	moneyRows := make(map[string]int)
	for _, l := range lines {
		o, ok := ordersByID[l.OrderID]
		if !ok {
			continue // orphan line, no parent order to join
		}
		freq[o.CustomerID]++
		if o.TotalAmount != nil {
			moneySum[o.CustomerID] += *o.TotalAmount
			moneyRows[o.CustomerID]++
		}
	}

	out := make([]CustomerMetrics, 0, len(customers))
	for _, c := range customers {
		m := CustomerMetrics{
			CustomerID: c.CustomerID,
			Frequency:  freq[c.CustomerID],
		}

		var latest *time.Time
		for _, o := range ordersByCustomer[c.CustomerID] {
			if o.OrderDate == nil {
				continue
			}
			d := utils.DateOnly(*o.OrderDate)
			if d.Before(analysisDate) {
				continue
			}
			if latest == nil || d.After(*latest) {
				dd := d
				latest = &dd
			}
		}
		if latest != nil {
			days := utils.DaysBetween(analysisDate, *latest)
			if days < 0 {
				days = -days
			}
			m.RecencyDays = &days
		}

		if moneyRows[c.CustomerID] > 0 {
			avg := utils.Round2(moneySum[c.CustomerID] / float64(moneyRows[c.CustomerID]))
			m.Monetary = &avg
		}

		out = append(out, m)
	}
	return out
}
