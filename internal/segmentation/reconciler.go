package segmentation

import (
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

// ReconcileResult carries orders with repaired totals and the totals that
// were filled in, keyed by order_id, for persisting back to the source.
type ReconcileResult struct {
	Orders []model.Order
	Filled map[string]float64
}

// ReconcileTotals fills every null order total with sum(unit_price *
// quantity) over the order's lines. Non-null totals are never touched,
// which is what makes a re-run safe. An order with a null total and no
// lines keeps its null total and is reported in Filled by absence only.
func ReconcileTotals(orders []model.Order, lines []model.OrderLine) ReconcileResult {
	lineTotals := make(map[string]float64)
	lineCounts := make(map[string]int)
	for _, l := range lines {
		lineTotals[l.OrderID] += l.UnitPrice * float64(l.Quantity)
		lineCounts[l.OrderID]++
	}

	res := ReconcileResult{
		Orders: make([]model.Order, len(orders)),
		Filled: make(map[string]float64),
	}
	for i, o := range orders {
		if o.TotalAmount == nil && lineCounts[o.OrderID] > 0 {
			total := utils.Round2(lineTotals[o.OrderID])
			o.TotalAmount = &total
			res.Filled[o.OrderID] = total
		}
		res.Orders[i] = o
	}
	return res
}
