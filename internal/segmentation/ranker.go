package segmentation

import (
	"sort"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

// Rank converts each metric into a cumulative-distribution percentile
// rank and a discrete 1-3 label.
//
// rank = (# of customers with a strictly smaller value) / (population-1),
// rounded to 2 decimals, computed ascending and independently per metric.
// Tied values therefore share a rank. A population of one ranks 0.
//
// Frequency and monetary ranks span all customers; a nil monetary sorts
// below every non-nil value and ties with other nils. The recency rank
// is computed only over customers that have a recency at all; the rest
// get the sentinel label and no rank.
//
// Labels are assigned from the rounded rank: below 0.25 is 1, above 0.75
// is 3, and the middle bucket claims both boundary values.
func Rank(metrics []CustomerMetrics) []RankedCustomer {
	n := len(metrics)

	freqSorted := make([]float64, 0, n)
	for _, m := range metrics {
		freqSorted = append(freqSorted, float64(m.Frequency))
	}
	sort.Float64s(freqSorted)

	monSorted := make([]float64, 0, n)
	nilMonetary := 0
	for _, m := range metrics {
		if m.Monetary == nil {
			nilMonetary++
			continue
		}
		monSorted = append(monSorted, *m.Monetary)
	}
	sort.Float64s(monSorted)

	recSorted := make([]float64, 0, n)
	for _, m := range metrics {
		if m.RecencyDays != nil {
			recSorted = append(recSorted, float64(*m.RecencyDays))
		}
	}
	sort.Float64s(recSorted)
	recPopulation := len(recSorted)

	out := make([]RankedCustomer, 0, n)
	for _, m := range metrics {
		rc := RankedCustomer{CustomerMetrics: m}

		rc.FrequencyRank = percentileRank(countStrictlyLess(freqSorted, float64(m.Frequency)), n)
		rc.FrequencyLabel = labelFor(rc.FrequencyRank)

		monLess := nilMonetary // every nil sorts below every non-nil value
		if m.Monetary != nil {
			monLess += countStrictlyLess(monSorted, *m.Monetary)
		} else {
			monLess = 0 // nothing is strictly less than a nil
		}
		rc.MonetaryRank = percentileRank(monLess, n)
		rc.MonetaryLabel = labelFor(rc.MonetaryRank)

		if m.RecencyDays != nil {
			rank := percentileRank(countStrictlyLess(recSorted, float64(*m.RecencyDays)), recPopulation)
			rc.RecencyRank = &rank
			rc.RecencyLabel = labelFor(rank)
		} else {
			rc.RecencyLabel = model.RecencySentinelLabel
		}

		out = append(out, rc)
	}
	return out
}

// countStrictlyLess returns how many values in the ascending-sorted
// slice are strictly smaller than v.
func countStrictlyLess(sorted []float64, v float64) int {
	return sort.SearchFloat64s(sorted, v)
}

func percentileRank(strictlyLess, population int) float64 {
	if population <= 1 {
		return 0
	}
	return utils.Round2(float64(strictlyLess) / float64(population-1))
}

func labelFor(p float64) int {
	switch {
	case p < 0.25:
		return 1
	case p <= 0.75:
		return 2
	default:
		return 3
	}
}
