package segmentation

import (
	"fmt"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
)

// ComposeResult carries the final output records plus the IDs of any
// customers that fell out of the label/attribute join. Upstream stages
// guarantee both sides cover the same customer set, so Dropped being
// non-empty signals a pipeline defect, not bad input; it is surfaced in
// the run audit row instead of disappearing silently.
type ComposeResult struct {
	Records []model.RFMRecord
	Dropped []string
}

// Compose concatenates the three labels into the composite score
// (recency, frequency, monetary, in that fixed order) and joins the
// labels back to the denormalized customer attributes. Sentinel recency
// values are materialized here: an absent recency becomes 9999 with the
// sentinel label digit in the composite.
func Compose(customers []model.Customer, ranked []RankedCustomer) ComposeResult {
	rankedByID := make(map[string]RankedCustomer, len(ranked))
	for _, r := range ranked {
		rankedByID[r.CustomerID] = r
	}

	res := ComposeResult{Records: make([]model.RFMRecord, 0, len(customers))}
	matched := make(map[string]struct{}, len(customers))

	for _, c := range customers {
		r, ok := rankedByID[c.CustomerID]
		if !ok {
			res.Dropped = append(res.Dropped, c.CustomerID)
			continue
		}
		matched[c.CustomerID] = struct{}{}

		recency := model.RecencySentinelDays
		if r.RecencyDays != nil {
			recency = *r.RecencyDays
		}

		res.Records = append(res.Records, model.RFMRecord{
			CustomerID:     c.CustomerID,
			TotalRFMScore:  fmt.Sprintf("%d%d%d", r.RecencyLabel, r.FrequencyLabel, r.MonetaryLabel),
			Name:           c.Name,
			Gender:         c.Gender,
			Age:            c.Age,
			Region:         c.Region,
			SignupDate:     c.SignupDate,
			Recency:        recency,
			Frequency:      r.Frequency,
			Monetary:       r.Monetary,
			RecencyLabel:   r.RecencyLabel,
			FrequencyLabel: r.FrequencyLabel,
			MonetaryLabel:  r.MonetaryLabel,
		})
	}

	// Ranked entries with no matching customer attributes are the other
	// side of the same join failure.
	for _, r := range ranked {
		if _, ok := matched[r.CustomerID]; !ok {
			res.Dropped = append(res.Dropped, r.CustomerID)
		}
	}

	return res
}
