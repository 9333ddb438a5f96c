package segmentation

// CustomerMetrics holds the per-customer metric triple produced by the
// metric stage. RecencyDays is nil when the customer has no order on or
// after the analysis date; Monetary is nil when the customer has no
// order-line rows to average over. The numeric sentinels (9999, label 4)
// exist only in the persisted output, never here.
type CustomerMetrics struct {
	CustomerID  string
	RecencyDays *int
	Frequency   int
	Monetary    *float64
}

// RankedCustomer is a CustomerMetrics with percentile ranks and discrete
// labels attached by the ranking stage.
type RankedCustomer struct {
	CustomerMetrics

	RecencyRank    *float64 // nil when RecencyDays is nil
	FrequencyRank  float64
	MonetaryRank   float64
	RecencyLabel   int // 1..3, or the sentinel label for absent recency
	FrequencyLabel int
	MonetaryLabel  int
}
