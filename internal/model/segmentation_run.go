package model

import (
	"time"

	"gorm.io/datatypes"
)

// Run statuses recorded in segmentation_runs.
const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// SegmentationRun is the audit row written once per pipeline invocation.
// It carries the per-stage counters a re-run can be compared against and
// surfaces silent-drop conditions (compose-stage join attrition) that the
// output table itself cannot show.
type SegmentationRun struct {
	RunID            string         `json:"run_id" gorm:"column:run_id;primaryKey;type:text"`
	AnalysisDate     time.Time      `json:"analysis_date" gorm:"column:analysis_date;type:date"`
	Status           string         `json:"status" gorm:"type:text"`
	RawCustomers     int            `json:"raw_customers" gorm:"column:raw_customers"`
	RawOrders        int            `json:"raw_orders" gorm:"column:raw_orders"`
	RawOrderLines    int            `json:"raw_order_lines" gorm:"column:raw_order_lines"`
	CleanCustomers   int            `json:"clean_customers" gorm:"column:clean_customers"`
	CleanOrders      int            `json:"clean_orders" gorm:"column:clean_orders"`
	CleanOrderLines  int            `json:"clean_order_lines" gorm:"column:clean_order_lines"`
	TotalsFilled     int            `json:"totals_filled" gorm:"column:totals_filled"`
	SegmentsWritten  int            `json:"segments_written" gorm:"column:segments_written"`
	CustomersDropped int            `json:"customers_dropped" gorm:"column:customers_dropped"`
	StartedAt        time.Time      `json:"started_at" gorm:"column:started_at"`
	FinishedAt       time.Time      `json:"finished_at" gorm:"column:finished_at"`
	Details          datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb"`
}

// TableName specifies the table name for the SegmentationRun model.
func (SegmentationRun) TableName() string {
	return "segmentation_runs"
}
