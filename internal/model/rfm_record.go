package model

import (
	"time"
)

// Sentinel values for customers without a qualifying order on or after
// the analysis date. The sentinel is materialized here, at the output
// boundary, only; pipeline internals carry recency as an explicit
// optional value instead of a magic day count.
const (
	RecencySentinelDays  = 9999
	RecencySentinelLabel = 4
)

// RFMRecord is one row of the pipeline output: a customer's RFM metrics,
// discrete labels and composite segment score, denormalized with the
// customer attributes consumers need for reporting.
type RFMRecord struct {
	CustomerID     string     `json:"customer_id" gorm:"column:customer_id;primaryKey;type:text"`
	TotalRFMScore  string     `json:"total_RFM_score" gorm:"column:total_RFM_score;type:text"`
	Name           string     `json:"name" gorm:"type:text"`
	Gender         string     `json:"gender" gorm:"type:text"`
	Age            int        `json:"age"`
	Region         string     `json:"region" gorm:"type:text"`
	SignupDate     *time.Time `json:"signup_date" gorm:"column:signup_date;type:date"`
	Recency        int        `json:"recency"`
	Frequency      int        `json:"frequency"`
	Monetary       *float64   `json:"monetary"`
	RecencyLabel   int        `json:"recency_label" gorm:"column:recency_label"`
	FrequencyLabel int        `json:"frequency_label" gorm:"column:frequency_label"`
	MonetaryLabel  int        `json:"monetary_label" gorm:"column:monetary_label"`
}

// TableName specifies the table name for the RFMRecord model.
func (RFMRecord) TableName() string {
	return "rfm_segments"
}
