package model

import (
	"time"
)

// Customer is an externally-owned reference record. The pipeline never
// mutates it; rows with a missing customer_id or signup_date are dropped
// during cleaning.
type Customer struct {
	CustomerID string     `json:"customer_id" gorm:"column:customer_id;primaryKey;type:text"`
	Name       string     `json:"name" gorm:"type:text"`
	Gender     string     `json:"gender" gorm:"type:text"`
	Age        int        `json:"age"`
	Region     string     `json:"region" gorm:"type:text"`
	SignupDate *time.Time `json:"signup_date" gorm:"column:signup_date;type:date"`
}

// TableName specifies the table name for the Customer model.
func (Customer) TableName() string {
	return "customers"
}
