package model

import (
	"time"
)

// Order is an externally-owned sales record. total_amount is nullable at
// the source; the reconciliation stage fills missing totals from line
// items and that is the only mutation this pipeline performs on it.
type Order struct {
	OrderID     string     `json:"order_id" gorm:"column:order_id;primaryKey;type:text"`
	CustomerID  string     `json:"customer_id" gorm:"column:customer_id;index;type:text"`
	OrderDate   *time.Time `json:"order_date" gorm:"column:order_date;type:date"`
	TotalAmount *float64   `json:"total_amount" gorm:"column:total_amount"`
}

// TableName specifies the table name for the Order model.
func (Order) TableName() string {
	return "orders"
}

// OrderLine is a single line item belonging to an Order.
type OrderLine struct {
	OrderDetailID string  `json:"order_detail_id" gorm:"column:order_detail_id;primaryKey;type:text"`
	OrderID       string  `json:"order_id" gorm:"column:order_id;index;type:text"`
	ProductID     string  `json:"product_id" gorm:"column:product_id;type:text"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unit_price" gorm:"column:unit_price"`
}

// TableName specifies the table name for the OrderLine model.
func (OrderLine) TableName() string {
	return "order_lines"
}
