package model

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/pkg/utils"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// NewCustomer creates a Customer with fake data. Used by the seeder and
// by tests that need a populated record without caring about the values.
func NewCustomer(overrideDefaults ...*Customer) *Customer {
	signup := utils.DateOnly(utils.Now().AddDate(0, 0, -gofakeit.Number(30, 1500)))
	base := &Customer{
		CustomerID: gofakeit.UUID(),
		Name:       gofakeit.Name(),
		Gender:     gofakeit.RandomString([]string{"M", "F"}),
		Age:        gofakeit.Number(18, 80),
		Region:     gofakeit.RandomString([]string{"north", "south", "east", "west", "central"}),
		SignupDate: &signup,
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.CustomerID != "" {
			base.CustomerID = ovr.CustomerID
		}
		if ovr.Name != "" {
			base.Name = ovr.Name
		}
		if ovr.Gender != "" {
			base.Gender = ovr.Gender
		}
		if ovr.Age != 0 {
			base.Age = ovr.Age
		}
		if ovr.Region != "" {
			base.Region = ovr.Region
		}
		if ovr.SignupDate != nil {
			base.SignupDate = ovr.SignupDate
		}
	}
	return base
}

// NewOrder creates an Order with fake data for the given customer.
func NewOrder(customerID string, overrideDefaults ...*Order) *Order {
	orderDate := utils.DateOnly(utils.Now().AddDate(0, 0, gofakeit.Number(-365, 60)))
	total := utils.Round2(gofakeit.Float64Range(5, 2500))
	base := &Order{
		OrderID:     gofakeit.UUID(),
		CustomerID:  customerID,
		OrderDate:   &orderDate,
		TotalAmount: &total,
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.OrderID != "" {
			base.OrderID = ovr.OrderID
		}
		if ovr.OrderDate != nil {
			base.OrderDate = ovr.OrderDate
		}
		if ovr.TotalAmount != nil {
			base.TotalAmount = ovr.TotalAmount
		}
	}
	return base
}

// NewOrderLine creates an OrderLine with fake data for the given order.
func NewOrderLine(orderID string, overrideDefaults ...*OrderLine) *OrderLine {
	base := &OrderLine{
		OrderDetailID: gofakeit.UUID(),
		OrderID:       orderID,
		ProductID:     gofakeit.UUID(),
		Quantity:      gofakeit.Number(1, 8),
		UnitPrice:     utils.Round2(gofakeit.Float64Range(1, 400)),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.OrderDetailID != "" {
			base.OrderDetailID = ovr.OrderDetailID
		}
		if ovr.ProductID != "" {
			base.ProductID = ovr.ProductID
		}
		if ovr.Quantity != 0 {
			base.Quantity = ovr.Quantity
		}
		if ovr.UnitPrice != 0 {
			base.UnitPrice = ovr.UnitPrice
		}
	}
	return base
}
