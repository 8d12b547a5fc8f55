package models

import "time"

// DateLayout is the wire format of delivery dates.
const DateLayout = "2006-01-02"

// DeliveryStatus is an order joined with its fulfillment record. Orders that
// have no record yet carry nil DeliveryDate and PaymentMethod.
type DeliveryStatus struct {
	OrderID       int64     `json:"order_id"`
	CustomerName  string    `json:"customer_name"`
	OrderDate     time.Time `json:"order_date"`
	DeliveryDate  *string   `json:"delivery_date"`
	PaymentMethod *string   `json:"payment_method"`
	IsCancelled   bool      `json:"is_cancelled"`
}

type DeliveryUpdate struct {
	OrderID       int64      `json:"order_id"`
	DeliveryDate  *time.Time `json:"-"`
	PaymentMethod *string    `json:"payment_method"`
	IsCancelled   bool       `json:"is_cancelled"`
}

type Report struct {
	Period      string `json:"period"`
	TotalOrders int64  `json:"total_orders"`
	TotalItems  *int64 `json:"total_items"`
}
