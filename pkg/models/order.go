package models

import (
	"time"
)

// Order is a row of the orders table. CustomerName is denormalized and is not
// a reference to a customer account.
type Order struct {
	ID           int64     `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	OrderDate    time.Time `json:"order_date"`
}

type OrderItem struct {
	ID       int64 `json:"order_item_id"`
	OrderID  int64 `json:"order_id"`
	PartID   int64 `json:"part_id"`
	Quantity int   `json:"quantity"`
}

// OrderLine is one order item joined with its order and part, the shape the
// admin console lists.
type OrderLine struct {
	OrderID      int64     `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	OrderDate    time.Time `json:"order_date"`
	OrderItemID  int64     `json:"order_item_id"`
	Quantity     int       `json:"quantity"`
	PartID       int64     `json:"part_id"`
	PartNumber   int64     `json:"part_number"`
	PartName     string    `json:"part_name"`
}

type OrderResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Order   *Order     `json:"order,omitempty"`
	Item    *OrderItem `json:"item,omitempty"`
}
