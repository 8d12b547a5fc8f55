package models

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Prices and amounts travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Part is a catalog item. PartNumber is the business key shown to customers;
// ID is the surrogate key used by the admin console and order items.
type Part struct {
	ID         int64           `json:"part_id"`
	PartNumber int64           `json:"part_number"`
	Name       string          `json:"part_name"`
	Price      decimal.Decimal `json:"price"`
	ImgURL     *string         `json:"img_url"`
}
