package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID         int64           `json:"payment_id"`
	OrderID    int64           `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	CardNumber string          `json:"card_number"`
	Date       time.Time       `json:"date"`
}

// Masked returns a copy of p with all but the last four card digits hidden.
func (p Payment) Masked() Payment {
	p.CardNumber = MaskCard(p.CardNumber)
	return p
}

func MaskCard(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

type CheckoutResponse struct {
	Success bool     `json:"success"`
	Payment *Payment `json:"payment,omitempty"`
}
