package api

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/jogardn/partsdepot/internal/events"
	"github.com/jogardn/partsdepot/internal/store"
	"github.com/jogardn/partsdepot/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const minCardDigits = 12

type orderRequest struct {
	CustomerName string `json:"customer_name" validate:"required"`
	PartNumber   *int64 `json:"part_number" validate:"required"`
	Quantity     *int   `json:"quantity" validate:"required,gt=0,lte=2147483647"`
}

type checkoutRequest struct {
	OrderID    *int64           `json:"order_id" validate:"required"`
	Amount     *decimal.Decimal `json:"amount" validate:"required"`
	CardNumber string           `json:"card_number" validate:"required"`
}

func (s *Server) ListOrders(w http.ResponseWriter, r *http.Request) {
	lines, err := s.deps.Orders.ListOrders(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list orders")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to load orders")
		return
	}
	s.respondWithJSON(w, http.StatusOK, lines)
}

func (s *Server) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	lines, err := s.deps.Orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		s.logger.WithError(err).WithField("order_id", id).Error("Failed to load order")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to load order")
		return
	}
	s.respondWithJSON(w, http.StatusOK, lines)
}

func (s *Server) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if !s.check(w, req) {
		return
	}

	order, item, err := s.deps.Orders.CreateOrder(r.Context(), req.CustomerName, *req.PartNumber, *req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUnknownPart):
			s.respondWithError(w, http.StatusBadRequest, "Unknown part number")
		case errors.Is(err, store.ErrInvalidInput):
			s.respondWithError(w, http.StatusBadRequest, "Order values are out of range")
		default:
			s.logger.WithError(err).Error("Failed to create order")
			s.respondWithError(w, http.StatusInternalServerError, "Failed to save order")
		}
		return
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":      order.ID,
		"customer_name": order.CustomerName,
		"part_number":   *req.PartNumber,
		"quantity":      item.Quantity,
	}).Info("Order created successfully")

	s.publish(events.NewEvent(events.TopicOrderCreated, order.ID, map[string]interface{}{
		"order": order,
		"item":  item,
	}))

	s.respondWithJSON(w, http.StatusCreated, models.OrderResponse{
		Success: true,
		Message: "Order created successfully",
		Order:   order,
		Item:    item,
	})
}

func (s *Server) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	if err := s.deps.Orders.DeleteOrder(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		s.logger.WithError(err).WithField("order_id", id).Error("Failed to delete order")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	s.auditLog(r).WithField("order_id", id).Info("Order deleted")
	s.publish(events.NewEvent(events.TopicOrderDeleted, id, nil))
	s.respondWithMessage(w, http.StatusOK, "Order deleted")
}

// Checkout records a payment for an order. Only the last four card digits are
// stored or echoed back.
func (s *Server) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if !s.check(w, req) {
		return
	}

	digits, ok := cardDigits(req.CardNumber)
	if !ok {
		s.respondWithError(w, http.StatusBadRequest, "card_number must contain at least 12 digits.")
		return
	}
	amount := req.Amount.Round(2)
	if !s.checkMoney(w, "amount", amount) {
		return
	}

	payment := models.Payment{
		OrderID:    *req.OrderID,
		Amount:     amount,
		CardNumber: digits,
	}.Masked()

	if err := s.deps.Orders.CreatePayment(r.Context(), &payment); err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			s.respondWithError(w, http.StatusBadRequest, "Payment values are out of range")
			return
		}
		s.logger.WithError(err).WithField("order_id", payment.OrderID).Error("Failed to record payment")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to process payment")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"order_id":   payment.OrderID,
		"amount":     payment.Amount.String(),
	}).Info("Checkout completed")

	s.publish(events.NewEvent(events.TopicCheckoutCompleted, payment.OrderID, payment))

	s.respondWithJSON(w, http.StatusCreated, models.CheckoutResponse{
		Success: true,
		Payment: &payment,
	})
}

// cardDigits strips spaces and dashes and reports whether what remains is a
// plausible card number.
func cardDigits(number string) (string, bool) {
	var b strings.Builder
	for _, r := range number {
		switch {
		case r == ' ' || r == '-':
		case unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			return "", false
		}
	}
	digits := b.String()
	return digits, len(digits) >= minCardDigits && len(digits) <= 19
}
