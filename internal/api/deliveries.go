package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/partsdepot/internal/events"
	"github.com/jogardn/partsdepot/internal/store"
	"github.com/jogardn/partsdepot/pkg/models"
	"github.com/sirupsen/logrus"
)

type deliveryRequest struct {
	OrderID       *int64  `json:"order_id" validate:"required"`
	DeliveryDate  *string `json:"delivery_date"`
	PaymentMethod *string `json:"payment_method"`
	IsCancelled   bool    `json:"is_cancelled"`
}

func (s *Server) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.deps.Deliveries.ListDeliveries(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list delivery statuses")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to load delivery statuses")
		return
	}
	s.respondWithJSON(w, http.StatusOK, statuses)
}

func (s *Server) UpdateDelivery(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if !s.check(w, req) {
		return
	}

	date, err := parseDeliveryDate(req.DeliveryDate)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "delivery_date must be YYYY-MM-DD.")
		return
	}

	update := models.DeliveryUpdate{
		OrderID:       *req.OrderID,
		DeliveryDate:  date,
		PaymentMethod: req.PaymentMethod,
		IsCancelled:   req.IsCancelled,
	}
	if err := s.deps.Deliveries.UpsertDelivery(r.Context(), update); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		s.logger.WithError(err).WithField("order_id", update.OrderID).Error("Failed to update delivery status")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to update delivery status")
		return
	}

	s.auditLog(r).WithFields(logrus.Fields{
		"order_id":     update.OrderID,
		"is_cancelled": update.IsCancelled,
	}).Info("Delivery status updated")

	s.publish(events.NewEvent(events.TopicDeliveryUpdated, update.OrderID, req))
	s.respondWithMessage(w, http.StatusOK, "Delivery status updated")
}

// parseDeliveryDate accepts a calendar date or a full timestamp, of which only
// the date is kept. Nil or blank clears the date.
func parseDeliveryDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)

	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		ts, tsErr := time.Parse(time.RFC3339, value)
		if tsErr != nil {
			return nil, err
		}
		t = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	return &t, nil
}

func (s *Server) Report(w http.ResponseWriter, r *http.Request) {
	period := strings.ToLower(mux.Vars(r)["period"])

	report, err := s.deps.Reports.Summary(r.Context(), period)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			s.respondWithError(w, http.StatusBadRequest, "Unknown report period. Use daily, weekly or monthly.")
			return
		}
		s.logger.WithError(err).WithField("period", period).Error("Failed to build report")
		s.respondWithError(w, http.StatusInternalServerError, "Failed to build report")
		return
	}
	s.respondWithJSON(w, http.StatusOK, report)
}
