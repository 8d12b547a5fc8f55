package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jogardn/partsdepot/pkg/models"
)

// ListDeliveries returns every order with its delivery record, if any.
func (s *Store) ListDeliveries(ctx context.Context) ([]models.DeliveryStatus, error) {
	query := `
		SELECT o.order_id, o.customer_name, o.order_date,
			d.delivery_date, d.payment_method, COALESCE(d.is_cancelled, FALSE)
		FROM orders o
		LEFT JOIN delivery_status d ON d.order_id = o.order_id
		ORDER BY o.order_date DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	statuses := []models.DeliveryStatus{}
	for rows.Next() {
		var d models.DeliveryStatus
		var date sql.NullTime
		var method sql.NullString
		if err := rows.Scan(&d.OrderID, &d.CustomerName, &d.OrderDate, &date, &method, &d.IsCancelled); err != nil {
			return nil, err
		}
		if date.Valid {
			formatted := date.Time.Format(models.DateLayout)
			d.DeliveryDate = &formatted
		}
		d.PaymentMethod = stringPtr(method)
		statuses = append(statuses, d)
	}
	return statuses, rows.Err()
}

// UpsertDelivery creates or replaces the delivery record of an order.
// ErrNotFound means the order does not exist.
func (s *Store) UpsertDelivery(ctx context.Context, u models.DeliveryUpdate) error {
	query := `
		INSERT INTO delivery_status (order_id, delivery_date, payment_method, is_cancelled)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO UPDATE SET
			delivery_date = EXCLUDED.delivery_date,
			payment_method = EXCLUDED.payment_method,
			is_cancelled = EXCLUDED.is_cancelled
	`
	var date sql.NullTime
	if u.DeliveryDate != nil {
		date = sql.NullTime{Time: *u.DeliveryDate, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query, u.OrderID, date, nullString(u.PaymentMethod), u.IsCancelled)
	if err != nil {
		if err := translate(err); errors.Is(err, ErrReferenced) {
			return ErrNotFound
		}
		return fmt.Errorf("upsert delivery for order %d: %w", u.OrderID, err)
	}
	return nil
}
