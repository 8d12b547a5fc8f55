package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jogardn/partsdepot/pkg/models"
)

const orderLineQuery = `
	SELECT o.order_id, o.customer_name, o.order_date,
		oi.order_item_id, oi.quantity, p.part_id, p.part_number, p.part_name
	FROM orders o
	JOIN order_items oi ON oi.order_id = o.order_id
	JOIN parts p ON p.part_id = oi.part_id
`

func (s *Store) ListOrders(ctx context.Context) ([]models.OrderLine, error) {
	return s.queryOrderLines(ctx, orderLineQuery+` ORDER BY o.order_date DESC, oi.order_item_id`)
}

// GetOrder returns the lines of one order, or ErrNotFound when the order does
// not exist.
func (s *Store) GetOrder(ctx context.Context, id int64) ([]models.OrderLine, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE order_id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check order %d: %w", id, err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return s.queryOrderLines(ctx, orderLineQuery+` WHERE o.order_id = $1 ORDER BY oi.order_item_id`, id)
}

func (s *Store) queryOrderLines(ctx context.Context, query string, args ...any) ([]models.OrderLine, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	lines := []models.OrderLine{}
	for rows.Next() {
		var l models.OrderLine
		err := rows.Scan(&l.OrderID, &l.CustomerName, &l.OrderDate,
			&l.OrderItemID, &l.Quantity, &l.PartID, &l.PartNumber, &l.PartName)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// CreateOrder resolves partNumber and inserts one order with one item. Both
// rows are written in a single transaction; an unknown part number writes
// nothing and returns ErrUnknownPart.
func (s *Store) CreateOrder(ctx context.Context, customerName string, partNumber int64, quantity int) (*models.Order, *models.OrderItem, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback()

	item := &models.OrderItem{Quantity: quantity}
	err = tx.QueryRowContext(ctx, `SELECT part_id FROM parts WHERE part_number = $1`, partNumber).Scan(&item.PartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %d", ErrUnknownPart, partNumber)
		}
		return nil, nil, fmt.Errorf("resolve part %d: %w", partNumber, err)
	}

	order := &models.Order{CustomerName: customerName}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (customer_name) VALUES ($1) RETURNING order_id, order_date`,
		customerName,
	).Scan(&order.ID, &order.OrderDate)
	if err != nil {
		return nil, nil, fmt.Errorf("insert order: %w", err)
	}

	item.OrderID = order.ID
	err = tx.QueryRowContext(ctx,
		`INSERT INTO order_items (order_id, part_id, quantity) VALUES ($1, $2, $3) RETURNING order_item_id`,
		order.ID, item.PartID, item.Quantity,
	).Scan(&item.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("insert order item: %w", translate(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit order: %w", err)
	}
	return order, item, nil
}

// DeleteOrder removes an order; its items and delivery record cascade.
func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE order_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	return affectedOne(res)
}

// CreatePayment records a checkout. The payment id and date are assigned by
// the database.
func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, amount, card_number)
		VALUES ($1, $2, $3)
		RETURNING payment_id, payment_date
	`
	err := s.db.QueryRowContext(ctx, query, p.OrderID, p.Amount, p.CardNumber).Scan(&p.ID, &p.Date)
	if err != nil {
		return fmt.Errorf("create payment: %w", translate(err))
	}
	return nil
}
