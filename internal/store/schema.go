package store

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS parts (
		part_id BIGSERIAL PRIMARY KEY,
		part_number BIGINT NOT NULL UNIQUE,
		part_name TEXT NOT NULL,
		price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
		img_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id BIGSERIAL PRIMARY KEY,
		username VARCHAR(255) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		customer_name VARCHAR(255) NOT NULL,
		credit_card_number VARCHAR(32) NOT NULL DEFAULT '',
		billing_address TEXT NOT NULL DEFAULT '',
		shipping_address TEXT NOT NULL DEFAULT '',
		preferred_branch VARCHAR(255) NOT NULL DEFAULT '',
		owned_car VARCHAR(255)
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		employee_id BIGSERIAL PRIMARY KEY,
		employee_name VARCHAR(255) NOT NULL,
		employee_role VARCHAR(255) NOT NULL,
		username VARCHAR(255) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id BIGSERIAL PRIMARY KEY,
		customer_name VARCHAR(255) NOT NULL,
		order_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_item_id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
		part_id BIGINT NOT NULL REFERENCES parts(part_id),
		quantity INTEGER NOT NULL CHECK (quantity > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		payment_id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL,
		amount NUMERIC(10,2) NOT NULL CHECK (amount >= 0),
		card_number VARCHAR(32) NOT NULL,
		payment_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS delivery_status (
		order_id BIGINT PRIMARY KEY REFERENCES orders(order_id) ON DELETE CASCADE,
		delivery_date DATE,
		payment_method VARCHAR(64),
		is_cancelled BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_part_id ON order_items(part_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders(order_date)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments(order_id)`,
}

// Migrate creates the tables and indexes if they don't exist.
func (s *Store) Migrate(ctx context.Context) error {
	for i, query := range schema {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	s.logger.WithField("statements", len(schema)).Info("Database schema is up to date")
	return nil
}
