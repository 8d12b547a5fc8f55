package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jogardn/partsdepot/pkg/models"
)

// reportWindows maps a report period to the PostgreSQL interval it covers.
var reportWindows = map[string]string{
	"daily":   "1 day",
	"weekly":  "7 days",
	"monthly": "30 days",
}

// Summary counts orders and ordered items placed within the period ending now.
func (s *Store) Summary(ctx context.Context, period string) (*models.Report, error) {
	window, ok := reportWindows[period]
	if !ok {
		return nil, fmt.Errorf("%w: unknown report period %q", ErrInvalidInput, period)
	}

	query := `
		SELECT COUNT(DISTINCT o.order_id), SUM(oi.quantity)
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.order_id
		WHERE o.order_date >= NOW() - $1::interval
	`
	report := &models.Report{Period: period}
	var items sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, window).Scan(&report.TotalOrders, &items); err != nil {
		return nil, fmt.Errorf("%s report: %w", period, err)
	}
	if items.Valid {
		report.TotalItems = &items.Int64
	}
	return report, nil
}
