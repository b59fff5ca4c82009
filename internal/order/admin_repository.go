package order

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AdminReader serves the read-only back-office views.
type AdminReader interface {
	ListOrders(ctx context.Context) ([]AdminOrder, error)
	RevenueSummary(ctx context.Context) (*RevenueSummary, error)
}

type sqlxAdminReader struct {
	db *sqlx.DB
}

func NewAdminReader(db *sqlx.DB) AdminReader {
	return &sqlxAdminReader{db: db}
}

const listAdminOrdersQuery = `
	SELECT o.id, o.user_id, u.name AS customer_name, o.total_amount, o.status, o.created_at
	FROM orders o
	JOIN users u ON u.id = o.user_id
	ORDER BY o.created_at DESC`

func (r *sqlxAdminReader) ListOrders(ctx context.Context) ([]AdminOrder, error) {
	orders := make([]AdminOrder, 0)
	if err := r.db.SelectContext(ctx, &orders, listAdminOrdersQuery); err != nil {
		return nil, fmt.Errorf("repository: failed to list orders: %w", err)
	}
	return orders, nil
}

const revenueSummaryQuery = `
	SELECT
		COUNT(*) FILTER (WHERE status IN ('Paid', 'Shipped')) AS paid_orders,
		COUNT(*) FILTER (WHERE status = 'Pending') AS pending_orders,
		COALESCE(SUM(total_amount) FILTER (WHERE status IN ('Paid', 'Shipped')), 0) AS revenue
	FROM orders`

func (r *sqlxAdminReader) RevenueSummary(ctx context.Context) (*RevenueSummary, error) {
	var summary RevenueSummary
	if err := r.db.GetContext(ctx, &summary, revenueSummaryQuery); err != nil {
		return nil, fmt.Errorf("repository: failed to compute revenue summary: %w", err)
	}
	return &summary, nil
}
