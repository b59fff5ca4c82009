package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrEventAlreadyProcessed = errors.New("payment event already processed")
)

type Repository interface {
	CreatePending(ctx context.Context, order *Order) (uuid.UUID, error)
	AttachPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	ConfirmPayment(ctx context.Context, eventID string, orderID, userID uuid.UUID) ([]int64, bool, error)
	DeletePending(ctx context.Context, orderID, userID uuid.UUID) (bool, error)
	CancelPaid(ctx context.Context, orderID, userID uuid.UUID) ([]int64, bool, error)
	MarkShipped(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*Order, error)
	GetInvoice(ctx context.Context, orderID, userID uuid.UUID) (*Invoice, error)
}

// DB is the part of pgxpool.Pool the repository uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepository struct {
	db DB
}

func NewRepository(db DB) Repository {
	return &postgresRepository{db: db}
}

// inTx runs fn inside a transaction, rolling back on error or panic.
func (r *postgresRepository) inTx(ctx context.Context, op string, orderID uuid.UUID, fn func(tx pgx.Tx) error) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Str("op", op).Stringer("order_id", orderID).Msg("Panic recovered in transaction, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("op", op).Stringer("order_id", orderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("op", op).Stringer("order_id", orderID).Msg("Failed to rollback transaction")
			}
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error().Err(commitErr).Str("op", op).Stringer("order_id", orderID).Msg("Failed to commit transaction")
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(tx)
}

func (r *postgresRepository) CreatePending(ctx context.Context, order *Order) (uuid.UUID, error) {
	if order.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to generate order ID: %w", err)
		}
		order.ID = id
	}
	order.Status = StatusPending
	now := time.Now().UTC()

	err := r.inTx(ctx, "create_pending", order.ID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (id, user_id, total_amount, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, order.ID, order.UserID, order.TotalAmount, string(order.Status), now, now)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order: %w", err)
		}

		for i := range order.OrderItems {
			item := &order.OrderItems[i]
			item.OrderID = order.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, order.ID, item.ProductID, item.Quantity, item.PriceAtPurchase).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("repository: failed to insert order item for order %s: %w", order.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	order.CreatedAt = now
	order.UpdatedAt = now
	return order.ID, nil
}

func (r *postgresRepository) AttachPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE orders SET payment_session_id = $1, updated_at = NOW() WHERE id = $2`, sessionID, orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to store payment session for order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

const decrementStock = `
	UPDATE products p
	SET stock_quantity = p.stock_quantity - s.qty, updated_at = NOW()
	FROM (SELECT product_id, SUM(quantity) AS qty FROM order_items WHERE order_id = $1 GROUP BY product_id) s
	WHERE p.id = s.product_id
	RETURNING p.id
`

const restoreStock = `
	UPDATE products p
	SET stock_quantity = p.stock_quantity + s.qty, updated_at = NOW()
	FROM (SELECT product_id, SUM(quantity) AS qty FROM order_items WHERE order_id = $1 GROUP BY product_id) s
	WHERE p.id = s.product_id
	RETURNING p.id
`

// adjustStock runs one of the stock statements for the order's items and
// returns the ids of the products it touched.
func adjustStock(ctx context.Context, tx pgx.Tx, query string, orderID uuid.UUID) ([]int64, error) {
	rows, err := tx.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// ConfirmPayment records the provider event, moves the order from Pending
// to Paid and decrements stock, all in one transaction. A redelivered
// event returns ErrEventAlreadyProcessed without touching anything. The
// boolean is false when the order was not Pending for that user; otherwise
// the returned ids are the products whose stock changed.
func (r *postgresRepository) ConfirmPayment(ctx context.Context, eventID string, orderID, userID uuid.UUID) ([]int64, bool, error) {
	var productIDs []int64
	confirmed := false

	err := r.inTx(ctx, "confirm_payment", orderID, func(tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx, `
			INSERT INTO processed_payment_events (event_id, order_id) VALUES ($1, $2)
			ON CONFLICT (event_id) DO NOTHING
		`, eventID, orderID)
		if err != nil {
			return fmt.Errorf("repository: failed to record payment event %s: %w", eventID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return ErrEventAlreadyProcessed
		}

		cmdTag, err = tx.Exec(ctx, `
			UPDATE orders SET status = $1, updated_at = NOW()
			WHERE id = $2 AND user_id = $3 AND status = $4
		`, string(StatusPaid), orderID, userID, string(StatusPending))
		if err != nil {
			return fmt.Errorf("repository: failed to mark order %s paid: %w", orderID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return nil
		}

		productIDs, err = adjustStock(ctx, tx, decrementStock, orderID)
		if err != nil {
			return fmt.Errorf("repository: failed to decrement stock for order %s: %w", orderID, err)
		}

		confirmed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return productIDs, confirmed, nil
}

// DeletePending removes an abandoned checkout. The order row is locked
// while its status is checked.
func (r *postgresRepository) DeletePending(ctx context.Context, orderID, userID uuid.UUID) (bool, error) {
	deleted := false

	err := r.inTx(ctx, "delete_pending", orderID, func(tx pgx.Tx) error {
		var status OrderStatus
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`, orderID, userID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("repository: failed to lock order %s: %w", orderID, err)
		}
		if status != StatusPending {
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
			return fmt.Errorf("repository: failed to delete items of order %s: %w", orderID, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
			return fmt.Errorf("repository: failed to delete order %s: %w", orderID, err)
		}

		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}

// CancelPaid moves a Paid order owned by userID to Cancelled_By_User and
// puts its stock back. Orders in any other state are left alone.
func (r *postgresRepository) CancelPaid(ctx context.Context, orderID, userID uuid.UUID) ([]int64, bool, error) {
	var productIDs []int64
	cancelled := false

	err := r.inTx(ctx, "cancel_paid", orderID, func(tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx, `
			UPDATE orders SET status = $1, updated_at = NOW()
			WHERE id = $2 AND user_id = $3 AND status = $4
		`, string(StatusCancelledByUser), orderID, userID, string(StatusPaid))
		if err != nil {
			return fmt.Errorf("repository: failed to cancel order %s: %w", orderID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return nil
		}

		productIDs, err = adjustStock(ctx, tx, restoreStock, orderID)
		if err != nil {
			return fmt.Errorf("repository: failed to restore stock for order %s: %w", orderID, err)
		}

		cancelled = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return productIDs, cancelled, nil
}

func (r *postgresRepository) MarkShipped(ctx context.Context, orderID uuid.UUID) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, string(StatusShipped), orderID, string(StatusPaid))
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("repository: failed to mark order shipped")
		return false, fmt.Errorf("repository: failed to mark order %s shipped: %w", orderID, err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, status, total_amount, payment_session_id, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user id %s: %w", userID, err)
	}
	defer rows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.PaymentSessionID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed scan order for user id %s: %w", userID, err)
		}
		o.OrderItems = make([]OrderItem, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders for user id %s: %w", userID, err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	items, err := r.queryItems(ctx, `WHERE oi.order_id = ANY($1)`, orderIDs)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if o, ok := ordersMap[item.OrderID]; ok {
			o.OrderItems = append(o.OrderItems, item)
		}
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		result = append(result, *ordersMap[id])
	}

	return result, nil
}

func (r *postgresRepository) queryItems(ctx context.Context, where string, arg any) ([]OrderItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price_at_purchase
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		`+where+`
		ORDER BY oi.id
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.PriceAtPurchase); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating order items: %w", err)
	}

	return items, nil
}

func (r *postgresRepository) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, status, total_amount, payment_session_id, created_at, updated_at
		FROM orders
		WHERE id = $1 AND user_id = $2
	`, orderID, userID).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.PaymentSessionID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s: %w", orderID, err)
	}

	items, err := r.queryItems(ctx, `WHERE oi.order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	o.OrderItems = items

	return &o, nil
}

// GetInvoice loads an order only if it belongs to userID.
func (r *postgresRepository) GetInvoice(ctx context.Context, orderID, userID uuid.UUID) (*Invoice, error) {
	var inv Invoice
	err := r.db.QueryRow(ctx, `
		SELECT o.id, o.user_id, o.status, o.total_amount, o.payment_session_id, o.created_at, o.updated_at, u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1 AND o.user_id = $2
	`, orderID, userID).Scan(
		&inv.ID,
		&inv.UserID,
		&inv.Status,
		&inv.TotalAmount,
		&inv.PaymentSessionID,
		&inv.CreatedAt,
		&inv.UpdatedAt,
		&inv.CustomerName,
		&inv.CustomerEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %s: %w", orderID, err)
	}

	items, err := r.queryItems(ctx, `WHERE oi.order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	inv.OrderItems = items

	return &inv, nil
}
