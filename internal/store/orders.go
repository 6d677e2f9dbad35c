package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, user_id, address_id, payment_method, total_price, status,
	coupon_code, coupon_discount, payment_token, payment_retry_url, gateway_payment_id,
	stock_reserved, coupon_applied, created_at, updated_at`

// TransitionRequest is a compare-and-set of the order status.
type TransitionRequest struct {
	OrderID string
	From    models.PaymentStatus
	To      models.PaymentStatus
	Comment string
	// GatewayPaymentID is recorded alongside the status when non-empty.
	GatewayPaymentID string
}

// CreateOrder inserts the order, its line items and the first history entry
// in one transaction.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order, comment string) error {
	s.stampCreated(o)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertOrder(ctx, tx, o, comment)
	})
}

// CreateSettledOrder inserts an order that needs no payment capture and, in
// the same transaction, reserves its stock and consumes its coupon. A
// shortfall or an exhausted coupon rolls everything back, so the order never
// exists without its reservations.
func (s *Store) CreateSettledOrder(ctx context.Context, o *models.Order, comment string, lines []StockLine) error {
	s.stampCreated(o)
	now := s.timestamp()

	o.StockReserved, o.CouponApplied = true, o.Coupon != nil
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertOrder(ctx, tx, o, comment); err != nil {
			return err
		}
		for _, l := range lines {
			if l.Backordered {
				continue
			}
			if _, err := reserve(ctx, tx, l.VariantID, l.Size, l.Quantity, now); err != nil {
				return err
			}
		}
		if o.Coupon != nil {
			return applyUsage(ctx, tx, NormalizeCode(o.Coupon.Code), now)
		}
		return nil
	})
	if err != nil {
		o.StockReserved, o.CouponApplied, o.Comments = false, false, nil
	}
	return err
}

func (s *Store) stampCreated(o *models.Order) {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	o.CreatedAt = utc(o.CreatedAt)
	o.UpdatedAt = o.CreatedAt
}

func insertOrder(ctx context.Context, tx *sql.Tx, o *models.Order, comment string) error {
	var couponCode sql.NullString
	var couponDiscount decimal.NullDecimal
	if o.Coupon != nil {
		couponCode = sql.NullString{String: o.Coupon.Code, Valid: true}
		couponDiscount = decimal.NewNullDecimal(o.Coupon.Discount)
	}

	// 1. --- Insert the order header ---
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, address_id, payment_method, total_price, status,
			coupon_code, coupon_discount, payment_token, payment_retry_url, gateway_payment_id,
			stock_reserved, coupon_applied, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.AddressID, string(o.PaymentMethod), o.TotalPrice, string(o.Status),
		couponCode, couponDiscount, o.PaymentToken, o.PaymentRetryURL, o.GatewayPayment,
		o.StockReserved, o.CouponApplied, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	// 2. --- Insert the line items ---
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		res, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, variant_id, product_name, category, size, quantity, unit_price, backordered)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, item.VariantID, item.ProductName, item.Category, nullString(item.Size),
			item.Quantity, item.UnitPrice, item.Backordered)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			item.ID = id
		}
	}

	// 3. --- Open the history ---
	if err := insertComment(ctx, tx, o.ID, "", o.Status, comment, o.CreatedAt); err != nil {
		return err
	}
	o.Comments = append(o.Comments, comment)
	return nil
}

// GetOrder loads an order with its items and full comment history.
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	if o.Items, err = s.orderItems(ctx, id); err != nil {
		return nil, err
	}
	if o.Comments, err = s.orderComments(ctx, id); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) orderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, variant_id, product_name, category, size, quantity, unit_price, backordered
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		var size sql.NullString
		if err := rows.Scan(&it.ID, &it.OrderID, &it.VariantID, &it.ProductName, &it.Category,
			&size, &it.Quantity, &it.UnitPrice, &it.Backordered); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		it.Size = stringPtr(size)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) orderComments(ctx context.Context, orderID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT comment FROM order_comments WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order comments: %w", err)
	}
	defer rows.Close()

	comments := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan order comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// History returns the status transitions of an order, oldest first.
func (s *Store) History(ctx context.Context, orderID string) ([]models.StatusTransition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, from_status, to_status, comment, created_at
		FROM order_comments WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order history: %w", err)
	}
	defer rows.Close()

	var out []models.StatusTransition
	for rows.Next() {
		var t models.StatusTransition
		var from, to string
		if err := rows.Scan(&t.OrderID, &from, &to, &t.Comment, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order history: %w", err)
		}
		t.From, t.To = models.PaymentStatus(from), models.PaymentStatus(to)
		out = append(out, t)
	}
	return out, rows.Err()
}

// TransitionStatus moves the order from req.From to req.To only if it is
// still in req.From. It reports false, without error, when another writer
// got there first.
func (s *Store) TransitionStatus(ctx context.Context, req TransitionRequest) (bool, error) {
	applied := false
	now := s.timestamp()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var res sql.Result
		var err error
		if req.GatewayPaymentID != "" {
			res, err = tx.ExecContext(ctx,
				`UPDATE orders SET status = ?, gateway_payment_id = ?, updated_at = ? WHERE id = ? AND status = ?`,
				string(req.To), req.GatewayPaymentID, now, req.OrderID, string(req.From))
		} else {
			res, err = tx.ExecContext(ctx,
				`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
				string(req.To), now, req.OrderID, string(req.From))
		}
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		n, err := rowsAffected(res)
		if err != nil || n == 0 {
			return err
		}

		if err := insertComment(ctx, tx, req.OrderID, req.From, req.To, req.Comment, now); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// AppendComment adds a history entry without changing the status.
func (s *Store) AppendComment(ctx context.Context, orderID string, status models.PaymentStatus, comment string) error {
	return insertComment(ctx, s.db, orderID, status, status, comment, s.timestamp())
}

func insertComment(ctx context.Context, q querier, orderID string, from, to models.PaymentStatus, comment string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO order_comments (order_id, from_status, to_status, comment, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		orderID, string(from), string(to), comment, at)
	if err != nil {
		return fmt.Errorf("insert order comment: %w", err)
	}
	return nil
}

// RecordPaymentSession stores the gateway correlation token and the URL the
// customer can use to retry the payment.
func (s *Store) RecordPaymentSession(ctx context.Context, orderID, token, retryURL string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET payment_token = ?, payment_retry_url = ?, updated_at = ? WHERE id = ?`,
		token, retryURL, s.timestamp(), orderID)
	if err != nil {
		return fmt.Errorf("record payment session: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return orderExists(ctx, s.db, orderID)
	}
	return nil
}

// ListOrdersByStatus returns order headers (no items) newest first.
func (s *Store) ListOrdersByStatus(ctx context.Context, status models.PaymentStatus, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = ? ORDER BY created_at DESC LIMIT ?`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// ListStalePending returns ids of orders still awaiting payment that were
// created before the cutoff.
func (s *Store) ListStalePending(ctx context.Context, before time.Time, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM orders
		WHERE status = ? AND created_at < ?
		ORDER BY created_at LIMIT ?`,
		string(models.StatusPendingPayment), utc(before), limit)
	if err != nil {
		return nil, fmt.Errorf("list stale orders: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stale order: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*models.Order, error) {
	var o models.Order
	var method, status string
	var couponCode sql.NullString
	var couponDiscount decimal.NullDecimal

	err := row.Scan(&o.ID, &o.UserID, &o.AddressID, &method, &o.TotalPrice, &status,
		&couponCode, &couponDiscount, &o.PaymentToken, &o.PaymentRetryURL, &o.GatewayPayment,
		&o.StockReserved, &o.CouponApplied, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.PaymentMethod = models.PaymentMethod(method)
	o.Status = models.PaymentStatus(status)
	if couponCode.Valid {
		o.Coupon = &models.CouponSnapshot{Code: couponCode.String, Discount: couponDiscount.Decimal}
	}
	return &o, nil
}
