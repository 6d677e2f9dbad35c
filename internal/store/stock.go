package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/sportshop-golang/internal/apperr"
)

// StockLine is one reservation request. Size is nil for unsized variants.
type StockLine struct {
	VariantID int64
	Size      *string
	Quantity  int
	// Backordered lines were sold against empty stock and are not decremented.
	Backordered bool
}

// Reserve decrements stock for a single variant (or size) if enough is on
// hand. Empty or negative stock is the manufacturer backorder state: the
// call succeeds without decrementing and reports backordered=true.
func (s *Store) Reserve(ctx context.Context, variantID int64, size *string, quantity int) (backordered bool, err error) {
	return reserve(ctx, s.db, variantID, size, quantity, s.timestamp())
}

func reserve(ctx context.Context, q querier, variantID int64, size *string, quantity int, now time.Time) (bool, error) {
	if quantity <= 0 {
		return false, apperr.Validation("invalid_quantity", "quantity must be positive")
	}

	var res sql.Result
	var err error
	if size != nil {
		res, err = q.ExecContext(ctx,
			`UPDATE variant_sizes SET stock = stock - ? WHERE variant_id = ? AND size = ? AND stock >= ?`,
			quantity, variantID, *size, quantity)
	} else {
		res, err = q.ExecContext(ctx,
			`UPDATE variants SET current_stock = current_stock - ?, updated_at = ? WHERE id = ? AND current_stock >= ?`,
			quantity, now, variantID, quantity)
	}
	if err != nil {
		return false, fmt.Errorf("decrement stock for variant %d: %w", variantID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	if n == 1 {
		return false, nil
	}

	// Nothing was decremented: find out why.
	stock, err := stockLevel(ctx, q, variantID, size)
	if err != nil {
		return false, err
	}
	if stock <= 0 {
		return true, nil
	}
	return false, apperr.With(apperr.ErrInsufficientStock,
		fmt.Sprintf("only %d left in stock for variant %d", stock, variantID), nil)
}

// ReserveForOrder reserves every line of an order in one transaction. The
// order's stock_reserved marker is flipped in the same transaction, so a
// repeated call is a no-op (applied=false) and a failing line leaves all
// counters and the marker untouched.
func (s *Store) ReserveForOrder(ctx context.Context, orderID string, lines []StockLine) (applied bool, err error) {
	now := s.timestamp()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		// 1. --- Claim the order ---
		res, err := tx.ExecContext(ctx,
			`UPDATE orders SET stock_reserved = ?, updated_at = ? WHERE id = ? AND stock_reserved = ?`,
			true, now, orderID, false)
		if err != nil {
			return fmt.Errorf("mark stock reserved: %w", err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return orderExists(ctx, tx, orderID)
		}

		// 2. --- Decrement every line ---
		for _, l := range lines {
			if l.Backordered {
				continue
			}
			if _, err := reserve(ctx, tx, l.VariantID, l.Size, l.Quantity, now); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	return applied, err
}

// Restock sets an absolute stock level for a variant or one of its sizes.
func (s *Store) Restock(ctx context.Context, variantID int64, size *string, stock int) error {
	var res sql.Result
	var err error
	if size != nil {
		res, err = s.db.ExecContext(ctx,
			`UPDATE variant_sizes SET stock = ? WHERE variant_id = ? AND size = ?`,
			stock, variantID, *size)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE variants SET current_stock = ?, updated_at = ? WHERE id = ?`,
			stock, s.timestamp(), variantID)
	}
	if err != nil {
		return fmt.Errorf("restock variant %d: %w", variantID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports unchanged rows as unaffected.
		_, err := stockLevel(ctx, s.db, variantID, size)
		return err
	}
	return nil
}

// StockLevel reads the current counter of a variant or one of its sizes.
func (s *Store) StockLevel(ctx context.Context, variantID int64, size *string) (int, error) {
	return stockLevel(ctx, s.db, variantID, size)
}

func stockLevel(ctx context.Context, q querier, variantID int64, size *string) (int, error) {
	var stock int
	var err error
	if size != nil {
		err = q.QueryRowContext(ctx,
			`SELECT stock FROM variant_sizes WHERE variant_id = ? AND size = ?`,
			variantID, *size).Scan(&stock)
	} else {
		err = q.QueryRowContext(ctx,
			`SELECT current_stock FROM variants WHERE id = ?`, variantID).Scan(&stock)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.ErrVariantNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read stock for variant %d: %w", variantID, err)
	}
	return stock, nil
}

// orderExists turns a no-op marker flip into nil (already done) or
// ErrOrderNotFound.
func orderExists(ctx context.Context, q querier, orderID string) error {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = ?`, orderID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("check order %s: %w", orderID, err)
	}
	return nil
}
