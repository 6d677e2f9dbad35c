package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/01moynul/sportshop-golang/internal/pricing"
	"github.com/shopspring/decimal"
)

const couponColumns = `code, discount_type, discount_value, min_purchase, max_discount,
	valid_from, valid_until, usage_limit, times_used, active, created_at, updated_at`

// NormalizeCode is the canonical (upper case, trimmed) form of a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Store) GetCoupon(ctx context.Context, code string) (*models.Coupon, error) {
	c, err := scanCoupon(s.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = ?`, NormalizeCode(code)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return c, nil
}

// ValidateCoupon checks the coupon against the subtotal and returns the
// discount it would grant. It never consumes the coupon.
func (s *Store) ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal, now time.Time) (*models.Coupon, decimal.Decimal, error) {
	c, err := s.GetCoupon(ctx, code)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if err := pricing.CheckCoupon(*c, subtotal, now); err != nil {
		return c, decimal.Zero, err
	}
	return c, pricing.CouponDiscount(*c, subtotal), nil
}

// ApplyUsage increments the usage counter if the limit has not been reached.
func (s *Store) ApplyUsage(ctx context.Context, code string) error {
	return applyUsage(ctx, s.db, NormalizeCode(code), s.timestamp())
}

func applyUsage(ctx context.Context, q querier, code string, now time.Time) error {
	res, err := q.ExecContext(ctx,
		`UPDATE coupons SET times_used = times_used + 1, updated_at = ? WHERE code = ? AND times_used < usage_limit`,
		now, code)
	if err != nil {
		return fmt.Errorf("apply coupon usage: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = q.QueryRowContext(ctx, `SELECT 1 FROM coupons WHERE code = ?`, code).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrCouponNotFound
	}
	if err != nil {
		return fmt.Errorf("check coupon: %w", err)
	}
	return apperr.ErrCouponLimitReached
}

// ApplyUsageForOrder consumes one use of the coupon on behalf of an order.
// The order's coupon_applied marker is flipped in the same transaction, so
// the coupon is consumed at most once per order; repeated calls report
// applied=false.
func (s *Store) ApplyUsageForOrder(ctx context.Context, orderID, code string) (applied bool, err error) {
	now := s.timestamp()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE orders SET coupon_applied = ?, updated_at = ? WHERE id = ? AND coupon_applied = ?`,
			true, now, orderID, false)
		if err != nil {
			return fmt.Errorf("mark coupon applied: %w", err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return orderExists(ctx, tx, orderID)
		}

		if err := applyUsage(ctx, tx, NormalizeCode(code), now); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// CreateCoupon inserts a new coupon. Codes are unique ignoring case.
func (s *Store) CreateCoupon(ctx context.Context, c *models.Coupon) error {
	c.Code = NormalizeCode(c.Code)
	if _, err := s.GetCoupon(ctx, c.Code); err == nil {
		return apperr.Conflict("coupon_exists", "a coupon with this code already exists")
	} else if !errors.Is(err, apperr.ErrCouponNotFound) {
		return err
	}

	now := s.timestamp()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coupons (`+couponColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Code, string(c.DiscountType), c.DiscountValue, c.MinPurchase, nullDecimal(c.MaxDiscount),
		utc(c.ValidFrom), utc(c.ValidUntil), c.UsageLimit, c.TimesUsed, c.Active, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// UpdateCoupon rewrites the editable fields of a coupon. The usage counter is
// owned by ApplyUsage and is never overwritten here.
func (s *Store) UpdateCoupon(ctx context.Context, c *models.Coupon) error {
	c.Code = NormalizeCode(c.Code)
	c.UpdatedAt = s.timestamp()
	res, err := s.db.ExecContext(ctx, `
		UPDATE coupons SET discount_type = ?, discount_value = ?, min_purchase = ?, max_discount = ?,
			valid_from = ?, valid_until = ?, usage_limit = ?, active = ?, updated_at = ?
		WHERE code = ? AND times_used <= ?`,
		string(c.DiscountType), c.DiscountValue, c.MinPurchase, nullDecimal(c.MaxDiscount),
		utc(c.ValidFrom), utc(c.ValidUntil), c.UsageLimit, c.Active, c.UpdatedAt,
		c.Code, c.UsageLimit)
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		current, err := s.GetCoupon(ctx, c.Code)
		if err != nil {
			return err
		}
		if current.TimesUsed > c.UsageLimit {
			return apperr.Validation("usage_limit_below_used",
				fmt.Sprintf("usage limit cannot be lower than the %d uses already made", current.TimesUsed))
		}
	}
	return nil
}

func (s *Store) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC, code`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []models.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	return coupons, rows.Err()
}

func scanCoupon(row scanner) (*models.Coupon, error) {
	var c models.Coupon
	var discountType string
	var maxDiscount decimal.NullDecimal

	err := row.Scan(&c.Code, &discountType, &c.DiscountValue, &c.MinPurchase, &maxDiscount,
		&c.ValidFrom, &c.ValidUntil, &c.UsageLimit, &c.TimesUsed, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.DiscountType = models.DiscountType(discountType)
	if maxDiscount.Valid {
		v := maxDiscount.Decimal
		c.MaxDiscount = &v
	}
	return &c, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
