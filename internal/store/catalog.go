package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// CreateProduct inserts a product with its variants and sizes. The slug is
// derived from the name and made unique with a numeric suffix.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	now := s.timestamp()
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	p.CreatedAt, p.UpdatedAt = now, now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		// 1. --- Generate a unique slug ---
		base := slug.Make(p.Name)
		p.Slug = base
		for i := 2; ; i++ {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE slug = ?`, p.Slug).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				break
			}
			if err != nil {
				return fmt.Errorf("check slug: %w", err)
			}
			p.Slug = fmt.Sprintf("%s-%d", base, i)
		}

		// 2. --- Insert the product ---
		res, err := tx.ExecContext(ctx,
			`INSERT INTO products (name, slug, category, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			p.Name, p.Slug, p.Category, now, now)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("product id: %w", err)
		}

		// 3. --- Insert variants and their sizes ---
		for i := range p.Variants {
			v := &p.Variants[i]
			v.ProductID = p.ID
			v.CreatedAt, v.UpdatedAt = now, now
			v.ProductName, v.Category = p.Name, p.Category

			res, err := tx.ExecContext(ctx, `
				INSERT INTO variants (product_id, sku, color, base_price, sale_percentage, current_stock, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, v.SKU, v.Color, v.BasePrice, v.SalePercentage, v.CurrentStock, now, now)
			if err != nil {
				return fmt.Errorf("insert variant %s: %w", v.SKU, err)
			}
			if v.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("variant id: %w", err)
			}

			for j := range v.Sizes {
				sz := &v.Sizes[j]
				sz.VariantID = v.ID
				_, err := tx.ExecContext(ctx,
					`INSERT INTO variant_sizes (variant_id, size, stock, price) VALUES (?, ?, ?, ?)`,
					v.ID, sz.Size, sz.Stock, nullDecimal(sz.Price))
				if err != nil {
					return fmt.Errorf("insert size %s of %s: %w", sz.Size, v.SKU, err)
				}
			}
		}
		return nil
	})
}

// GetVariant loads a variant with its sizes and the parent product's name
// and category.
func (s *Store) GetVariant(ctx context.Context, id int64) (*models.Variant, error) {
	var v models.Variant
	err := s.db.QueryRowContext(ctx, `
		SELECT v.id, v.product_id, v.sku, v.color, v.base_price, v.sale_percentage, v.current_stock,
			v.created_at, v.updated_at, p.name, p.category
		FROM variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = ?`, id).Scan(
		&v.ID, &v.ProductID, &v.SKU, &v.Color, &v.BasePrice, &v.SalePercentage, &v.CurrentStock,
		&v.CreatedAt, &v.UpdatedAt, &v.ProductName, &v.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get variant %d: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT variant_id, size, stock, price FROM variant_sizes WHERE variant_id = ? ORDER BY size`, id)
	if err != nil {
		return nil, fmt.Errorf("query variant sizes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sz models.SizeStock
		var price decimal.NullDecimal
		if err := rows.Scan(&sz.VariantID, &sz.Size, &sz.Stock, &price); err != nil {
			return nil, fmt.Errorf("scan variant size: %w", err)
		}
		if price.Valid {
			p := price.Decimal
			sz.Price = &p
		}
		v.Sizes = append(v.Sizes, sz)
	}
	return &v, rows.Err()
}
