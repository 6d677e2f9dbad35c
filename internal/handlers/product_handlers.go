package handlers

import (
	"net/http"
	"strconv"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//
// --- Catalog Handlers (Admin) ---
//

type SizeInput struct {
	Size  string           `json:"size" binding:"required"`
	Stock int              `json:"stock" binding:"gte=0"`
	Price *decimal.Decimal `json:"price"`
}

type VariantInput struct {
	SKU            string          `json:"sku" binding:"required"`
	Color          string          `json:"color"`
	BasePrice      decimal.Decimal `json:"base_price"`
	SalePercentage decimal.Decimal `json:"sale_percentage"`
	CurrentStock   int             `json:"current_stock" binding:"gte=0"`
	Sizes          []SizeInput     `json:"sizes" binding:"dive"`
}

// CreateProductInput defines the JSON for a product with its variants.
type CreateProductInput struct {
	Name     string         `json:"name" binding:"required"`
	Category string         `json:"category" binding:"required"`
	Variants []VariantInput `json:"variants" binding:"required,min=1,dive"`
}

// RestockInput sets an absolute stock level. Size targets one size of a
// sized variant.
type RestockInput struct {
	Stock *int    `json:"stock" binding:"required,gte=0"`
	Size  *string `json:"size"`
}

// CreateProduct is the handler for POST /v1/admin/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	product := &models.Product{Name: input.Name, Category: input.Category}
	for _, v := range input.Variants {
		if !v.BasePrice.IsPositive() {
			h.respondError(c, apperr.Validation("invalid_price", "base price of "+v.SKU+" must be positive"))
			return
		}
		if v.SalePercentage.IsNegative() || v.SalePercentage.GreaterThan(decimal.NewFromInt(100)) {
			h.respondError(c, apperr.Validation("invalid_sale", "sale percentage of "+v.SKU+" must be between 0 and 100"))
			return
		}
		variant := models.Variant{
			SKU:            v.SKU,
			Color:          v.Color,
			BasePrice:      v.BasePrice,
			SalePercentage: v.SalePercentage,
			CurrentStock:   v.CurrentStock,
		}
		for _, s := range v.Sizes {
			variant.Sizes = append(variant.Sizes, models.SizeStock{Size: s.Size, Stock: s.Stock, Price: s.Price})
		}
		product.Variants = append(product.Variants, variant)
	}

	if err := h.Store.CreateProduct(c.Request.Context(), product); err != nil {
		h.respondError(c, err)
		return
	}
	h.Log.Info("product created", "product_id", product.ID, "slug", product.Slug, "variants", len(product.Variants))
	c.JSON(http.StatusCreated, product)
}

// RestockVariant is the handler for PUT /v1/admin/variants/:id/stock
func (h *Handlers) RestockVariant(c *gin.Context) {
	variantID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || variantID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant ID", "code": "invalid_input"})
		return
	}
	var input RestockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.Store.Restock(ctx, variantID, input.Size, *input.Stock); err != nil {
		h.respondError(c, err)
		return
	}
	variant, err := h.Store.GetVariant(ctx, variantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.Log.Info("variant restocked", "variant_id", variantID, "stock", *input.Stock)
	c.JSON(http.StatusOK, variant)
}
