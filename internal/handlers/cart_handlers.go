package handlers

import (
	"net/http"
	"strconv"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Cart Handlers (Customer) ---
//

// AddToCartInput defines the JSON for adding an item to the cart.
type AddToCartInput struct {
	VariantID int64  `json:"variant_id" binding:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItemInput defines the JSON for changing a line's quantity.
// Zero removes the line.
type UpdateCartItemInput struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

// GetCart is the handler for GET /v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	cart, err := h.Carts.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddToCart is the handler for POST /v1/cart/items
func (h *Handlers) AddToCart(c *gin.Context) {
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	// Logic check: the variant (and size, for sized goods) must exist.
	variant, err := h.Store.GetVariant(c.Request.Context(), input.VariantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	switch {
	case variant.IsSized() && input.Size == "":
		h.respondError(c, apperr.Validation("size_required", "choose a size for "+variant.ProductName))
		return
	case !variant.IsSized() && input.Size != "":
		h.respondError(c, apperr.Validation("size_not_applicable", variant.ProductName+" does not come in sizes"))
		return
	case variant.IsSized():
		if _, ok := variant.FindSize(input.Size); !ok {
			h.respondError(c, apperr.ErrVariantNotFound)
			return
		}
	}

	cart, err := h.Carts.AddItem(c.Request.Context(), currentUserID(c), models.CartItem{
		VariantID: input.VariantID,
		Size:      input.Size,
		Quantity:  input.Quantity,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cart)
}

// UpdateCartItem is the handler for PUT /v1/cart/items/:variant_id?size=
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	variantID, ok := variantParam(c)
	if !ok {
		return
	}
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badInput(c, err)
		return
	}

	cart, err := h.Carts.SetQuantity(c.Request.Context(), currentUserID(c), variantID, c.Query("size"), *input.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// DeleteCartItem is the handler for DELETE /v1/cart/items/:variant_id?size=
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	variantID, ok := variantParam(c)
	if !ok {
		return
	}
	cart, err := h.Carts.RemoveItem(c.Request.Context(), currentUserID(c), variantID, c.Query("size"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func variantParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("variant_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant ID", "code": "invalid_input"})
		return 0, false
	}
	return id, true
}
