package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/auth"
	"github.com/01moynul/sportshop-golang/internal/cart"
	"github.com/01moynul/sportshop-golang/internal/database"
	"github.com/01moynul/sportshop-golang/internal/middleware"
	"github.com/01moynul/sportshop-golang/internal/settlement"
	"github.com/01moynul/sportshop-golang/internal/store"
	"github.com/gin-gonic/gin"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB     *sql.DB             // Health checks only; everything else goes through Store
	Store  *store.Store        // Catalog and coupon administration
	Carts  *cart.Store         // Server-side carts in Redis
	Settle *settlement.Service // Checkout, webhooks and the order lifecycle
	Log    *slog.Logger
}

// respondError writes err in the API's error shape. Unclassified errors are
// logged and hidden behind a generic message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal || e.Kind == apperr.KindUpstream {
		h.Log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(e.HTTPStatus(), gin.H{"error": e.Message, "code": e.Code})
}

// badInput answers a request body that failed binding.
func badInput(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error(), "code": "invalid_input"})
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(middleware.UserIDKey)
}

func currentViewer(c *gin.Context) settlement.Viewer {
	return settlement.Viewer{
		UserID: currentUserID(c),
		Admin:  c.GetString(middleware.RoleKey) == auth.RoleAdministrator,
	}
}

// Health is the handler for GET /v1/health
func (h *Handlers) Health(c *gin.Context) {
	if err := database.HealthCheck(c.Request.Context(), h.DB); err != nil {
		h.Log.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
