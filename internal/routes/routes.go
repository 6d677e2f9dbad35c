package routes

import (
	"net/http"

	"github.com/01moynul/sportshop-golang/internal/handlers"
	"github.com/01moynul/sportshop-golang/internal/middleware"
	"github.com/01moynul/sportshop-golang/internal/payment"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options carries the router's collaborators that are not handlers.
type Options struct {
	CORSOrigin   string
	Tokens       middleware.TokenValidator
	Webhooks     middleware.WebhookVerifier
	WebhookRate  *middleware.RateLimiter
	CheckoutRate *middleware.RateLimiter
}

// CORSMiddleware tells the browser that the storefront origin may call us.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Idempotency-Key, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Preflight
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// --- APPLY THE CORS GUARD ---
	router.Use(CORSMiddleware(opts.CORSOrigin))
	router.Use(middleware.PrometheusMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	webhookLimit := passThrough()
	if opts.WebhookRate != nil {
		webhookLimit = opts.WebhookRate.Middleware()
	}
	checkoutLimit := passThrough()
	if opts.CheckoutRate != nil {
		checkoutLimit = opts.CheckoutRate.Middleware()
	}

	v1 := router.Group("/v1")
	{
		// --- Public Routes ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})
		v1.GET("/health", h.Health)

		// --- Payment Gateway (signed by the gateway, rate limited) ---
		v1.POST("/payments/webhook", webhookLimit,
			middleware.WebhookSignature(opts.Webhooks, payment.VerificationHeader), h.PaymentWebhook)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(opts.Tokens))
		{
			auth.GET("/cart", h.GetCart)
			auth.POST("/cart/items", h.AddToCart)
			auth.PUT("/cart/items/:variant_id", h.UpdateCartItem)
			auth.DELETE("/cart/items/:variant_id", h.DeleteCartItem)

			auth.POST("/checkout", checkoutLimit, h.Checkout)
			auth.GET("/orders/:id/status", h.GetOrderStatus)

			auth.POST("/coupons/validate", h.ValidateCoupon)
			auth.POST("/coupons/apply", h.ApplyCoupon)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(opts.Tokens))
		admin.Use(middleware.AdminMiddleware())
		{
			admin.POST("/products", h.CreateProduct)
			admin.PUT("/variants/:id/stock", h.RestockVariant)

			admin.POST("/coupons", h.CreateCoupon)
			admin.GET("/coupons", h.ListCoupons)
			admin.GET("/coupons/:code", h.GetCoupon)
			admin.PUT("/coupons/:code", h.UpdateCoupon)

			admin.GET("/orders", h.ListOrders)
			admin.POST("/orders/:id/confirm", h.ConfirmOrder)
		}
	}

	return router
}

func passThrough() gin.HandlerFunc {
	return func(c *gin.Context) { c.Next() }
}
