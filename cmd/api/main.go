package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/sportshop-golang/internal/auth"
	"github.com/01moynul/sportshop-golang/internal/cart"
	"github.com/01moynul/sportshop-golang/internal/config"
	"github.com/01moynul/sportshop-golang/internal/database"
	"github.com/01moynul/sportshop-golang/internal/events"
	"github.com/01moynul/sportshop-golang/internal/handlers"
	"github.com/01moynul/sportshop-golang/internal/logger"
	"github.com/01moynul/sportshop-golang/internal/middleware"
	"github.com/01moynul/sportshop-golang/internal/payment"
	"github.com/01moynul/sportshop-golang/internal/pricing"
	"github.com/01moynul/sportshop-golang/internal/routes"
	"github.com/01moynul/sportshop-golang/internal/settlement"
	"github.com/01moynul/sportshop-golang/internal/store"
	"github.com/gin-gonic/gin"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	cfg, err := config.Load(".env")
	if err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}
	logg := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. --- Main Database Connection ---
	db, err := database.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to primary database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 2. --- Redis (carts and checkout idempotency) ---
	rdb := cart.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
	}
	carts := cart.New(rdb, cfg.CartTTL)

	// 3. --- Messaging ---
	var publisher settlement.Publisher = events.NewLogPublisher(logg)
	var broker *events.RabbitMQ
	if cfg.RabbitMQURL != "" {
		broker, err = events.Dial(events.Settings{
			URL:             cfg.RabbitMQURL,
			OrderExchange:   cfg.OrderExchange,
			OrderQueue:      cfg.OrderQueue,
			DeadLetterQueue: cfg.DeadLetterQueue,
			DelayExchange:   cfg.DelayExchange,
			MaxPriority:     cfg.MaxPriority,
		}, logg)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer broker.Close()
		if err := broker.SetupQueues(); err != nil {
			log.Fatalf("Failed to declare RabbitMQ queues: %v", err)
		}
		publisher = broker
	} else {
		logg.Warn("RABBITMQ_URL not set, order events are only logged")
	}

	if cfg.GatewaySecret == "" {
		log.Fatalf("GATEWAY_WEBHOOK_SECRET is required to verify payment notifications")
	}

	// 4. --- Settlement Service ---
	st := store.New(db)
	gateway := payment.NewGatewayClient(payment.GatewayConfig{
		BaseURL:     cfg.GatewayBaseURL,
		APIKey:      cfg.GatewayAPIKey,
		NotifyURL:   cfg.GatewayNotifyURL,
		RedirectURL: cfg.GatewayRedirectURL,
		Currency:    cfg.Currency,
	})
	svc := settlement.New(settlement.Deps{
		Orders:  st,
		Stock:   st,
		Coupons: st,
		Catalog: st,
		Gateway: gateway,
		Events:  publisher,
		Carts:   carts,
	}, settlement.Options{
		Fees: pricing.Fees{
			ShippingBase:       cfg.ShippingBaseFee,
			BackorderSurcharge: cfg.BackorderSurcharge,
		},
		PendingTTL: cfg.PendingPaymentTTL,
	}, logg)

	// 5. --- Background Workers ---
	go svc.RunSweeper(ctx, cfg.SweepInterval)
	if broker != nil && broker.PaymentChecksEnabled() {
		go func() {
			if err := broker.ConsumePaymentChecks(ctx, svc.HandlePaymentCheck); err != nil {
				logg.Error("payment check consumer stopped, relying on the sweeper", "error", err)
			}
		}()
	}

	// --- Router Setup ---
	app := &handlers.Handlers{
		DB:     db,
		Store:  st,
		Carts:  carts,
		Settle: svc,
		Log:    logg.With("component", "http"),
	}
	router := routes.SetupRouter(app, routes.Options{
		CORSOrigin:   cfg.CORSOrigin,
		Tokens:       auth.NewIssuer(cfg.JWTSecret, 72*time.Hour),
		Webhooks:     payment.NewWebhookVerifier(cfg.GatewaySecret, cfg.GatewayIssuer),
		WebhookRate:  middleware.NewRateLimiter(cfg.WebhookRPS, cfg.WebhookBurst),
		CheckoutRate: middleware.NewRateLimiter(cfg.CheckoutRPS, cfg.CheckoutBurst),
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logg.Info("starting sportshop API server", "port", cfg.Port, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
