package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port       string
	CORSOrigin string
	LogLevel   string
	LogFormat  string

	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CartTTL       time.Duration

	RabbitMQURL     string
	OrderExchange   string
	OrderQueue      string
	DeadLetterQueue string
	DelayExchange   string
	MaxPriority     int

	JWTSecret string

	GatewayBaseURL     string
	GatewayAPIKey      string
	GatewayNotifyURL   string
	GatewayRedirectURL string
	GatewaySecret      string
	GatewayIssuer      string
	Currency           string

	ShippingBaseFee    decimal.Decimal
	BackorderSurcharge decimal.Decimal
	PendingPaymentTTL  time.Duration
	SweepInterval      time.Duration

	WebhookRPS    int
	WebhookBurst  int
	CheckoutRPS   int
	CheckoutBurst int
}

// Load reads the optional .env file and then the environment. A missing
// .env file is reported but not fatal.
func Load(envFile string) (*Config, error) {
	err := godotenv.Load(envFile)
	return LoadConfig(), err
}

func LoadConfig() *Config {
	return &Config{
		Port:       getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),

		DBDriver: getEnv("DB_DRIVER", "mysql"),
		DBDSN:    getEnvFromFile("DB_DSN_PRIMARY_FILE", "DB_DSN_PRIMARY", "root:root@tcp(127.0.0.1:3306)/sportshop?parseTime=true"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvFromFile("REDIS_PASSWORD_FILE", "REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CartTTL:       getEnvDuration("CART_TTL", 7*24*time.Hour),

		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		OrderExchange:   getEnv("ORDER_EXCHANGE", "orders_exchange"),
		OrderQueue:      getEnv("ORDER_QUEUE", "orders_queue"),
		DeadLetterQueue: getEnv("DEAD_LETTER_QUEUE", "dead_letter_queue"),
		DelayExchange:   getEnv("DELAY_EXCHANGE", "delay_exchange"),
		MaxPriority:     10,

		JWTSecret: getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", "A_VERY_SECURE_SECRET_KEY_REPLACE_LATER"),

		GatewayBaseURL:     getEnv("GATEWAY_BASE_URL", "https://secure.sandbox.netopia-payments.com"),
		GatewayAPIKey:      getEnvFromFile("GATEWAY_API_KEY_FILE", "GATEWAY_API_KEY", ""),
		GatewayNotifyURL:   getEnv("GATEWAY_NOTIFY_URL", "http://localhost:8080/v1/payments/webhook"),
		GatewayRedirectURL: getEnv("GATEWAY_REDIRECT_URL", "http://localhost:5173/order-confirmation"),
		GatewaySecret:      getEnvFromFile("GATEWAY_WEBHOOK_SECRET_FILE", "GATEWAY_WEBHOOK_SECRET", ""),
		GatewayIssuer:      getEnv("GATEWAY_WEBHOOK_ISSUER", ""),
		Currency:           getEnv("CURRENCY", "RON"),

		ShippingBaseFee:    getEnvDecimal("SHIPPING_BASE_FEE", "25.00"),
		BackorderSurcharge: getEnvDecimal("BACKORDER_SURCHARGE", "50.00"),
		PendingPaymentTTL:  getEnvDuration("PENDING_PAYMENT_TTL", 30*time.Minute),
		SweepInterval:      getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),

		WebhookRPS:    getEnvInt("WEBHOOK_RPS", 20),
		WebhookBurst:  getEnvInt("WEBHOOK_BURST", 40),
		CheckoutRPS:   getEnvInt("CHECKOUT_RPS", 5),
		CheckoutBurst: getEnvInt("CHECKOUT_BURST", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFromFile prefers a secret mounted as a file over the plain variable.
func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if v, err := decimal.NewFromString(os.Getenv(key)); err == nil && !v.IsNegative() {
		return v
	}
	return decimal.RequireFromString(defaultValue)
}
