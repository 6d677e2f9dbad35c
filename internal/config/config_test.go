package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.PendingPaymentTTL)
	assert.Equal(t, "25", cfg.ShippingBaseFee.String())
	assert.Equal(t, "50", cfg.BackorderSurcharge.String())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("PENDING_PAYMENT_TTL", "45m")
	t.Setenv("SHIPPING_BASE_FEE", "19.90")
	t.Setenv("BACKORDER_SURCHARGE", "-3")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 45*time.Minute, cfg.PendingPaymentTTL)
	assert.Equal(t, "19.9", cfg.ShippingBaseFee.String())
	assert.Equal(t, "50", cfg.BackorderSurcharge.String(), "negative fees fall back to the default")
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoadConfig_SecretFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jwt")
	require.NoError(t, os.WriteFile(path, []byte("  file-secret\n"), 0o600))

	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JWT_SECRET_FILE", path)

	assert.Equal(t, "file-secret", LoadConfig().JWTSecret)

	gw := filepath.Join(dir, "gateway")
	require.NoError(t, os.WriteFile(gw, []byte("gateway-secret\n"), 0o600))
	t.Setenv("GATEWAY_WEBHOOK_SECRET_FILE", gw)
	t.Setenv("GATEWAY_WEBHOOK_ISSUER", "NETOPIA Payments")

	cfg := LoadConfig()
	assert.Equal(t, "gateway-secret", cfg.GatewaySecret)
	assert.Equal(t, "NETOPIA Payments", cfg.GatewayIssuer)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CURRENCY=EUR\n"), 0o600))
	t.Setenv("CURRENCY", "")
	os.Unsetenv("CURRENCY")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.Currency)
}
